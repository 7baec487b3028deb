package finance

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jrsteele09/go-fintrack-client/gatekeeper"
)

var ErrMissingWallet = errors.New("wallet id is required")

// APIError is a non-2xx answer from the backend, after the gatekeeper has run
// its refresh protocol.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Body       []byte
	Outcome    gatekeeper.Outcome
	RefreshErr error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s %s: status %d (%s)", e.Method, e.Path, e.StatusCode, e.Outcome)
}

func (e *APIError) Unwrap() error {
	return e.RefreshErr
}

// FieldErrors returns the per-field validation messages of a
// {"errors":{"field":"message"}} body, or nil.
func (e *APIError) FieldErrors() map[string]string {
	var body struct {
		Errors map[string]string `json:"errors"`
	}
	if err := json.Unmarshal(e.Body, &body); err != nil {
		return nil
	}
	return body.Errors
}

// IsReauthRequired reports whether err means the session was cleared and the
// user has to sign in again.
func IsReauthRequired(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Outcome == gatekeeper.OutcomeSessionCleared
}

// IsRefreshFailure reports whether err means the session could not be
// refreshed for infrastructure reasons. The session is still in place.
func IsRefreshFailure(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Outcome == gatekeeper.OutcomeRefreshError
}
