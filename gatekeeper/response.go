package gatekeeper

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// Outcome records which branch of the refresh protocol produced a Response.
type Outcome int

const (
	// OutcomePassThrough: the first response was not an authorization failure.
	OutcomePassThrough Outcome = iota
	// OutcomeBypassed: the request skipped re-authentication.
	OutcomeBypassed
	// OutcomeReplayed: refresh succeeded and this is the replayed response.
	OutcomeReplayed
	// OutcomeSessionCleared: the refresh credential was rejected; the session
	// has been invalidated and the user must sign in again.
	OutcomeSessionCleared
	// OutcomeRefreshError: refresh failed for infrastructure reasons; the
	// session was preserved.
	OutcomeRefreshError
)

func (o Outcome) String() string {
	switch o {
	case OutcomePassThrough:
		return "pass_through"
	case OutcomeBypassed:
		return "bypassed"
	case OutcomeReplayed:
		return "replayed"
	case OutcomeSessionCleared:
		return "session_cleared"
	case OutcomeRefreshError:
		return "refresh_error"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// Response is the backend's answer, unmodified, plus how it was obtained.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	Outcome    Outcome
	// RefreshErr is set only with OutcomeRefreshError.
	RefreshErr error
}

func (r *Response) OK() bool {
	return r != nil && r.StatusCode >= 200 && r.StatusCode < 300
}

// Decode unmarshals the JSON body into v.
func (r *Response) Decode(v any) error {
	if r == nil || len(r.Body) == 0 {
		return ErrEmptyBody
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}

// ReauthRequired reports whether the caller must stop treating the user as
// logged in.
func (r *Response) ReauthRequired() bool {
	return r != nil && r.Outcome == OutcomeSessionCleared
}
