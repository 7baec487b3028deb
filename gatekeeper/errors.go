package gatekeeper

import "errors"

var (
	ErrNilRequest          = errors.New("nil request")
	ErrMissingMethod       = errors.New("request method is required")
	ErrMalformedResponse   = errors.New("malformed response")
	ErrEmptyBody           = errors.New("response body is empty")
	ErrResponseTooLarge    = errors.New("response body too large")
	ErrIdentityUnverified  = errors.New("id token verification failed")
	ErrRefreshUnavailable  = errors.New("session refresh unavailable")
	ErrInvalidBackendURL   = errors.New("invalid backend url")
	ErrMissingSessionStore = errors.New("session store is required")
)
