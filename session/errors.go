package session

import "errors"

var (
	ErrEmptySubject = errors.New("identity has no subject")
	ErrNilIdentity  = errors.New("identity is nil")
)
