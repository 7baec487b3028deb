package session

import "slices"

// Identity is the authenticated user as last reported by the backend.
// A nil *Identity means no session is established.
type Identity struct {
	Subject          string   `json:"subject"`                    // Backend user identifier (email in the finance API)
	FirstName        string   `json:"firstName,omitempty"`        // Display name fields
	LastName         string   `json:"lastName,omitempty"`         //
	Email            string   `json:"email,omitempty"`            //
	Roles            []string `json:"roles,omitempty"`            // e.g. ROLE_USER
	AntiForgeryToken string   `json:"antiForgeryToken,omitempty"` // Echoed on state-mutating requests
}

func (i *Identity) clone() *Identity {
	if i == nil {
		return nil
	}
	c := *i
	c.Roles = slices.Clone(i.Roles)
	return &c
}

// DisplayName joins the name fields, falling back to the subject.
func (i *Identity) DisplayName() string {
	if i == nil {
		return ""
	}
	switch {
	case i.FirstName != "" && i.LastName != "":
		return i.FirstName + " " + i.LastName
	case i.FirstName != "":
		return i.FirstName
	case i.LastName != "":
		return i.LastName
	}
	return i.Subject
}

// Status is the coarse session condition a UI routes on.
type Status int

const (
	// StatusUnknown means no attempt to establish the session has completed yet.
	// It must not be read as "logged out".
	StatusUnknown Status = iota
	StatusAnonymous
	StatusAuthenticated
	// StatusReauthRequired means the session was invalidated server-side.
	StatusReauthRequired
	// StatusUnavailable means the backend could not say whether a session
	// exists because refreshing it failed. It is not "logged out" either.
	StatusUnavailable
)

func (s Status) String() string {
	switch s {
	case StatusAnonymous:
		return "anonymous"
	case StatusAuthenticated:
		return "authenticated"
	case StatusReauthRequired:
		return "reauth_required"
	case StatusUnavailable:
		return "unavailable"
	}
	return "unknown"
}

// State is an immutable snapshot of the session.
type State struct {
	Identity              *Identity
	Initialized           bool
	ForceReauthentication bool
	// RefreshErr is set when the last refresh failed for infrastructure reasons.
	// Credentials are preserved in that case.
	RefreshErr error
}

// Subject returns the subject identifier, or "" when no session is established.
func (s State) Subject() string {
	if s.Identity == nil {
		return ""
	}
	return s.Identity.Subject
}

// Roles never returns nil.
func (s State) Roles() []string {
	if s.Identity == nil || len(s.Identity.Roles) == 0 {
		return []string{}
	}
	return slices.Clone(s.Identity.Roles)
}

func (s State) HasRole(role string) bool {
	return s.Identity != nil && slices.Contains(s.Identity.Roles, role)
}

// AntiForgeryToken returns "" when no session is established.
func (s State) AntiForgeryToken() string {
	if s.Identity == nil {
		return ""
	}
	return s.Identity.AntiForgeryToken
}

func (s State) Authenticated() bool {
	return s.Initialized && s.Identity != nil
}

func (s State) Status() Status {
	switch {
	case s.ForceReauthentication:
		return StatusReauthRequired
	case !s.Initialized:
		return StatusUnknown
	case s.Identity != nil:
		return StatusAuthenticated
	case s.RefreshErr != nil:
		return StatusUnavailable
	}
	return StatusAnonymous
}
