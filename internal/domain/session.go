package domain

import (
	"time"

	"github.com/google/uuid"
)

// Status describes the client's belief about whether a user is authenticated.
type Status string

const (
	// StatusRestoring is the initial state while a stored token is being validated.
	StatusRestoring Status = "restoring"
	// StatusAuthenticated means the session holds a token the server accepted
	// (or, after a degraded restore, a token the server has not rejected).
	StatusAuthenticated Status = "authenticated"
	// StatusAnonymous means the session holds no token.
	StatusAnonymous Status = "anonymous"
)

// UserProfile is the server-owned identity record. Read-only from the client's
// perspective.
type UserProfile struct {
	ID    uuid.UUID `json:"user_id"`
	Email string    `json:"email"`
	Name  string    `json:"name"`
}

// Session is an immutable snapshot of the session manager's state.
//
// User is non-nil only when Status is StatusAuthenticated, with one deliberate
// exception: after a degraded restore (token present, profile fetch failed with
// a non-auth error) the session stays Authenticated with a nil User. Each
// request remains independently authorized by the token.
type Session struct {
	Token           string
	User            *UserProfile
	Status          Status
	AuthenticatedAt time.Time
}

// Authenticated reports whether the session currently holds a token.
func (s Session) Authenticated() bool {
	return s.Status == StatusAuthenticated && s.Token != ""
}
