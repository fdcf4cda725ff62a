package domain

import "errors"

var (
	// ErrSubmissionInFlight is returned when a second analysis submission is
	// attempted while one is still pending. At most one submission is
	// outstanding per controller instance.
	ErrSubmissionInFlight = errors.New("analysis submission already in flight")

	// ErrNotAuthenticated is returned by operations that require a session token.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrNoToken is returned by the credential store when no token is persisted.
	ErrNoToken = errors.New("no stored token")
)
