package session

import "errors"

var (
	// ErrNoProfileEndpoints indicates no profile endpoints are configured
	ErrNoProfileEndpoints = errors.New("session.no_profile_endpoints")
)
