package client

import "errors"

// Transport-level failures seen by the station. Both switch scanning to the
// local roster.
var (
	ErrUnavailable  = errors.New("server unavailable")
	ErrUnauthorized = errors.New("unauthorized")
)
