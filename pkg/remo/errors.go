package remo

import "errors"

var (
	// ErrNetwork indicates the API could not be reached or answered with an
	// unexpected status.
	ErrNetwork = errors.New("remo: network error")

	// ErrAuth indicates the access token was rejected.
	ErrAuth = errors.New("remo: invalid access token")
)
