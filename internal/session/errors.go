package session

import "errors"

// Sentinel error kinds for this package.
var (
	ErrInvalidServerURL = errors.New("invalid server url")
	ErrNoCredentials    = errors.New("member requires a token or api key")
)
