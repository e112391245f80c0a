package storage

import "errors"

// Sentinel error kinds for this package.
var (
	ErrUnknownDriver = errors.New("unknown storage driver")
	ErrClosed        = errors.New("storage closed")
	ErrEmptyKey      = errors.New("empty storage key")
)
