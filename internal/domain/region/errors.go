package region

import "errors"

// Sentinel error kinds for this package.
var (
	ErrInvalidSignal = errors.New("invalid region signal")
	ErrUnknownRegion = errors.New("unknown region")
)
