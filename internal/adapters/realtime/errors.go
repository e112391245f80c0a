package realtime

import "errors"

// Sentinel kinds for realtime errors.
var (
	ErrRestartUnsupported = errors.New("handle does not support restart")
	ErrHandleStopped      = errors.New("handle stopped")
	ErrManagerClosed      = errors.New("realtime manager closed")
	ErrMalformedFrame     = errors.New("malformed frame")
)
