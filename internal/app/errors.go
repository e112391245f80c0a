package service

import "errors"

var (
	ErrNotStarted   = errors.New("service not started")
	ErrUnknownTopic = errors.New("unknown topic")
)
