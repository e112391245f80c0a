package presence

import "github.com/okian/labsync/pkg/logger"

// Option applies a configuration option to the Publisher.
type Option func(*Publisher)

// WithAutoCheckin checks in when the check-in-event region is entered.
func WithAutoCheckin(enabled bool) Option {
	return func(p *Publisher) {
		p.autoCheckin = enabled
	}
}

// WithBuffer sets how many pending updates are kept before new ones are dropped.
func WithBuffer(n int) Option {
	return func(p *Publisher) {
		if n > 0 {
			p.buffer = n
		}
	}
}

// WithLogger sets a custom logger for the publisher.
func WithLogger(l logger.Logger) Option {
	return func(p *Publisher) {
		if l != nil {
			p.logger = l
		}
	}
}
