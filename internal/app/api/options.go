package api

import "github.com/okian/labsync/pkg/logger"

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithLogger sets a custom logger for the client.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}
