package client

import "time"

// Option represents client option
type Option func(c *Client)

// WithTimeout sets the per call response timeout
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithStartupTimeout sets the initialize response timeout
func WithStartupTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.startupTimeout = timeout
		}
	}
}

func WithProtocolVersion(version string) Option {
	return func(c *Client) {
		if version != "" {
			c.protocolVersion = version
		}
	}
}
