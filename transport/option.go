package transport

// Option represents channel option
type Option func(c *Channel)

// WithListener registers a listener notified of every line sent or received.
func WithListener(listener Listener) Option {
	return func(c *Channel) {
		c.listener = listener
	}
}
