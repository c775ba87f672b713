package poll

import "time"

// Config carries the client-mode timing and behavior knobs read from the
// configuration document.
type Config struct {
	IntervalMs          int
	DelayAfterConnectMs int
	TimeoutMs           int
	EnableScript        bool

	// ReconnectBackoff bounds the delay between failed connect attempts.
	// Defaults to 5s when zero.
	ReconnectBackoff time.Duration
}

func (c Config) interval() time.Duration {
	return time.Duration(c.IntervalMs) * time.Millisecond
}

func (c Config) postConnectDelay() time.Duration {
	return time.Duration(c.DelayAfterConnectMs) * time.Millisecond
}

func (c Config) timeout() time.Duration {
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

func (c Config) backoff() time.Duration {
	if c.ReconnectBackoff <= 0 {
		return 5 * time.Second
	}
	return c.ReconnectBackoff
}
