package client

import "time"

// Config defines transport reliability settings for one session.
type Config struct {
	// DialTimeout bounds the initial connect. Note that a ZeroMQ connect
	// succeeds even with no server listening; failures otherwise surface
	// only on send/receive.
	DialTimeout time.Duration
	// DialRetry is the delay between reconnect attempts.
	DialRetry time.Duration
	// DialMaxRetries caps reconnect attempts; -1 retries forever.
	DialMaxRetries int
	// RequestTimeout bounds each send/receive. Zero blocks indefinitely,
	// matching the reference client.
	RequestTimeout time.Duration
}

// DefaultConfig returns the session defaults.
func DefaultConfig() Config {
	return Config{
		DialTimeout:    5 * time.Second,
		DialRetry:      250 * time.Millisecond,
		DialMaxRetries: 10,
		RequestTimeout: 0,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.DialTimeout == 0 {
		c.DialTimeout = def.DialTimeout
	}
	if c.DialRetry == 0 {
		c.DialRetry = def.DialRetry
	}
	if c.DialMaxRetries == 0 {
		c.DialMaxRetries = def.DialMaxRetries
	}
	return c
}
