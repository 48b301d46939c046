package command

import "github.com/dshills/svcconsole/internal/logging"

// Config configures a Dispatcher.
type Config struct {
	// RecoverFromPanic converts a handler panic into DiagFailed instead of
	// crashing the poll loop.
	RecoverFromPanic bool

	// Metrics, when non-nil, receives dispatch statistics.
	Metrics *Metrics

	Logger *logging.Logger
}

// DefaultConfig returns the default dispatcher configuration.
func DefaultConfig() Config {
	return Config{RecoverFromPanic: true}
}

// WithPanicRecovery returns a copy of the config with panic recovery set.
func (c Config) WithPanicRecovery(recover bool) Config {
	c.RecoverFromPanic = recover
	return c
}

// WithMetrics returns a copy of the config recording into m.
func (c Config) WithMetrics(m *Metrics) Config {
	c.Metrics = m
	return c
}

// WithLogger returns a copy of the config logging to l.
func (c Config) WithLogger(l *logging.Logger) Config {
	c.Logger = l
	return c
}
