package tone

import (
	"log/slog"
	"time"
)

// DefaultInterval is the voice polling interval. It is much shorter than
// the sensor update cadence so loudness changes are picked up promptly.
const DefaultInterval = 5 * time.Millisecond

// Observation describes one voice loop iteration.
type Observation struct {
	Power   float64
	Max     float64
	Ratio   float64
	Control uint8
	Pushed  bool
}

type config struct {
	interval time.Duration
	rng      ControlRange
	logger   *slog.Logger
	observer func(Observation)
}

// Option configures a Voice.
type Option func(*config)

// WithInterval sets the polling interval.
func WithInterval(d time.Duration) Option {
	return func(c *config) {
		c.interval = d
	}
}

// WithControlRange sets the range normalized ratios map into.
func WithControlRange(r ControlRange) Option {
	return func(c *config) {
		c.rng = r
	}
}

// WithLogger sets the voice logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithObserver registers fn to be called from the voice goroutine after
// every iteration that produced a value.
func WithObserver(fn func(Observation)) Option {
	return func(c *config) {
		c.observer = fn
	}
}
