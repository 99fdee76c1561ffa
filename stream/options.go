package stream

import (
	"log/slog"
	"time"
)

const (
	defaultIdleDelay  = 10 * time.Millisecond
	defaultRetryDelay = 100 * time.Millisecond
	defaultPullSize   = 1024
)

type config struct {
	logger     *slog.Logger
	idleDelay  time.Duration
	retryDelay time.Duration
	pullSize   int
}

func defaultConfig() config {
	return config{
		logger:     slog.Default(),
		idleDelay:  defaultIdleDelay,
		retryDelay: defaultRetryDelay,
		pullSize:   defaultPullSize,
	}
}

// Option configures a WindowStream.
type Option func(*config)

// WithLogger sets the logger used for retry and shutdown messages.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithIdleDelay sets how long the stream waits after an empty chunk before
// pulling again. Zero retries immediately.
func WithIdleDelay(d time.Duration) Option {
	return func(c *config) {
		if d >= 0 {
			c.idleDelay = d
		}
	}
}

// WithRetryDelay sets the pause after a transient source error.
func WithRetryDelay(d time.Duration) Option {
	return func(c *config) {
		if d >= 0 {
			c.retryDelay = d
		}
	}
}

// WithPullSize sets the maximum samples per channel requested from a
// Source on each pull (Open only). Values <= 0 drain everything available.
func WithPullSize(n int) Option {
	return func(c *config) {
		c.pullSize = n
	}
}

func applyOptions(opts []Option) config {
	cfg := defaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}
