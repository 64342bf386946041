package storage

import (
	"time"

	"ledgerbot/internal/log"
)

// Option configures a repository.
type Option func(*options)

type options struct {
	now    func() time.Time
	logger *log.Logger
}

// WithClock replaces time.Now for recorded_at, for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithLogger sets the repository logger.
func WithLogger(logger *log.Logger) Option {
	return func(o *options) { o.logger = logger }
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now, logger: log.Discard()}
	for _, opt := range opts {
		opt(&o)
	}
	o.logger = o.logger.WithComponent(log.ComponentStorage)
	return o
}
