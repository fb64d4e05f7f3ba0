package writer

import (
	"golang.org/x/time/rate"

	messagevault "github.com/perokvist/messageVault"
	"github.com/perokvist/messageVault/clock"
)

type options struct {
	logger    *messagevault.Logger
	metrics   messagevault.MetricsCollector
	clock     clock.Clock
	ioLimiter *rate.Limiter
}

// Option configures a Writer. Mirrors the teacher's functional-options
// pattern (vecgo.Option).
type Option func(*options)

// WithLogger overrides the Writer's logger. Defaults to a no-op logger.
func WithLogger(l *messagevault.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMetrics overrides the Writer's metrics collector. Defaults to a
// no-op collector.
func WithMetrics(m messagevault.MetricsCollector) Option {
	return func(o *options) {
		if m != nil {
			o.metrics = m
		}
	}
}

// WithClock overrides the Writer's clock, primarily for deterministic
// message-id tests.
func WithClock(c clock.Clock) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}

// WithIOLimiter throttles page-write throughput to limiter's rate,
// grounded on the teacher's resource.Controller.AcquireIO. Unset means
// unlimited.
func WithIOLimiter(limiter *rate.Limiter) Option {
	return func(o *options) {
		o.ioLimiter = limiter
	}
}

func defaultOptions() options {
	return options{
		logger:  messagevault.NoopLogger(),
		metrics: messagevault.NoopMetricsCollector{},
		clock:   clock.New(),
	}
}
