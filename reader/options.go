package reader

import (
	messagevault "github.com/perokvist/messageVault"
	"github.com/perokvist/messageVault/clock"
)

type options struct {
	logger  *messagevault.Logger
	metrics messagevault.MetricsCollector
	clock   clock.Clock
}

// Option configures a Reader or Subscription.
type Option func(*options)

// WithLogger overrides the logger. Defaults to a no-op logger.
func WithLogger(l *messagevault.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMetrics overrides the metrics collector. Defaults to a no-op collector.
func WithMetrics(m messagevault.MetricsCollector) Option {
	return func(o *options) {
		if m != nil {
			o.metrics = m
		}
	}
}

// WithClock overrides the clock used for polling/backoff sleeps, for tests.
func WithClock(c clock.Clock) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}

func defaultOptions() options {
	return options{
		logger:  messagevault.NoopLogger(),
		metrics: messagevault.NoopMetricsCollector{},
		clock:   clock.New(),
	}
}
