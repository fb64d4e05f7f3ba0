package messagevault

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
type MetricsCollector interface {
	// RecordAppend is called after each Writer.Append call.
	// count is the number of messages appended, duration is the total time
	// taken, err is nil if successful.
	RecordAppend(count int, duration time.Duration, err error)

	// RecordFlush is called after each buffer flush to Page Storage.
	RecordFlush(pagesWritten int, duration time.Duration, err error)

	// RecordRead is called after each Reader.Read call, including the Read
	// that ReadAsync delegates to; a ReadAsync that returns before
	// delegating records nothing.
	RecordRead(count int, duration time.Duration, err error)

	// RecordSubscriptionTick is called once per subscription loop iteration.
	RecordSubscriptionTick(delivered int, backoff bool)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordAppend(int, time.Duration, error)       {}
func (NoopMetricsCollector) RecordFlush(int, time.Duration, error)        {}
func (NoopMetricsCollector) RecordRead(int, time.Duration, error)        {}
func (NoopMetricsCollector) RecordSubscriptionTick(int, bool)            {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	AppendCount      atomic.Int64
	AppendErrors     atomic.Int64
	AppendTotalNanos atomic.Int64
	MessagesAppended atomic.Int64

	FlushCount      atomic.Int64
	FlushErrors     atomic.Int64
	PagesWritten    atomic.Int64
	FlushTotalNanos atomic.Int64

	ReadCount      atomic.Int64
	ReadErrors     atomic.Int64
	ReadTotalNanos atomic.Int64

	SubscriptionTicks     atomic.Int64
	SubscriptionDelivered atomic.Int64
	SubscriptionBackoffs  atomic.Int64
}

func (b *BasicMetricsCollector) RecordAppend(count int, duration time.Duration, err error) {
	b.AppendCount.Add(1)
	b.MessagesAppended.Add(int64(count))
	b.AppendTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.AppendErrors.Add(1)
	}
}

func (b *BasicMetricsCollector) RecordFlush(pagesWritten int, duration time.Duration, err error) {
	b.FlushCount.Add(1)
	b.PagesWritten.Add(int64(pagesWritten))
	b.FlushTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.FlushErrors.Add(1)
	}
}

func (b *BasicMetricsCollector) RecordRead(count int, duration time.Duration, err error) {
	b.ReadCount.Add(1)
	b.ReadTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.ReadErrors.Add(1)
	}
}

func (b *BasicMetricsCollector) RecordSubscriptionTick(delivered int, backoff bool) {
	b.SubscriptionTicks.Add(1)
	b.SubscriptionDelivered.Add(int64(delivered))
	if backoff {
		b.SubscriptionBackoffs.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		AppendCount:           b.AppendCount.Load(),
		AppendErrors:          b.AppendErrors.Load(),
		MessagesAppended:      b.MessagesAppended.Load(),
		FlushCount:            b.FlushCount.Load(),
		FlushErrors:           b.FlushErrors.Load(),
		PagesWritten:          b.PagesWritten.Load(),
		ReadCount:             b.ReadCount.Load(),
		ReadErrors:            b.ReadErrors.Load(),
		SubscriptionTicks:     b.SubscriptionTicks.Load(),
		SubscriptionDelivered: b.SubscriptionDelivered.Load(),
		SubscriptionBackoffs:  b.SubscriptionBackoffs.Load(),
	}
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	AppendCount           int64
	AppendErrors          int64
	MessagesAppended      int64
	FlushCount            int64
	FlushErrors           int64
	PagesWritten          int64
	ReadCount             int64
	ReadErrors            int64
	SubscriptionTicks     int64
	SubscriptionDelivered int64
	SubscriptionBackoffs  int64
}
