package ingestion

import (
	"sync"
	"sync/atomic"
	"time"
)

// IngestMetrics tracks ingestion performance
type IngestMetrics struct {
	MessagesReceived      int64
	MessagesProcessed     int64
	MessagesFailed        int64
	MessagesDropped       int64
	LastProcessedAt       time.Time
	AverageProcessingTime time.Duration
	BufferSize            int
}

// MetricsTracker provides a goroutine-safe wrapper around IngestMetrics.
type MetricsTracker struct {
	mu        sync.RWMutex
	metrics   IngestMetrics
	listeners []func(IngestMetrics)
}

func NewMetricsTracker() *MetricsTracker {
	return &MetricsTracker{}
}

// Update applies fn under the lock and notifies listeners with the result.
func (t *MetricsTracker) Update(fn func(*IngestMetrics)) {
	if fn == nil {
		return
	}

	t.mu.Lock()
	fn(&t.metrics)
	snapshot := t.metrics
	listeners := append([]func(IngestMetrics){}, t.listeners...)
	t.mu.Unlock()

	for _, listener := range listeners {
		listener(snapshot)
	}
}

// RecordProcessed counts a handled message and folds its duration into the
// running average.
func (t *MetricsTracker) RecordProcessed(took time.Duration, at time.Time) {
	t.Update(func(m *IngestMetrics) {
		m.MessagesProcessed++
		m.LastProcessedAt = at
		n := time.Duration(m.MessagesProcessed)
		m.AverageProcessingTime += (took - m.AverageProcessingTime) / n
	})
}

// Snapshot returns a copy of the current metrics.
func (t *MetricsTracker) Snapshot() IngestMetrics {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.metrics
}

// OnChange registers a callback invoked whenever metrics are updated.
func (t *MetricsTracker) OnChange(listener func(IngestMetrics)) {
	if listener == nil {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.listeners = append(t.listeners, listener)
}

// DropAlert returns an OnChange listener that calls fn with the running
// dropped total each time it grows.
func DropAlert(fn func(dropped int64)) func(IngestMetrics) {
	var last atomic.Int64
	return func(m IngestMetrics) {
		for {
			seen := last.Load()
			if m.MessagesDropped <= seen {
				return
			}
			if last.CompareAndSwap(seen, m.MessagesDropped) {
				fn(m.MessagesDropped)
				return
			}
		}
	}
}
