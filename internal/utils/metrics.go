// internal/utils/metrics.go
package utils

import (
	"sync"
	"sync/atomic"
	"time"
)

// Metric names used by the chat engine.
const (
	MetricMessagesSent      = "chat.messages_sent"
	MetricAIResponses       = "chat.ai_responses"
	MetricSimulatedReplies  = "chat.simulated_replies"
	MetricAIFallbacks       = "chat.ai_fallbacks"
	MetricCreditsConsumed   = "account.credits_consumed"
	MetricActiveSessions    = "chat.active_sessions"
	MetricAIRequestDuration = "chat.ai_request_ms"
)

// MetricsCollector collects application metrics
type MetricsCollector struct {
	counters   map[string]*Counter
	gauges     map[string]*Gauge
	histograms map[string]*Histogram

	mu sync.RWMutex
}

// Counter metric, updated with atomic operations
type Counter struct {
	name  string
	value int64
}

// Gauge metric, updated with atomic operations
type Gauge struct {
	name  string
	value int64
}

// Histogram metric tracking count, sum, min and max
type Histogram struct {
	name  string
	count int64
	sum   int64
	min   int64
	max   int64
	mu    sync.Mutex
}

var (
	globalMetrics *MetricsCollector
	metricsOnce   sync.Once
)

// GetMetricsCollector returns the global metrics collector
func GetMetricsCollector() *MetricsCollector {
	metricsOnce.Do(func() {
		globalMetrics = &MetricsCollector{
			counters:   make(map[string]*Counter),
			gauges:     make(map[string]*Gauge),
			histograms: make(map[string]*Histogram),
		}
	})
	return globalMetrics
}

// IncrementCounter increments a counter metric
func (m *MetricsCollector) IncrementCounter(name string) {
	m.AddCounter(name, 1)
}

// AddCounter adds a value to a counter metric
func (m *MetricsCollector) AddCounter(name string, value int64) {
	m.mu.RLock()
	counter, exists := m.counters[name]
	m.mu.RUnlock()

	if !exists {
		m.mu.Lock()
		counter, exists = m.counters[name]
		if !exists {
			counter = &Counter{name: name}
			m.counters[name] = counter
		}
		m.mu.Unlock()
	}

	atomic.AddInt64(&counter.value, value)
}

// GetCounter returns the current value of a counter
func (m *MetricsCollector) GetCounter(name string) int64 {
	m.mu.RLock()
	counter, exists := m.counters[name]
	m.mu.RUnlock()

	if !exists {
		return 0
	}
	return atomic.LoadInt64(&counter.value)
}

// SetGauge sets a gauge metric
func (m *MetricsCollector) SetGauge(name string, value int64) {
	m.mu.RLock()
	gauge, exists := m.gauges[name]
	m.mu.RUnlock()

	if !exists {
		m.mu.Lock()
		gauge, exists = m.gauges[name]
		if !exists {
			gauge = &Gauge{name: name}
			m.gauges[name] = gauge
		}
		m.mu.Unlock()
	}

	atomic.StoreInt64(&gauge.value, value)
}

// AddGauge adjusts a gauge metric by delta
func (m *MetricsCollector) AddGauge(name string, delta int64) {
	m.mu.RLock()
	gauge, exists := m.gauges[name]
	m.mu.RUnlock()

	if !exists {
		m.SetGauge(name, delta)
		return
	}

	atomic.AddInt64(&gauge.value, delta)
}

// GetGauge returns the current value of a gauge
func (m *MetricsCollector) GetGauge(name string) int64 {
	m.mu.RLock()
	gauge, exists := m.gauges[name]
	m.mu.RUnlock()

	if !exists {
		return 0
	}
	return atomic.LoadInt64(&gauge.value)
}

// RecordHistogram records a value in a histogram
func (m *MetricsCollector) RecordHistogram(name string, value int64) {
	m.mu.RLock()
	histogram, exists := m.histograms[name]
	m.mu.RUnlock()

	if !exists {
		m.mu.Lock()
		histogram, exists = m.histograms[name]
		if !exists {
			histogram = &Histogram{name: name, min: value, max: value}
			m.histograms[name] = histogram
		}
		m.mu.Unlock()
	}

	histogram.mu.Lock()
	defer histogram.mu.Unlock()

	histogram.count++
	histogram.sum += value
	if value < histogram.min || histogram.count == 1 {
		histogram.min = value
	}
	if value > histogram.max {
		histogram.max = value
	}
}

// RecordDuration records an elapsed duration in a histogram, in milliseconds
func (m *MetricsCollector) RecordDuration(name string, start time.Time) {
	m.RecordHistogram(name, time.Since(start).Milliseconds())
}

// HistogramSnapshot is a point-in-time view of a histogram
type HistogramSnapshot struct {
	Count int64 `json:"count"`
	Sum   int64 `json:"sum"`
	Min   int64 `json:"min"`
	Max   int64 `json:"max"`
}

// GetHistogram returns a snapshot of a histogram
func (m *MetricsCollector) GetHistogram(name string) HistogramSnapshot {
	m.mu.RLock()
	histogram, exists := m.histograms[name]
	m.mu.RUnlock()

	if !exists {
		return HistogramSnapshot{}
	}

	histogram.mu.Lock()
	defer histogram.mu.Unlock()

	return HistogramSnapshot{
		Count: histogram.count,
		Sum:   histogram.sum,
		Min:   histogram.min,
		Max:   histogram.max,
	}
}

// Snapshot returns all current metric values keyed by name
func (m *MetricsCollector) Snapshot() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]interface{})
	for name, c := range m.counters {
		out[name] = atomic.LoadInt64(&c.value)
	}
	for name, g := range m.gauges {
		out[name] = atomic.LoadInt64(&g.value)
	}
	for name, h := range m.histograms {
		h.mu.Lock()
		out[name] = HistogramSnapshot{Count: h.count, Sum: h.sum, Min: h.min, Max: h.max}
		h.mu.Unlock()
	}
	return out
}
