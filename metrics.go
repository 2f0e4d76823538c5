package goGuard

import (
	"sync/atomic"
	"time"
)

// MetricID identifies one engine counter or histogram.
type MetricID uint16

const (
	MetricLoginSuccess MetricID = iota
	MetricLoginFailure
	MetricRegisterSuccess
	MetricRegisterFailure
	MetricFederatedLoginSuccess
	MetricFederatedLoginFailure
	MetricLogout
	// MetricForcedLogout counts logouts caused by an unrecoverable
	// authentication fault (refresh exhaustion or a guard force-logout).
	MetricForcedLogout
	MetricProfileFetchSuccess
	MetricProfileFetchFailure
	// MetricProfileFetchCoalesced counts callers that shared an in-flight fetch.
	MetricProfileFetchCoalesced
	MetricProfileUpdateSuccess
	MetricProfileUpdateFailure
	MetricPasswordChangeSuccess
	MetricPasswordChangeFailure
	MetricRefreshSuccess
	MetricRefreshFailure
	// MetricRefreshCoalesced counts callers that shared an in-flight refresh.
	MetricRefreshCoalesced
	MetricGuardAdmit
	MetricGuardRedirect
	MetricGuardLoginRedirect
	MetricGuardForceLogout
	MetricRefreshLatency
	MetricProfileFetchLatency
	metricIDCount
)

const (
	histBucketCount = 8
	cacheLineSize   = 64
)

type metricHistogram struct {
	buckets [histBucketCount]uint64
}

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics holds lock-free engine counters.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [metricIDCount]paddedCounter
	histograms    [metricIDCount]metricHistogram
}

// MetricsSnapshot is a point-in-time copy of [Metrics].
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

// NewMetrics creates counters according to cfg.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

// Enabled reports whether counters are recorded.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// LatencyEnabled reports whether latency histograms are recorded.
func (m *Metrics) LatencyEnabled() bool {
	return m != nil && m.enableLatency
}

// Inc adds one to a counter.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Observe records d into a latency histogram. Non-histogram IDs are ignored.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enabled || !m.enableLatency || !isHistogram(id) {
		return
	}
	b := bucketIndex(d)
	atomic.AddUint64(&m.histograms[id].buckets[b], 1)
}

// Value returns a counter's current value.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot copies every counter, and every histogram when latency is enabled.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil || !m.enabled {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}

	s := MetricsSnapshot{
		Counters:   make(map[MetricID]uint64, int(metricIDCount)),
		Histograms: make(map[MetricID][]uint64, len(histogramIDs)),
	}

	for id := MetricID(0); id < metricIDCount; id++ {
		if isHistogram(id) {
			continue
		}
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}

	if m.enableLatency {
		for _, id := range histogramIDs {
			buckets := make([]uint64, histBucketCount)
			for i := 0; i < histBucketCount; i++ {
				buckets[i] = atomic.LoadUint64(&m.histograms[id].buckets[i])
			}
			s.Histograms[id] = buckets
		}
	}

	return s
}

var histogramIDs = []MetricID{MetricRefreshLatency, MetricProfileFetchLatency}

func isHistogram(id MetricID) bool {
	return id == MetricRefreshLatency || id == MetricProfileFetchLatency
}

func bucketIndex(d time.Duration) int {
	ms := d.Milliseconds()

	switch {
	case ms <= 5:
		return 0
	case ms <= 10:
		return 1
	case ms <= 25:
		return 2
	case ms <= 50:
		return 3
	case ms <= 100:
		return 4
	case ms <= 250:
		return 5
	case ms <= 500:
		return 6
	default:
		return 7
	}
}
