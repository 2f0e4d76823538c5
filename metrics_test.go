package goGuard

import (
	"sync"
	"testing"
	"time"
)

func TestMetricsDisabledNoIncrement(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: false})
	m.Inc(MetricLoginSuccess)

	if got := m.Value(MetricLoginSuccess); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
	if snap := m.Snapshot(); len(snap.Counters) != 0 {
		t.Fatalf("expected empty snapshot, got %d counters", len(snap.Counters))
	}
}

func TestMetricsConcurrentIncrementSafe(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})

	const goroutines = 32
	const perG = 2000

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < perG; j++ {
				m.Inc(MetricRefreshCoalesced)
			}
		}()
	}
	wg.Wait()

	want := uint64(goroutines * perG)
	if got := m.Value(MetricRefreshCoalesced); got != want {
		t.Fatalf("expected %d, got %d", want, got)
	}
}

func TestMetricsHistogramBuckets(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true, EnableLatencyHistograms: true})

	for _, d := range []time.Duration{
		5 * time.Millisecond,
		10 * time.Millisecond,
		25 * time.Millisecond,
		50 * time.Millisecond,
		100 * time.Millisecond,
		250 * time.Millisecond,
		500 * time.Millisecond,
		2 * time.Second,
	} {
		m.Observe(MetricRefreshLatency, d)
	}
	m.Observe(MetricLoginSuccess, time.Millisecond)

	snap := m.Snapshot()
	buckets := snap.Histograms[MetricRefreshLatency]
	if len(buckets) != 8 {
		t.Fatalf("expected 8 buckets, got %d", len(buckets))
	}
	for i, v := range buckets {
		if v != 1 {
			t.Fatalf("bucket %d expected 1, got %d", i, v)
		}
	}
	if _, ok := snap.Histograms[MetricLoginSuccess]; ok {
		t.Fatal("counter id recorded as histogram")
	}
	if _, ok := snap.Counters[MetricRefreshLatency]; ok {
		t.Fatal("histogram id listed as counter")
	}
	if got := snap.Histograms[MetricProfileFetchLatency]; len(got) != 8 {
		t.Fatalf("profile latency buckets = %d", len(got))
	}
}

func TestMetricsLatencyDisabled(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})
	m.Observe(MetricRefreshLatency, time.Millisecond)
	if len(m.Snapshot().Histograms) != 0 {
		t.Fatal("histograms recorded with latency disabled")
	}
}
