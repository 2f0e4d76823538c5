package otel

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/metric"

	goGuard "github.com/MrEthical07/goGuard"
	"github.com/MrEthical07/goGuard/metrics/export/internaldefs"
)

var (
	ErrNilMeter  = errors.New("nil meter")
	ErrNilSource = errors.New("nil metrics source")
)

type metricsSource interface {
	MetricsSnapshot() goGuard.MetricsSnapshot
	AuditDropped() uint64
}

type observedCounter struct {
	id         goGuard.MetricID
	instrument metric.Int64ObservableCounter
}

// observedHistogram flattens one engine histogram into a gauge per
// cumulative bucket plus a count gauge.
type observedHistogram struct {
	id      goGuard.MetricID
	buckets [8]metric.Int64ObservableGauge
	count   metric.Int64ObservableGauge
}

// OTelExporter publishes engine metrics as observable instruments on a
// caller-supplied meter.
type OTelExporter struct {
	source       metricsSource
	registration metric.Registration
	counters     []observedCounter
	histograms   []observedHistogram
	auditDropped metric.Int64ObservableCounter
}

// NewOTelExporter registers instruments that read from engine.
func NewOTelExporter(meter metric.Meter, engine *goGuard.Engine) (*OTelExporter, error) {
	if engine == nil {
		return nil, ErrNilSource
	}
	return NewOTelExporterFromSource(meter, engine)
}

// NewOTelExporterFromSource registers instruments over any snapshot source.
func NewOTelExporterFromSource(meter metric.Meter, source metricsSource) (*OTelExporter, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}
	if source == nil {
		return nil, ErrNilSource
	}

	e := &OTelExporter{source: source}
	var observables []metric.Observable

	for _, def := range internaldefs.CounterDefs {
		ins, err := meter.Int64ObservableCounter(def.Name, metric.WithDescription(def.Help))
		if err != nil {
			return nil, fmt.Errorf("create observable counter %s: %w", def.Name, err)
		}
		e.counters = append(e.counters, observedCounter{id: def.ID, instrument: ins})
		observables = append(observables, ins)
	}

	for _, def := range internaldefs.HistogramDefs {
		h, err := newObservedHistogram(meter, def)
		if err != nil {
			return nil, err
		}
		e.histograms = append(e.histograms, h)
		for _, b := range h.buckets {
			observables = append(observables, b)
		}
		observables = append(observables, h.count)
	}

	dropped, err := meter.Int64ObservableCounter(internaldefs.AuditDroppedName,
		metric.WithDescription(internaldefs.AuditDroppedHelp))
	if err != nil {
		return nil, fmt.Errorf("create audit dropped counter: %w", err)
	}
	e.auditDropped = dropped
	observables = append(observables, dropped)

	reg, err := meter.RegisterCallback(e.observe, observables...)
	if err != nil {
		return nil, fmt.Errorf("register callback: %w", err)
	}
	e.registration = reg
	return e, nil
}

func newObservedHistogram(meter metric.Meter, def internaldefs.HistogramDef) (observedHistogram, error) {
	h := observedHistogram{id: def.ID}
	for i, suffix := range internaldefs.HistogramBoundSuffix {
		name := def.Name + "_bucket_le_" + suffix
		ins, err := meter.Int64ObservableGauge(name, metric.WithDescription(def.Help+" Cumulative bucket count."))
		if err != nil {
			return h, fmt.Errorf("create histogram bucket gauge %s: %w", name, err)
		}
		h.buckets[i] = ins
	}
	countName := def.Name + "_count"
	count, err := meter.Int64ObservableGauge(countName, metric.WithDescription(def.Help+" Sample count."))
	if err != nil {
		return h, fmt.Errorf("create histogram count gauge %s: %w", countName, err)
	}
	h.count = count
	return h, nil
}

func (e *OTelExporter) observe(_ context.Context, o metric.Observer) error {
	snapshot := e.source.MetricsSnapshot()
	for _, c := range e.counters {
		o.ObserveInt64(c.instrument, int64(snapshot.Counters[c.id]))
	}
	for _, h := range e.histograms {
		cumulative := internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(snapshot.Histograms[h.id]))
		for i, b := range h.buckets {
			o.ObserveInt64(b, int64(cumulative[i]))
		}
		o.ObserveInt64(h.count, int64(cumulative[len(cumulative)-1]))
	}
	o.ObserveInt64(e.auditDropped, int64(e.source.AuditDropped()))
	return nil
}

// Close unregisters the callback.
func (e *OTelExporter) Close() error {
	if e == nil || e.registration == nil {
		return nil
	}
	return e.registration.Unregister()
}
