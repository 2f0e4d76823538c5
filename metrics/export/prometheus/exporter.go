package prometheus

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	goGuard "github.com/MrEthical07/goGuard"
	"github.com/MrEthical07/goGuard/metrics/export/internaldefs"
)

type metricsSource interface {
	MetricsSnapshot() goGuard.MetricsSnapshot
	AuditDropped() uint64
}

// Collector is a [prometheus.Collector] that reads the engine snapshot on
// every scrape.
type Collector struct {
	source       metricsSource
	counters     []*prometheus.Desc
	histograms   []*prometheus.Desc
	auditDropped *prometheus.Desc
}

// NewCollector creates a collector over engine.
func NewCollector(engine *goGuard.Engine) *Collector {
	return NewCollectorFromSource(engine)
}

// NewCollectorFromSource creates a collector over any snapshot source.
func NewCollectorFromSource(source metricsSource) *Collector {
	c := &Collector{
		source:       source,
		counters:     make([]*prometheus.Desc, len(internaldefs.CounterDefs)),
		histograms:   make([]*prometheus.Desc, len(internaldefs.HistogramDefs)),
		auditDropped: prometheus.NewDesc(internaldefs.AuditDroppedName, internaldefs.AuditDroppedHelp, nil, nil),
	}
	for i, def := range internaldefs.CounterDefs {
		c.counters[i] = prometheus.NewDesc(def.Name, def.Help, nil, nil)
	}
	for i, def := range internaldefs.HistogramDefs {
		c.histograms[i] = prometheus.NewDesc(def.Name, def.Help, nil, nil)
	}
	return c
}

// Describe implements [prometheus.Collector].
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range c.counters {
		ch <- d
	}
	for _, d := range c.histograms {
		ch <- d
	}
	ch <- c.auditDropped
}

// Collect implements [prometheus.Collector]. A disabled engine yields nothing.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	if c == nil || c.source == nil {
		return
	}
	snapshot := c.source.MetricsSnapshot()
	dropped := c.source.AuditDropped()
	if len(snapshot.Counters) == 0 && len(snapshot.Histograms) == 0 && dropped == 0 {
		return
	}

	for i, def := range internaldefs.CounterDefs {
		ch <- prometheus.MustNewConstMetric(c.counters[i], prometheus.CounterValue, float64(snapshot.Counters[def.ID]))
	}

	for i, def := range internaldefs.HistogramDefs {
		raw, ok := snapshot.Histograms[def.ID]
		if !ok {
			continue
		}
		cumulative := internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(raw))
		buckets := make(map[float64]uint64, len(internaldefs.BucketBounds))
		for j, le := range internaldefs.BucketBounds {
			buckets[le] = cumulative[j]
		}
		// Sum is not tracked by the engine.
		ch <- prometheus.MustNewConstHistogram(c.histograms[i], cumulative[len(cumulative)-1], 0, buckets)
	}

	ch <- prometheus.MustNewConstMetric(c.auditDropped, prometheus.CounterValue, float64(dropped))
}

// PrometheusExporter serves the engine metrics from a private registry.
type PrometheusExporter struct {
	collector *Collector
	registry  *prometheus.Registry
}

// NewPrometheusExporter creates an exporter that reads from engine.
func NewPrometheusExporter(engine *goGuard.Engine) *PrometheusExporter {
	return NewPrometheusExporterFromSource(engine)
}

// NewPrometheusExporterFromSource creates an exporter over any snapshot source.
func NewPrometheusExporterFromSource(source metricsSource) *PrometheusExporter {
	collector := NewCollectorFromSource(source)
	reg := prometheus.NewRegistry()
	reg.MustRegister(collector)
	return &PrometheusExporter{collector: collector, registry: reg}
}

// Collector returns the collector, for registering with another registry.
func (p *PrometheusExporter) Collector() *Collector { return p.collector }

// Registry returns the private registry.
func (p *PrometheusExporter) Registry() *prometheus.Registry { return p.registry }

// Handler serves the registry in the Prometheus exposition format.
func (p *PrometheusExporter) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}
