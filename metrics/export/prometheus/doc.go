// Package prometheus exposes goGuard engine metrics through
// github.com/prometheus/client_golang.
//
// [Collector] turns each [goGuard.Engine.MetricsSnapshot] into const metrics at
// scrape time: goguard_*_total counters, the refresh and profile latency
// histograms, and goguard_audit_dropped_total. [PrometheusExporter] wraps the
// collector in a private registry and serves it with promhttp. Nothing is
// registered with the global registry.
package prometheus
