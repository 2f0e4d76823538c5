// Package otel binds goGuard engine metrics to OpenTelemetry observable
// instruments.
//
// [NewOTelExporter] creates an Int64ObservableCounter per goguard counter and
// flattens each latency histogram into one Int64ObservableGauge per
// cumulative bucket. A single callback reads the engine snapshot on every
// collection. Callers own the MeterProvider.
package otel
