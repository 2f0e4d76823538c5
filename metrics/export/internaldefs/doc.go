// Package internaldefs holds the metric names, help strings and bucket
// boundaries shared by the Prometheus and OTel exporters, so both expose
// identical series for the same engine snapshot.
//
// It performs no I/O and must not import an exporter package.
package internaldefs
