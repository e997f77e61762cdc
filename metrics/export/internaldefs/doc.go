// Package internaldefs exposes stable metric name definitions shared by
// exporter implementations.
//
// Counter and histogram definitions live here so that the Prometheus and
// OTel exporters agree on metric names and bucket boundaries. Changes to
// definitions in this package affect all exporters simultaneously.
package internaldefs
