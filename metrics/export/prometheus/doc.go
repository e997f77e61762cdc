// Package prometheus renders engine metrics for Prometheus scraping.
//
// [NewPrometheusExporter] accepts an [authcore.Engine] and exposes an
// [net/http.Handler] that emits every counter and histogram in text
// exposition format. Counter names are prefixed authcore_*_total; the
// single histogram is authcore_validate_latency_seconds.
//
// The exporter never registers in a global Prometheus registry; callers
// mount the Handler where they want it.
package prometheus
