// Package otel provides OpenTelemetry metric bindings for engine
// counters and histograms.
//
// [NewOTelExporter] registers Int64ObservableCounter instruments for
// each engine counter and Int64ObservableGauge instruments per histogram
// bucket. A single callback reads [authcore.Engine.MetricsSnapshot] on
// each collection cycle. Callers supply the Meter; the package never
// owns a MeterProvider.
package otel
