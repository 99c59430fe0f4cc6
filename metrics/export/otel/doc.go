// Package otel provides OpenTelemetry metric exporter bindings for engine
// counters.
//
// [NewOTelExporter] registers Int64ObservableCounter instruments for each
// engine metric. A single callback reads [authcore.Engine.MetricsSnapshot]
// on each collection cycle.
//
// # What this package must NOT do
//
//   - Own the OTel MeterProvider — callers supply the Meter.
//   - Mutate engine state.
package otel
