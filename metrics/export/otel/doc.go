// Package otel binds linkauth session manager counters to OpenTelemetry
// observable instruments.
//
// [New] registers one Int64ObservableCounter per counter and one
// Int64ObservableGauge per verify-latency bucket. A single callback reads
// the [Source] snapshot on each collection cycle; [WithManagerName] labels
// the observations when several managers share a meter. Callers own the
// MeterProvider.
package otel
