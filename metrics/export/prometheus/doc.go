// Package prometheus exposes linkauth manager counters as a
// prometheus.Collector.
//
// [NewPrometheusExporter] wraps a [linkauth.Manager]. Mount [PrometheusExporter.Handler]
// on /metrics, or call [PrometheusExporter.Register] to add the collector to an
// existing registry. Counters are named linkauth_*_total and the single
// histogram is linkauth_verify_latency_seconds.
//
// The exporter never touches the global registry and never mutates the
// manager.
package prometheus
