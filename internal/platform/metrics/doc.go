// Package metrics exposes pool activity and run outcomes as Prometheus
// metric families. The Collector plugs into the worker pool as its
// Observer and into the event emitter as a run-completion handler, so the
// instrumented packages stay free of any Prometheus dependency.
package metrics
