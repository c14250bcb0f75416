// Package metrics defines the sinks that record scheduler runs for
// observability. Sinks are created by name through a factory registry,
// and NewSink returns a MultiSink automatically when several are
// configured. Concrete sinks live in infra/metrics.
package metrics
