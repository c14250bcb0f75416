// Package infra holds the adapters behind the core interfaces: the zerolog
// logger, the Prometheus and InfluxDB metric sinks, the MQTT run notifier
// and the Octave curve fitting session.
package infra
