// Package prometheus exposes engine counters and the validate latency
// histogram in Prometheus text exposition format. Callers mount the exporter's
// Handler; nothing is registered globally.
package prometheus
