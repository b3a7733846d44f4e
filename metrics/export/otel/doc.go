// Package otel bridges engine metrics into OpenTelemetry. Instruments are
// observable; values are pulled from engine snapshots at collection time.
package otel
