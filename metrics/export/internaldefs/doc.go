// Package internaldefs holds the shared metric name table used by the
// exporter packages. It exists so the Prometheus and OTel exporters emit the
// same names without either importing the other.
package internaldefs
