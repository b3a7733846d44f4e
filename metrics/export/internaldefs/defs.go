package internaldefs

import (
	sessionauth "github.com/tidegate/sessionauth"
)

// CounterDef binds a core MetricID to its exported metric name.
type CounterDef struct {
	ID   sessionauth.MetricID
	Name string
	Help string
}

// HistogramDef binds a core histogram MetricID to its exported metric name.
type HistogramDef struct {
	ID   sessionauth.MetricID
	Name string
	Help string
}

var CounterDefs = []CounterDef{
	{ID: sessionauth.MetricLoginSuccess, Name: "sessionauth_login_success_total", Help: "Successful login attempts."},
	{ID: sessionauth.MetricLoginFailure, Name: "sessionauth_login_failure_total", Help: "Failed login attempts."},
	{ID: sessionauth.MetricValidateSuccess, Name: "sessionauth_validate_success_total", Help: "Token validations that authorized."},
	{ID: sessionauth.MetricValidateFailure, Name: "sessionauth_validate_failure_total", Help: "Token validations that were rejected."},
	{ID: sessionauth.MetricRotate, Name: "sessionauth_rotate_total", Help: "Session secret rotations."},
	{ID: sessionauth.MetricRefreshSuccess, Name: "sessionauth_refresh_success_total", Help: "Successful token refreshes."},
	{ID: sessionauth.MetricRefreshFailure, Name: "sessionauth_refresh_failure_total", Help: "Failed token refreshes."},
	{ID: sessionauth.MetricLogout, Name: "sessionauth_logout_total", Help: "Logout operations."},
	{ID: sessionauth.MetricRegisterSuccess, Name: "sessionauth_register_success_total", Help: "Successful registrations."},
	{ID: sessionauth.MetricRegisterDuplicate, Name: "sessionauth_register_duplicate_total", Help: "Registrations rejected as duplicate."},
	{ID: sessionauth.MetricPasswordChangeSuccess, Name: "sessionauth_password_change_success_total", Help: "Successful password changes."},
	{ID: sessionauth.MetricPasswordChangeFailure, Name: "sessionauth_password_change_failure_total", Help: "Failed password changes."},
	{ID: sessionauth.MetricPasswordResetSuccess, Name: "sessionauth_password_reset_success_total", Help: "Successful code-based password resets."},
	{ID: sessionauth.MetricPasswordResetFailure, Name: "sessionauth_password_reset_failure_total", Help: "Failed code-based password resets."},
	{ID: sessionauth.MetricActivationSuccess, Name: "sessionauth_activation_success_total", Help: "Successful account activations."},
	{ID: sessionauth.MetricActivationFailure, Name: "sessionauth_activation_failure_total", Help: "Failed account activations."},
	{ID: sessionauth.MetricCodeRequested, Name: "sessionauth_verification_code_requested_total", Help: "Verification code requests."},
}

var HistogramDefs = []HistogramDef{
	{ID: sessionauth.MetricValidateLatency, Name: "sessionauth_validate_latency_seconds", Help: "Validate latency histogram."},
}

// HistogramBounds are the upper bounds of the core latency buckets, in
// seconds, as Prometheus le label values.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix mirrors HistogramBounds with characters legal in
// OpenTelemetry instrument names.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets pads or truncates a raw snapshot slice to the fixed bucket
// count.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts to the cumulative form both
// exporters emit.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
