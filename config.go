package sessionauth

import (
	"errors"
	"time"
)

// Config defines the deployment configuration for an [Engine]. Instances are
// cloned at Build time and treated as immutable afterwards.
type Config struct {
	JWT          JWTConfig
	Session      SessionConfig
	Password     PasswordConfig
	Verification VerificationConfig
	Account      AccountConfig
	Audit        AuditConfig
	Metrics      MetricsConfig
}

// JWTConfig controls the signed-token envelope. SigningSecret is the shared
// HS256 key; TTL bounds the [nbf, exp) window embedded in every token.
type JWTConfig struct {
	TTL           time.Duration
	SigningSecret []byte
	Issuer        string
	Leeway        time.Duration
}

// SessionConfig controls the cached session record. TTL is the sliding expiry
// window, reset on every write (never on reads). RedisPrefix namespaces the
// per-user keys: "<prefix>:<userID>".
type SessionConfig struct {
	RedisPrefix string
	TTL         time.Duration
}

// PasswordConfig carries the argon2id parameters (Memory in KB).
type PasswordConfig struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// VerificationConfig controls the built-in Redis-backed email code verifier.
// Ignored when a custom [CodeVerifier] is supplied.
type VerificationConfig struct {
	Enabled     bool
	OTPDigits   int
	CodeTTL     time.Duration
	MaxAttempts int
	RedisPrefix string
}

// AccountConfig gates account-level login policy.
type AccountConfig struct {
	// RequireVerifiedForLogin rejects logins for accounts still in
	// AccountPendingVerification.
	RequireVerifiedForLogin bool
}

// AuditConfig controls the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig enables the in-process counters exposed via
// [Engine.MetricsSnapshot].
type MetricsConfig struct {
	Enabled bool
}

func defaultConfig() Config {
	return Config{
		JWT: JWTConfig{
			TTL:    24 * time.Hour,
			Leeway: 30 * time.Second,
		},
		Session: SessionConfig{
			RedisPrefix: "LOGIN",
			TTL:         24 * time.Hour,
		},
		Password: PasswordConfig{
			Memory:      65536,
			Time:        3,
			Parallelism: 2,
			SaltLength:  16,
			KeyLength:   32,
		},
		Verification: VerificationConfig{
			Enabled:     false,
			OTPDigits:   6,
			CodeTTL:     15 * time.Minute,
			MaxAttempts: 5,
			RedisPrefix: "VCODE",
		},
		Account: AccountConfig{
			RequireVerifiedForLogin: false,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.JWT.SigningSecret = cloneBytes(cfg.JWT.SigningSecret)
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// Validate checks the configuration for internal consistency. Build calls it;
// it is exported so deployments can fail fast before wiring collaborators.
func (c *Config) Validate() error {
	if c.JWT.TTL <= 0 {
		return errors.New("JWT TTL must be > 0")
	}
	if len(c.JWT.SigningSecret) < 32 {
		return errors.New("JWT SigningSecret must be at least 32 bytes")
	}
	if c.JWT.Leeway < 0 || c.JWT.Leeway > 2*time.Minute {
		return errors.New("JWT Leeway must be between 0 and 2m")
	}

	if c.Session.RedisPrefix == "" {
		return errors.New("Session RedisPrefix must not be empty")
	}
	if c.Session.TTL <= 0 {
		return errors.New("Session TTL must be > 0")
	}
	if c.JWT.TTL > c.Session.TTL {
		return errors.New("JWT TTL must not exceed Session TTL")
	}

	if c.Password.Memory < 8*1024 {
		return errors.New("Password Memory must be >= 8192 KB")
	}
	if c.Password.Time < 1 {
		return errors.New("Password Time must be >= 1")
	}
	if c.Password.Parallelism < 1 {
		return errors.New("Password Parallelism must be >= 1")
	}
	if c.Password.SaltLength < 16 {
		return errors.New("Password SaltLength must be >= 16")
	}
	if c.Password.KeyLength < 16 {
		return errors.New("Password KeyLength must be >= 16")
	}

	if c.Verification.Enabled {
		if c.Verification.OTPDigits < 6 || c.Verification.OTPDigits > 10 {
			return errors.New("Verification OTPDigits must be between 6 and 10")
		}
		if c.Verification.CodeTTL <= 0 {
			return errors.New("Verification CodeTTL must be > 0")
		}
		if c.Verification.MaxAttempts <= 0 {
			return errors.New("Verification MaxAttempts must be > 0")
		}
		if c.Verification.RedisPrefix == "" {
			return errors.New("Verification RedisPrefix must not be empty")
		}
	}
	if c.Account.RequireVerifiedForLogin && !c.Verification.Enabled {
		return errors.New("Account RequireVerifiedForLogin requires Verification Enabled")
	}

	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when audit is enabled")
	}

	return nil
}
