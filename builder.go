package sessionauth

import (
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/tidegate/sessionauth/jwt"
	"github.com/tidegate/sessionauth/password"
	"github.com/tidegate/sessionauth/session"
	"github.com/tidegate/sessionauth/verify"
)

// Builder assembles an [Engine]. Collect collaborators with the WithX methods,
// then call Build exactly once.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	users    UserStore
	sender   CodeSender
	verifier CodeVerifier
	sink     AuditSink

	built bool
}

// New starts a builder with the default configuration.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the whole configuration. The config is cloned; later
// mutations of cfg do not affect the builder.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis sets the Redis client backing session records and verification
// codes.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithUserStore sets the persistent identity store. Required.
func (b *Builder) WithUserStore(store UserStore) *Builder {
	b.users = store
	return b
}

// WithCodeSender sets the delivery transport for the built-in email verifier.
func (b *Builder) WithCodeSender(sender CodeSender) *Builder {
	b.sender = sender
	return b
}

// WithVerifier replaces the built-in email verifier with a custom
// [CodeVerifier]. When set, VerificationConfig and the code sender are
// ignored.
func (b *Builder) WithVerifier(v CodeVerifier) *Builder {
	b.verifier = v
	return b
}

// WithAuditSink sets the audit event destination. Ignored unless
// Audit.Enabled.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.sink = sink
	return b
}

// WithMetricsEnabled toggles the in-process counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// Build validates the configuration, wires the collaborators, and returns a
// ready [Engine].
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if b.redis == nil {
		return nil, errors.New("redis client required")
	}
	if b.users == nil {
		return nil, errors.New("user store required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	tokens, err := jwt.NewManager(jwt.Config{
		TTL:           cfg.JWT.TTL,
		SigningSecret: cfg.JWT.SigningSecret,
		Issuer:        cfg.JWT.Issuer,
		Leeway:        cfg.JWT.Leeway,
	})
	if err != nil {
		return nil, err
	}

	passwords, err := password.NewEncoder(password.Config{
		Memory:      cfg.Password.Memory,
		Time:        cfg.Password.Time,
		Parallelism: cfg.Password.Parallelism,
		SaltLength:  cfg.Password.SaltLength,
		KeyLength:   cfg.Password.KeyLength,
	})
	if err != nil {
		return nil, err
	}

	verifier := b.verifier
	if verifier == nil && cfg.Verification.Enabled {
		if b.sender == nil {
			return nil, errors.New("verification enabled but no code sender or custom verifier provided")
		}
		service, err := verify.NewService(
			verify.NewStore(b.redis, cfg.Verification.RedisPrefix),
			b.sender,
			verify.Config{
				OTPDigits:   cfg.Verification.OTPDigits,
				CodeTTL:     cfg.Verification.CodeTTL,
				MaxAttempts: cfg.Verification.MaxAttempts,
			},
		)
		if err != nil {
			return nil, err
		}
		verifier = service
	}

	engine := &Engine{
		config:    cfg,
		sessions:  session.NewStore(b.redis, cfg.Session.RedisPrefix),
		tokens:    tokens,
		passwords: passwords,
		users:     b.users,
		verifier:  verifier,
		audit:     newAuditDispatcher(cfg.Audit, b.sink),
		metrics:   NewMetrics(cfg.Metrics),
	}

	b.built = true
	return engine, nil
}
