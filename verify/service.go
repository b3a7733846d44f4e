package verify

import (
	"context"
	"errors"
	"time"

	"github.com/tidegate/sessionauth/internal"
)

// ErrNoSender is returned by Issue when no delivery transport was configured.
var ErrNoSender = errors.New("no code sender configured")

// Sender delivers a one-time code to an email address. It is satisfied by the
// root package's CodeSender collaborator.
type Sender interface {
	Send(ctx context.Context, email, code string) error
}

// Config carries the code issuance parameters.
type Config struct {
	OTPDigits   int
	CodeTTL     time.Duration
	MaxAttempts int
}

// Service issues and checks email verification codes against a [Store].
// It implements the engine's CodeVerifier collaborator.
type Service struct {
	store  *Store
	sender Sender
	config Config
}

// NewService wires a verification service over store and sender.
func NewService(store *Store, sender Sender, cfg Config) (*Service, error) {
	if store == nil {
		return nil, errors.New("verify: store is required")
	}
	if cfg.OTPDigits < 6 || cfg.OTPDigits > 10 {
		return nil, errors.New("verify: OTPDigits must be between 6 and 10")
	}
	if cfg.CodeTTL <= 0 {
		return nil, errors.New("verify: CodeTTL must be > 0")
	}
	if cfg.MaxAttempts <= 0 {
		return nil, errors.New("verify: MaxAttempts must be > 0")
	}
	return &Service{
		store:  store,
		sender: sender,
		config: cfg,
	}, nil
}

// Issue generates a fresh code for email, stores its digest, and hands the
// cleartext to the sender. The digest is written before delivery so a slow
// transport cannot leave a delivered code unverifiable.
func (s *Service) Issue(ctx context.Context, email string) error {
	if s.sender == nil {
		return ErrNoSender
	}

	code, err := internal.NewOTP(s.config.OTPDigits)
	if err != nil {
		return err
	}

	if err := s.store.Save(ctx, email, internal.HashCode(code), s.config.CodeTTL); err != nil {
		return err
	}

	return s.sender.Send(ctx, email, code)
}

// Check reports whether code matches the pending code for email. A match
// consumes the code; repeated mismatches consume it too once the attempt
// budget is spent.
func (s *Service) Check(ctx context.Context, email, code string) (bool, error) {
	return s.store.Consume(ctx, email, internal.HashCode(code), s.config.MaxAttempts)
}
