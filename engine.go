package sessionauth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tidegate/sessionauth/internal"
	"github.com/tidegate/sessionauth/jwt"
	"github.com/tidegate/sessionauth/password"
	"github.com/tidegate/sessionauth/session"
)

// Engine is the embeddable session and credential engine. Construct one with
// [New] and its builder; all methods are safe for concurrent use.
type Engine struct {
	config    Config
	sessions  *session.Store
	tokens    *jwt.Manager
	passwords *password.Encoder
	users     UserStore
	verifier  CodeVerifier
	audit     *auditDispatcher
	metrics   *Metrics
}

func (e *Engine) ready() error {
	if e == nil || e.sessions == nil || e.tokens == nil || e.passwords == nil || e.users == nil {
		return ErrEngineNotReady
	}
	return nil
}

func (e *Engine) metricInc(id MetricID) {
	e.metrics.Inc(id)
}

func snapshot(u UserRecord) session.User {
	return session.User{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		Status:      uint8(u.Status),
	}
}

// Login authenticates the email/password pair and returns a signed session
// token. Unknown identity and wrong password are indistinguishable to the
// caller. A login while the user already holds a live session does not
// invalidate it: the existing session secret is reused, so tokens held by
// other clients keep working and the returned token joins the same session.
func (e *Engine) Login(ctx context.Context, email, pass string) (string, error) {
	if err := e.ready(); err != nil {
		return "", err
	}

	user, err := e.users.GetUserByEmail(ctx, email)
	if err != nil {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, "", email, ErrAuthenticationFailed, nil)
		return "", ErrAuthenticationFailed
	}

	match, err := e.passwords.Verify(pass, user.PasswordHash)
	if err != nil || !match {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, user.ID, email, ErrAuthenticationFailed, nil)
		return "", ErrAuthenticationFailed
	}

	if user.Status == AccountDisabled {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, user.ID, email, ErrAccountDisabled, nil)
		return "", ErrAccountDisabled
	}
	if e.config.Account.RequireVerifiedForLogin && user.Status == AccountPendingVerification {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, user.ID, email, ErrAccountUnverified, nil)
		return "", ErrAccountUnverified
	}

	secret, err := internal.NewSessionSecret()
	if err != nil {
		return "", err
	}

	now := time.Now().Unix()
	candidate := &session.Record{
		UserID:      user.ID,
		Secret:      secret,
		User:        snapshot(user),
		CreatedAt:   now,
		RefreshedAt: now,
	}

	stored, err := e.sessions.Acquire(ctx, candidate, e.config.Session.TTL)
	if err != nil {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, user.ID, email, err, nil)
		return "", err
	}

	token, err := e.tokens.Sign(user.ID, stored.Secret)
	if err != nil {
		return "", err
	}

	e.metricInc(MetricLoginSuccess)
	e.emitAudit(ctx, auditEventLoginSuccess, true, user.ID, email, nil, nil)

	return token, nil
}

// Validate checks a presented token against the live session state and returns
// the session record on success. The check has four parts: the signature and
// time window of the token itself, the existence of a session record for its
// subject, and equality between the token's embedded secret and the stored
// one. Every failure surfaces as [ErrUnauthorized]; callers learn nothing
// about which part failed. Validate never touches the record or its TTL.
func (e *Engine) Validate(ctx context.Context, token string) (*session.Record, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}

	start := time.Now()

	claims, err := e.tokens.Parse(token)
	if err != nil {
		e.metricInc(MetricValidateFailure)
		e.emitAudit(ctx, auditEventValidateFailure, false, "", "", ErrUnauthorized, nil)
		return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}

	rec, err := e.sessions.Get(ctx, claims.UID)
	if err != nil {
		e.metricInc(MetricValidateFailure)
		if errors.Is(err, redis.Nil) {
			e.emitAudit(ctx, auditEventValidateFailure, false, claims.UID, "", ErrSessionNotFound, nil)
			return nil, ErrSessionNotFound
		}
		// fail closed when the session backend is unreachable
		e.emitAudit(ctx, auditEventValidateFailure, false, claims.UID, "", ErrUnauthorized, nil)
		return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}

	if subtle.ConstantTimeCompare([]byte(claims.Secret), []byte(rec.Secret)) != 1 {
		e.metricInc(MetricValidateFailure)
		e.emitAudit(ctx, auditEventValidateFailure, false, claims.UID, "", ErrTokenSecretMismatch, nil)
		return nil, ErrTokenSecretMismatch
	}

	e.metricInc(MetricValidateSuccess)
	e.metrics.Observe(MetricValidateLatency, time.Since(start))

	return rec, nil
}

// Rotate replaces the user's session secret and returns a fresh token signed
// over it. Every token issued against the previous secret stops validating
// immediately; the embedded user snapshot is preserved when a live record
// exists and rebuilt from the user store otherwise.
func (e *Engine) Rotate(ctx context.Context, userID string) (string, error) {
	if err := e.ready(); err != nil {
		return "", err
	}

	rec, err := e.sessions.Get(ctx, userID)
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			return "", err
		}
		user, lookupErr := e.users.GetUserByID(ctx, userID)
		if lookupErr != nil {
			return "", lookupErr
		}
		rec = &session.Record{
			UserID:    userID,
			User:      snapshot(user),
			CreatedAt: time.Now().Unix(),
		}
	}

	secret, err := internal.NewSessionSecret()
	if err != nil {
		return "", err
	}
	rec.Secret = secret
	rec.RefreshedAt = time.Now().Unix()

	if err := e.sessions.Replace(ctx, rec, e.config.Session.TTL); err != nil {
		return "", err
	}

	token, err := e.tokens.Sign(userID, secret)
	if err != nil {
		return "", err
	}

	e.metricInc(MetricRotate)
	e.emitAudit(ctx, auditEventSessionRotated, true, userID, "", nil, nil)

	return token, nil
}

// Refresh validates the presented token and rotates the session, returning a
// replacement token with a full lifetime. The old token stops validating.
func (e *Engine) Refresh(ctx context.Context, token string) (string, error) {
	if err := e.ready(); err != nil {
		return "", err
	}

	rec, err := e.Validate(ctx, token)
	if err != nil {
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, auditEventRefreshFailure, false, "", "", err, nil)
		return "", err
	}

	secret, err := internal.NewSessionSecret()
	if err != nil {
		return "", err
	}
	rec.Secret = secret
	rec.RefreshedAt = time.Now().Unix()

	if err := e.sessions.Replace(ctx, rec, e.config.Session.TTL); err != nil {
		e.metricInc(MetricRefreshFailure)
		return "", err
	}

	fresh, err := e.tokens.Sign(rec.UserID, secret)
	if err != nil {
		return "", err
	}

	e.metricInc(MetricRefreshSuccess)
	e.emitAudit(ctx, auditEventRefreshSuccess, true, rec.UserID, "", nil, nil)

	return fresh, nil
}

// Logout ends the session authorized by token. The token must still validate;
// a token whose session is already gone is treated as logged out rather than
// rejected, so Logout is idempotent.
func (e *Engine) Logout(ctx context.Context, token string) error {
	if err := e.ready(); err != nil {
		return err
	}

	rec, err := e.Validate(ctx, token)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return nil
		}
		return err
	}

	if err := e.sessions.Delete(ctx, rec.UserID); err != nil {
		return err
	}

	e.metricInc(MetricLogout)
	e.emitAudit(ctx, auditEventLogout, true, rec.UserID, "", nil, nil)

	return nil
}

// LogoutSubject force-ends the user's session without requiring a token. This
// is the administrative kill switch; all outstanding tokens for the user stop
// validating immediately.
func (e *Engine) LogoutSubject(ctx context.Context, userID string) error {
	if err := e.ready(); err != nil {
		return err
	}

	if err := e.sessions.Delete(ctx, userID); err != nil {
		return err
	}

	e.metricInc(MetricLogout)
	e.emitAudit(ctx, auditEventLogoutSubject, true, userID, "", nil, nil)

	return nil
}

// MetricsSnapshot returns a point-in-time copy of the engine's counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

// AuditDropped reports how many audit events were dropped because the
// dispatcher buffer was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil {
		return 0
	}
	return e.audit.Dropped()
}

// Close flushes and stops the audit dispatcher. The engine must not be used
// after Close.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	e.audit.Close()
}
