package sessionauth

import (
	"context"
	"fmt"
	"log"
)

// RequestEmailCode generates and delivers a fresh verification code to the
// authenticated user's email address. The caller must hold a valid session
// token; an invalid one is rejected with [ErrUnauthorized] rather than
// silently ignored.
func (e *Engine) RequestEmailCode(ctx context.Context, token string) error {
	if err := e.ready(); err != nil {
		return err
	}

	rec, err := e.Validate(ctx, token)
	if err != nil {
		return err
	}

	if e.verifier == nil {
		return ErrVerificationUnavailable
	}

	if err := e.verifier.Issue(ctx, rec.User.Email); err != nil {
		e.emitAudit(ctx, auditEventCodeRequested, false, rec.UserID, rec.User.Email, ErrVerificationUnavailable, nil)
		return fmt.Errorf("%w: %v", ErrVerificationUnavailable, err)
	}

	e.metricInc(MetricCodeRequested)
	e.emitAudit(ctx, auditEventCodeRequested, true, rec.UserID, rec.User.Email, nil, nil)

	return nil
}

// Activate marks the authenticated user's account as verified after checking
// the presented email code. A wrong or expired code is [ErrActivationFailed].
// Activation is idempotent; activating an already-active account re-checks the
// code but changes nothing.
func (e *Engine) Activate(ctx context.Context, token, code string) error {
	if err := e.ready(); err != nil {
		return err
	}

	rec, err := e.Validate(ctx, token)
	if err != nil {
		return err
	}

	if e.verifier == nil {
		return ErrVerificationUnavailable
	}

	ok, err := e.verifier.Check(ctx, rec.User.Email, code)
	if err != nil {
		e.metricInc(MetricActivationFailure)
		e.emitAudit(ctx, auditEventActivation, false, rec.UserID, rec.User.Email, ErrVerificationUnavailable, nil)
		return fmt.Errorf("%w: %v", ErrVerificationUnavailable, err)
	}
	if !ok {
		e.metricInc(MetricActivationFailure)
		e.emitAudit(ctx, auditEventActivation, false, rec.UserID, rec.User.Email, ErrActivationFailed, nil)
		return ErrActivationFailed
	}

	user, err := e.users.UpdateStatus(ctx, rec.UserID, AccountActive)
	if err != nil {
		return err
	}

	if _, refreshErr := e.sessions.RefreshUser(ctx, user.ID, snapshot(user), e.config.Session.TTL); refreshErr != nil {
		log.Print("sessionauth: session snapshot refresh failed after activation: ", refreshErr)
	}

	e.metricInc(MetricActivationSuccess)
	e.emitAudit(ctx, auditEventActivation, true, rec.UserID, rec.User.Email, nil, nil)

	return nil
}
