package sessionauth

import (
	"context"
	"fmt"
)

// ChangePassword sets a new password for the authenticated user and rotates
// the session. The returned token is the only one that validates afterwards;
// every other client of the user is forced to log in again.
func (e *Engine) ChangePassword(ctx context.Context, token, newPassword string) (string, error) {
	if err := e.ready(); err != nil {
		return "", err
	}

	rec, err := e.Validate(ctx, token)
	if err != nil {
		e.metricInc(MetricPasswordChangeFailure)
		return "", err
	}

	fresh, err := e.setPassword(ctx, rec.UserID, newPassword)
	if err != nil {
		e.metricInc(MetricPasswordChangeFailure)
		e.emitAudit(ctx, auditEventPasswordChange, false, rec.UserID, rec.User.Email, err, nil)
		return "", err
	}

	e.metricInc(MetricPasswordChangeSuccess)
	e.emitAudit(ctx, auditEventPasswordChange, true, rec.UserID, rec.User.Email, nil, nil)

	return fresh, nil
}

// ResetPasswordByCode sets a new password after proving control of the
// account's email address with a verification code. The code must check out
// before anything is written; a wrong or expired code fails the whole
// operation. On success the session rotates exactly as in [ChangePassword].
func (e *Engine) ResetPasswordByCode(ctx context.Context, token, code, newPassword string) (string, error) {
	if err := e.ready(); err != nil {
		return "", err
	}

	rec, err := e.Validate(ctx, token)
	if err != nil {
		e.metricInc(MetricPasswordResetFailure)
		return "", err
	}

	if e.verifier == nil {
		return "", ErrVerificationUnavailable
	}

	ok, err := e.verifier.Check(ctx, rec.User.Email, code)
	if err != nil {
		e.metricInc(MetricPasswordResetFailure)
		e.emitAudit(ctx, auditEventPasswordReset, false, rec.UserID, rec.User.Email, ErrVerificationUnavailable, nil)
		return "", fmt.Errorf("%w: %v", ErrVerificationUnavailable, err)
	}
	if !ok {
		e.metricInc(MetricPasswordResetFailure)
		e.emitAudit(ctx, auditEventPasswordReset, false, rec.UserID, rec.User.Email, ErrActivationFailed, nil)
		return "", ErrActivationFailed
	}

	fresh, err := e.setPassword(ctx, rec.UserID, newPassword)
	if err != nil {
		e.metricInc(MetricPasswordResetFailure)
		e.emitAudit(ctx, auditEventPasswordReset, false, rec.UserID, rec.User.Email, err, nil)
		return "", err
	}

	e.metricInc(MetricPasswordResetSuccess)
	e.emitAudit(ctx, auditEventPasswordReset, true, rec.UserID, rec.User.Email, nil, nil)

	return fresh, nil
}

// setPassword hashes, persists, and rotates. The credential hash never enters
// the session record, so no snapshot refresh is needed.
func (e *Engine) setPassword(ctx context.Context, userID, newPassword string) (string, error) {
	hash, err := e.passwords.Hash(newPassword)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrPasswordPolicy, err)
	}

	if err := e.users.UpdatePasswordHash(ctx, userID, hash); err != nil {
		return "", err
	}

	return e.Rotate(ctx, userID)
}
