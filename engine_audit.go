package sessionauth

import (
	"context"
	"errors"
	"time"
)

const (
	auditEventLoginSuccess     = "login_success"
	auditEventLoginFailure     = "login_failure"
	auditEventValidateFailure  = "validate_failure"
	auditEventSessionRotated   = "session_rotated"
	auditEventRefreshSuccess   = "refresh_success"
	auditEventRefreshFailure   = "refresh_failure"
	auditEventLogout           = "logout"
	auditEventLogoutSubject    = "logout_subject"
	auditEventRegisterSuccess  = "register_success"
	auditEventRegisterFailure  = "register_failure"
	auditEventPasswordChange   = "password_change"
	auditEventPasswordReset    = "password_reset"
	auditEventActivation       = "activation"
	auditEventCodeRequested    = "verification_code_requested"
	auditEventProfileUpdate    = "profile_update"
	auditEventAccountStatusSet = "account_status_change"
)

type auditErrorCode string

const (
	auditErrAuthenticationFailed auditErrorCode = "authentication_failed"
	auditErrUnauthorized         auditErrorCode = "unauthorized"
	auditErrDuplicate            auditErrorCode = "duplicate"
	auditErrActivationFailed     auditErrorCode = "activation_failed"
	auditErrPasswordPolicy       auditErrorCode = "password_policy"
	auditErrAccountDisabled      auditErrorCode = "account_disabled"
	auditErrAccountUnverified    auditErrorCode = "account_unverified"
	auditErrUnavailable          auditErrorCode = "backend_unavailable"
	auditErrInternal             auditErrorCode = "internal_error"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	userID string,
	email string,
	err error,
	metadata map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	event := AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		UserID:    userID,
		Email:     email,
		IP:        clientIPFromContext(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if code := errorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

func errorCode(err error) auditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrAuthenticationFailed):
		return auditErrAuthenticationFailed
	case errors.Is(err, ErrAccountDisabled):
		return auditErrAccountDisabled
	case errors.Is(err, ErrAccountUnverified):
		return auditErrAccountUnverified
	case errors.Is(err, ErrUnauthorized):
		return auditErrUnauthorized
	case errors.Is(err, ErrDuplicateIdentity):
		return auditErrDuplicate
	case errors.Is(err, ErrActivationFailed):
		return auditErrActivationFailed
	case errors.Is(err, ErrPasswordPolicy):
		return auditErrPasswordPolicy
	case errors.Is(err, ErrVerificationUnavailable):
		return auditErrUnavailable
	default:
		return auditErrInternal
	}
}
