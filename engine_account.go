package sessionauth

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
)

// Register creates a new account and returns its redacted summary. The email
// address is the unique identity; a conflict surfaces as
// [ErrDuplicateIdentity]. When email verification is enabled the account
// starts in [AccountPendingVerification] and a verification code is sent on a
// best-effort basis.
func (e *Engine) Register(ctx context.Context, req RegisterRequest) (UserSummary, error) {
	if err := e.ready(); err != nil {
		return UserSummary{}, err
	}

	hash, err := e.passwords.Hash(req.Password)
	if err != nil {
		e.emitAudit(ctx, auditEventRegisterFailure, false, "", req.Email, ErrPasswordPolicy, nil)
		return UserSummary{}, fmt.Errorf("%w: %v", ErrPasswordPolicy, err)
	}

	status := AccountActive
	if e.config.Verification.Enabled {
		status = AccountPendingVerification
	}

	user, err := e.users.CreateUser(ctx, CreateUserInput{
		ID:           uuid.NewString(),
		Email:        req.Email,
		DisplayName:  req.DisplayName,
		PasswordHash: hash,
		Status:       status,
	})
	if err != nil {
		if errors.Is(err, ErrStoreDuplicateEmail) {
			e.metricInc(MetricRegisterDuplicate)
			e.emitAudit(ctx, auditEventRegisterFailure, false, "", req.Email, ErrDuplicateIdentity, nil)
			return UserSummary{}, ErrDuplicateIdentity
		}
		e.emitAudit(ctx, auditEventRegisterFailure, false, "", req.Email, err, nil)
		return UserSummary{}, err
	}

	if e.config.Verification.Enabled && e.verifier != nil {
		if issueErr := e.verifier.Issue(ctx, user.Email); issueErr != nil {
			log.Print("sessionauth: verification code delivery failed for new account: ", issueErr)
		}
	}

	e.metricInc(MetricRegisterSuccess)
	e.emitAudit(ctx, auditEventRegisterSuccess, true, user.ID, user.Email, nil, nil)

	return UserSummary{
		ID:          user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Status:      user.Status,
	}, nil
}

// UpdateProfile applies update to the authenticated user's profile and
// refreshes the cached session snapshot. The persistent store is the source of
// truth; a failed snapshot refresh is logged, not returned.
func (e *Engine) UpdateProfile(ctx context.Context, token string, update ProfileUpdate) (UserSummary, error) {
	if err := e.ready(); err != nil {
		return UserSummary{}, err
	}

	rec, err := e.Validate(ctx, token)
	if err != nil {
		return UserSummary{}, err
	}

	user, err := e.users.UpdateProfile(ctx, rec.UserID, update)
	if err != nil {
		return UserSummary{}, err
	}

	if _, refreshErr := e.sessions.RefreshUser(ctx, user.ID, snapshot(user), e.config.Session.TTL); refreshErr != nil {
		log.Print("sessionauth: session snapshot refresh failed after profile update: ", refreshErr)
	}

	e.emitAudit(ctx, auditEventProfileUpdate, true, user.ID, user.Email, nil, nil)

	return UserSummary{
		ID:          user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Status:      user.Status,
	}, nil
}

// SetAccountStatus is the administrative status switch. Disabling an account
// also ends its live session so outstanding tokens stop validating; any other
// transition refreshes the cached snapshot instead.
func (e *Engine) SetAccountStatus(ctx context.Context, userID string, status AccountStatus) error {
	if err := e.ready(); err != nil {
		return err
	}

	user, err := e.users.UpdateStatus(ctx, userID, status)
	if err != nil {
		return err
	}

	if status == AccountDisabled {
		if delErr := e.sessions.Delete(ctx, userID); delErr != nil {
			return delErr
		}
	} else {
		if _, refreshErr := e.sessions.RefreshUser(ctx, userID, snapshot(user), e.config.Session.TTL); refreshErr != nil {
			log.Print("sessionauth: session snapshot refresh failed after status change: ", refreshErr)
		}
	}

	e.emitAudit(ctx, auditEventAccountStatusSet, true, userID, user.Email, nil, map[string]string{
		"status": fmt.Sprintf("%d", status),
	})

	return nil
}
