package sessionauth

import (
	"errors"
	"fmt"
)

var (
	// ErrAuthenticationFailed is returned by [Engine.Login] when the identity is
	// unknown or the password does not match. The message is deliberately
	// generic; callers must not learn which part failed.
	ErrAuthenticationFailed = errors.New("authentication failed")

	// ErrUnauthorized is returned when a presented token fails session
	// validation for any reason. Callers should treat it as a signal to
	// re-login.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrSessionNotFound reports that no session record exists for the token's
	// subject. It wraps [ErrUnauthorized]: the request boundary only ever sees
	// the parent, so the existence of session state is never leaked.
	ErrSessionNotFound = fmt.Errorf("%w: session not found", ErrUnauthorized)

	// ErrTokenSecretMismatch reports that the token's embedded session secret
	// does not equal the cached one. Wraps [ErrUnauthorized] for the same
	// reason as [ErrSessionNotFound].
	ErrTokenSecretMismatch = fmt.Errorf("%w: token secret mismatch", ErrUnauthorized)

	// ErrDuplicateIdentity is returned by [Engine.Register] when the user store
	// reports a uniqueness conflict on the email address.
	ErrDuplicateIdentity = errors.New("identity already registered")

	// ErrActivationFailed is returned when an email verification code is wrong
	// or expired.
	ErrActivationFailed = errors.New("activation code invalid or expired")

	// ErrPasswordPolicy is returned when a new password is rejected by the
	// credential encoder.
	ErrPasswordPolicy = errors.New("password policy violation")

	// ErrAccountDisabled is returned by [Engine.Login] for disabled accounts.
	ErrAccountDisabled = errors.New("account disabled")

	// ErrAccountUnverified is returned by [Engine.Login] when
	// Account.RequireVerifiedForLogin is set and the account has not completed
	// email verification.
	ErrAccountUnverified = errors.New("account unverified")

	// ErrVerificationUnavailable is returned when the email-verification
	// collaborator cannot issue or check a code.
	ErrVerificationUnavailable = errors.New("email verification unavailable")

	// ErrEngineNotReady is returned when an Engine method is called on an
	// engine that was not fully constructed.
	ErrEngineNotReady = errors.New("engine not initialized")

	// ErrStoreDuplicateEmail is the sentinel a [UserStore] implementation must
	// return (or wrap) from CreateUser on an email uniqueness conflict.
	ErrStoreDuplicateEmail = errors.New("store: duplicate email")
)
