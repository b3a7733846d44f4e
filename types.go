package sessionauth

import (
	"context"
	"time"
)

// AccountStatus is the lifecycle state of a user account.
type AccountStatus uint8

const (
	// AccountPendingVerification is the initial status when email verification
	// is enabled; the account exists but has not proven control of its email.
	AccountPendingVerification AccountStatus = iota
	// AccountActive is a fully usable account.
	AccountActive
	// AccountDisabled blocks login without deleting the account.
	AccountDisabled
)

// UserRecord is the full account record returned by [UserStore]. It carries the
// credential hash and is never handed to callers of the public API; redacted
// views go through [UserSummary].
type UserRecord struct {
	ID           string
	Email        string
	DisplayName  string
	PasswordHash string
	Status       AccountStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserSummary is the redacted account view returned by [Engine.Register].
type UserSummary struct {
	ID          string
	Email       string
	DisplayName string
	Status      AccountStatus
}

// RegisterRequest is the input for [Engine.Register].
type RegisterRequest struct {
	Email       string
	DisplayName string
	Password    string
}

// CreateUserInput is what the engine hands to [UserStore.CreateUser]. ID is
// pre-minted by the engine; stores that assign their own identifiers may
// override it in the returned record.
type CreateUserInput struct {
	ID           string
	Email        string
	DisplayName  string
	PasswordHash string
	Status       AccountStatus
}

// ProfileUpdate carries the mutable profile attributes for
// [Engine.UpdateProfile]. Nil fields are left unchanged.
type ProfileUpdate struct {
	DisplayName *string
}

// UserStore is the persistent identity collaborator. It is the source of truth
// for accounts; the cached session record only ever holds a point-in-time copy.
//
// CreateUser must return (or wrap) [ErrStoreDuplicateEmail] on an email
// uniqueness conflict. Lookup methods return an error when the user is absent;
// the engine does not distinguish "not found" from other lookup failures at the
// login boundary.
type UserStore interface {
	CreateUser(ctx context.Context, input CreateUserInput) (UserRecord, error)
	GetUserByEmail(ctx context.Context, email string) (UserRecord, error)
	GetUserByID(ctx context.Context, id string) (UserRecord, error)
	UpdatePasswordHash(ctx context.Context, id string, newHash string) error
	UpdateStatus(ctx context.Context, id string, status AccountStatus) (UserRecord, error)
	UpdateProfile(ctx context.Context, id string, update ProfileUpdate) (UserRecord, error)
}

// CodeSender delivers a one-time verification code to an email address. The
// transport (SMTP, queue, provider API) is entirely the implementer's concern.
type CodeSender interface {
	Send(ctx context.Context, email, code string) error
}

// CodeVerifier is the email-verification collaborator. Issue generates and
// delivers a fresh code for the address; Check reports whether the presented
// code matches a live one. The engine treats Check's boolean as the whole
// answer and never inspects code state directly.
//
// The default implementation built by [Builder.Build] is the Redis-backed
// verify.Service; supply your own with [Builder.WithVerifier] to integrate an
// external verification system.
type CodeVerifier interface {
	Issue(ctx context.Context, email string) error
	Check(ctx context.Context, email, code string) (bool, error)
}
