package sessionauth

import (
	"context"
	"errors"
	"sync"
	"testing"
)

func TestLoginIssuesValidatableToken(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	ctx := context.Background()
	store := newMockUserStore()
	engine := newTestEngine(t, rdb, store)

	user := registerTestUser(t, engine, "alice@example.com", "correct-horse")

	token, err := engine.Login(ctx, "alice@example.com", "correct-horse")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	rec, err := engine.Validate(ctx, token)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if rec.UserID != user.ID {
		t.Fatalf("expected record for %q, got %q", user.ID, rec.UserID)
	}
	if rec.User.Email != "alice@example.com" {
		t.Fatalf("unexpected snapshot email %q", rec.User.Email)
	}
	if rec.Secret == "" {
		t.Fatal("expected non-empty session secret")
	}
}

func TestLoginFailureIsIndistinguishable(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	ctx := context.Background()
	store := newMockUserStore()
	engine := newTestEngine(t, rdb, store)

	registerTestUser(t, engine, "alice@example.com", "correct-horse")

	_, unknownErr := engine.Login(ctx, "nobody@example.com", "whatever-pass")
	_, wrongPassErr := engine.Login(ctx, "alice@example.com", "wrong-password")

	if !errors.Is(unknownErr, ErrAuthenticationFailed) {
		t.Fatalf("unknown identity: expected ErrAuthenticationFailed, got %v", unknownErr)
	}
	if !errors.Is(wrongPassErr, ErrAuthenticationFailed) {
		t.Fatalf("wrong password: expected ErrAuthenticationFailed, got %v", wrongPassErr)
	}
	if unknownErr.Error() != wrongPassErr.Error() {
		t.Fatalf("failure modes must be indistinguishable: %q vs %q", unknownErr, wrongPassErr)
	}
}

func TestLoginReusesLiveSessionSecret(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	ctx := context.Background()
	store := newMockUserStore()
	engine := newTestEngine(t, rdb, store)

	registerTestUser(t, engine, "alice@example.com", "correct-horse")

	first, err := engine.Login(ctx, "alice@example.com", "correct-horse")
	if err != nil {
		t.Fatalf("first Login failed: %v", err)
	}
	second, err := engine.Login(ctx, "alice@example.com", "correct-horse")
	if err != nil {
		t.Fatalf("second Login failed: %v", err)
	}

	// both tokens must authorize concurrently; the second login joined the
	// existing session instead of superseding it
	if _, err := engine.Validate(ctx, first); err != nil {
		t.Fatalf("first token stopped validating after second login: %v", err)
	}
	if _, err := engine.Validate(ctx, second); err != nil {
		t.Fatalf("second token does not validate: %v", err)
	}
}

func TestConcurrentLoginsShareOneSecret(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	ctx := context.Background()
	store := newMockUserStore()
	engine := newTestEngine(t, rdb, store)

	registerTestUser(t, engine, "alice@example.com", "correct-horse")

	const logins = 8
	tokens := make([]string, logins)
	errs := make([]error, logins)

	var wg sync.WaitGroup
	for i := 0; i < logins; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tokens[i], errs[i] = engine.Login(ctx, "alice@example.com", "correct-horse")
		}(i)
	}
	wg.Wait()

	for i := 0; i < logins; i++ {
		if errs[i] != nil {
			t.Fatalf("login %d failed: %v", i, errs[i])
		}
		if _, err := engine.Validate(ctx, tokens[i]); err != nil {
			t.Fatalf("token %d does not validate after concurrent logins: %v", i, err)
		}
	}
}

func TestLoginDisabledAccountRejected(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	ctx := context.Background()
	store := newMockUserStore()
	engine := newTestEngine(t, rdb, store)

	user := registerTestUser(t, engine, "alice@example.com", "correct-horse")
	if err := engine.SetAccountStatus(ctx, user.ID, AccountDisabled); err != nil {
		t.Fatalf("SetAccountStatus failed: %v", err)
	}

	if _, err := engine.Login(ctx, "alice@example.com", "correct-horse"); !errors.Is(err, ErrAccountDisabled) {
		t.Fatalf("expected ErrAccountDisabled, got %v", err)
	}
}

func TestLoginPendingAccountGatedByConfig(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	ctx := context.Background()
	store := newMockUserStore()
	sender := newMockSender()

	cfg := testConfig()
	cfg.Verification.Enabled = true
	cfg.Account.RequireVerifiedForLogin = true

	engine, err := New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithUserStore(store).
		WithCodeSender(sender).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	registerTestUser(t, engine, "alice@example.com", "correct-horse")

	if _, err := engine.Login(ctx, "alice@example.com", "correct-horse"); !errors.Is(err, ErrAccountUnverified) {
		t.Fatalf("expected ErrAccountUnverified, got %v", err)
	}
}
