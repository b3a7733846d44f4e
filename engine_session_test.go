package sessionauth

import (
	"context"
	"errors"
	"testing"
)

func TestValidateRejectsGarbageToken(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	engine := newTestEngine(t, rdb, newMockUserStore())

	if _, err := engine.Validate(context.Background(), "not-a-token"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestValidateRejectsForeignSignature(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	ctx := context.Background()
	store := newMockUserStore()
	engine := newTestEngine(t, rdb, store)

	registerTestUser(t, engine, "alice@example.com", "correct-horse")
	token, err := engine.Login(ctx, "alice@example.com", "correct-horse")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	cfg := testConfig()
	cfg.JWT.SigningSecret = []byte("ffffffffffffffffffffffffffffffff")
	other, err := New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithUserStore(store).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if _, err := other.Validate(ctx, token); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for foreign signature, got %v", err)
	}
}

func TestValidateDoesNotTouchTTL(t *testing.T) {
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

	key := "LOGIN:" + user.ID
	before := rdb.PTTL(ctx, key).Val()

	for i := 0; i < 3; i++ {
		if _, err := engine.Validate(ctx, token); err != nil {
			t.Fatalf("Validate failed: %v", err)
		}
	}

	after := rdb.PTTL(ctx, key).Val()
	if after > before {
		t.Fatalf("Validate must not extend the TTL: before=%v after=%v", before, after)
	}
}

func TestValidateFailsClosedWhenBackendDown(t *testing.T) {
	mr, rdb := newTestRedis(t)

	ctx := context.Background()
	store := newMockUserStore()
	engine := newTestEngine(t, rdb, store)

	registerTestUser(t, engine, "alice@example.com", "correct-horse")
	token, err := engine.Login(ctx, "alice@example.com", "correct-horse")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	mr.Close()

	if _, err := engine.Validate(ctx, token); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized when backend is down, got %v", err)
	}
}

func TestRotateInvalidatesOutstandingTokens(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	ctx := context.Background()
	store := newMockUserStore()
	engine := newTestEngine(t, rdb, store)

	user := registerTestUser(t, engine, "alice@example.com", "correct-horse")
	old, err := engine.Login(ctx, "alice@example.com", "correct-horse")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	fresh, err := engine.Rotate(ctx, user.ID)
	if err != nil {
		t.Fatalf("Rotate failed: %v", err)
	}

	if _, err := engine.Validate(ctx, old); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("old token must stop validating after rotate, got %v", err)
	}
	rec, err := engine.Validate(ctx, fresh)
	if err != nil {
		t.Fatalf("fresh token must validate: %v", err)
	}
	if rec.User.Email != "alice@example.com" {
		t.Fatalf("rotate must preserve the user snapshot, got %q", rec.User.Email)
	}
}

func TestRotateWithoutLiveSessionRebuildsSnapshot(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	ctx := context.Background()
	store := newMockUserStore()
	engine := newTestEngine(t, rdb, store)

	user := registerTestUser(t, engine, "alice@example.com", "correct-horse")

	token, err := engine.Rotate(ctx, user.ID)
	if err != nil {
		t.Fatalf("Rotate failed: %v", err)
	}

	rec, err := engine.Validate(ctx, token)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if rec.User.Email != "alice@example.com" {
		t.Fatalf("expected snapshot rebuilt from the user store, got %q", rec.User.Email)
	}
}

func TestRefreshReplacesToken(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	ctx := context.Background()
	store := newMockUserStore()
	engine := newTestEngine(t, rdb, store)

	registerTestUser(t, engine, "alice@example.com", "correct-horse")
	old, err := engine.Login(ctx, "alice@example.com", "correct-horse")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	fresh, err := engine.Refresh(ctx, old)
	if err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if fresh == old {
		t.Fatal("Refresh must mint a different token")
	}

	if _, err := engine.Validate(ctx, old); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("old token must stop validating after refresh, got %v", err)
	}
	if _, err := engine.Validate(ctx, fresh); err != nil {
		t.Fatalf("fresh token must validate: %v", err)
	}
}

func TestRefreshRejectsInvalidToken(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	engine := newTestEngine(t, rdb, newMockUserStore())

	if _, err := engine.Refresh(context.Background(), "garbage"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestLogoutEndsSessionAndIsIdempotent(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	ctx := context.Background()
	store := newMockUserStore()
	engine := newTestEngine(t, rdb, store)

	registerTestUser(t, engine, "alice@example.com", "correct-horse")
	token, err := engine.Login(ctx, "alice@example.com", "correct-horse")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	if err := engine.Logout(ctx, token); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	if _, err := engine.Validate(ctx, token); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("token must stop validating after logout, got %v", err)
	}

	// already logged out: treated as success, not rejection
	if err := engine.Logout(ctx, token); err != nil {
		t.Fatalf("repeated Logout must be idempotent, got %v", err)
	}
}

func TestLogoutSubjectKillsAllTokens(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	ctx := context.Background()
	store := newMockUserStore()
	engine := newTestEngine(t, rdb, store)

	user := registerTestUser(t, engine, "alice@example.com", "correct-horse")
	first, err := engine.Login(ctx, "alice@example.com", "correct-horse")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	second, err := engine.Login(ctx, "alice@example.com", "correct-horse")
	if err != nil {
		t.Fatalf("second Login failed: %v", err)
	}

	if err := engine.LogoutSubject(ctx, user.ID); err != nil {
		t.Fatalf("LogoutSubject failed: %v", err)
	}

	if _, err := engine.Validate(ctx, first); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("first token must stop validating, got %v", err)
	}
	if _, err := engine.Validate(ctx, second); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("second token must stop validating, got %v", err)
	}
}
