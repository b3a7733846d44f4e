package verify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type captureSender struct {
	mu    sync.Mutex
	codes map[string]string
	err   error
}

func newCaptureSender() *captureSender {
	return &captureSender{codes: make(map[string]string)}
}

func (s *captureSender) Send(ctx context.Context, email, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.codes[email] = code
	return nil
}

func (s *captureSender) code(email string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.codes[email]
}

func newTestService(t *testing.T, maxAttempts int) (*miniredis.Miniredis, *Service, *captureSender) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	sender := newCaptureSender()

	service, err := NewService(NewStore(client, "VCODE"), sender, Config{
		OTPDigits:   6,
		CodeTTL:     15 * time.Minute,
		MaxAttempts: maxAttempts,
	})
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}
	return mr, service, sender
}

func TestIssueDeliversCheckableCode(t *testing.T) {
	_, service, sender := newTestService(t, 5)
	ctx := context.Background()

	if err := service.Issue(ctx, "alice@example.com"); err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	code := sender.code("alice@example.com")
	if len(code) != 6 {
		t.Fatalf("expected a 6 digit code, got %q", code)
	}

	ok, err := service.Check(ctx, "alice@example.com", code)
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if !ok {
		t.Fatal("delivered code must check out")
	}
}

func TestCheckConsumesCode(t *testing.T) {
	_, service, sender := newTestService(t, 5)
	ctx := context.Background()

	if err := service.Issue(ctx, "alice@example.com"); err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	code := sender.code("alice@example.com")

	if ok, _ := service.Check(ctx, "alice@example.com", code); !ok {
		t.Fatal("first check must succeed")
	}
	if ok, _ := service.Check(ctx, "alice@example.com", code); ok {
		t.Fatal("code must be single use")
	}
}

func TestCheckWrongCodeBudget(t *testing.T) {
	_, service, sender := newTestService(t, 3)
	ctx := context.Background()

	if err := service.Issue(ctx, "alice@example.com"); err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	code := sender.code("alice@example.com")
	wrong := "999999"
	if wrong == code {
		wrong = "999998"
	}

	// two misses leave the code live, the third burns it
	for i := 0; i < 3; i++ {
		ok, err := service.Check(ctx, "alice@example.com", wrong)
		if err != nil {
			t.Fatalf("Check %d failed: %v", i, err)
		}
		if ok {
			t.Fatalf("wrong code must not check out (attempt %d)", i)
		}
	}

	ok, err := service.Check(ctx, "alice@example.com", code)
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if ok {
		t.Fatal("right code must fail after the attempt budget is spent")
	}
}

func TestCodeExpires(t *testing.T) {
	mr, service, sender := newTestService(t, 5)
	ctx := context.Background()

	if err := service.Issue(ctx, "alice@example.com"); err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	code := sender.code("alice@example.com")

	mr.FastForward(16 * time.Minute)

	ok, err := service.Check(ctx, "alice@example.com", code)
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if ok {
		t.Fatal("expired code must not check out")
	}
}

func TestReissueSupersedesPendingCode(t *testing.T) {
	_, service, sender := newTestService(t, 5)
	ctx := context.Background()

	if err := service.Issue(ctx, "alice@example.com"); err != nil {
		t.Fatalf("first Issue failed: %v", err)
	}
	first := sender.code("alice@example.com")

	if err := service.Issue(ctx, "alice@example.com"); err != nil {
		t.Fatalf("second Issue failed: %v", err)
	}
	second := sender.code("alice@example.com")

	if first != second {
		if ok, _ := service.Check(ctx, "alice@example.com", first); ok {
			t.Fatal("superseded code must not check out")
		}
	}
	if ok, _ := service.Check(ctx, "alice@example.com", second); !ok {
		t.Fatal("latest code must check out")
	}
}

func TestIssueWithoutSender(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	service, err := NewService(NewStore(client, "VCODE"), nil, Config{
		OTPDigits:   6,
		CodeTTL:     time.Minute,
		MaxAttempts: 3,
	})
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}

	if err := service.Issue(context.Background(), "alice@example.com"); !errors.Is(err, ErrNoSender) {
		t.Fatalf("expected ErrNoSender, got %v", err)
	}
}

func TestCheckSurfacesBackendFailure(t *testing.T) {
	mr, service, _ := newTestService(t, 5)
	mr.Close()

	if _, err := service.Check(context.Background(), "alice@example.com", "123456"); !errors.Is(err, ErrRedisUnavailable) {
		t.Fatalf("expected ErrRedisUnavailable, got %v", err)
	}
}
