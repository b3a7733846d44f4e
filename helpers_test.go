package sessionauth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type mockUserStore struct {
	mu      sync.Mutex
	users   map[string]UserRecord
	byEmail map[string]string

	createErr error
	updateErr error

	createCalls         int
	getByEmailCalls     int
	getByIDCalls        int
	updatePasswordCalls int
	updateStatusCalls   int
	updateProfileCalls  int
}

func newMockUserStore() *mockUserStore {
	return &mockUserStore{
		users:   make(map[string]UserRecord),
		byEmail: make(map[string]string),
	}
}

func (m *mockUserStore) CreateUser(ctx context.Context, input CreateUserInput) (UserRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createCalls++

	if m.createErr != nil {
		return UserRecord{}, m.createErr
	}
	if _, exists := m.byEmail[input.Email]; exists {
		return UserRecord{}, fmt.Errorf("%w: %s", ErrStoreDuplicateEmail, input.Email)
	}

	now := time.Now()
	user := UserRecord{
		ID:           input.ID,
		Email:        input.Email,
		DisplayName:  input.DisplayName,
		PasswordHash: input.PasswordHash,
		Status:       input.Status,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	m.users[user.ID] = user
	m.byEmail[user.Email] = user.ID
	return user, nil
}

func (m *mockUserStore) GetUserByEmail(ctx context.Context, email string) (UserRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getByEmailCalls++

	id, ok := m.byEmail[email]
	if !ok {
		return UserRecord{}, errors.New("not found")
	}
	return m.users[id], nil
}

func (m *mockUserStore) GetUserByID(ctx context.Context, id string) (UserRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getByIDCalls++

	user, ok := m.users[id]
	if !ok {
		return UserRecord{}, errors.New("not found")
	}
	return user, nil
}

func (m *mockUserStore) UpdatePasswordHash(ctx context.Context, id string, newHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updatePasswordCalls++

	if m.updateErr != nil {
		return m.updateErr
	}
	user, ok := m.users[id]
	if !ok {
		return errors.New("not found")
	}
	user.PasswordHash = newHash
	user.UpdatedAt = time.Now()
	m.users[id] = user
	return nil
}

func (m *mockUserStore) UpdateStatus(ctx context.Context, id string, status AccountStatus) (UserRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updateStatusCalls++

	user, ok := m.users[id]
	if !ok {
		return UserRecord{}, errors.New("not found")
	}
	user.Status = status
	user.UpdatedAt = time.Now()
	m.users[id] = user
	return user, nil
}

func (m *mockUserStore) UpdateProfile(ctx context.Context, id string, update ProfileUpdate) (UserRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updateProfileCalls++

	user, ok := m.users[id]
	if !ok {
		return UserRecord{}, errors.New("not found")
	}
	if update.DisplayName != nil {
		user.DisplayName = *update.DisplayName
	}
	user.UpdatedAt = time.Now()
	m.users[id] = user
	return user, nil
}

func (m *mockUserStore) user(id string) UserRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.users[id]
}

type mockSender struct {
	mu    sync.Mutex
	codes map[string]string
	err   error
	calls int
}

func newMockSender() *mockSender {
	return &mockSender{codes: make(map[string]string)}
}

func (m *mockSender) Send(ctx context.Context, email, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return m.err
	}
	m.codes[email] = code
	return nil
}

func (m *mockSender) lastCode(email string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.codes[email]
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return mr, client
}

func testConfig() Config {
	cfg := defaultConfig()
	cfg.JWT.SigningSecret = []byte("0123456789abcdef0123456789abcdef")
	cfg.JWT.TTL = time.Hour
	cfg.Session.TTL = time.Hour
	// low-cost argon2 parameters keep the suite fast
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1
	cfg.Metrics.Enabled = true
	return cfg
}

func newTestEngine(t *testing.T, rdb *redis.Client, store UserStore) *Engine {
	t.Helper()

	engine, err := New().
		WithConfig(testConfig()).
		WithRedis(rdb).
		WithUserStore(store).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	return engine
}

func newVerifyingTestEngine(t *testing.T, rdb *redis.Client, store UserStore, sender CodeSender) *Engine {
	t.Helper()

	cfg := testConfig()
	cfg.Verification.Enabled = true

	engine, err := New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithUserStore(store).
		WithCodeSender(sender).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	return engine
}

func registerTestUser(t *testing.T, e *Engine, email, pass string) UserSummary {
	t.Helper()

	summary, err := e.Register(context.Background(), RegisterRequest{
		Email:       email,
		DisplayName: "Test User",
		Password:    pass,
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	return summary
}
