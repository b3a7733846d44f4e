package verify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrRedisUnavailable wraps any Redis transport failure surfaced by the store.
var ErrRedisUnavailable = errors.New("verification redis unavailable")

// consumeLua atomically performs GET, compare, DEL/rewrite on a code record.
// A correct code consumes the record; a wrong one burns an attempt, deleting
// the record once attempts run out. Single-use either way: the caller never
// observes a matched record that is still live.
//
// KEYS[1] = record key
// ARGV[1] = provided code hash
// ARGV[2] = max attempts
//
// Returns 1 on match, 0 on mismatch or absence, -1 when the record was
// deleted because attempts were exhausted.
var consumeLua = redis.NewScript(`
local data = redis.call('GET', KEYS[1])
if not data then
  return 0
end

local ok, rec = pcall(cjson.decode, data)
if not ok or type(rec) ~= 'table' or type(rec.code_hash) ~= 'string' then
  redis.call('DEL', KEYS[1])
  return 0
end

if rec.code_hash == ARGV[1] then
  redis.call('DEL', KEYS[1])
  return 1
end

rec.attempts = (tonumber(rec.attempts) or 0) + 1
if rec.attempts >= tonumber(ARGV[2]) then
  redis.call('DEL', KEYS[1])
  return -1
end

local ttlMs = redis.call('PTTL', KEYS[1])
if ttlMs <= 0 then
  redis.call('DEL', KEYS[1])
  return 0
end
redis.call('SET', KEYS[1], cjson.encode(rec), 'PX', ttlMs)
return 0
`)

type record struct {
	CodeHash string `json:"code_hash"`
	Attempts int    `json:"attempts"`
	IssuedAt int64  `json:"issued_at"`
}

// Store keeps one pending verification code per email address. Only the code
// digest is stored; the cleartext code exists solely in the delivery path.
type Store struct {
	redis  redis.UniversalClient
	prefix string
}

// NewStore creates a [Store] keyed as "<prefix>:<email>".
func NewStore(redisClient redis.UniversalClient, prefix string) *Store {
	if prefix == "" {
		prefix = "VCODE"
	}
	return &Store{
		redis:  redisClient,
		prefix: prefix,
	}
}

func (s *Store) key(email string) string {
	return s.prefix + ":" + email
}

// Save stores a fresh code digest for email, superseding any pending one and
// resetting the attempt counter.
func (s *Store) Save(ctx context.Context, email, codeHash string, ttl time.Duration) error {
	data, err := json.Marshal(record{
		CodeHash: codeHash,
		IssuedAt: time.Now().Unix(),
	})
	if err != nil {
		return err
	}

	if err := s.redis.Set(ctx, s.key(email), data, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	return nil
}

// Consume checks codeHash against the pending record for email. Returns true
// only on a match; the record is consumed on match and on attempt exhaustion.
func (s *Store) Consume(ctx context.Context, email, codeHash string, maxAttempts int) (bool, error) {
	result, err := consumeLua.Run(ctx, s.redis,
		[]string{s.key(email)},
		codeHash,
		maxAttempts,
	).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	outcome, ok := result.(int64)
	if !ok {
		return false, fmt.Errorf("%w: unexpected consume script result", ErrRedisUnavailable)
	}

	return outcome == 1, nil
}
