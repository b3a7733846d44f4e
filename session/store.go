package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrRedisUnavailable wraps any Redis transport failure surfaced by the store.
var ErrRedisUnavailable = errors.New("redis unavailable")

// ErrRecordCorrupt is returned when a cached blob cannot be decoded.
var ErrRecordCorrupt = errors.New("session record corrupt")

// acquireLua is the login write. It must be atomic per key: two simultaneous
// logins for the same user must not race to produce two different secrets. If a
// live record exists its secret (and original creation time) are carried into
// the new record instead of being overwritten, so tokens issued against the
// still-valid session stay valid; otherwise the candidate record is stored
// as-is. Either way the TTL is reset to the full window.
//
// KEYS[1] = record key
// ARGV[1] = candidate record JSON
// ARGV[2] = ttl in milliseconds
//
// Returns the record blob that is now current.
var acquireLua = redis.NewScript(`
local existing = redis.call('GET', KEYS[1])
if existing then
  local ok, cur = pcall(cjson.decode, existing)
  if ok and type(cur) == 'table' and type(cur.secret) == 'string' and cur.secret ~= '' then
    local rec = cjson.decode(ARGV[1])
    rec.secret = cur.secret
    if type(cur.created_at) == 'number' then
      rec.created_at = cur.created_at
    end
    local blob = cjson.encode(rec)
    redis.call('SET', KEYS[1], blob, 'PX', ARGV[2])
    return blob
  end
end
redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[2])
return ARGV[1]
`)

// refreshUserLua swaps the embedded user snapshot on an existing record without
// touching its secret. No-op (returns 0) when the record is absent; a record
// that no longer decodes is dropped rather than resurrected.
//
// KEYS[1] = record key
// ARGV[1] = user snapshot JSON
// ARGV[2] = refreshed-at unix seconds
// ARGV[3] = ttl in milliseconds
var refreshUserLua = redis.NewScript(`
local data = redis.call('GET', KEYS[1])
if not data then
  return 0
end
local ok, rec = pcall(cjson.decode, data)
if not ok or type(rec) ~= 'table' then
  redis.call('DEL', KEYS[1])
  return 0
end
rec.user = cjson.decode(ARGV[1])
rec.refreshed_at = tonumber(ARGV[2])
redis.call('SET', KEYS[1], cjson.encode(rec), 'PX', ARGV[3])
return 1
`)

// Store is the Redis-backed session record store. One key per user; every
// mutation is a single atomic Redis operation, so per-user updates are
// linearized by Redis itself.
type Store struct {
	redis  redis.UniversalClient
	prefix string
}

// NewStore creates a [Store] on the given Redis client. prefix namespaces the
// per-user keys ("<prefix>:<userID>").
func NewStore(redisClient redis.UniversalClient, prefix string) *Store {
	return &Store{
		redis:  redisClient,
		prefix: prefix,
	}
}

func (s *Store) key(userID string) string {
	return s.prefix + ":" + userID
}

// Acquire performs the login write for candidate and returns the record that is
// current afterwards. When a live record already exists for the user, the
// returned record carries the pre-existing secret rather than the candidate's;
// callers must embed the returned secret in any token they issue.
func (s *Store) Acquire(ctx context.Context, candidate *Record, ttl time.Duration) (*Record, error) {
	data, err := json.Marshal(candidate)
	if err != nil {
		return nil, err
	}

	result, err := acquireLua.Run(ctx, s.redis,
		[]string{s.key(candidate.UserID)},
		string(data),
		ttl.Milliseconds(),
	).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	blob, ok := result.(string)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected acquire script result", ErrRedisUnavailable)
	}

	stored := &Record{}
	if err := json.Unmarshal([]byte(blob), stored); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRecordCorrupt, err)
	}

	return stored, nil
}

// Replace unconditionally overwrites the user's record and resets its TTL.
// This is the rotation write: any secret previously current for the user stops
// validating the moment Replace returns.
func (s *Store) Replace(ctx context.Context, rec *Record, ttl time.Duration) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	if err := s.redis.Set(ctx, s.key(rec.UserID), data, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	return nil
}

// Get fetches the user's record. Pure read: neither the TTL nor the record is
// touched. Returns redis.Nil when no record exists.
func (s *Store) Get(ctx context.Context, userID string) (*Record, error) {
	data, err := s.redis.Get(ctx, s.key(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	rec := &Record{}
	if err := json.Unmarshal(data, rec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRecordCorrupt, err)
	}

	return rec, nil
}

// RefreshUser replaces the embedded user snapshot after a persistent-store
// write, keeping the session secret intact and resetting the TTL. Returns
// false when the user has no live record.
func (s *Store) RefreshUser(ctx context.Context, userID string, user User, ttl time.Duration) (bool, error) {
	data, err := json.Marshal(user)
	if err != nil {
		return false, err
	}

	result, err := refreshUserLua.Run(ctx, s.redis,
		[]string{s.key(userID)},
		string(data),
		time.Now().Unix(),
		ttl.Milliseconds(),
	).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	updated, ok := result.(int64)
	if !ok {
		return false, fmt.Errorf("%w: unexpected refresh script result", ErrRedisUnavailable)
	}

	return updated == 1, nil
}

// Delete removes the user's record. Deleting an absent record is not an error;
// logout is idempotent.
func (s *Store) Delete(ctx context.Context, userID string) error {
	if err := s.redis.Del(ctx, s.key(userID)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Ping reports point-in-time Redis availability and latency.
func (s *Store) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return time.Since(start), fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return time.Since(start), nil
}
