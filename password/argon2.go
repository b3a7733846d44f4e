package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	minMemoryKB    uint32 = 8 * 1024
	minSaltLength  uint32 = 16
	minKeyLength   uint32 = 16
	minPassBytes          = 8
	algorithmID           = "argon2id"
)

// ErrPasswordTooShort rejects candidate passwords below the minimum length.
// Length is measured in raw bytes exactly as provided; no Unicode
// normalization is applied.
var ErrPasswordTooShort = fmt.Errorf("password must be at least %d bytes", minPassBytes)

// Config carries the argon2id cost parameters (Memory in KB).
type Config struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// Encoder hashes and verifies credentials with argon2id, producing PHC-format
// strings ("$argon2id$v=19$m=...,t=...,p=...$salt$hash"). Safe for concurrent
// use.
type Encoder struct {
	config Config
}

// NewEncoder validates cfg and returns an [Encoder].
func NewEncoder(cfg Config) (*Encoder, error) {
	if cfg.Memory < minMemoryKB {
		return nil, errors.New("password memory must be >= 8192 KB")
	}
	if cfg.Time < 1 {
		return nil, errors.New("password time must be >= 1")
	}
	if cfg.Parallelism < 1 {
		return nil, errors.New("password parallelism must be >= 1")
	}
	if cfg.SaltLength < minSaltLength {
		return nil, errors.New("password salt length must be >= 16")
	}
	if cfg.KeyLength < minKeyLength {
		return nil, errors.New("password key length must be >= 16")
	}
	return &Encoder{config: cfg}, nil
}

// Hash derives a PHC-encoded hash of password under a fresh random salt.
func (e *Encoder) Hash(password string) (string, error) {
	if len(password) < minPassBytes {
		return "", ErrPasswordTooShort
	}

	salt := make([]byte, e.config.SaltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", err
	}

	key := argon2.IDKey(
		[]byte(password),
		salt,
		e.config.Time,
		e.config.Memory,
		e.config.Parallelism,
		e.config.KeyLength,
	)

	return fmt.Sprintf(
		"$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		algorithmID,
		argon2.Version,
		e.config.Memory,
		e.config.Time,
		e.config.Parallelism,
		base64.StdEncoding.EncodeToString(salt),
		base64.StdEncoding.EncodeToString(key),
	), nil
}

// Verify reports whether password matches encodedHash. The comparison is
// constant time over the derived key; a malformed hash is an error, not a
// mismatch.
func (e *Encoder) Verify(password, encodedHash string) (bool, error) {
	parsed, err := parsePHC(encodedHash)
	if err != nil {
		return false, err
	}

	computed := argon2.IDKey(
		[]byte(password),
		parsed.salt,
		parsed.time,
		parsed.memory,
		parsed.parallelism,
		uint32(len(parsed.hash)),
	)

	return subtle.ConstantTimeCompare(computed, parsed.hash) == 1, nil
}

// NeedsRehash reports whether encodedHash was derived with weaker parameters
// than the encoder is configured for. Callers typically re-hash on the next
// successful verify.
func (e *Encoder) NeedsRehash(encodedHash string) (bool, error) {
	parsed, err := parsePHC(encodedHash)
	if err != nil {
		return false, err
	}

	if e.config.Memory > parsed.memory || e.config.Time > parsed.time {
		return true, nil
	}
	if e.config.Parallelism > parsed.parallelism {
		return true, nil
	}
	if int(e.config.KeyLength) != len(parsed.hash) {
		return true, nil
	}
	return false, nil
}

type parsedPHC struct {
	memory      uint32
	time        uint32
	parallelism uint8
	salt        []byte
	hash        []byte
}

func parsePHC(encodedHash string) (*parsedPHC, error) {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 || parts[0] != "" {
		return nil, errors.New("invalid PHC format")
	}
	if parts[1] != algorithmID {
		return nil, errors.New("unsupported algorithm")
	}

	var version int
	if n, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || n != 1 {
		return nil, errors.New("invalid argon2 version")
	}
	if version != argon2.Version {
		return nil, errors.New("unsupported argon2 version")
	}

	var (
		m, t uint32
		p    uint8
	)
	if n, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &m, &t, &p); err != nil || n != 3 {
		return nil, errors.New("invalid cost parameters")
	}
	if m < minMemoryKB || t < 1 || p < 1 {
		return nil, errors.New("invalid cost parameters")
	}

	salt, err := base64.StdEncoding.DecodeString(parts[4])
	if err != nil || len(salt) < int(minSaltLength) {
		return nil, errors.New("invalid salt")
	}
	hash, err := base64.StdEncoding.DecodeString(parts[5])
	if err != nil || len(hash) == 0 {
		return nil, errors.New("invalid hash")
	}

	return &parsedPHC{
		memory:      m,
		time:        t,
		parallelism: p,
		salt:        salt,
		hash:        hash,
	}, nil
}
