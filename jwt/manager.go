package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Config defines the token envelope. SigningSecret is the shared HS256 key;
// every token carries iat, nbf and exp, with exp = iat + TTL.
//
// Config instances are intended to be configured during initialization and then
// treated as immutable.
type Config struct {
	TTL           time.Duration
	SigningSecret []byte
	Issuer        string
	Leeway        time.Duration
}

// Manager signs and parses session tokens. Safe for concurrent use.
type Manager struct {
	config Config
}

// Claims is the session token payload. Secret mirrors the session secret
// stored in the cache record; a parsed token is only an authorization claim,
// the equality check against the live record is the authorization decision.
type Claims struct {
	UID    string `json:"uid"`
	Secret string `json:"sec"`
	jwt.RegisteredClaims
}

// NewManager validates cfg and returns a [Manager].
func NewManager(cfg Config) (*Manager, error) {
	if cfg.TTL <= 0 {
		return nil, errors.New("invalid TTL configuration")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}
	if len(cfg.SigningSecret) < 32 {
		return nil, errors.New("signing secret must be at least 32 bytes")
	}
	return &Manager{config: cfg}, nil
}

// Sign issues a token for uid carrying secret. The validity window starts now
// (iat == nbf) and ends TTL later.
func (j *Manager) Sign(uid, secret string) (string, error) {
	now := time.Now()
	claims := Claims{
		UID:    uid,
		Secret: secret,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.config.TTL)),
			Issuer:    j.config.Issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(j.config.SigningSecret)
}

// Parse verifies the token signature and time window and returns the claims.
// Any failure (malformed, bad signature, expired, not yet valid, wrong issuer)
// is an error; callers must not inspect claims from a failed parse.
func (j *Manager) Parse(tokenStr string) (*Claims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
	}
	if j.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(j.config.Leeway))
	}
	if j.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(j.config.Issuer))
	}

	parser := jwt.NewParser(options...)
	token, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return j.config.SigningSecret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	if claims.UID == "" || claims.Secret == "" {
		return nil, jwt.ErrTokenInvalidClaims
	}

	return claims, nil
}

// TTL reports the configured token lifetime.
func (j *Manager) TTL() time.Duration {
	return j.config.TTL
}
