package internal

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"math/big"
	"strings"
)

const sessionSecretSize = 32

// NewSessionSecret returns a fresh opaque session secret: 32 bytes of
// crypto/rand entropy, base64url without padding.
func NewSessionSecret() (string, error) {
	var raw [sessionSecretSize]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw[:]), nil
}

// HashCode is the storage form of a verification code. Codes are short-lived
// and low-entropy, so only the digest ever touches Redis.
func HashCode(code string) string {
	sum := sha256.Sum256([]byte(code))
	return base64.RawStdEncoding.EncodeToString(sum[:])
}

// NewOTP returns a numeric one-time code of the given length. Each digit is
// drawn independently so the value is uniform over the full range.
func NewOTP(digits int) (string, error) {
	if digits < 6 || digits > 10 {
		return "", errors.New("invalid otp digits")
	}

	var b strings.Builder
	b.Grow(digits)

	max := big.NewInt(10)
	for i := 0; i < digits; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(byte('0' + n.Int64()))
	}

	otp := b.String()
	if len(otp) != digits {
		return "", fmt.Errorf("invalid otp generation length")
	}
	return otp, nil
}
