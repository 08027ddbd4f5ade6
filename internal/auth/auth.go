package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"io"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/hkdf"
)

var ErrBadToken = errors.New("invalid token")

// DeriveKey stretches the configured secret into a purpose-bound key.
func DeriveKey(secret, purpose string) ([]byte, error) {
	key := make([]byte, 32)
	r := hkdf.New(sha256.New, []byte(secret), nil, []byte(purpose))
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, err
	}
	return key, nil
}

type Claims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// MakeToken signs the session cookie value.
func MakeToken(sid string, key []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	c := Claims{
		SessionID: sid,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(key)
}

func ParseToken(raw string, key []byte) (*Claims, error) {
	tok, err := jwt.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (any, error) {
		// block alg confusion
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrBadToken
		}
		return key, nil
	})
	if err != nil {
		return nil, err
	}
	c, ok := tok.Claims.(*Claims)
	if !ok || !tok.Valid || c.SessionID == "" {
		return nil, ErrBadToken
	}
	return c, nil
}

// BackendExpired reports whether the backend bearer token carries an exp
// claim in the past. The signature is not checked here, the backend does
// that on every call. Opaque tokens never expire from our side.
func BackendExpired(raw string, now time.Time) bool {
	if raw == "" {
		return true
	}
	var c jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(raw, &c); err != nil {
		return false
	}
	return c.ExpiresAt != nil && !c.ExpiresAt.After(now)
}

// GenerateCSRF returns a random form token.
func GenerateCSRF() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func CheckCSRF(want, got string) bool {
	if want == "" || got == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(want), []byte(got)) == 1
}
