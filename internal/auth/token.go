package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// tokenBytes is the raw entropy of an API token: 32 bytes = 256 bits.
const tokenBytes = 32

// SessionCookieName is the browser cookie carrying the signed session ID.
const SessionCookieName = "nichegen_session"

// TokenHeader is the HTTP header carrying an API token.
const TokenHeader = "X-API-Token"

// ErrInvalidCookie indicates a session cookie failed signature verification.
var ErrInvalidCookie = errors.New("invalid session cookie")

// NewToken generates an opaque API token: 32 random bytes, base64 URL encoded
// without padding (43 characters).
func NewToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// NewSessionID generates an opaque session identifier.
// Same shape as an API token; the two live in different keyspaces.
func NewSessionID() (string, error) {
	return NewToken()
}

// SignSessionID produces the cookie value for a session identifier:
// "<id>.<hex hmac-sha256(id)>". The server-side session entry is only looked
// up after the signature verifies.
func SignSessionID(secret, id string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(id))
	return id + "." + hex.EncodeToString(mac.Sum(nil))
}

// VerifySessionCookie validates a signed cookie value and returns the
// embedded session identifier.
func VerifySessionCookie(secret, value string) (string, error) {
	id, sig, ok := strings.Cut(value, ".")
	if !ok || id == "" {
		return "", ErrInvalidCookie
	}

	expected := SignSessionID(secret, id)
	if !hmac.Equal([]byte(expected), []byte(id+"."+sig)) {
		return "", ErrInvalidCookie
	}

	return id, nil
}
