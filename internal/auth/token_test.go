package auth

import (
	"encoding/base64"
	"strings"
	"testing"
)

func TestNewToken_Format(t *testing.T) {
	t.Parallel()

	token, err := NewToken()
	if err != nil {
		t.Fatalf("NewToken failed: %v", err)
	}

	// 32 bytes base64url without padding = 43 chars
	if len(token) != 43 {
		t.Errorf("token length = %d, want 43", len(token))
	}

	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		t.Fatalf("token is not valid base64url: %v", err)
	}
	if len(raw) != tokenBytes {
		t.Errorf("decoded token = %d bytes, want %d", len(raw), tokenBytes)
	}
}

func TestNewToken_Unique(t *testing.T) {
	t.Parallel()

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		token, err := NewToken()
		if err != nil {
			t.Fatalf("NewToken failed: %v", err)
		}
		if seen[token] {
			t.Fatal("NewToken produced a duplicate")
		}
		seen[token] = true
	}
}

func TestSessionCookie_RoundTrip(t *testing.T) {
	t.Parallel()

	secret := "test-session-secret"

	id, err := NewSessionID()
	if err != nil {
		t.Fatalf("NewSessionID failed: %v", err)
	}

	cookie := SignSessionID(secret, id)

	got, err := VerifySessionCookie(secret, cookie)
	if err != nil {
		t.Fatalf("VerifySessionCookie failed: %v", err)
	}
	if got != id {
		t.Errorf("VerifySessionCookie = %q, want %q", got, id)
	}
}

func TestVerifySessionCookie_Rejects(t *testing.T) {
	t.Parallel()

	secret := "test-session-secret"
	cookie := SignSessionID(secret, "session-id-1")

	flipped := "0"
	if strings.HasSuffix(cookie, "0") {
		flipped = "1"
	}

	tests := []struct {
		name  string
		value string
	}{
		{"empty", ""},
		{"no signature", "session-id-1"},
		{"empty id", "." + strings.SplitN(cookie, ".", 2)[1]},
		{"tampered id", strings.Replace(cookie, "session-id-1", "session-id-2", 1)},
		{"tampered signature", cookie[:len(cookie)-1] + flipped},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if _, err := VerifySessionCookie(secret, tt.value); err == nil {
				t.Errorf("expected error for cookie %q, got nil", tt.value)
			}
		})
	}
}

func TestVerifySessionCookie_WrongSecret(t *testing.T) {
	t.Parallel()

	cookie := SignSessionID("secret-a", "session-id-1")

	if _, err := VerifySessionCookie("secret-b", cookie); err == nil {
		t.Error("cookie signed with a different secret should not verify")
	}
}
