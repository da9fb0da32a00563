package middleware

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nichegen/nichegen/internal/auth"
	"github.com/nichegen/nichegen/internal/cache"
	"github.com/nichegen/nichegen/internal/model"
	"github.com/nichegen/nichegen/internal/repository"
)

const testSecret = "test-session-secret"

type fakeSessions struct {
	sessions map[string]string
}

func (f *fakeSessions) Get(ctx context.Context, id string) (string, error) {
	userID, ok := f.sessions[id]
	if !ok {
		return "", cache.ErrSessionNotFound
	}
	return userID, nil
}

type fakeTokens struct {
	tokens map[string]string
}

func (f *fakeTokens) Resolve(ctx context.Context, token string) (string, error) {
	userID, ok := f.tokens[token]
	if !ok {
		return "", cache.ErrTokenNotFound
	}
	return userID, nil
}

type fakeUsers struct {
	users map[string]*model.User
}

func (f *fakeUsers) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return user, nil
}

func testIdentityConfig() IdentityConfig {
	return IdentityConfig{
		Logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
		Sessions:      &fakeSessions{sessions: map[string]string{"sess-1": "user-1"}},
		Tokens:        &fakeTokens{tokens: map[string]string{"tok-abc": "user-2"}},
		Users: &fakeUsers{users: map[string]*model.User{
			"user-1": {ID: "user-1", Email: "one@example.com", IsPaid: false},
			"user-2": {ID: "user-2", Email: "two@example.com", IsPaid: true},
		}},
		SessionSecret: testSecret,
	}
}

// identityEcho records the resolved identity for assertions.
func identityEcho(captured **model.Identity) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*captured = auth.IdentityFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func TestIdentity_SessionCookie(t *testing.T) {
	t.Parallel()

	var got *model.Identity
	handler := Identity(testIdentityConfig())(identityEcho(&got))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{
		Name:  auth.SessionCookieName,
		Value: auth.SignSessionID(testSecret, "sess-1"),
	})
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if got == nil {
		t.Fatal("expected resolved identity")
	}
	if got.UserID != "user-1" || got.Source != model.IdentitySourceSession || got.SessionID != "sess-1" {
		t.Errorf("identity = %+v", got)
	}
}

func TestIdentity_TamperedCookieIsAnonymous(t *testing.T) {
	t.Parallel()

	var got *model.Identity
	handler := Identity(testIdentityConfig())(identityEcho(&got))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{
		Name:  auth.SessionCookieName,
		Value: auth.SignSessionID("wrong-secret", "sess-1"),
	})
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if got != nil {
		t.Errorf("expected anonymous, got %+v", got)
	}
}

func TestIdentity_TokenHeader(t *testing.T) {
	t.Parallel()

	var got *model.Identity
	handler := Identity(testIdentityConfig())(identityEcho(&got))

	req := httptest.NewRequest(http.MethodPost, "/generate/", nil)
	req.Header.Set(auth.TokenHeader, "tok-abc")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if got == nil {
		t.Fatal("expected resolved identity")
	}
	if got.UserID != "user-2" || got.Source != model.IdentitySourceToken || !got.IsPaid {
		t.Errorf("identity = %+v", got)
	}
	if got.SessionID != "" {
		t.Errorf("token identity should carry no session ID, got %q", got.SessionID)
	}
}

func TestIdentity_BearerFallback(t *testing.T) {
	t.Parallel()

	var got *model.Identity
	handler := Identity(testIdentityConfig())(identityEcho(&got))

	req := httptest.NewRequest(http.MethodPost, "/generate/", nil)
	req.Header.Set("Authorization", "Bearer tok-abc")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if got == nil || got.UserID != "user-2" {
		t.Fatalf("identity = %+v", got)
	}
}

func TestIdentity_UnknownTokenIsAnonymous(t *testing.T) {
	t.Parallel()

	var got *model.Identity
	handler := Identity(testIdentityConfig())(identityEcho(&got))

	req := httptest.NewRequest(http.MethodPost, "/generate/", nil)
	req.Header.Set(auth.TokenHeader, "tok-unknown")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if got != nil {
		t.Errorf("expected anonymous, got %+v", got)
	}
}

func TestIdentity_SessionPreferredOverToken(t *testing.T) {
	t.Parallel()

	var got *model.Identity
	handler := Identity(testIdentityConfig())(identityEcho(&got))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{
		Name:  auth.SessionCookieName,
		Value: auth.SignSessionID(testSecret, "sess-1"),
	})
	req.Header.Set(auth.TokenHeader, "tok-abc")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if got == nil || got.UserID != "user-1" || got.Source != model.IdentitySourceSession {
		t.Errorf("identity = %+v, want session user-1", got)
	}
}

func TestRequireAuth(t *testing.T) {
	t.Parallel()

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("anonymous rejected", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		RequireAuth(next).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/generate/", nil))

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
		if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
	})

	t.Run("authenticated passes", func(t *testing.T) {
		t.Parallel()
		req := httptest.NewRequest(http.MethodPost, "/generate/", nil)
		ctx := auth.ContextWithIdentity(req.Context(), &model.Identity{UserID: "user-1"})
		rec := httptest.NewRecorder()
		RequireAuth(next).ServeHTTP(rec, req.WithContext(ctx))

		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rec.Code)
		}
	})
}
