package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/nichegen/nichegen/internal/auth"
	"github.com/nichegen/nichegen/internal/cache"
	"github.com/nichegen/nichegen/internal/model"
	"github.com/nichegen/nichegen/internal/repository"
)

// SessionResolver maps a verified session ID to a user ID.
type SessionResolver interface {
	Get(ctx context.Context, id string) (string, error)
}

// TokenResolver maps an API token to a user ID.
type TokenResolver interface {
	Resolve(ctx context.Context, token string) (string, error)
}

// UserGetter loads a user record by ID.
type UserGetter interface {
	GetUserByID(ctx context.Context, id string) (*model.User, error)
}

// IdentityConfig holds dependencies for the identity middleware.
type IdentityConfig struct {
	Logger        *slog.Logger
	Sessions      SessionResolver
	Tokens        TokenResolver
	Users         UserGetter
	SessionSecret string
}

// Identity resolves the caller from the session cookie or the API token
// header and attaches the identity to the request context. Requests with
// no credential, or a credential that does not resolve, continue as
// anonymous; RequireAuth decides access per route.
func Identity(cfg IdentityConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := cfg.resolve(r)
			if id == nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := auth.ContextWithIdentity(r.Context(), id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func (cfg IdentityConfig) resolve(r *http.Request) *model.Identity {
	if id := cfg.resolveSession(r); id != nil {
		return id
	}
	return cfg.resolveToken(r)
}

// resolveSession checks the signed session cookie. The server-side entry
// is only consulted after the signature verifies.
func (cfg IdentityConfig) resolveSession(r *http.Request) *model.Identity {
	cookie, err := r.Cookie(auth.SessionCookieName)
	if err != nil {
		return nil
	}

	sessionID, err := auth.VerifySessionCookie(cfg.SessionSecret, cookie.Value)
	if err != nil {
		cfg.Logger.Warn("session cookie rejected",
			slog.String("reason", "bad_signature"),
			slog.String("ip", r.RemoteAddr),
			slog.String("request_id", GetRequestID(r.Context())),
		)
		return nil
	}

	userID, err := cfg.Sessions.Get(r.Context(), sessionID)
	if err != nil {
		if !errors.Is(err, cache.ErrSessionNotFound) {
			cfg.Logger.Error("session lookup failed", slog.String("error", err.Error()))
		}
		return nil
	}

	user, err := cfg.Users.GetUserByID(r.Context(), userID)
	if err != nil {
		if !errors.Is(err, repository.ErrUserNotFound) {
			cfg.Logger.Error("user lookup failed during auth", slog.String("error", err.Error()))
		}
		return nil
	}

	return &model.Identity{
		UserID:    user.ID,
		Email:     user.Email,
		IsPaid:    user.IsPaid,
		Source:    model.IdentitySourceSession,
		SessionID: sessionID,
	}
}

func (cfg IdentityConfig) resolveToken(r *http.Request) *model.Identity {
	token := ExtractToken(r)
	if token == "" {
		return nil
	}

	userID, err := cfg.Tokens.Resolve(r.Context(), token)
	if err != nil {
		if !errors.Is(err, cache.ErrTokenNotFound) {
			cfg.Logger.Error("token lookup failed", slog.String("error", err.Error()))
		} else {
			cfg.Logger.Warn("authentication failed",
				slog.String("reason", "invalid_token"),
				slog.String("ip", r.RemoteAddr),
				slog.String("endpoint", r.Method+" "+r.URL.Path),
				slog.String("request_id", GetRequestID(r.Context())),
			)
		}
		return nil
	}

	user, err := cfg.Users.GetUserByID(r.Context(), userID)
	if err != nil {
		if !errors.Is(err, repository.ErrUserNotFound) {
			cfg.Logger.Error("user lookup failed during auth", slog.String("error", err.Error()))
		}
		return nil
	}

	return &model.Identity{
		UserID: user.ID,
		Email:  user.Email,
		IsPaid: user.IsPaid,
		Source: model.IdentitySourceToken,
	}
}

// RequireAuth rejects anonymous requests. Apply after Identity.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth.IdentityFromContext(r.Context()) == nil {
			writeAuthError(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ExtractToken extracts the API token from the request.
// Supports both "X-API-Token: <token>" and "Authorization: Bearer <token>".
func ExtractToken(r *http.Request) string {
	if token := r.Header.Get(auth.TokenHeader); token != "" {
		return token
	}

	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}

// writeAuthError writes a 401 Unauthorized response.
// Uses the same message for all auth failures to prevent enumeration.
func writeAuthError(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"Authentication required"}`))
}
