package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/nichegen/nichegen/internal/auth"
	"github.com/nichegen/nichegen/internal/handler/dto"
	"github.com/nichegen/nichegen/internal/metrics"
	"github.com/nichegen/nichegen/internal/middleware"
	"github.com/nichegen/nichegen/internal/model"
	"github.com/nichegen/nichegen/internal/repository"
)

// UserStore is the persistence surface the auth endpoints need.
type UserStore interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
}

// TokenIssuer issues and revokes API tokens.
type TokenIssuer interface {
	Issue(ctx context.Context, userID string) (string, error)
	Revoke(ctx context.Context, token string) error
}

// SessionManager creates and removes server-side sessions.
type SessionManager interface {
	Create(ctx context.Context, userID string) (string, error)
	Delete(ctx context.Context, id string) error
}

// AuthHandler handles registration, login, and logout.
type AuthHandler struct {
	users         UserStore
	tokens        TokenIssuer
	sessions      SessionManager
	sessionSecret string
	sessionTTL    time.Duration
	secureCookie  bool
	metrics       metrics.Recorder
	logger        *slog.Logger
}

// AuthHandlerConfig holds dependencies for AuthHandler.
type AuthHandlerConfig struct {
	Users         UserStore
	Tokens        TokenIssuer
	Sessions      SessionManager
	SessionSecret string
	SessionTTL    time.Duration
	SecureCookie  bool
	Metrics       metrics.Recorder
	Logger        *slog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(cfg AuthHandlerConfig) *AuthHandler {
	recorder := cfg.Metrics
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &AuthHandler{
		users:         cfg.Users,
		tokens:        cfg.Tokens,
		sessions:      cfg.Sessions,
		sessionSecret: cfg.SessionSecret,
		sessionTTL:    cfg.SessionTTL,
		secureCookie:  cfg.SecureCookie,
		metrics:       recorder,
		logger:        cfg.Logger,
	}
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "No data provided")
		return
	}

	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Email and password required")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.logger.Error("password hash failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Registration failed")
		return
	}

	user := &model.User{
		ID:           uuid.New().String(),
		Email:        req.Email,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}

	if err := h.users.CreateUser(r.Context(), user); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			writeError(w, http.StatusBadRequest, "Email already exists")
			return
		}
		h.logger.Error("user creation failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Registration failed")
		return
	}

	h.metrics.IncUserRegistered()
	h.logger.Info("user_registered", "user_id", user.ID)

	writeJSON(w, http.StatusOK, dto.MessageResponse{Message: "User registered successfully"})
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "No data provided")
		return
	}

	user, err := h.users.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			h.rejectLogin(w, r)
			return
		}
		h.logger.Error("user lookup failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Login failed")
		return
	}

	match, err := auth.VerifyPassword(req.Password, user.PasswordHash)
	if err != nil || !match {
		h.rejectLogin(w, r)
		return
	}

	token, err := h.tokens.Issue(r.Context(), user.ID)
	if err != nil {
		h.logger.Error("token issue failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Login failed")
		return
	}

	// A fresh login replaces any session the browser already had.
	if id := auth.IdentityFromContext(r.Context()); id != nil && id.SessionID != "" {
		_ = h.sessions.Delete(r.Context(), id.SessionID)
	}

	sessionID, err := h.sessions.Create(r.Context(), user.ID)
	if err != nil {
		h.logger.Error("session creation failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Login failed")
		return
	}

	http.SetCookie(w, h.sessionCookie(auth.SignSessionID(h.sessionSecret, sessionID), int(h.sessionTTL.Seconds())))

	h.logger.Info("user_logged_in", "user_id", user.ID)

	writeJSON(w, http.StatusOK, dto.LoginResponse{
		Message: "Logged in successfully",
		Token:   token,
		User:    dto.UserResponse{Email: user.Email, IsPaid: user.IsPaid},
	})
}

// rejectLogin answers bad credentials. One message for unknown email and
// wrong password alike.
func (h *AuthHandler) rejectLogin(w http.ResponseWriter, r *http.Request) {
	h.metrics.IncLoginFailed()
	h.logger.Warn("login rejected", "ip", r.RemoteAddr)
	writeError(w, http.StatusUnauthorized, "Invalid credentials")
}

// Logout handles POST /auth/logout. Idempotent: succeeds with or without
// a live session or token.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if id := auth.IdentityFromContext(r.Context()); id != nil && id.SessionID != "" {
		if err := h.sessions.Delete(r.Context(), id.SessionID); err != nil {
			h.logger.Warn("session delete failed", "error", err)
		}
	}

	if token := middleware.ExtractToken(r); token != "" {
		if err := h.tokens.Revoke(r.Context(), token); err != nil {
			h.logger.Warn("token revoke failed", "error", err)
		}
	}

	// Expire the cookie regardless of what the request carried.
	http.SetCookie(w, h.sessionCookie("", -1))

	writeJSON(w, http.StatusOK, dto.MessageResponse{Message: "Logged out successfully"})
}

func (h *AuthHandler) sessionCookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     auth.SessionCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	}
}
