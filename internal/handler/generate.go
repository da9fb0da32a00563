package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/nichegen/nichegen/internal/auth"
	"github.com/nichegen/nichegen/internal/handler/dto"
	"github.com/nichegen/nichegen/internal/prompt"
	"github.com/nichegen/nichegen/internal/repository"
	"github.com/nichegen/nichegen/internal/service"
)

// History pagination defaults.
const (
	defaultPage    = 1
	defaultPerPage = 10
	maxPerPage     = 100
)

// Generator is the service surface the generation endpoints need.
type Generator interface {
	Generate(ctx context.Context, userID string, in service.GenerateInput) (string, error)
	History(ctx context.Context, userID string, page, perPage int) (*repository.GenerationPage, error)
}

// GenerateHandler handles content generation and history.
type GenerateHandler struct {
	svc        Generator
	categories []string
	logger     *slog.Logger
}

// NewGenerateHandler creates a new GenerateHandler. categories is the
// niche combination list served by the categories endpoint, loaded once
// at startup.
func NewGenerateHandler(svc Generator, categories []string, logger *slog.Logger) *GenerateHandler {
	return &GenerateHandler{
		svc:        svc,
		categories: categories,
		logger:     logger,
	}
}

// Generate handles POST /generate/.
func (h *GenerateHandler) Generate(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req dto.GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "No data provided")
		return
	}

	content, err := h.svc.Generate(r.Context(), userID, service.GenerateInput{
		Categories:      req.Categories,
		Color:           req.Color,
		AdditionalWords: req.AdditionalWords,
		ContentType:     req.Type,
		Engine:          req.Engine,
		Language:        req.Language,
	})
	if err != nil {
		h.handleGenerateError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.GenerateResponse{Content: content})
}

// handleGenerateError maps pipeline errors to HTTP responses.
// Backend failures never reach here; they come back as content.
func (h *GenerateHandler) handleGenerateError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, prompt.ErrNoCategories):
		writeError(w, http.StatusBadRequest, "No clothing categories provided")
	case errors.Is(err, prompt.ErrNoColor):
		writeError(w, http.StatusBadRequest, "No primary color provided")
	case errors.Is(err, prompt.ErrUnknownContentType):
		writeError(w, http.StatusBadRequest,
			"Unknown content type. Available types: "+strings.Join(prompt.ContentTypes(), ", "))
	default:
		h.logger.Error("generation failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Content generation failed")
	}
}

// History handles GET /generate/history.
func (h *GenerateHandler) History(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	page := queryInt(r, "page", defaultPage)
	perPage := queryInt(r, "per_page", defaultPerPage)
	if perPage > maxPerPage {
		perPage = maxPerPage
	}

	result, err := h.svc.History(r.Context(), userID, page, perPage)
	if err != nil {
		h.logger.Error("history retrieval failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to retrieve history")
		return
	}

	items := make([]dto.GenerationResponse, 0, len(result.Items))
	for _, gen := range result.Items {
		items = append(items, dto.ToGenerationResponse(gen))
	}

	pages := result.Total / perPage
	if result.Total%perPage != 0 {
		pages++
	}

	writeJSON(w, http.StatusOK, dto.HistoryResponse{
		Items:       items,
		Total:       result.Total,
		Pages:       pages,
		CurrentPage: page,
	})
}

// Categories handles GET /generate/categories.
func (h *GenerateHandler) Categories(w http.ResponseWriter, r *http.Request) {
	if h.categories == nil {
		writeJSON(w, http.StatusOK, []string{})
		return
	}
	writeJSON(w, http.StatusOK, h.categories)
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 1 {
		return fallback
	}
	return value
}
