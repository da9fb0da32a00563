package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/nichegen/nichegen/internal/auth"
	"github.com/nichegen/nichegen/internal/handler/dto"
	"github.com/nichegen/nichegen/internal/model"
	"github.com/nichegen/nichegen/internal/prompt"
	"github.com/nichegen/nichegen/internal/repository"
	"github.com/nichegen/nichegen/internal/service"
)

type fakeGenerator struct {
	content     string
	generateErr error
	page        *repository.GenerationPage
	historyErr  error

	lastUserID  string
	lastInput   service.GenerateInput
	lastPage    int
	lastPerPage int
}

func (f *fakeGenerator) Generate(ctx context.Context, userID string, in service.GenerateInput) (string, error) {
	f.lastUserID = userID
	f.lastInput = in
	if f.generateErr != nil {
		return "", f.generateErr
	}
	return f.content, nil
}

func (f *fakeGenerator) History(ctx context.Context, userID string, page, perPage int) (*repository.GenerationPage, error) {
	f.lastUserID = userID
	f.lastPage = page
	f.lastPerPage = perPage
	if f.historyErr != nil {
		return nil, f.historyErr
	}
	return f.page, nil
}

func newGenerateHandler(gen *fakeGenerator, categories []string) *GenerateHandler {
	return NewGenerateHandler(gen, categories, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func authedRequest(method, target, body string) *http.Request {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	ctx := auth.ContextWithIdentity(req.Context(), &model.Identity{UserID: "user-1"})
	return req.WithContext(ctx)
}

func TestGenerate_Success(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{content: "generated copy"}
	h := newGenerateHandler(gen, nil)

	body := `{"categories":["t-shirt"],"color":"blue","type":"Product Description","engine":"ollama","language":"en"}`
	rec := httptest.NewRecorder()
	h.Generate(rec, authedRequest(http.MethodPost, "/generate/", body))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	var resp dto.GenerateResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Content != "generated copy" {
		t.Errorf("content = %q", resp.Content)
	}
	if gen.lastUserID != "user-1" || gen.lastInput.Engine != "ollama" || gen.lastInput.Color != "blue" {
		t.Errorf("input = %+v for user %q", gen.lastInput, gen.lastUserID)
	}
}

func TestGenerate_Unauthenticated(t *testing.T) {
	t.Parallel()

	h := newGenerateHandler(&fakeGenerator{}, nil)
	rec := httptest.NewRecorder()
	h.Generate(rec, httptest.NewRequest(http.MethodPost, "/generate/", strings.NewReader("{}")))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestGenerate_ValidationErrorsMapped(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantError  string
	}{
		{"no categories", prompt.ErrNoCategories, http.StatusBadRequest, "No clothing categories provided"},
		{"no color", prompt.ErrNoColor, http.StatusBadRequest, "No primary color provided"},
		{"persist failed", service.ErrPersistFailed, http.StatusInternalServerError, "Content generation failed"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := newGenerateHandler(&fakeGenerator{generateErr: tt.err}, nil)
			rec := httptest.NewRecorder()
			h.Generate(rec, authedRequest(http.MethodPost, "/generate/", `{"categories":["x"],"color":"red"}`))

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if got := decodeError(t, rec); got != tt.wantError {
				t.Errorf("error = %q, want %q", got, tt.wantError)
			}
		})
	}
}

func TestGenerate_UnknownTypeListsAvailable(t *testing.T) {
	t.Parallel()

	h := newGenerateHandler(&fakeGenerator{generateErr: prompt.ErrUnknownContentType}, nil)
	rec := httptest.NewRecorder()
	h.Generate(rec, authedRequest(http.MethodPost, "/generate/", `{"categories":["x"],"color":"red","type":"Haiku"}`))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	got := decodeError(t, rec)
	if !strings.HasPrefix(got, "Unknown content type. Available types: ") {
		t.Fatalf("error = %q", got)
	}
	for _, name := range prompt.ContentTypes() {
		if !strings.Contains(got, name) {
			t.Errorf("error message missing type %q", name)
		}
	}
}

func TestGenerate_BadJSON(t *testing.T) {
	t.Parallel()

	h := newGenerateHandler(&fakeGenerator{}, nil)
	rec := httptest.NewRecorder()
	h.Generate(rec, authedRequest(http.MethodPost, "/generate/", "{"))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if got := decodeError(t, rec); got != "No data provided" {
		t.Errorf("error = %q", got)
	}
}

func TestHistory_Pagination(t *testing.T) {
	t.Parallel()

	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	gen := &fakeGenerator{page: &repository.GenerationPage{
		Items: []*model.Generation{
			{ID: "g2", Niche: "blue jeans", ContentType: "Slogan", Engine: "openai", Language: "en", Response: "newer", CreatedAt: created.Add(time.Hour)},
			{ID: "g1", Niche: "blue jeans", ContentType: "Slogan", Engine: "openai", Language: "en", Response: "older", CreatedAt: created},
		},
		Total: 5,
	}}
	h := newGenerateHandler(gen, nil)

	rec := httptest.NewRecorder()
	h.History(rec, authedRequest(http.MethodGet, "/generate/history?page=2&per_page=2", ""))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if gen.lastPage != 2 || gen.lastPerPage != 2 {
		t.Errorf("page = %d per_page = %d", gen.lastPage, gen.lastPerPage)
	}

	var resp dto.HistoryResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Total != 5 || resp.Pages != 3 || resp.CurrentPage != 2 {
		t.Errorf("pagination = %+v", resp)
	}
	if len(resp.Items) != 2 || resp.Items[0].ID != "g2" {
		t.Errorf("items = %+v", resp.Items)
	}
	if resp.Items[1].CreatedAt != "2026-03-01T10:00:00Z" {
		t.Errorf("created_at = %q", resp.Items[1].CreatedAt)
	}
}

func TestHistory_Defaults(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{page: &repository.GenerationPage{}}
	h := newGenerateHandler(gen, nil)

	rec := httptest.NewRecorder()
	h.History(rec, authedRequest(http.MethodGet, "/generate/history", ""))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if gen.lastPage != 1 || gen.lastPerPage != 10 {
		t.Errorf("defaults = page %d per_page %d, want 1 and 10", gen.lastPage, gen.lastPerPage)
	}
}

func TestCategories(t *testing.T) {
	t.Parallel()

	h := newGenerateHandler(&fakeGenerator{}, []string{"t-shirt, jeans", "hoodie, cap"})
	rec := httptest.NewRecorder()
	h.Categories(rec, httptest.NewRequest(http.MethodGet, "/generate/categories", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var got []string
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 2 || got[0] != "t-shirt, jeans" {
		t.Errorf("categories = %v", got)
	}
}

func TestCategories_EmptyList(t *testing.T) {
	t.Parallel()

	h := newGenerateHandler(&fakeGenerator{}, nil)
	rec := httptest.NewRecorder()
	h.Categories(rec, httptest.NewRequest(http.MethodGet, "/generate/categories", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if body := strings.TrimSpace(rec.Body.String()); body != "[]" {
		t.Errorf("body = %q, want []", body)
	}
}
