// Package dto provides Data Transfer Objects for API requests and responses.
package dto

import (
	"time"

	"github.com/nichegen/nichegen/internal/model"
)

// RegisterRequest represents the request body for registration.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest represents the request body for login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserResponse is the caller-visible slice of a user record.
type UserResponse struct {
	Email  string `json:"email"`
	IsPaid bool   `json:"is_paid"`
}

// LoginResponse represents a successful login.
type LoginResponse struct {
	Message string       `json:"message"`
	Token   string       `json:"token"`
	User    UserResponse `json:"user"`
}

// MessageResponse is a plain confirmation message.
type MessageResponse struct {
	Message string `json:"message"`
}

// GenerateRequest represents the request body for content generation.
// Field names follow the web client's camelCase convention.
type GenerateRequest struct {
	Categories      []string `json:"categories"`
	Color           string   `json:"color"`
	AdditionalWords string   `json:"additionalWords,omitempty"`
	Type            string   `json:"type,omitempty"`
	Engine          string   `json:"engine,omitempty"`
	Language        string   `json:"language,omitempty"`
}

// GenerateResponse carries the generated (or failure-describing) content.
type GenerateResponse struct {
	Content string `json:"content"`
}

// GenerationResponse represents one history entry.
type GenerationResponse struct {
	ID          string `json:"id"`
	Niche       string `json:"niche"`
	ContentType string `json:"content_type"`
	Engine      string `json:"engine"`
	Language    string `json:"language"`
	CreatedAt   string `json:"created_at"`
	Response    string `json:"response"`
}

// HistoryResponse represents a page of past generations.
type HistoryResponse struct {
	Items       []GenerationResponse `json:"items"`
	Total       int                  `json:"total"`
	Pages       int                  `json:"pages"`
	CurrentPage int                  `json:"current_page"`
}

// DailyUsageResponse is one engine's aggregated counters for a day.
type DailyUsageResponse struct {
	Engine      string `json:"engine"`
	Generations int64  `json:"generations"`
	Failures    int64  `json:"failures"`
}

// UsageResponse represents the daily usage breakdown.
type UsageResponse struct {
	Day     string               `json:"day"`
	Engines []DailyUsageResponse `json:"engines"`
}

// ErrorResponse represents an API error.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ToDailyUsageResponse converts a DailyUsage row to its API shape.
func ToDailyUsageResponse(du *model.DailyUsage) DailyUsageResponse {
	return DailyUsageResponse{
		Engine:      du.Engine,
		Generations: du.Generations,
		Failures:    du.Failures,
	}
}

// ToGenerationResponse converts a Generation model to its history entry.
func ToGenerationResponse(gen *model.Generation) GenerationResponse {
	return GenerationResponse{
		ID:          gen.ID,
		Niche:       gen.Niche,
		ContentType: gen.ContentType,
		Engine:      gen.Engine,
		Language:    gen.Language,
		CreatedAt:   gen.CreatedAt.Format(time.RFC3339),
		Response:    gen.Response,
	}
}
