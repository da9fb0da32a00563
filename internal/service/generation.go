// Package service provides business logic for the application.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/nichegen/nichegen/internal/analytics"
	"github.com/nichegen/nichegen/internal/engine"
	"github.com/nichegen/nichegen/internal/metrics"
	"github.com/nichegen/nichegen/internal/model"
	"github.com/nichegen/nichegen/internal/prompt"
	"github.com/nichegen/nichegen/internal/repository"
)

// ErrPersistFailed indicates content was generated but could not be saved.
// The quota spent on the request is not refunded.
var ErrPersistFailed = errors.New("failed to save generation")

// Request defaults, applied when the corresponding field is empty.
const (
	DefaultContentType = "Product Description"
	DefaultEngine      = "openai"
	DefaultLanguage    = "en"
)

// languageBangla triggers the translation step.
const languageBangla = "bn"

// GenerationRepo is the persistence surface the service needs.
type GenerationRepo interface {
	CreateGeneration(ctx context.Context, gen *model.Generation) error
	ListGenerationsByUser(ctx context.Context, userID string, page, perPage int) (*repository.GenerationPage, error)
}

// Dispatcher routes a prompt to a generation backend.
type Dispatcher interface {
	Dispatch(ctx context.Context, engineName, promptText string) engine.Result
}

// Translator converts generated content to the requested language,
// best effort.
type Translator interface {
	Translate(ctx context.Context, text string) string
}

// UsagePublisher emits usage events off the request path.
type UsagePublisher interface {
	PublishAsync(event analytics.UsageEventPayload)
}

// GenerationService runs the generation pipeline: prompt, dispatch,
// optional translation, persistence.
type GenerationService struct {
	repo       GenerationRepo
	dispatcher Dispatcher
	translator Translator
	publisher  UsagePublisher
	metrics    metrics.Recorder
	logger     *slog.Logger
}

// NewGenerationService creates a GenerationService. publisher may be nil
// when the usage pipeline is disabled.
func NewGenerationService(
	repo GenerationRepo,
	dispatcher Dispatcher,
	translator Translator,
	publisher UsagePublisher,
	recorder metrics.Recorder,
	logger *slog.Logger,
) *GenerationService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &GenerationService{
		repo:       repo,
		dispatcher: dispatcher,
		translator: translator,
		publisher:  publisher,
		metrics:    recorder,
		logger:     logger.With("component", "service.generation"),
	}
}

// GenerateInput defines input for one generation request.
type GenerateInput struct {
	Categories      []string
	Color           string
	AdditionalWords string
	ContentType     string
	Engine          string
	Language        string
}

// withDefaults fills empty fields with the documented request defaults.
func (in GenerateInput) withDefaults() GenerateInput {
	if in.ContentType == "" {
		in.ContentType = DefaultContentType
	}
	if in.Engine == "" {
		in.Engine = DefaultEngine
	}
	if in.Language == "" {
		in.Language = DefaultLanguage
	}
	return in
}

// Generate runs the full pipeline for an authenticated user and returns
// the content to serve. Backend failures are folded into the content
// string rather than returned as errors; only invalid input and
// persistence failures produce an error.
func (s *GenerationService) Generate(ctx context.Context, userID string, in GenerateInput) (string, error) {
	in = in.withDefaults()

	promptIn := prompt.Input{
		Categories:      in.Categories,
		Color:           in.Color,
		AdditionalWords: in.AdditionalWords,
		ContentType:     in.ContentType,
	}

	niche, err := prompt.BuildNiche(promptIn)
	if err != nil {
		return "", err
	}
	promptText, err := prompt.Build(promptIn)
	if err != nil {
		return "", err
	}

	start := time.Now()
	result := s.dispatcher.Dispatch(ctx, in.Engine, promptText)
	s.metrics.ObserveGenerationDuration(time.Since(start))

	if result.Succeeded() {
		s.metrics.IncGenerationSucceeded(in.Engine)
	} else {
		s.metrics.IncGenerationFailed(in.Engine)
		s.logger.Warn("generation backend failed",
			slog.String("engine", in.Engine),
			slog.Int("kind", int(result.Kind)),
			slog.String("user_id", userID),
		)
	}

	content := result.Message()

	if in.Language == languageBangla {
		translated := s.translator.Translate(ctx, content)
		if translated != content {
			s.metrics.IncTranslationApplied()
		} else {
			s.metrics.IncTranslationFallback()
		}
		content = translated
	}

	gen := &model.Generation{
		ID:          ulid.Make().String(),
		UserID:      userID,
		Niche:       niche,
		Categories:  in.Categories,
		ContentType: in.ContentType,
		Engine:      in.Engine,
		Language:    in.Language,
		Response:    content,
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.repo.CreateGeneration(ctx, gen); err != nil {
		s.logger.Error("failed to persist generation",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		return "", ErrPersistFailed
	}

	s.publishUsage(userID, in, result.Succeeded())

	return content, nil
}

func (s *GenerationService) publishUsage(userID string, in GenerateInput, succeeded bool) {
	if s.publisher == nil {
		return
	}
	s.publisher.PublishAsync(analytics.UsageEventPayload{
		UserID:      userID,
		Engine:      in.Engine,
		ContentType: in.ContentType,
		Language:    in.Language,
		Succeeded:   succeeded,
		GeneratedAt: time.Now().UnixMilli(),
	})
}

// History returns one page of a user's past generations, newest first.
func (s *GenerationService) History(ctx context.Context, userID string, page, perPage int) (*repository.GenerationPage, error) {
	return s.repo.ListGenerationsByUser(ctx, userID, page, perPage)
}
