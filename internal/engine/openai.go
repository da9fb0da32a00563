package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// maxCompletionTokens bounds the output budget of a hosted completion.
const maxCompletionTokens = 1500

// hostedTimeout bounds the hosted completions call.
const hostedTimeout = 60 * time.Second

// OpenAI generates content against the hosted chat completions API.
type OpenAI struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
	logger  *slog.Logger
}

// NewOpenAI creates an OpenAI backend. An empty apiKey is allowed; every
// Generate call then returns a configuration-error result without touching
// the network.
func NewOpenAI(baseURL, apiKey, model string, logger *slog.Logger) *OpenAI {
	return &OpenAI{
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   model,
		client:  newHTTPClient(hostedTimeout),
		logger:  logger.With("component", "engine.openai"),
	}
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Generate runs one chat completion and returns the first choice's text.
func (o *OpenAI) Generate(ctx context.Context, prompt string) Result {
	if o.apiKey == "" {
		o.logger.Error("OpenAI API key not configured")
		return Result{Kind: KindUnconfigured}
	}

	body, err := json.Marshal(chatRequest{
		Model:     o.model,
		Messages:  []chatMessage{{Role: "user", Content: prompt}},
		MaxTokens: maxCompletionTokens,
	})
	if err != nil {
		return Result{Kind: KindBackendError, Detail: err.Error()}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return Result{Kind: KindBackendError, Detail: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.apiKey)

	res, err := o.client.Do(req)
	if err != nil {
		o.logger.Error("OpenAI request failed", "error", err)
		return Result{Kind: KindBackendError, Detail: err.Error()}
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		o.logger.Error("OpenAI returned unexpected status", "status", res.StatusCode)
		return Result{Kind: KindBackendError, Detail: fmt.Sprintf("status %d: %s", res.StatusCode, snippet)}
	}

	var decoded chatResponse
	if err := json.NewDecoder(res.Body).Decode(&decoded); err != nil {
		return Result{Kind: KindBackendError, Detail: err.Error()}
	}

	if len(decoded.Choices) == 0 {
		return Result{Kind: KindBackendError, Detail: "no choices returned"}
	}

	return OK(decoded.Choices[0].Message.Content)
}
