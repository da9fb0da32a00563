package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"time"
)

const (
	// ProbeTimeout bounds the liveness check against /api/version.
	ProbeTimeout = 5 * time.Second
	// GenerateTimeout bounds the generation call; local models are slow.
	GenerateTimeout = 60 * time.Second
)

// Ollama generates content against a local Ollama server.
type Ollama struct {
	baseURL     string
	model       string
	probeClient *http.Client
	genClient   *http.Client
	logger      *slog.Logger
}

// NewOllama creates an Ollama backend for the given base URL and model.
func NewOllama(baseURL, model string, logger *slog.Logger) *Ollama {
	return &Ollama{
		baseURL:     baseURL,
		model:       model,
		probeClient: newHTTPClient(ProbeTimeout),
		genClient:   newHTTPClient(GenerateTimeout),
		logger:      logger.With("component", "engine.ollama"),
	}
}

// generateRequest is the /api/generate payload.
type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

// generateResponse is the subset of the /api/generate reply we consume.
type generateResponse struct {
	Response string `json:"response"`
}

// Generate probes the server, then runs the generation call.
// All failures are folded into the Result; see the package comment.
func (o *Ollama) Generate(ctx context.Context, prompt string) Result {
	o.logger.Info("attempting to connect to Ollama", "url", o.baseURL)

	// Liveness probe with a short timeout so a dead server fails fast
	// instead of eating the full generation timeout.
	probeReq, err := http.NewRequestWithContext(ctx, http.MethodGet, o.baseURL+"/api/version", nil)
	if err != nil {
		return o.fail(KindTransport, err.Error())
	}

	probeRes, err := o.probeClient.Do(probeReq)
	if err != nil {
		if isTimeout(err) {
			o.logger.Error("Ollama liveness probe timed out")
			return o.fail(KindProbeTimeout, err.Error())
		}
		o.logger.Error("Ollama unreachable", "error", err)
		return o.fail(KindNotRunning, err.Error())
	}
	probeRes.Body.Close()

	if probeRes.StatusCode != http.StatusOK {
		o.logger.Error("Ollama version check returned unexpected status", "status", probeRes.StatusCode)
		return o.fail(KindBadProbeStatus, fmt.Sprintf("status %d", probeRes.StatusCode))
	}

	body, err := json.Marshal(generateRequest{
		Model:  o.model,
		Prompt: prompt,
		Stream: false,
	})
	if err != nil {
		return o.fail(KindTransport, err.Error())
	}

	genReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return o.fail(KindTransport, err.Error())
	}
	genReq.Header.Set("Content-Type", "application/json")

	genRes, err := o.genClient.Do(genReq)
	if err != nil {
		if isTimeout(err) {
			o.logger.Error("Ollama generation timed out")
			return o.fail(KindGenerateTimeout, err.Error())
		}
		o.logger.Error("Ollama transport error", "error", err)
		return o.fail(KindTransport, err.Error())
	}
	defer genRes.Body.Close()

	if genRes.StatusCode != http.StatusOK {
		o.logger.Error("Ollama generation failed", "status", genRes.StatusCode)
		result := o.fail(KindBadStatus, "")
		result.Status = genRes.StatusCode
		return result
	}

	var decoded generateResponse
	if err := json.NewDecoder(genRes.Body).Decode(&decoded); err != nil {
		return o.fail(KindTransport, err.Error())
	}

	if decoded.Response == "" {
		return o.fail(KindNoContent, "")
	}

	return OK(decoded.Response)
}

func (o *Ollama) fail(kind Kind, detail string) Result {
	return Result{Kind: kind, Detail: detail, Endpoint: o.baseURL}
}

// isTimeout reports whether an HTTP client error was a timeout rather than a
// refused or unreachable connection.
func isTimeout(err error) bool {
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// newHTTPClient builds a client with explicit connection timeouts.
func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   timeout,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout: 10 * time.Second,
			MaxIdleConns:        10,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}
