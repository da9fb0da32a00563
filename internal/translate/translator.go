// Package translate provides a best-effort client for a local
// Argos-compatible translation sidecar. Translation never fails a
// request: every error path hands the caller its input back unchanged.
package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"
)

const (
	sourceLang = "en"
	targetLang = "bn"

	requestTimeout = 15 * time.Second
)

// Translator translates English text to Bangla through a sidecar HTTP
// service. The en->bn language package is installed on first miss, at
// most once per process.
type Translator struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger

	installOnce sync.Once
}

// New creates a Translator. An empty baseURL disables translation;
// Translate then returns its input untouched.
func New(baseURL string, logger *slog.Logger) *Translator {
	return &Translator{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: requestTimeout},
		logger:  logger.With("component", "translate"),
	}
}

type language struct {
	Code string `json:"code"`
}

type installRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type translateRequest struct {
	Text   string `json:"q"`
	Source string `json:"source"`
	Target string `json:"target"`
}

type translateResponse struct {
	TranslatedText string `json:"translatedText"`
}

// Translate converts text from English to Bangla. Any failure (sidecar
// unreachable, language pair unavailable after one install attempt, bad
// status) logs a warning and returns text unchanged.
func (t *Translator) Translate(ctx context.Context, text string) string {
	if t.baseURL == "" || strings.TrimSpace(text) == "" {
		return text
	}

	if !t.pairInstalled(ctx) {
		t.installOnce.Do(func() {
			if err := t.installPair(ctx); err != nil {
				t.logger.Warn("language package install failed", "from", sourceLang, "to", targetLang, "error", err)
			}
		})
		if !t.pairInstalled(ctx) {
			t.logger.Warn("language pair unavailable, returning original text", "from", sourceLang, "to", targetLang)
			return text
		}
	}

	out, err := t.translate(ctx, text)
	if err != nil {
		t.logger.Warn("translation failed, returning original text", "error", err)
		return text
	}
	return out
}

func (t *Translator) pairInstalled(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.baseURL+"/languages", nil)
	if err != nil {
		return false
	}

	res, err := t.client.Do(req)
	if err != nil {
		return false
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return false
	}

	var langs []language
	if err := json.NewDecoder(res.Body).Decode(&langs); err != nil {
		return false
	}

	var haveSource, haveTarget bool
	for _, l := range langs {
		switch l.Code {
		case sourceLang:
			haveSource = true
		case targetLang:
			haveTarget = true
		}
	}
	return haveSource && haveTarget
}

func (t *Translator) installPair(ctx context.Context) error {
	body, err := json.Marshal(installRequest{From: sourceLang, To: targetLang})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/packages/install", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := t.client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("install returned status %d", res.StatusCode)
	}
	return nil
}

func (t *Translator) translate(ctx context.Context, text string) (string, error) {
	body, err := json.Marshal(translateRequest{Text: text, Source: sourceLang, Target: targetLang})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/translate", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := t.client.Do(req)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf("translate returned status %d", res.StatusCode)
	}

	var decoded translateResponse
	if err := json.NewDecoder(res.Body).Decode(&decoded); err != nil {
		return "", err
	}
	if decoded.TranslatedText == "" {
		return "", fmt.Errorf("empty translation")
	}
	return decoded.TranslatedText, nil
}
