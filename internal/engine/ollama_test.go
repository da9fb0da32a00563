package engine

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
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newOllamaServer serves /api/version and /api/generate with the given handlers.
func newOllamaServer(t *testing.T, version, generate http.HandlerFunc) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/api/version", version)
	mux.HandleFunc("/api/generate", generate)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func okVersion(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"version":"0.5.0"}`))
}

func TestOllama_Generate_Success(t *testing.T) {
	t.Parallel()

	srv := newOllamaServer(t, okVersion, func(w http.ResponseWriter, r *http.Request) {
		var req generateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode generate request: %v", err)
		}
		if req.Model != "llama3.2:latest" {
			t.Errorf("model = %q, want llama3.2:latest", req.Model)
		}
		if req.Stream {
			t.Error("stream should be false")
		}
		if req.Prompt != "write something" {
			t.Errorf("prompt = %q", req.Prompt)
		}
		_ = json.NewEncoder(w).Encode(generateResponse{Response: "generated copy"})
	})

	o := NewOllama(srv.URL, "llama3.2:latest", discardLogger())
	res := o.Generate(context.Background(), "write something")

	if !res.Succeeded() {
		t.Fatalf("Generate failed: kind=%d detail=%s", res.Kind, res.Detail)
	}
	if res.Text != "generated copy" {
		t.Errorf("Text = %q, want generated copy", res.Text)
	}
}

func TestOllama_Generate_NotRunning(t *testing.T) {
	t.Parallel()

	// A server that is already closed leaves a port nothing listens on.
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	o := NewOllama(url, "llama3.2:latest", discardLogger())
	res := o.Generate(context.Background(), "prompt")

	if res.Kind != KindNotRunning {
		t.Fatalf("Kind = %d, want KindNotRunning", res.Kind)
	}
	if !strings.Contains(res.Message(), "Cannot connect to Ollama") {
		t.Errorf("Message = %q, want connection failure wording", res.Message())
	}
	if !strings.Contains(res.Message(), url) {
		t.Errorf("Message should name the endpoint, got %q", res.Message())
	}
}

func TestOllama_Generate_ProbeTimeout(t *testing.T) {
	t.Parallel()

	srv := newOllamaServer(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}, func(w http.ResponseWriter, r *http.Request) {
		t.Error("generate should not be called when the probe times out")
	})

	o := NewOllama(srv.URL, "llama3.2:latest", discardLogger())
	o.probeClient = &http.Client{Timeout: 20 * time.Millisecond}

	res := o.Generate(context.Background(), "prompt")
	if res.Kind != KindProbeTimeout {
		t.Fatalf("Kind = %d, want KindProbeTimeout", res.Kind)
	}
	if !strings.Contains(res.Message(), "timed out") {
		t.Errorf("Message = %q, want timeout wording", res.Message())
	}
}

func TestOllama_Generate_GenerateTimeout(t *testing.T) {
	t.Parallel()

	srv := newOllamaServer(t, okVersion, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	})

	o := NewOllama(srv.URL, "llama3.2:latest", discardLogger())
	o.genClient = &http.Client{Timeout: 20 * time.Millisecond}

	res := o.Generate(context.Background(), "prompt")
	if res.Kind != KindGenerateTimeout {
		t.Fatalf("Kind = %d, want KindGenerateTimeout", res.Kind)
	}
	if res.Message() != "Ollama took too long to generate content. Please try again with a simpler request or use OpenAI instead." {
		t.Errorf("unexpected message: %q", res.Message())
	}
}

func TestOllama_Generate_BadProbeStatus(t *testing.T) {
	t.Parallel()

	srv := newOllamaServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}, func(w http.ResponseWriter, r *http.Request) {
		t.Error("generate should not be called after a failed probe")
	})

	o := NewOllama(srv.URL, "llama3.2:latest", discardLogger())
	res := o.Generate(context.Background(), "prompt")

	if res.Kind != KindBadProbeStatus {
		t.Fatalf("Kind = %d, want KindBadProbeStatus", res.Kind)
	}
	if res.Message() != "Ollama is not responding correctly. Please make sure it's running." {
		t.Errorf("unexpected message: %q", res.Message())
	}
}

func TestOllama_Generate_BadStatus(t *testing.T) {
	t.Parallel()

	srv := newOllamaServer(t, okVersion, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	})

	o := NewOllama(srv.URL, "llama3.2:latest", discardLogger())
	res := o.Generate(context.Background(), "prompt")

	if res.Kind != KindBadStatus {
		t.Fatalf("Kind = %d, want KindBadStatus", res.Kind)
	}
	if res.Message() != "Error generating content with Ollama (Status: 404)" {
		t.Errorf("unexpected message: %q", res.Message())
	}
}

func TestOllama_Generate_EmptyResponse(t *testing.T) {
	t.Parallel()

	srv := newOllamaServer(t, okVersion, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(generateResponse{Response: ""})
	})

	o := NewOllama(srv.URL, "llama3.2:latest", discardLogger())
	res := o.Generate(context.Background(), "prompt")

	if res.Kind != KindNoContent {
		t.Fatalf("Kind = %d, want KindNoContent", res.Kind)
	}
	if res.Message() != "No response from Ollama" {
		t.Errorf("unexpected message: %q", res.Message())
	}
}
