package engine

import "context"

// EngineOllama selects the local backend. Any other selector value routes to
// the hosted API, matching the original product behavior where "openai" was
// merely the default.
const EngineOllama = "ollama"

// Backend is a single generation backend.
type Backend interface {
	Generate(ctx context.Context, prompt string) Result
}

// Dispatcher routes a prompt to the backend named by the engine selector.
type Dispatcher struct {
	local  Backend
	hosted Backend
}

// NewDispatcher creates a Dispatcher over the two backends.
func NewDispatcher(local, hosted Backend) *Dispatcher {
	return &Dispatcher{local: local, hosted: hosted}
}

// Dispatch sends the prompt to the selected backend.
// It never returns an error; failures arrive as tagged Results.
func (d *Dispatcher) Dispatch(ctx context.Context, engine, prompt string) Result {
	if engine == EngineOllama {
		return d.local.Generate(ctx, prompt)
	}
	return d.hosted.Generate(ctx, prompt)
}
