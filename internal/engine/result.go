// Package engine dispatches prompts to a generation backend: a local Ollama
// server or the hosted OpenAI API.
//
// Backends never return Go errors to callers. Every failure is folded into a
// tagged Result so the pipeline treats backend trouble as data: the HTTP
// boundary renders each kind as a human-readable message inside an otherwise
// successful response instead of failing the whole request.
package engine

import "fmt"

// Kind tags the outcome of a generation attempt.
type Kind int

const (
	// KindOK means Text holds generated content.
	KindOK Kind = iota
	// KindNotRunning means the local server could not be reached at all.
	KindNotRunning
	// KindProbeTimeout means the liveness probe timed out.
	KindProbeTimeout
	// KindBadProbeStatus means the liveness probe returned a non-200 status.
	KindBadProbeStatus
	// KindGenerateTimeout means the generation call timed out.
	KindGenerateTimeout
	// KindBadStatus means the generation call returned a non-200 status.
	KindBadStatus
	// KindNoContent means the backend answered 200 with no text.
	KindNoContent
	// KindTransport is any other transport-level failure.
	KindTransport
	// KindUnconfigured means the hosted backend has no API credential.
	KindUnconfigured
	// KindBackendError is a hosted API failure.
	KindBackendError
)

// Result is the outcome of one generation attempt.
type Result struct {
	Kind Kind
	// Text is the generated content when Kind is KindOK.
	Text string
	// Detail carries the underlying error text for diagnostic kinds.
	Detail string
	// Status is the HTTP status for KindBadStatus.
	Status int
	// Endpoint is the local server base URL, used in rendered messages.
	Endpoint string
}

// OK returns a successful result.
func OK(text string) Result {
	return Result{Kind: KindOK, Text: text}
}

// Succeeded reports whether the result carries generated content.
func (r Result) Succeeded() bool {
	return r.Kind == KindOK
}

// Message renders the user-facing string for a failed result.
// The wording is part of the product surface; change with care.
func (r Result) Message() string {
	switch r.Kind {
	case KindOK:
		return r.Text
	case KindNotRunning:
		return fmt.Sprintf("Cannot connect to Ollama. Please make sure Ollama is running on your local machine (%s).", r.Endpoint)
	case KindProbeTimeout:
		return "Ollama timed out while checking that it's running. Please try again."
	case KindBadProbeStatus:
		return "Ollama is not responding correctly. Please make sure it's running."
	case KindGenerateTimeout:
		return "Ollama took too long to generate content. Please try again with a simpler request or use OpenAI instead."
	case KindBadStatus:
		return fmt.Sprintf("Error generating content with Ollama (Status: %d)", r.Status)
	case KindNoContent:
		return "No response from Ollama"
	case KindTransport:
		return "Error connecting to Ollama: " + r.Detail
	case KindUnconfigured:
		return "OpenAI API key not configured. Please check your environment settings."
	case KindBackendError:
		return "Error generating content with OpenAI: " + r.Detail
	default:
		return "Content generation failed"
	}
}
