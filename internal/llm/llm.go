// Package llm is the model gateway: a uniform completion capability over
// several chat providers, with model selection by capability and API keys
// chosen from explicit pools.
package llm

import (
	"context"

	"github.com/nadzzz/tandem/internal/conversation"
)

// Capability names what a completion is used for. It selects the model.
type Capability string

const (
	CapabilityPartner  Capability = "partner"
	CapabilityTutor    Capability = "tutor"
	CapabilitySummary  Capability = "summary"
	CapabilityHomework Capability = "homework"
)

// Capabilities lists every capability a provider's model table covers.
var Capabilities = []Capability{CapabilityPartner, CapabilityTutor, CapabilitySummary, CapabilityHomework}

// Request is one completion. Messages may be empty for single-shot prompts.
type Request struct {
	// Task labels the call for tracing and metrics, e.g. "tutor.level".
	Task     string
	System   string
	Messages []conversation.Utterance
}

// Completer produces a completion for a request.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// CompleterFunc adapts a function to Completer.
type CompleterFunc func(ctx context.Context, req Request) (string, error)

// Complete calls f.
func (f CompleterFunc) Complete(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

// Call is what a provider backend receives: the request resolved to a model
// and key.
type Call struct {
	Model       string
	APIKey      string
	Temperature float64
	System      string
	Messages    []conversation.Utterance
}

// Provider is one backend dialect (Chat Completions, Messages API, ...).
type Provider interface {
	// Name returns the backend identifier.
	Name() string

	// Complete runs a single non-streaming completion.
	Complete(ctx context.Context, call Call) (string, error)

	// RequiresKey reports whether calls need an API key.
	RequiresKey() bool
}
