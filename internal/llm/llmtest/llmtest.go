// Package llmtest provides a scripted model gateway for tests.
package llmtest

import (
	"context"
	"sync"
	"time"

	"github.com/nadzzz/tandem/internal/llm"
)

// Fake answers completions by task label and records every request.
type Fake struct {
	mu sync.Mutex

	// Replies maps a task label to its answer. Missing tasks answer Default.
	Replies map[string]string
	Default string
	// Errors maps a task label to a failure.
	Errors map[string]error
	// Delays holds the task back before answering.
	Delays map[string]time.Duration

	calls    []llm.Request
	resolved []Resolution
}

// Resolution records one Completer lookup.
type Resolution struct {
	Provider   string
	Capability llm.Capability
	APIKey     string
}

// Complete implements llm.Completer.
func (f *Fake) Complete(ctx context.Context, req llm.Request) (string, error) {
	f.mu.Lock()
	req.Messages = append(req.Messages[:0:0], req.Messages...)
	f.calls = append(f.calls, req)
	delay := f.Delays[req.Task]
	err := f.Errors[req.Task]
	reply, ok := f.Replies[req.Task]
	if !ok {
		reply = f.Default
	}
	f.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if err != nil {
		return "", err
	}
	return reply, nil
}

// Completer implements the gateway lookup, returning f for every capability.
func (f *Fake) Completer(provider string, c llm.Capability, apiKey string) (llm.Completer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resolved = append(f.resolved, Resolution{Provider: provider, Capability: c, APIKey: apiKey})
	return f, nil
}

// Calls returns every recorded request in arrival order.
func (f *Fake) Calls() []llm.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]llm.Request(nil), f.calls...)
}

// CallsFor returns the recorded requests for one task label.
func (f *Fake) CallsFor(task string) []llm.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []llm.Request
	for _, c := range f.calls {
		if c.Task == task {
			out = append(out, c)
		}
	}
	return out
}

// Resolutions returns every Completer lookup.
func (f *Fake) Resolutions() []Resolution {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Resolution(nil), f.resolved...)
}
