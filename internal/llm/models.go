package llm

import (
	"maps"
	"strings"

	"github.com/nadzzz/tandem/internal/apperr"
)

// ModelTable maps provider -> capability -> model ID.
type ModelTable map[string]map[Capability]string

// DefaultModels is the built-in table. Configuration overrides entries.
func DefaultModels() ModelTable {
	same := func(model string) map[Capability]string {
		m := make(map[Capability]string, len(Capabilities))
		for _, c := range Capabilities {
			m[c] = model
		}
		return m
	}
	return ModelTable{
		"groq":      same("llama-3.3-70b-versatile"),
		"openai":    same("gpt-4o-mini"),
		"anthropic": same("claude-3-5-sonnet-latest"),
		"gemini":    same("gemini-2.0-flash"),
		"local":     same("llama3"),
	}
}

// Merge returns a copy of t with overrides applied. Capability names are
// matched case-insensitively; unknown capabilities are kept as given.
func (t ModelTable) Merge(provider string, overrides map[string]string) ModelTable {
	out := make(ModelTable, len(t)+1)
	for p, caps := range t {
		out[p] = maps.Clone(caps)
	}
	provider = normalize(provider)
	if len(overrides) == 0 {
		return out
	}
	caps := out[provider]
	if caps == nil {
		caps = make(map[Capability]string, len(overrides))
		out[provider] = caps
	}
	for c, model := range overrides {
		if model = strings.TrimSpace(model); model != "" {
			caps[Capability(normalize(c))] = model
		}
	}
	return out
}

// Lookup returns the model for provider and capability.
func (t ModelTable) Lookup(provider string, c Capability) (string, error) {
	caps, ok := t[normalize(provider)]
	if !ok {
		return "", apperr.Errorf(apperr.KindUnsupportedProvider, "llm.models", "unknown provider %q", provider)
	}
	model, ok := caps[c]
	if !ok || model == "" {
		return "", apperr.Errorf(apperr.KindUnsupportedProvider, "llm.models", "provider %q has no model for %s", provider, c)
	}
	return model, nil
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
