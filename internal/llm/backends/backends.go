// Package backends builds the model gateway from configuration.
package backends

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/nadzzz/tandem/internal/config"
	"github.com/nadzzz/tandem/internal/httpclient"
	"github.com/nadzzz/tandem/internal/keys"
	"github.com/nadzzz/tandem/internal/llm"
	"github.com/nadzzz/tandem/internal/llm/anthropic"
	"github.com/nadzzz/tandem/internal/llm/gemini"
	"github.com/nadzzz/tandem/internal/llm/local"
	"github.com/nadzzz/tandem/internal/llm/openai"
	"github.com/nadzzz/tandem/internal/metrics"
)

// NewGateway registers one backend per configured provider.
//
// Known names select their dialect. Any other name with a base_url is
// treated as an OpenAI-compatible endpoint.
func NewGateway(cfg config.ModelsConfig, hc *httpclient.Client, m *metrics.Collector) (*llm.Gateway, error) {
	strategy, err := keys.Named(cfg.KeyStrategy)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(cfg.Providers))
	for name := range cfg.Providers {
		names = append(names, name)
	}
	slices.Sort(names)

	models := llm.DefaultModels()
	for _, name := range names {
		models = models.Merge(name, cfg.Providers[name].Models)
	}

	g := llm.NewGateway(cfg.DefaultProvider, models, llm.WithKeyStrategy(strategy), llm.WithMetrics(m))
	for _, name := range names {
		pc := cfg.Providers[name]
		p, err := newProvider(strings.ToLower(name), pc, hc)
		if err != nil {
			return nil, err
		}
		g.Register(name, p, pc.APIKeys, pc.Temperature)
		slog.Info("model provider registered", "provider", name, "backend", p.Name(), "keys", len(pc.APIKeys))
	}
	return g, nil
}

func newProvider(name string, pc config.ProviderConfig, hc *httpclient.Client) (llm.Provider, error) {
	switch name {
	case "openai":
		return openai.New("openai", pc.BaseURL, hc), nil
	case "groq":
		base := pc.BaseURL
		if base == "" {
			base = openai.GroqBaseURL
		}
		return openai.New("groq", base, hc), nil
	case "anthropic":
		return anthropic.New(pc.BaseURL, hc), nil
	case "gemini":
		return gemini.New(pc.BaseURL, hc), nil
	case "local", "ollama":
		return local.New(pc.BaseURL, hc), nil
	default:
		if pc.BaseURL == "" {
			return nil, fmt.Errorf("provider %q: unknown dialect and no base_url", name)
		}
		return openai.New(name, pc.BaseURL, hc), nil
	}
}
