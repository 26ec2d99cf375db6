package llm

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/nadzzz/tandem/internal/apperr"
	"github.com/nadzzz/tandem/internal/keys"
	"github.com/nadzzz/tandem/internal/metrics"
)

// Gateway resolves a provider, capability and key into a Completer.
type Gateway struct {
	defaultProvider string
	models          ModelTable
	strategy        keys.Strategy
	backends        map[string]backend
	metrics         *metrics.Collector
}

type backend struct {
	provider    Provider
	pool        []string
	temperature float64
}

// Option customises a Gateway.
type Option func(*Gateway)

// WithMetrics records every completion on m.
func WithMetrics(m *metrics.Collector) Option {
	return func(g *Gateway) { g.metrics = m }
}

// WithKeyStrategy sets how keys are picked from each pool.
func WithKeyStrategy(s keys.Strategy) Option {
	return func(g *Gateway) { g.strategy = s }
}

// NewGateway creates an empty gateway. Backends are added with Register.
func NewGateway(defaultProvider string, models ModelTable, opts ...Option) *Gateway {
	if models == nil {
		models = DefaultModels()
	}
	g := &Gateway{
		defaultProvider: normalize(defaultProvider),
		models:          models,
		strategy:        keys.First(),
		backends:        make(map[string]backend),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Register adds a backend under name with its key pool.
func (g *Gateway) Register(name string, p Provider, pool []string, temperature float64) {
	g.backends[normalize(name)] = backend{provider: p, pool: pool, temperature: temperature}
}

// Providers returns the registered provider names, sorted.
func (g *Gateway) Providers() []string {
	names := make([]string, 0, len(g.backends))
	for name := range g.backends {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// DefaultProvider returns the provider used when a request names none.
func (g *Gateway) DefaultProvider() string { return g.defaultProvider }

// Completer returns a Completer bound to provider's model for capability.
// An empty provider selects the default. A non-empty apiKey overrides the
// configured pool.
func (g *Gateway) Completer(provider string, c Capability, apiKey string) (Completer, error) {
	name := normalize(provider)
	if name == "" {
		name = g.defaultProvider
	}
	b, ok := g.backends[name]
	if !ok {
		return nil, apperr.Errorf(apperr.KindUnsupportedProvider, "llm.gateway", "unknown provider %q", provider)
	}
	model, err := g.models.Lookup(name, c)
	if err != nil {
		return nil, err
	}

	var key string
	if b.provider.RequiresKey() {
		key, err = keys.Resolve(apiKey, b.pool, g.strategy)
		if err != nil {
			return nil, apperr.New(apperr.KindModelCall, "llm.gateway", fmt.Errorf("provider %s: %w", name, err))
		}
	}

	return &boundCompleter{
		name:        name,
		provider:    b.provider,
		model:       model,
		key:         key,
		temperature: b.temperature,
		metrics:     g.metrics,
	}, nil
}

type boundCompleter struct {
	name        string
	provider    Provider
	model       string
	key         string
	temperature float64
	metrics     *metrics.Collector
}

func (b *boundCompleter) Complete(ctx context.Context, req Request) (string, error) {
	ctx, span := tracer.Start(ctx, "llm.complete", trace.WithAttributes(
		attribute.String("llm.provider", b.name),
		attribute.String("llm.model", b.model),
		attribute.String("llm.task", req.Task),
		attribute.Int("llm.messages", len(req.Messages)),
	))
	defer span.End()

	start := time.Now()
	out, err := b.provider.Complete(ctx, Call{
		Model:       b.model,
		APIKey:      b.key,
		Temperature: b.temperature,
		System:      req.System,
		Messages:    req.Messages,
	})
	b.metrics.RecordModelCall(b.name, req.Task, time.Since(start), err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		slog.ErrorContext(ctx, "model call failed", "provider", b.name, "model", b.model, "task", req.Task, "error", err)
		return "", apperr.Ensure(apperr.KindModelCall, "llm."+req.Task, fmt.Errorf("%s completion: %w", b.name, err))
	}

	span.SetAttributes(attribute.Int("llm.response_length", len(out)))
	slog.DebugContext(ctx, "model call complete", "provider", b.name, "task", req.Task, "response_length", len(out))
	return out, nil
}
