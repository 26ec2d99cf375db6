package backends

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nadzzz/tandem/internal/apperr"
	"github.com/nadzzz/tandem/internal/config"
	"github.com/nadzzz/tandem/internal/httpclient"
	"github.com/nadzzz/tandem/internal/llm"
)

func TestNewGatewayRegistersConfiguredProviders(t *testing.T) {
	cfg := config.ModelsConfig{
		DefaultProvider: "groq",
		KeyStrategy:     "first",
		Providers: map[string]config.ProviderConfig{
			"groq":    {APIKeys: []string{"gsk"}},
			"local":   {BaseURL: "http://ollama:11434"},
			"mistral": {BaseURL: "https://api.mistral.ai/v1", APIKeys: []string{"m"}, Models: map[string]string{"partner": "mistral-small", "tutor": "mistral-small", "summary": "mistral-small", "homework": "mistral-small"}},
		},
	}
	g, err := NewGateway(cfg, httpclient.New(config.HTTPClientConfig{}), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"groq", "local", "mistral"}, g.Providers())

	_, err = g.Completer("mistral", llm.CapabilityPartner, "")
	assert.NoError(t, err)
	_, err = g.Completer("local", llm.CapabilityHomework, "")
	assert.NoError(t, err)
	_, err = g.Completer("openai", llm.CapabilityPartner, "sk")
	assert.ErrorIs(t, err, apperr.ErrUnsupportedProvider)
}

func TestNewGatewayRejectsUnknownDialect(t *testing.T) {
	cfg := config.ModelsConfig{
		DefaultProvider: "custom",
		Providers:       map[string]config.ProviderConfig{"custom": {}},
	}
	_, err := NewGateway(cfg, httpclient.New(config.HTTPClientConfig{}), nil)
	assert.ErrorContains(t, err, "unknown dialect")
}

func TestNewGatewayRejectsUnknownStrategy(t *testing.T) {
	_, err := NewGateway(config.ModelsConfig{KeyStrategy: "lottery"}, httpclient.New(config.HTTPClientConfig{}), nil)
	assert.Error(t, err)
}
