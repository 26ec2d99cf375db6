// Package gemini implements the llm.Provider interface with the Google Gen AI
// SDK against the Gemini API.
package gemini

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"google.golang.org/genai"

	"github.com/nadzzz/tandem/internal/conversation"
	"github.com/nadzzz/tandem/internal/httpclient"
	"github.com/nadzzz/tandem/internal/llm"
)

// Provider calls Models.GenerateContent. One SDK client is kept per key.
type Provider struct {
	baseURL string
	client  *httpclient.Client

	mu      sync.Mutex
	clients map[string]*genai.Client
}

// New creates a Gemini provider. An empty baseURL uses the SDK default.
func New(baseURL string, client *httpclient.Client) *Provider {
	return &Provider{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		clients: make(map[string]*genai.Client),
	}
}

// Name returns the backend identifier.
func (p *Provider) Name() string { return "gemini" }

// RequiresKey is always true.
func (p *Provider) RequiresKey() bool { return true }

// Complete generates one response.
func (p *Provider) Complete(ctx context.Context, call llm.Call) (string, error) {
	c, err := p.sdkClient(ctx, call.APIKey)
	if err != nil {
		return "", err
	}

	contents := buildContents(call.Messages)
	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(call.Temperature)),
	}
	if len(contents) == 0 {
		contents = []*genai.Content{genai.NewContentFromText(call.System, genai.RoleUser)}
	} else if call.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(call.System, genai.RoleUser)
	}

	resp, err := c.Models.GenerateContent(ctx, call.Model, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" && len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates returned from gemini")
	}
	return text, nil
}

func (p *Provider) sdkClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if c, ok := p.clients[apiKey]; ok {
		return c, nil
	}

	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if p.client != nil {
		cfg.HTTPClient = p.client.HTTP()
	}
	if p.baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: p.baseURL}
	}
	c, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	p.clients[apiKey] = c
	return c, nil
}

func buildContents(history []conversation.Utterance) []*genai.Content {
	out := make([]*genai.Content, 0, len(history))
	for _, u := range history {
		role := genai.RoleUser
		if u.Role == conversation.RoleAgent {
			role = genai.RoleModel
		}
		out = append(out, genai.NewContentFromText(u.Text, genai.Role(role)))
	}
	return out
}
