// Package openai implements the llm.Provider interface over the Chat
// Completions API. Groq speaks the same dialect and is served by this
// backend with a different base URL.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/nadzzz/tandem/internal/conversation"
	"github.com/nadzzz/tandem/internal/httpclient"
	"github.com/nadzzz/tandem/internal/llm"
)

const (
	// DefaultBaseURL is the OpenAI API root.
	DefaultBaseURL = "https://api.openai.com/v1"
	// GroqBaseURL is Groq's OpenAI-compatible API root.
	GroqBaseURL = "https://api.groq.com/openai/v1"
)

// Provider calls an OpenAI-compatible chat endpoint.
type Provider struct {
	name    string
	baseURL string
	client  *httpclient.Client
}

// New creates a provider named name against baseURL.
func New(name, baseURL string, client *httpclient.Client) *Provider {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Provider{
		name:    name,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

// Name returns the backend identifier.
func (p *Provider) Name() string { return p.name }

// RequiresKey is always true for hosted endpoints.
func (p *Provider) RequiresKey() bool { return true }

// Complete sends the call to the Chat Completions API.
func (p *Provider) Complete(ctx context.Context, call llm.Call) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model:       call.Model,
		Messages:    buildMessages(call.System, call.Messages),
		Temperature: call.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("marshalling chat request: %w", err)
	}

	data, err := p.client.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+call.APIKey)
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	})
	if err != nil {
		return "", fmt.Errorf("chat request: %w", err)
	}

	var resp chatResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", fmt.Errorf("decoding chat response: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices returned from chat API")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// buildMessages puts the system prompt first, then the history.
func buildMessages(system string, history []conversation.Utterance) []chatMessage {
	msgs := make([]chatMessage, 0, len(history)+1)
	if system != "" {
		msgs = append(msgs, chatMessage{Role: "system", Content: system})
	}
	for _, u := range history {
		msgs = append(msgs, chatMessage{Role: Role(u.Role), Content: u.Text})
	}
	return msgs
}

// Role maps an utterance role to the chat dialect's role name.
func Role(r conversation.Role) string {
	if r == conversation.RoleAgent {
		return "assistant"
	}
	return "user"
}
