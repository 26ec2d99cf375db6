// Package anthropic implements the llm.Provider interface over the
// Anthropic Messages API.
package anthropic

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
	DefaultBaseURL = "https://api.anthropic.com"
	APIVersion     = "2023-06-01"

	defaultMaxTokens = 1024
	// continuation opens a window whose oldest entry is the agent's.
	continuation = "(continuing our conversation)"
)

// Provider calls the Messages API.
type Provider struct {
	baseURL string
	client  *httpclient.Client
}

// New creates an Anthropic provider.
func New(baseURL string, client *httpclient.Client) *Provider {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Provider{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

// Name returns the backend identifier.
func (p *Provider) Name() string { return "anthropic" }

// RequiresKey is always true.
func (p *Provider) RequiresKey() bool { return true }

// Complete sends the call to /v1/messages.
func (p *Provider) Complete(ctx context.Context, call llm.Call) (string, error) {
	req := messagesRequest{
		Model:       call.Model,
		MaxTokens:   defaultMaxTokens,
		System:      call.System,
		Messages:    buildMessages(call.Messages),
		Temperature: call.Temperature,
	}
	// The API needs at least one user turn; single-shot prompts travel as one.
	if len(req.Messages) == 0 {
		req.Messages = []message{{Role: "user", Content: call.System}}
		req.System = ""
	}

	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	data, err := p.client.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		r, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/v1/messages", bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		r.Header.Set("Content-Type", "application/json")
		r.Header.Set("X-API-Key", call.APIKey)
		r.Header.Set("anthropic-version", APIVersion)
		return r, nil
	})
	if err != nil {
		return "", fmt.Errorf("messages request: %w", err)
	}

	var resp messagesResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 && resp.StopReason == "" {
		return "", fmt.Errorf("no content returned from messages API")
	}
	return strings.TrimSpace(sb.String()), nil
}

type messagesRequest struct {
	Model       string    `json:"model"`
	MaxTokens   int       `json:"max_tokens"`
	System      string    `json:"system,omitempty"`
	Messages    []message `json:"messages"`
	Temperature float64   `json:"temperature"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
}

// buildMessages converts history into strictly alternating user/assistant
// turns starting with the user, merging consecutive same-role entries.
func buildMessages(history []conversation.Utterance) []message {
	msgs := make([]message, 0, len(history)+1)
	for _, u := range history {
		role := "user"
		if u.Role == conversation.RoleAgent {
			role = "assistant"
		}
		if len(msgs) == 0 && role == "assistant" {
			msgs = append(msgs, message{Role: "user", Content: continuation})
		}
		if n := len(msgs); n > 0 && msgs[n-1].Role == role {
			msgs[n-1].Content += "\n\n" + u.Text
			continue
		}
		msgs = append(msgs, message{Role: role, Content: u.Text})
	}
	return msgs
}
