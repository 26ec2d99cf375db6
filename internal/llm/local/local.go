// Package local implements the llm.Provider interface for self-hosted models.
//
// It targets Ollama's /api/chat endpoint and also accepts any server that
// answers in the OpenAI-compatible shape (vLLM, llama.cpp server).
package local

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

// DefaultEndpoint is Ollama's default address.
const DefaultEndpoint = "http://localhost:11434"

// Provider uses a local chat endpoint.
type Provider struct {
	endpoint string
	client   *httpclient.Client
}

// New creates a local provider. endpoint may be a server root or a full
// /api/chat or /v1/chat/completions URL.
func New(endpoint string, client *httpclient.Client) *Provider {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	endpoint = strings.TrimRight(endpoint, "/")
	if !strings.HasSuffix(endpoint, "/api/chat") && !strings.HasSuffix(endpoint, "/chat/completions") {
		endpoint += "/api/chat"
	}
	return &Provider{endpoint: endpoint, client: client}
}

// Name returns the backend identifier.
func (p *Provider) Name() string { return "local" }

// RequiresKey is false: local servers are unauthenticated.
func (p *Provider) RequiresKey() bool { return false }

// Complete sends the conversation to the local LLM endpoint.
func (p *Provider) Complete(ctx context.Context, call llm.Call) (string, error) {
	msgs := make([]map[string]string, 0, len(call.Messages)+1)
	if call.System != "" {
		msgs = append(msgs, map[string]string{"role": "system", "content": call.System})
	}
	for _, u := range call.Messages {
		role := "user"
		if u.Role == conversation.RoleAgent {
			role = "assistant"
		}
		msgs = append(msgs, map[string]string{"role": role, "content": u.Text})
	}

	reqBody := map[string]any{
		"model":    call.Model,
		"messages": msgs,
		"stream":   false,
		"options":  map[string]any{"temperature": call.Temperature},
	}
	if strings.HasSuffix(p.endpoint, "/chat/completions") {
		reqBody = map[string]any{
			"model":       call.Model,
			"messages":    msgs,
			"temperature": call.Temperature,
			"stream":      false,
		}
	}
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshalling request: %w", err)
	}

	data, err := p.client.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(bodyBytes))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	})
	if err != nil {
		return "", fmt.Errorf("local LLM request: %w", err)
	}

	content := extractContent(data)
	if content == "" {
		return "", fmt.Errorf("empty response from local LLM")
	}
	return content, nil
}

func extractContent(data []byte) string {
	// Ollama chat format: {"message": {"content": "..."}}
	var ollamaResp struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	}
	if err := json.Unmarshal(data, &ollamaResp); err == nil && ollamaResp.Message.Content != "" {
		return strings.TrimSpace(ollamaResp.Message.Content)
	}

	// OpenAI-compatible format: {"choices": [{"message": {"content": "..."}}]}
	var chatResp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(data, &chatResp); err == nil && len(chatResp.Choices) > 0 {
		return strings.TrimSpace(chatResp.Choices[0].Message.Content)
	}

	return ""
}
