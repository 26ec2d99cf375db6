package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nadzzz/tandem/internal/config"
	"github.com/nadzzz/tandem/internal/conversation"
	"github.com/nadzzz/tandem/internal/httpclient"
	"github.com/nadzzz/tandem/internal/llm"
)

func TestCompleteSendsChatRequest(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer gsk-1", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"  Hallo! Wie geht's?  "}}]}`))
	}))
	defer srv.Close()

	p := New("groq", srv.URL+"/v1/", httpclient.New(config.HTTPClientConfig{}))
	out, err := p.Complete(context.Background(), llm.Call{
		Model:  "llama-3.3-70b-versatile",
		APIKey: "gsk-1",
		System: "partner prompt",
		Messages: []conversation.Utterance{
			conversation.User("Hallo"),
			conversation.Agent("Hi"),
			conversation.User("Wie geht's?"),
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "Hallo! Wie geht's?", out)

	assert.Equal(t, "llama-3.3-70b-versatile", got.Model)
	require.Len(t, got.Messages, 4)
	assert.Equal(t, chatMessage{Role: "system", Content: "partner prompt"}, got.Messages[0])
	assert.Equal(t, "user", got.Messages[1].Role)
	assert.Equal(t, "assistant", got.Messages[2].Role)
}

func TestCompleteNoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	p := New("openai", srv.URL, httpclient.New(config.HTTPClientConfig{}))
	_, err := p.Complete(context.Background(), llm.Call{Model: "gpt-4o-mini", APIKey: "sk"})
	assert.ErrorContains(t, err, "no choices")
}

func TestCompleteSurfacesStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid api key"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	p := New("openai", srv.URL, httpclient.New(config.HTTPClientConfig{}))
	_, err := p.Complete(context.Background(), llm.Call{Model: "gpt-4o-mini", APIKey: "bad"})
	require.Error(t, err)
	assert.True(t, httpclient.IsStatus(err, http.StatusUnauthorized))
}
