package summary

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nadzzz/tandem/internal/apperr"
	"github.com/nadzzz/tandem/internal/conversation"
	"github.com/nadzzz/tandem/internal/llm/llmtest"
)

func TestSummarizeUsesLastFiveAndPrevious(t *testing.T) {
	history := []conversation.Utterance{
		conversation.User("1"), conversation.Agent("2"), conversation.User("3"),
		conversation.Agent("4"), conversation.User("5"), conversation.Agent("6"),
	}
	fake := &llmtest.Fake{Default: "Sie sprechen über Zahlen.\n"}
	out, err := New(fake).Summarize(context.Background(), "German", history, "Begrüßung.")
	require.NoError(t, err)
	assert.Equal(t, "Sie sprechen über Zahlen.", out)

	calls := fake.Calls()
	require.Len(t, calls, 1)
	require.Len(t, calls[0].Messages, Window)
	assert.Equal(t, "2", calls[0].Messages[0].Text)
	assert.Contains(t, calls[0].System, "Begrüßung.")
	assert.Contains(t, calls[0].System, "German")
}

func TestSummarizeReturnsErrors(t *testing.T) {
	fake := &llmtest.Fake{Errors: map[string]error{Task: errors.New("rate limited")}}
	_, err := New(fake).Summarize(context.Background(), "German", nil, "")
	assert.ErrorIs(t, err, apperr.ErrModelCall)
}
