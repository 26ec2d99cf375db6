// Package summary maintains the rolling conversation summary.
package summary

import (
	"context"
	"fmt"
	"strings"

	"github.com/nadzzz/tandem/internal/apperr"
	"github.com/nadzzz/tandem/internal/conversation"
	"github.com/nadzzz/tandem/internal/llm"
)

// Window is how many trailing history entries feed the summary.
const Window = 5

// Task is the completion label.
const Task = "summary"

// Summarizer updates the summary from recent history.
type Summarizer struct {
	model llm.Completer
}

// New creates a Summarizer over model.
func New(model llm.Completer) *Summarizer {
	return &Summarizer{model: model}
}

// Summarize returns the updated summary in language.
func (s *Summarizer) Summarize(ctx context.Context, language string, history []conversation.Utterance, previous string) (string, error) {
	out, err := s.model.Complete(ctx, llm.Request{
		Task:     Task,
		System:   systemPrompt(language, previous),
		Messages: conversation.Tail(history, Window),
	})
	if err != nil {
		return "", apperr.Ensure(apperr.KindModelCall, "summary.summarize", err)
	}
	return strings.TrimSpace(out), nil
}

func systemPrompt(language, previous string) string {
	if previous == "" {
		previous = "(none yet)"
	}
	var sb strings.Builder
	sb.WriteString("You keep a running summary of a conversation up to date.\n")
	fmt.Fprintf(&sb, "Write it in %s, in three or four sentences at most. ", language)
	sb.WriteString("Keep what still matters from the previous summary, add the key points of the recent messages ")
	sb.WriteString("and note new topics or shifts in the conversation.\n\n")
	fmt.Fprintf(&sb, "Previous summary: %s\n\n", previous)
	sb.WriteString("Reply with the updated summary only.")
	return sb.String()
}
