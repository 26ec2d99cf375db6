// Package partner generates the conversation partner's next turn.
package partner

import (
	"context"
	"fmt"
	"strings"

	"github.com/nadzzz/tandem/internal/apperr"
	"github.com/nadzzz/tandem/internal/conversation"
	"github.com/nadzzz/tandem/internal/llm"
)

// Window is how many trailing history entries the partner sees.
const Window = 8

// Task is the completion label.
const Task = "partner"

// Responder replies in the learning language.
type Responder struct {
	model llm.Completer
}

// New creates a Responder over model.
func New(model llm.Completer) *Responder {
	return &Responder{model: model}
}

// Respond produces the reply to the last entry of history and returns it with
// a new history that has the reply appended. history is not modified.
func (r *Responder) Respond(ctx context.Context, language string, history []conversation.Utterance, priorSummary string) (string, []conversation.Utterance, error) {
	out, err := r.model.Complete(ctx, llm.Request{
		Task:     Task,
		System:   systemPrompt(language, priorSummary),
		Messages: conversation.Tail(history, Window),
	})
	if err != nil {
		return "", nil, apperr.Ensure(apperr.KindModelCall, "partner.respond", err)
	}
	reply := strings.TrimSpace(out)
	if reply == "" {
		return "", nil, apperr.Errorf(apperr.KindModelCall, "partner.respond", "empty reply")
	}

	next := make([]conversation.Utterance, 0, len(history)+1)
	next = append(next, history...)
	next = append(next, conversation.Agent(reply))
	return reply, next, nil
}

func systemPrompt(language, summary string) string {
	if summary == "" {
		summary = "(this is the start of the conversation)"
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "You are a friendly conversation partner for a student learning %s.\n", language)
	fmt.Fprintf(&sb, "Always answer in %s, whatever language the student uses. ", language)
	fmt.Fprintf(&sb, "If the student avoids %s, gently encourage them to use it; ", language)
	sb.WriteString("one or two words from another language are part of learning and need no remark.\n")
	sb.WriteString("Keep replies short, match the student's level and keep the dialogue flowing naturally. ")
	sb.WriteString("Reply with your line of dialogue only: no translations, notes or corrections.\n\n")
	fmt.Fprintf(&sb, "Summary of the conversation so far (do not mention it):\n%s\n\n", summary)
	fmt.Fprintf(&sb, "You are given the last %d messages of the chat.", Window)
	return sb.String()
}
