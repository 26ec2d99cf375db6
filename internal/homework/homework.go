// Package homework derives study material and a chat title from a finished
// or ongoing session. It never modifies the session.
package homework

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/nadzzz/tandem/internal/apperr"
	"github.com/nadzzz/tandem/internal/conversation"
	"github.com/nadzzz/tandem/internal/llm"
)

// Task labels.
const (
	TaskGrammar    = "homework.grammar"
	TaskVocabulary = "homework.vocabulary"
	TaskName       = "homework.name"
)

// Homework is the generated study material.
type Homework struct {
	Grammar    string
	Vocabulary string
}

// String joins both parts for clients that show a single text.
func (h Homework) String() string {
	return h.Grammar + "\n\n" + h.Vocabulary
}

// Generator produces grammar exercises and a vocabulary list.
type Generator struct {
	model llm.Completer
}

// NewGenerator creates a Generator.
func NewGenerator(model llm.Completer) *Generator {
	return &Generator{model: model}
}

// Generate runs the grammar and vocabulary calls concurrently. Both must
// succeed.
func (g *Generator) Generate(ctx context.Context, language string, s conversation.Session) (Homework, error) {
	if len(s.History) == 0 {
		return Homework{}, apperr.Errorf(apperr.KindInvalidSession, "homework.generate", "history is empty")
	}
	if err := s.Validate(); err != nil {
		return Homework{}, err
	}

	var hw Homework
	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		out, err := g.complete(ctx, TaskGrammar, grammarPrompt(language, s))
		hw.Grammar = out
		return err
	})
	eg.Go(func() error {
		out, err := g.complete(ctx, TaskVocabulary, vocabularyPrompt(language, s))
		hw.Vocabulary = out
		return err
	})
	if err := eg.Wait(); err != nil {
		return Homework{}, apperr.Ensure(apperr.KindModelCall, "homework.generate", err)
	}
	return hw, nil
}

func (g *Generator) complete(ctx context.Context, task, prompt string) (string, error) {
	out, err := g.model.Complete(ctx, llm.Request{Task: task, System: prompt})
	if err != nil {
		return "", err
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", apperr.Errorf(apperr.KindModelCall, task, "empty reply")
	}
	return out, nil
}
