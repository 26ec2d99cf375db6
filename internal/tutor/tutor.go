// Package tutor evaluates the learner's latest utterance: a comment on its
// errors, a corrected phrasing and an intervention level, produced by three
// concurrent model calls.
package tutor

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/nadzzz/tandem/internal/apperr"
	"github.com/nadzzz/tandem/internal/conversation"
	"github.com/nadzzz/tandem/internal/llm"
)

const (
	// Window is how many trailing history entries each sub-call sees.
	Window = 3
	// LogTail is how many prior tutor log entries inform the level.
	LogTail = 4
)

// Task labels of the three sub-calls.
const (
	TaskComment    = "tutor.comment"
	TaskCorrection = "tutor.correction"
	TaskLevel      = "tutor.level"
)

// Input is one evaluation request.
type Input struct {
	TutoringLanguage string
	TutorsLanguage   string
	// History must end with the user utterance under evaluation.
	History []conversation.Utterance
	// TutorLog is the tail of prior tutor log entries.
	TutorLog     []string
	IgnoreAccent bool
}

// Evaluator runs the tutor sub-analyses.
type Evaluator struct {
	model llm.Completer
}

// New creates an Evaluator over model.
func New(model llm.Completer) *Evaluator {
	return &Evaluator{model: model}
}

// Evaluate returns feedback for the last user utterance in in.History. All
// three sub-calls must succeed.
func (e *Evaluator) Evaluate(ctx context.Context, in Input) (conversation.Feedback, error) {
	if len(in.History) == 0 {
		return conversation.Feedback{}, apperr.Errorf(apperr.KindInvalidSession, "tutor.evaluate", "history is empty")
	}
	last := in.History[len(in.History)-1]
	if last.Role != conversation.RoleUser {
		return conversation.Feedback{}, apperr.Errorf(apperr.KindInvalidSession, "tutor.evaluate", "last history entry is not a user utterance")
	}

	window := conversation.Tail(in.History, Window)
	logTail := in.TutorLog
	if len(logTail) > LogTail {
		logTail = logTail[len(logTail)-LogTail:]
	}

	var fb conversation.Feedback
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		out, err := e.model.Complete(gctx, llm.Request{
			Task:     TaskComment,
			System:   commentPrompt(in.TutoringLanguage, in.TutorsLanguage, last.Text, in.IgnoreAccent),
			Messages: window,
		})
		if err != nil {
			return err
		}
		fb.Comment = NormalizeComment(out)
		return nil
	})

	g.Go(func() error {
		out, err := e.model.Complete(gctx, llm.Request{
			Task:     TaskCorrection,
			System:   correctionPrompt(in.TutoringLanguage, last.Text),
			Messages: window,
		})
		if err != nil {
			return err
		}
		fb.Correction = strings.Trim(strings.TrimSpace(out), `"`)
		return nil
	})

	g.Go(func() error {
		out, err := e.model.Complete(gctx, llm.Request{
			Task:     TaskLevel,
			System:   levelPrompt(in.TutoringLanguage, last.Text, logTail),
			Messages: window,
		})
		if err != nil {
			return err
		}
		level, err := conversation.ParseLevel(firstWord(out))
		if err != nil {
			return apperr.New(apperr.KindModelCall, TaskLevel, fmt.Errorf("unparseable intervention level: %w", err))
		}
		fb.Level = level
		return nil
	})

	if err := g.Wait(); err != nil {
		return conversation.Feedback{}, apperr.Ensure(apperr.KindModelCall, "tutor.evaluate", err)
	}
	return fb, nil
}

// noIssue lists comment answers that mean there is nothing to correct.
var noIssue = map[string]bool{
	"":                      true,
	"-":                     true,
	"none":                  true,
	"n/a":                   true,
	"no comment":            true,
	"no comments":           true,
	"no issues":             true,
	"no errors":             true,
	"nothing to correct":    true,
	"no corrections needed": true,
}

// NormalizeComment folds answers meaning "no issue" to the empty string.
func NormalizeComment(s string) string {
	s = strings.TrimSpace(s)
	key := strings.ToLower(strings.Trim(s, "\"'`.!() \n\t"))
	if noIssue[key] {
		return ""
	}
	return s
}

// firstWord extracts the level token from answers like "Medium." or
// "Level: high".
func firstWord(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndex(s, ":"); i >= 0 {
		s = s[i+1:]
	}
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return s
	}
	return fields[0]
}
