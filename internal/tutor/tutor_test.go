package tutor

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

func history(texts ...string) []conversation.Utterance {
	out := make([]conversation.Utterance, len(texts))
	for i, t := range texts {
		if i%2 == 0 {
			out[i] = conversation.User(t)
		} else {
			out[i] = conversation.Agent(t)
		}
	}
	return out
}

func TestEvaluateCombinesSubCalls(t *testing.T) {
	fake := &llmtest.Fake{Replies: map[string]string{
		TaskComment:    "Use 'bin' with 'gegangen'.",
		TaskCorrection: `"Ich bin gestern ins Kino gegangen."`,
		TaskLevel:      "Medium.",
	}}
	fb, err := New(fake).Evaluate(context.Background(), Input{
		TutoringLanguage: "German",
		TutorsLanguage:   "English",
		History:          history("Hallo", "Hallo! Was hast du gestern gemacht?", "Ich habe gestern ins Kino gegangen."),
		TutorLog:         []string{"a", "b", "c", "d", "e"},
	})
	require.NoError(t, err)
	assert.Equal(t, conversation.Feedback{
		Comment:    "Use 'bin' with 'gegangen'.",
		Correction: "Ich bin gestern ins Kino gegangen.",
		Level:      conversation.LevelMedium,
	}, fb)

	calls := fake.Calls()
	require.Len(t, calls, 3)
	for _, c := range calls {
		assert.Len(t, c.Messages, Window)
	}
	level := fake.CallsFor(TaskLevel)[0]
	assert.NotContains(t, level.System, "\na\n", "only the last four log entries are used")
	assert.Contains(t, level.System, "b\n---\nc\n---\nd\n---\ne")
}

func TestEvaluateWindowShorterThanK(t *testing.T) {
	fake := &llmtest.Fake{Replies: map[string]string{TaskLevel: "no"}}
	fb, err := New(fake).Evaluate(context.Background(), Input{History: history("Hallo")})
	require.NoError(t, err)
	assert.Equal(t, conversation.LevelNone, fb.Level)
	for _, c := range fake.Calls() {
		assert.Len(t, c.Messages, 1)
	}
}

func TestEvaluateRejectsMalformedHistoryBeforeCalling(t *testing.T) {
	fake := &llmtest.Fake{Default: "low"}

	_, err := New(fake).Evaluate(context.Background(), Input{})
	assert.ErrorIs(t, err, apperr.ErrInvalidSession)

	_, err = New(fake).Evaluate(context.Background(), Input{History: history("Hallo", "Hallo!")})
	assert.ErrorIs(t, err, apperr.ErrInvalidSession)

	assert.Empty(t, fake.Calls())
}

func TestEvaluateFailsWhenAnySubCallFails(t *testing.T) {
	for _, task := range []string{TaskComment, TaskCorrection, TaskLevel} {
		t.Run(task, func(t *testing.T) {
			fake := &llmtest.Fake{
				Replies: map[string]string{TaskLevel: "high"},
				Errors:  map[string]error{task: errors.New("upstream 503")},
			}
			fb, err := New(fake).Evaluate(context.Background(), Input{History: history("Ich gehen Schule")})
			assert.ErrorIs(t, err, apperr.ErrModelCall)
			assert.Equal(t, conversation.Feedback{}, fb)
		})
	}
}

func TestEvaluateUnparseableLevelIsModelCallError(t *testing.T) {
	fake := &llmtest.Fake{Replies: map[string]string{TaskLevel: "It depends on the context."}}
	_, err := New(fake).Evaluate(context.Background(), Input{History: history("Hallo")})
	assert.ErrorIs(t, err, apperr.ErrModelCall)
	assert.Equal(t, apperr.KindModelCall, apperr.KindOf(err))
}

func TestCommentPromptHonoursAccentFlag(t *testing.T) {
	assert.Contains(t, commentPrompt("German", "English", "Hallo", true), "accent")
	assert.NotContains(t, commentPrompt("German", "English", "Hallo", false), "accent")
}

func TestNormalizeComment(t *testing.T) {
	for _, s := range []string{"", "  ", "-", "None.", "N/A", "\"No issues\"", "Nothing to correct."} {
		assert.Empty(t, NormalizeComment(s), s)
	}
	assert.Equal(t, "Use 'der'.", NormalizeComment("  Use 'der'. "))
}

func TestFirstWord(t *testing.T) {
	assert.Equal(t, "high", firstWord("Level: high"))
	assert.Equal(t, "Medium.", firstWord("Medium.\nBecause..."))
	assert.Equal(t, "", firstWord("  "))
}
