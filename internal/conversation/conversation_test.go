package conversation

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nadzzz/tandem/internal/apperr"
)

func TestAppendDoesNotMutateInput(t *testing.T) {
	in := Session{
		History:  []Utterance{User("Hallo"), Agent("Hallo! Wie geht's?")},
		TutorLog: []string{"Comment: \nCorrection: Hallo"},
		Summary:  []string{"Begrüßung"},
	}
	before := in.Clone()

	out := Append(in, User("Gut"), Agent("Schön!"), "Smalltalk", "Comment: -\nCorrection: Gut.")

	assert.Equal(t, before, in)
	require.Len(t, out.History, 4)
	assert.Equal(t, User("Gut"), out.History[2])
	assert.Equal(t, Agent("Schön!"), out.History[3])
	assert.Equal(t, []string{"Begrüßung", "Smalltalk"}, out.Summary)
	assert.Len(t, out.TutorLog, 2)

	out.History[0].Text = "changed"
	assert.Equal(t, "Hallo", in.History[0].Text)
}

func TestAppendOnEmptySession(t *testing.T) {
	out := Append(Session{}, User("a"), Agent("b"), "", "Comment: \nCorrection: ")

	assert.Len(t, out.History, 2)
	assert.Equal(t, []string{""}, out.Summary)
	assert.Len(t, out.TutorLog, 1)
}

func TestUtteranceJSONRoundTripsClientDiscriminants(t *testing.T) {
	raw := `{"chat_history":[{"type":"HumanMessage","content":"Hallo"},{"type":"AIMessage","content":"Hi"}],"tutors_comments":[],"summary":[]}`

	var s Session
	require.NoError(t, json.Unmarshal([]byte(raw), &s))
	assert.Equal(t, []Utterance{User("Hallo"), Agent("Hi")}, s.History)

	out, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, raw, string(out))
}

func TestUtteranceRejectsUnknownType(t *testing.T) {
	var u Utterance
	err := json.Unmarshal([]byte(`{"type":"SystemMessage","content":"x"}`), &u)
	assert.ErrorIs(t, err, apperr.ErrInvalidSession)
}

func TestTailAndLastUser(t *testing.T) {
	h := []Utterance{User("1"), Agent("2"), User("3"), Agent("4")}

	assert.Equal(t, h[2:], Tail(h, 2))
	assert.Equal(t, h, Tail(h, 10))
	assert.Nil(t, Tail(h, 0))

	last, ok := LastUserUtterance(h)
	assert.True(t, ok)
	assert.Equal(t, "3", last.Text)

	_, ok = LastUserUtterance(nil)
	assert.False(t, ok)
}

func TestSessionHelpers(t *testing.T) {
	s := Session{Summary: []string{"a", "b"}, TutorLog: []string{"1", "2", "3", "4", "5"}}

	assert.Equal(t, "b", s.LastSummary())
	assert.Equal(t, "", Session{}.LastSummary())
	assert.Equal(t, []string{"2", "3", "4", "5"}, s.TutorLogTail(4))
}

func TestValidateRejectsZeroRole(t *testing.T) {
	s := Session{History: []Utterance{{Text: "x"}}}
	assert.ErrorIs(t, s.Validate(), apperr.ErrInvalidSession)
	assert.NoError(t, Session{History: []Utterance{User("x")}}.Validate())
}

func TestLanguageCode(t *testing.T) {
	assert.Equal(t, "de", LanguageCode("German"))
	assert.Equal(t, "el", LanguageCode("greek"))
	assert.Equal(t, "fr", LanguageCode("FR"))
	assert.Equal(t, "en", LanguageCode("Klingon"))
}

func TestFeedbackText(t *testing.T) {
	f := Feedback{Comment: "Use 'bin'.", Correction: "Ich bin gegangen.", Level: LevelMedium}
	assert.Equal(t, "Comment: Use 'bin'.\nCorrection: Ich bin gegangen.\nIntervention level: medium", f.Text())
}

func TestSliderValueAcceptsBrowserForms(t *testing.T) {
	cases := map[string]SliderValue{
		`"1"`:    1,
		`"0.5"`:  0.5,
		` "2" `:  2,
		`3`:      3,
		`""`:     0,
		`null`:   0,
		`"  "`:   0,
		`"1e-1"`: 0.1,
	}
	for raw, want := range cases {
		var v SliderValue
		require.NoError(t, json.Unmarshal([]byte(raw), &v), raw)
		assert.Equal(t, want, v, raw)
	}

	var v SliderValue
	assert.Error(t, json.Unmarshal([]byte(`"fast"`), &v))
	assert.Error(t, json.Unmarshal([]byte(`true`), &v))
}

func TestTurnRequestDecodesClientPayload(t *testing.T) {
	payload := `{"tutoringLanguage":"German","tutorsLanguage":"English","tutorsVoice":"onyx","partnersVoice":"nova",` +
		`"interventionLevel":"medium","chatObject":{"chat_history":[],"tutors_comments":[],"summary":[]},` +
		`"disableTutor":false,"accentignore":true,"model":"Groq","playbackSpeed":"1","pauseTime":"2","api_key":null}`

	var req TurnRequest
	require.NoError(t, json.Unmarshal([]byte(payload), &req))
	assert.Equal(t, SliderValue(1), req.PlaybackSpeed)
	assert.Equal(t, SliderValue(2), req.PauseTime)
	assert.Zero(t, req.SynthesisSpeed)
	assert.Equal(t, LevelMedium, req.InterventionLevel)
	assert.True(t, req.AccentIgnore)
	assert.Empty(t, req.APIKey)
}
