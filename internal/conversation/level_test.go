package conversation

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// The comparison inverts the actual level before testing it against the
// required level. The table pins that behaviour for all 16 combinations.
func TestShouldInterveneTable(t *testing.T) {
	want := map[[2]Level]bool{
		{LevelNone, LevelNone}:     false,
		{LevelNone, LevelLow}:      false,
		{LevelNone, LevelMedium}:   false,
		{LevelNone, LevelHigh}:     false,
		{LevelLow, LevelNone}:      false,
		{LevelLow, LevelLow}:       false,
		{LevelLow, LevelMedium}:    false,
		{LevelLow, LevelHigh}:      true,
		{LevelMedium, LevelNone}:   false,
		{LevelMedium, LevelLow}:    false,
		{LevelMedium, LevelMedium}: true,
		{LevelMedium, LevelHigh}:   true,
		{LevelHigh, LevelNone}:     false,
		{LevelHigh, LevelLow}:      true,
		{LevelHigh, LevelMedium}:   true,
		{LevelHigh, LevelHigh}:     true,
	}
	require.Len(t, want, 16)

	for _, actual := range Levels {
		for _, required := range Levels {
			name := fmt.Sprintf("%s/required=%s", actual, required)
			t.Run(name, func(t *testing.T) {
				got := ShouldIntervene(actual, Policy{RequiredLevel: required})
				assert.Equal(t, want[[2]Level{actual, required}], got)
				assert.False(t, ShouldIntervene(actual, Policy{RequiredLevel: required, TutorDisabled: true}))
			})
		}
	}
}

func TestShouldInterveneFormula(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		level := rapid.SampledFrom(Levels).Draw(t, "level")
		required := rapid.SampledFrom(Levels).Draw(t, "required")
		disabled := rapid.Bool().Draw(t, "disabled")

		got := ShouldIntervene(level, Policy{RequiredLevel: required, TutorDisabled: disabled})
		want := !disabled && (3-level.Ord()) < required.Ord()
		if got != want {
			t.Fatalf("ShouldIntervene(%s, %s, disabled=%v) = %v, want %v", level, required, disabled, got, want)
		}
		if level == LevelNone && got {
			t.Fatalf("level none must never trigger")
		}
	})
}

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"no":        LevelNone,
		"None":      LevelNone,
		" low\n":    LevelLow,
		"\"medium\"": LevelMedium,
		"HIGH.":     LevelHigh,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("very high")
	assert.Error(t, err)
}

func TestLevelJSON(t *testing.T) {
	var l Level
	require.NoError(t, json.Unmarshal([]byte(`"medium"`), &l))
	assert.Equal(t, LevelMedium, l)

	out, err := json.Marshal(LevelLow)
	require.NoError(t, err)
	assert.Equal(t, `"low"`, string(out))
}
