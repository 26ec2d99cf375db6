package conversation

import (
	"encoding/json"
	"strings"

	"github.com/nadzzz/tandem/internal/apperr"
)

// Level is the ordinal severity of language errors in an utterance, and also
// the user-configured intervention sensitivity.
type Level int

const (
	LevelNone Level = iota
	LevelLow
	LevelMedium
	LevelHigh
)

// Levels lists every level in ascending order.
var Levels = []Level{LevelNone, LevelLow, LevelMedium, LevelHigh}

// Ord returns the ordinal: none=0, low=1, medium=2, high=3.
func (l Level) Ord() int { return int(l) }

func (l Level) String() string {
	switch l {
	case LevelNone:
		return "none"
	case LevelLow:
		return "low"
	case LevelMedium:
		return "medium"
	case LevelHigh:
		return "high"
	default:
		return "invalid"
	}
}

// Valid reports whether l is one of the four defined levels.
func (l Level) Valid() bool { return l >= LevelNone && l <= LevelHigh }

// ParseLevel is case-insensitive and accepts "no" for none. Surrounding
// quotes and trailing punctuation are ignored, since models often add them.
func ParseLevel(s string) (Level, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.Trim(norm, "\"'`.!,;: \n\t")
	switch norm {
	case "none", "no":
		return LevelNone, nil
	case "low":
		return LevelLow, nil
	case "medium":
		return LevelMedium, nil
	case "high":
		return LevelHigh, nil
	default:
		return 0, apperr.Errorf(apperr.KindInvalidRequest, "conversation.level", "unknown intervention level %q", s)
	}
}

func (l Level) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.String())
}

func (l *Level) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseLevel(s)
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// Policy is the user's intervention configuration for a turn.
type Policy struct {
	RequiredLevel Level
	TutorDisabled bool
}

// ShouldIntervene decides whether tutor audio is included this turn.
//
// The actual level is inverted before comparing against the required level:
// intervene iff !TutorDisabled && (3 - ord(level)) < ord(required). A level of
// none therefore never triggers, and high triggers under any required level
// above none.
func ShouldIntervene(level Level, p Policy) bool {
	if p.TutorDisabled {
		return false
	}
	return (LevelHigh.Ord() - level.Ord()) < p.RequiredLevel.Ord()
}
