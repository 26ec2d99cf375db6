// Package conversation defines the core data types flowing through a tandem
// turn: utterances, the round-tripped session, intervention levels and the
// wire requests accepted by the transports.
//
// A Session is owned by the caller. Nothing in this package mutates a Session
// in place; every transformation returns a new value.
package conversation

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jinzhu/copier"

	"github.com/nadzzz/tandem/internal/apperr"
)

// Role discriminates who produced an utterance.
type Role int

const (
	RoleUser Role = iota + 1
	RoleAgent
)

// Wire discriminants used by the web client.
const (
	wireUser  = "HumanMessage"
	wireAgent = "AIMessage"
)

func (r Role) String() string {
	switch r {
	case RoleUser:
		return "user"
	case RoleAgent:
		return "agent"
	default:
		return "unknown"
	}
}

// ParseRole accepts the client discriminants plus common aliases.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "humanmessage", "human", "user":
		return RoleUser, nil
	case "aimessage", "ai", "agent", "assistant":
		return RoleAgent, nil
	default:
		return 0, apperr.Errorf(apperr.KindInvalidSession, "conversation.role", "unknown message type %q", s)
	}
}

// Utterance is one message in a conversation. Treat it as immutable.
type Utterance struct {
	Role Role
	Text string
}

// User returns a user utterance.
func User(text string) Utterance { return Utterance{Role: RoleUser, Text: text} }

// Agent returns an agent utterance.
func Agent(text string) Utterance { return Utterance{Role: RoleAgent, Text: text} }

type wireUtterance struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

// MarshalJSON encodes the utterance as {"type": "HumanMessage"|"AIMessage", "content": ...}.
func (u Utterance) MarshalJSON() ([]byte, error) {
	var typ string
	switch u.Role {
	case RoleUser:
		typ = wireUser
	case RoleAgent:
		typ = wireAgent
	default:
		return nil, fmt.Errorf("marshalling utterance: invalid role %d", u.Role)
	}
	return json.Marshal(wireUtterance{Type: typ, Content: u.Text})
}

// UnmarshalJSON decodes the client wire form.
func (u *Utterance) UnmarshalJSON(data []byte) error {
	var w wireUtterance
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	role, err := ParseRole(w.Type)
	if err != nil {
		return err
	}
	*u = Utterance{Role: role, Text: w.Content}
	return nil
}

// Session is the accumulated per-conversation state.
//
// len(Summary) and len(TutorLog) equal the number of processed turns, and History
// grows by exactly two entries (user, agent) per turn.
type Session struct {
	History  []Utterance `json:"chat_history"`
	TutorLog []string    `json:"tutors_comments"`
	Summary  []string    `json:"summary"`
}

// Clone returns a deep copy of s.
func (s Session) Clone() Session {
	var out Session
	if err := copier.CopyWithOption(&out, &s, copier.Option{DeepCopy: true}); err != nil {
		// copier only fails on mismatched kinds, which cannot happen for a
		// same-type copy; fall back to a manual clone regardless.
		return Session{
			History:  append([]Utterance(nil), s.History...),
			TutorLog: append([]string(nil), s.TutorLog...),
			Summary:  append([]string(nil), s.Summary...),
		}
	}
	return out
}

// Append returns a new Session with one completed turn folded in. s is not
// modified.
func Append(s Session, user, agent Utterance, newSummary, tutorLogEntry string) Session {
	out := s.Clone()
	out.History = append(out.History, user, agent)
	out.Summary = append(out.Summary, newSummary)
	out.TutorLog = append(out.TutorLog, tutorLogEntry)
	return out
}

// LastSummary returns the current rolling summary, or "" before the first turn.
func (s Session) LastSummary() string {
	if len(s.Summary) == 0 {
		return ""
	}
	return s.Summary[len(s.Summary)-1]
}

// TutorLogTail returns up to the last n tutor log entries.
func (s Session) TutorLogTail(n int) []string {
	return tail(s.TutorLog, n)
}

// Validate checks that every utterance carries a known role.
func (s Session) Validate() error {
	for i, u := range s.History {
		if u.Role != RoleUser && u.Role != RoleAgent {
			return apperr.Errorf(apperr.KindInvalidSession, "conversation.validate", "history[%d] has invalid role", i)
		}
	}
	return nil
}

// Tail returns up to the last n entries of history. The result aliases the
// input; callers must not append to it.
func Tail(history []Utterance, n int) []Utterance {
	return tail(history, n)
}

// LastUserUtterance returns the most recent user utterance in history.
func LastUserUtterance(history []Utterance) (Utterance, bool) {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == RoleUser {
			return history[i], true
		}
	}
	return Utterance{}, false
}

// FormatTutorLogEntry renders the per-turn tutor log record.
func FormatTutorLogEntry(comment, correction string) string {
	return "Comment: " + comment + "\nCorrection: " + correction
}

func tail[T any](s []T, n int) []T {
	if n <= 0 {
		return nil
	}
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
