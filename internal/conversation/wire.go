package conversation

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// TurnRequest is one user utterance plus everything needed to process it.
// Field names follow the web client's JSON.
type TurnRequest struct {
	// Audio is the recorded utterance. In JSON it travels base64-encoded.
	Audio []byte `json:"audio,omitempty"`

	// ContentType is the MIME type of Audio (e.g. "audio/wav").
	ContentType string `json:"content_type,omitempty"`

	// Text is an optional pre-transcribed utterance (bypasses transcription).
	Text string `json:"text,omitempty"`

	MotherTongue     string `json:"motherTongue,omitempty"`
	TutoringLanguage string `json:"tutoringLanguage"`
	TutorsLanguage   string `json:"tutorsLanguage"`
	TutorsVoice      string `json:"tutorsVoice"`
	PartnersVoice    string `json:"partnersVoice"`

	// InterventionLevel is the required sensitivity for tutor audio.
	InterventionLevel Level `json:"interventionLevel"`
	DisableTutor      bool  `json:"disableTutor"`

	// AccentIgnore asks the tutor to disregard pronunciation artefacts.
	AccentIgnore bool `json:"accentignore"`

	// PlaybackSpeed and PauseTime are the client's raw slider positions. The
	// client maps and applies them at playback, so they never reach synthesis.
	PlaybackSpeed SliderValue `json:"playbackSpeed,omitempty"`
	PauseTime     SliderValue `json:"pauseTime,omitempty"`

	// SynthesisSpeed is a speech rate multiplier applied by the synthesis
	// backend. Zero keeps the backend default.
	SynthesisSpeed float64 `json:"synthesisSpeed,omitempty"`

	// Model selects the model provider (e.g. "Groq", "OpenAI").
	Model string `json:"model,omitempty"`

	// APIKey overrides the configured key for the model provider.
	APIKey string `json:"api_key,omitempty"`

	// TranscriptionAPIKey and SynthesisAPIKey override speech backend keys.
	TranscriptionAPIKey string `json:"groq_api_key,omitempty"`
	SynthesisAPIKey     string `json:"openai_api_key,omitempty"`

	Session Session `json:"chatObject"`
}

// SliderValue is a number that browsers may send as a string (an input's
// value). Empty strings and null decode to zero.
type SliderValue float64

// UnmarshalJSON accepts a JSON number, a numeric string, "" or null.
func (v *SliderValue) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		*v = 0
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		raw = strings.TrimSpace(s)
		if raw == "" {
			*v = 0
			return nil
		}
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("invalid numeric value %q", raw)
	}
	*v = SliderValue(f)
	return nil
}

// HasAudio returns true if the request carries an audio payload.
func (r *TurnRequest) HasAudio() bool {
	return len(r.Audio) > 0
}

// Feedback is the structured tutor evaluation of one turn.
type Feedback struct {
	Comment    string `json:"comment"`
	Correction string `json:"correction"`
	Level      Level  `json:"interventionLevel"`
}

// Text renders the feedback for display next to the conversation.
func (f Feedback) Text() string {
	return FormatTutorLogEntry(f.Comment, f.Correction) + "\nIntervention level: " + f.Level.String()
}

// TurnResponse is the outcome of one processed turn.
type TurnResponse struct {
	TurnID string `json:"turn_id"`

	// Transcription is the display form "You: <transcript>\n\nPartner: <reply>".
	Transcription string `json:"transcription"`
	Transcript    string `json:"transcript"`
	Reply         string `json:"reply"`

	// AudioBase64 holds the concatenated turn audio.
	AudioBase64      string   `json:"audio_base64"`
	AudioContentType string   `json:"audio_content_type,omitempty"`
	AudioSegments    []string `json:"audio_segments"`

	Intervened     bool     `json:"intervened"`
	Feedback       Feedback `json:"feedback"`
	TutorFeedback  string   `json:"tutorFeedback"`
	UpdatedSummary string   `json:"updatedSummary"`

	Session Session `json:"chatObject"`
}

// SetAudioBytes base64-encodes raw audio bytes into AudioBase64.
func (r *TurnResponse) SetAudioBytes(audio []byte) {
	if len(audio) > 0 {
		r.AudioBase64 = base64.StdEncoding.EncodeToString(audio)
	}
}

// HomeworkRequest asks for exercises derived from a whole session.
type HomeworkRequest struct {
	TutoringLanguage string  `json:"tutoringLanguage"`
	TutorsLanguage   string  `json:"tutorsLanguage,omitempty"`
	Model            string  `json:"model,omitempty"`
	APIKey           string  `json:"api_key,omitempty"`
	Session          Session `json:"chatObject"`
}

// HomeworkResponse carries the generated exercises.
type HomeworkResponse struct {
	Homework   string `json:"homework"`
	Grammar    string `json:"grammar"`
	Vocabulary string `json:"vocabulary"`
}

// ChatNameRequest asks for a short title. The client sends the session
// fields at the top level.
type ChatNameRequest struct {
	History          []Utterance `json:"chat_history"`
	TutorLog         []string    `json:"tutors_comments"`
	Summary          []string    `json:"summary"`
	TutoringLanguage string      `json:"tutoringLanguage"`
	Model            string      `json:"model,omitempty"`
	APIKey           string      `json:"api_key,omitempty"`
}

// Session returns the request's session fields as a Session.
func (r *ChatNameRequest) Session() Session {
	return Session{History: r.History, TutorLog: r.TutorLog, Summary: r.Summary}
}

// ChatNameResponse carries the generated title.
type ChatNameResponse struct {
	ChatName string `json:"chatName"`
}

// VerifyKeyRequest asks whether an API key works for a provider.
type VerifyKeyRequest struct {
	APIKey string `json:"api_key"`
	Model  string `json:"model"`
}

// VerifyKeyResponse reports the verification outcome.
type VerifyKeyResponse struct {
	Valid bool `json:"valid"`
}

// ErrorResponse is the error envelope returned by every transport.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}
