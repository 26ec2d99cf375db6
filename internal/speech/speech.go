// Package speech defines the transcription and synthesis capabilities.
//
// Synthesizers expose one fixed output format per process so that segments
// produced for a turn can be joined by plain byte concatenation: MP3 frames
// and headerless PCM both tolerate this.
package speech

import (
	"context"

	"github.com/nadzzz/tandem/internal/audio"
)

// TranscribeOpts controls transcription behavior.
type TranscribeOpts struct {
	// Language is the ISO-639-1 code (e.g. "de") used as a recognition hint.
	Language string

	// ContentType of the uploaded audio, used to name the upload.
	ContentType string

	// APIKey overrides the configured key pool.
	APIKey string

	// Prompt provides context to improve recognition.
	Prompt string
}

// Transcriber converts audio bytes to text.
type Transcriber interface {
	Name() string
	Transcribe(ctx context.Context, audio []byte, opts TranscribeOpts) (string, error)
}

// SynthesizeOpts controls synthesis behavior.
type SynthesizeOpts struct {
	// Voice is the backend voice ID; empty selects by Language.
	Voice string

	// Language is the ISO-639-1 code used for voice selection.
	Language string

	// Speed is a playback rate multiplier. Zero means the backend default.
	Speed float64

	// APIKey overrides the configured key pool.
	APIKey string
}

// Synthesizer converts text to audio in its fixed Format.
type Synthesizer interface {
	Name() string
	Synthesize(ctx context.Context, text string, opts SynthesizeOpts) ([]byte, error)
	Format() Format
}

// Codec values.
const (
	CodecMP3 = "mp3"
	CodecPCM = "pcm"
)

// Format describes a synthesizer's output stream.
type Format struct {
	Codec string
	// PCM is set when Codec is CodecPCM.
	PCM audio.PCM
}

// MP3 is the format of MPEG audio frames.
var MP3 = Format{Codec: CodecMP3}

// ContentType returns the MIME type of a concatenated stream.
func (f Format) ContentType() string {
	switch f.Codec {
	case CodecPCM:
		return "audio/pcm"
	default:
		return "audio/mpeg"
	}
}

// Package returns a playable payload and its content type. Concatenated PCM
// is wrapped once in a WAV header; MP3 passes through.
func (f Format) Package(stream []byte) ([]byte, string) {
	if f.Codec == CodecPCM {
		return audio.WrapPCM(stream, f.PCM), "audio/wav"
	}
	return stream, f.ContentType()
}
