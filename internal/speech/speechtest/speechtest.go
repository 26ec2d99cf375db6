// Package speechtest provides in-memory speech backends for tests.
package speechtest

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/nadzzz/tandem/internal/speech"
)

// Transcriber returns Text for every call, or Err.
type Transcriber struct {
	Text string
	Err  error

	mu    sync.Mutex
	calls []speech.TranscribeOpts
}

// Name returns "fake".
func (t *Transcriber) Name() string { return "fake" }

// Transcribe records opts and returns the scripted outcome.
func (t *Transcriber) Transcribe(_ context.Context, _ []byte, opts speech.TranscribeOpts) (string, error) {
	t.mu.Lock()
	t.calls = append(t.calls, opts)
	t.mu.Unlock()
	return t.Text, t.Err
}

// Calls returns the recorded options.
func (t *Transcriber) Calls() []speech.TranscribeOpts {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]speech.TranscribeOpts(nil), t.calls...)
}

// Synthesis is one recorded synthesize call.
type Synthesis struct {
	Text string
	Opts speech.SynthesizeOpts
}

// Synthesizer renders text as "[voice:text]" bytes so output order is
// visible in tests.
type Synthesizer struct {
	// Delay lets a test reorder completions by text.
	Delay func(text string) time.Duration
	// FailOn makes synthesis of this exact text fail.
	FailOn string
	// Out overrides the payload format.
	Out   func(text string, opts speech.SynthesizeOpts) []byte
	Codec speech.Format

	mu        sync.Mutex
	calls     []Synthesis
	completed []string
}

// Name returns "fake".
func (s *Synthesizer) Name() string { return "fake" }

// Format returns Codec, MP3 by default.
func (s *Synthesizer) Format() speech.Format {
	if s.Codec.Codec == "" {
		return speech.MP3
	}
	return s.Codec
}

// Synthesize records the call and returns a deterministic payload.
func (s *Synthesizer) Synthesize(ctx context.Context, text string, opts speech.SynthesizeOpts) ([]byte, error) {
	s.mu.Lock()
	s.calls = append(s.calls, Synthesis{Text: text, Opts: opts})
	s.mu.Unlock()

	if s.Delay != nil {
		select {
		case <-time.After(s.Delay(text)):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.FailOn != "" && text == s.FailOn {
		return nil, errors.New("synthesis backend unavailable")
	}

	s.mu.Lock()
	s.completed = append(s.completed, text)
	s.mu.Unlock()

	if s.Out != nil {
		return s.Out(text, opts), nil
	}
	return []byte("[" + opts.Voice + ":" + text + "]"), nil
}

// Calls returns the recorded calls in arrival order.
func (s *Synthesizer) Calls() []Synthesis {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Synthesis(nil), s.calls...)
}

// Completed returns texts in completion order.
func (s *Synthesizer) Completed() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.completed...)
}
