// Package openai implements speech transcription (Whisper) and synthesis
// (/audio/speech) over OpenAI-compatible APIs. Groq's transcription endpoint
// is served by the same Transcriber with GroqBaseURL.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/nadzzz/tandem/internal/audio"
	"github.com/nadzzz/tandem/internal/httpclient"
	"github.com/nadzzz/tandem/internal/keys"
	"github.com/nadzzz/tandem/internal/speech"
)

const (
	DefaultBaseURL = "https://api.openai.com/v1"
	GroqBaseURL    = "https://api.groq.com/openai/v1"

	DefaultTranscriptionModel = "whisper-1"
	GroqTranscriptionModel    = "whisper-large-v3"
	DefaultSpeechModel        = "tts-1"
	DefaultVoice              = "onyx"

	// pcmSampleRate is the fixed rate of /audio/speech pcm output.
	pcmSampleRate = 24000
)

// Options configure a Transcriber or Synthesizer.
type Options struct {
	Name     string
	BaseURL  string
	Model    string
	APIKeys  []string
	Strategy keys.Strategy
}

// Transcriber sends audio to an OpenAI-compatible transcription endpoint.
type Transcriber struct {
	opts   Options
	client *httpclient.Client
}

// NewTranscriber creates a Transcriber.
func NewTranscriber(opts Options, client *httpclient.Client) *Transcriber {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Model == "" {
		opts.Model = DefaultTranscriptionModel
	}
	if opts.Name == "" {
		opts.Name = "openai"
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	return &Transcriber{opts: opts, client: client}
}

// NewGroqTranscriber creates a Transcriber against Groq's Whisper endpoint.
func NewGroqTranscriber(opts Options, client *httpclient.Client) *Transcriber {
	opts.Name = "groq"
	if opts.BaseURL == "" {
		opts.BaseURL = GroqBaseURL
	}
	if opts.Model == "" {
		opts.Model = GroqTranscriptionModel
	}
	return NewTranscriber(opts, client)
}

// Name returns the backend identifier.
func (t *Transcriber) Name() string { return t.opts.Name }

// Transcribe uploads audio as multipart/form-data and returns the text.
func (t *Transcriber) Transcribe(ctx context.Context, data []byte, opts speech.TranscribeOpts) (string, error) {
	key, err := keys.Resolve(opts.APIKey, t.opts.APIKeys, t.opts.Strategy)
	if err != nil {
		return "", fmt.Errorf("%s transcription: %w", t.opts.Name, err)
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", "audio"+audio.ExtFromContentType(opts.ContentType))
	if err != nil {
		return "", fmt.Errorf("creating form file: %w", err)
	}
	if _, err := io.Copy(part, bytes.NewReader(data)); err != nil {
		return "", fmt.Errorf("writing audio: %w", err)
	}
	_ = writer.WriteField("model", t.opts.Model)
	if opts.Language != "" {
		_ = writer.WriteField("language", opts.Language)
	}
	if opts.Prompt != "" {
		_ = writer.WriteField("prompt", opts.Prompt)
	}
	_ = writer.WriteField("response_format", "json")
	writer.Close()

	payload := body.Bytes()
	contentType := writer.FormDataContentType()
	resp, err := t.client.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.opts.BaseURL+"/audio/transcriptions", bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+key)
		req.Header.Set("Content-Type", contentType)
		return req, nil
	})
	if err != nil {
		return "", fmt.Errorf("transcription request: %w", err)
	}

	var result struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(resp, &result); err != nil {
		return "", fmt.Errorf("decoding transcription: %w", err)
	}

	text := strings.TrimSpace(result.Text)
	slog.DebugContext(ctx, "transcription complete", "backend", t.opts.Name, "audio_bytes", len(data), "text_length", len(text))
	return text, nil
}

// Synthesizer calls /audio/speech.
type Synthesizer struct {
	opts   Options
	format speech.Format
	client *httpclient.Client
}

// NewSynthesizer creates a Synthesizer emitting codec ("mp3" or "pcm").
func NewSynthesizer(opts Options, codec string, client *httpclient.Client) *Synthesizer {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Model == "" {
		opts.Model = DefaultSpeechModel
	}
	if opts.Name == "" {
		opts.Name = "openai"
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")

	format := speech.MP3
	if codec == speech.CodecPCM {
		format = speech.Format{Codec: speech.CodecPCM, PCM: audio.PCM{SampleRate: pcmSampleRate, Channels: 1, Width: 2}}
	}
	return &Synthesizer{opts: opts, format: format, client: client}
}

// Name returns the backend identifier.
func (s *Synthesizer) Name() string { return s.opts.Name }

// Format returns the fixed output format.
func (s *Synthesizer) Format() speech.Format { return s.format }

type speechRequest struct {
	Model          string  `json:"model"`
	Input          string  `json:"input"`
	Voice          string  `json:"voice"`
	ResponseFormat string  `json:"response_format"`
	Speed          float64 `json:"speed,omitempty"`
}

// Synthesize converts text to speech.
func (s *Synthesizer) Synthesize(ctx context.Context, text string, opts speech.SynthesizeOpts) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("empty text for synthesis")
	}
	key, err := keys.Resolve(opts.APIKey, s.opts.APIKeys, s.opts.Strategy)
	if err != nil {
		return nil, fmt.Errorf("%s synthesis: %w", s.opts.Name, err)
	}

	voice := opts.Voice
	if voice == "" {
		voice = DefaultVoice
	}
	body := speechRequest{
		Model:          s.opts.Model,
		Input:          text,
		Voice:          strings.ToLower(voice),
		ResponseFormat: s.format.Codec,
	}
	if opts.Speed >= 0.25 && opts.Speed <= 4.0 {
		body.Speed = opts.Speed
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshalling speech request: %w", err)
	}

	out, err := s.client.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.opts.BaseURL+"/audio/speech", bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+key)
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	})
	if err != nil {
		return nil, fmt.Errorf("speech request: %w", err)
	}

	slog.DebugContext(ctx, "synthesis complete", "backend", s.opts.Name, "voice", body.Voice, "text_length", len(text), "audio_bytes", len(out))
	return out, nil
}
