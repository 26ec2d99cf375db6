// Package local implements speech.Transcriber for self-hosted Whisper servers.
//
// Two flavors are supported:
//   - "openai": OpenAI-compatible API (whisper.cpp server, faster-whisper)
//   - "asr":    ahmetoner/whisper-asr-webservice (POST /asr with query params)
package local

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"github.com/nadzzz/tandem/internal/audio"
	"github.com/nadzzz/tandem/internal/config"
	"github.com/nadzzz/tandem/internal/httpclient"
	"github.com/nadzzz/tandem/internal/speech"
)

// Transcriber uses a self-hosted Whisper endpoint.
type Transcriber struct {
	endpoint    string
	whisperType string
	model       string
	vadFilter   bool
	client      *httpclient.Client
}

// New creates a local transcriber from config.
func New(cfg config.LocalConfig, model string, client *httpclient.Client) *Transcriber {
	wt := cfg.WhisperType
	if wt == "" {
		wt = "openai"
	}
	return &Transcriber{
		endpoint:    cfg.Endpoint,
		whisperType: wt,
		model:       model,
		vadFilter:   cfg.VADFilter,
		client:      client,
	}
}

// Name returns the backend identifier.
func (t *Transcriber) Name() string { return "local" }

// Transcribe sends audio to the configured endpoint flavor.
func (t *Transcriber) Transcribe(ctx context.Context, data []byte, opts speech.TranscribeOpts) (string, error) {
	var (
		text string
		err  error
	)
	switch t.whisperType {
	case "asr":
		text, err = t.transcribeASR(ctx, data, opts)
	default:
		text, err = t.transcribeOpenAI(ctx, data, opts)
	}
	if err != nil {
		return "", err
	}
	slog.DebugContext(ctx, "local transcription complete", "flavor", t.whisperType, "text_length", len(text))
	return strings.TrimSpace(text), nil
}

// transcribeASR handles the whisper-asr-webservice format.
// API: POST /asr?task=transcribe&language=en&output=json&vad_filter=true
// Body: multipart/form-data with field "audio_file"
func (t *Transcriber) transcribeASR(ctx context.Context, data []byte, opts speech.TranscribeOpts) (string, error) {
	payload, contentType, err := multipartAudio("audio_file", data, opts.ContentType, nil)
	if err != nil {
		return "", err
	}

	q := make(url.Values)
	q.Set("task", "transcribe")
	q.Set("output", "json")
	q.Set("encode", "true")
	if opts.Language != "" {
		q.Set("language", opts.Language)
	}
	if opts.Prompt != "" {
		q.Set("initial_prompt", opts.Prompt)
	}
	if t.vadFilter {
		q.Set("vad_filter", "true")
	}
	reqURL := t.endpoint + "?" + q.Encode()

	return t.post(ctx, reqURL, payload, contentType)
}

// transcribeOpenAI handles OpenAI-compatible whisper endpoints.
func (t *Transcriber) transcribeOpenAI(ctx context.Context, data []byte, opts speech.TranscribeOpts) (string, error) {
	fields := map[string]string{"response_format": "json"}
	if t.model != "" {
		fields["model"] = t.model
	}
	if opts.Language != "" {
		fields["language"] = opts.Language
	}
	payload, contentType, err := multipartAudio("file", data, opts.ContentType, fields)
	if err != nil {
		return "", err
	}
	return t.post(ctx, t.endpoint, payload, contentType)
}

func (t *Transcriber) post(ctx context.Context, reqURL string, payload []byte, contentType string) (string, error) {
	resp, err := t.client.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", contentType)
		return req, nil
	})
	if err != nil {
		return "", fmt.Errorf("local transcription request: %w", err)
	}

	// Both flavors answer {"text": "...", "language": "..."} for json output.
	var result struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(resp, &result); err != nil {
		return "", fmt.Errorf("decoding transcription: %w", err)
	}
	return result.Text, nil
}

func multipartAudio(field string, data []byte, contentType string, fields map[string]string) ([]byte, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile(field, "audio"+audio.ExtFromContentType(contentType))
	if err != nil {
		return nil, "", fmt.Errorf("creating form file: %w", err)
	}
	if _, err := io.Copy(part, bytes.NewReader(data)); err != nil {
		return nil, "", fmt.Errorf("writing audio: %w", err)
	}
	for k, v := range fields {
		_ = writer.WriteField(k, v)
	}
	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("closing form: %w", err)
	}
	return body.Bytes(), writer.FormDataContentType(), nil
}
