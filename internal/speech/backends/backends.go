// Package backends builds the configured speech backends.
package backends

import (
	"fmt"

	"github.com/nadzzz/tandem/internal/config"
	"github.com/nadzzz/tandem/internal/httpclient"
	"github.com/nadzzz/tandem/internal/keys"
	"github.com/nadzzz/tandem/internal/speech"
	"github.com/nadzzz/tandem/internal/speech/local"
	"github.com/nadzzz/tandem/internal/speech/openai"
	"github.com/nadzzz/tandem/internal/speech/piper"
)

// NewTranscriber returns the transcription backend named in cfg.
func NewTranscriber(cfg config.TranscriptionConfig, strategy keys.Strategy, hc *httpclient.Client) (speech.Transcriber, error) {
	opts := openai.Options{BaseURL: cfg.BaseURL, Model: cfg.Model, APIKeys: cfg.APIKeys, Strategy: strategy}
	switch cfg.Backend {
	case "groq":
		return openai.NewGroqTranscriber(opts, hc), nil
	case "openai":
		return openai.NewTranscriber(opts, hc), nil
	case "local":
		return local.New(cfg.Local, cfg.Model, hc), nil
	default:
		return nil, fmt.Errorf("unknown transcription backend %q", cfg.Backend)
	}
}

// NewSynthesizer returns the synthesis backend named in cfg.
func NewSynthesizer(cfg config.SynthesisConfig, strategy keys.Strategy, hc *httpclient.Client) (speech.Synthesizer, error) {
	switch cfg.Backend {
	case "openai":
		opts := openai.Options{BaseURL: cfg.BaseURL, Model: cfg.Model, APIKeys: cfg.APIKeys, Strategy: strategy}
		return openai.NewSynthesizer(opts, cfg.Format, hc), nil
	case "piper":
		return piper.New(cfg.Piper), nil
	default:
		return nil, fmt.Errorf("unknown synthesis backend %q", cfg.Backend)
	}
}
