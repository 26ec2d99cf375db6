package backends

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nadzzz/tandem/internal/config"
	"github.com/nadzzz/tandem/internal/httpclient"
	"github.com/nadzzz/tandem/internal/speech"
)

func TestNewTranscriber(t *testing.T) {
	hc := httpclient.New(config.HTTPClientConfig{})
	for backend, name := range map[string]string{"groq": "groq", "openai": "openai", "local": "local"} {
		tr, err := NewTranscriber(config.TranscriptionConfig{Backend: backend}, nil, hc)
		require.NoError(t, err, backend)
		assert.Equal(t, name, tr.Name())
	}
	_, err := NewTranscriber(config.TranscriptionConfig{Backend: "vosk"}, nil, hc)
	assert.Error(t, err)
}

func TestNewSynthesizer(t *testing.T) {
	hc := httpclient.New(config.HTTPClientConfig{})

	s, err := NewSynthesizer(config.SynthesisConfig{Backend: "openai", Format: "mp3"}, nil, hc)
	require.NoError(t, err)
	assert.Equal(t, speech.CodecMP3, s.Format().Codec)

	s, err = NewSynthesizer(config.SynthesisConfig{Backend: "piper", Format: "pcm"}, nil, hc)
	require.NoError(t, err)
	assert.Equal(t, "piper", s.Name())
	assert.Equal(t, speech.CodecPCM, s.Format().Codec)

	_, err = NewSynthesizer(config.SynthesisConfig{Backend: "coqui"}, nil, hc)
	assert.Error(t, err)
}
