package local

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nadzzz/tandem/internal/config"
	"github.com/nadzzz/tandem/internal/httpclient"
	"github.com/nadzzz/tandem/internal/speech"
)

func TestTranscribeASR(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/asr", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "transcribe", q.Get("task"))
		assert.Equal(t, "es", q.Get("language"))
		assert.Equal(t, "true", q.Get("vad_filter"))
		require.NoError(t, r.ParseMultipartForm(1<<20))
		_, _, err := r.FormFile("audio_file")
		require.NoError(t, err)
		_, _ = w.Write([]byte(`{"text":" Hola, ¿qué tal? ","language":"es"}`))
	}))
	defer srv.Close()

	tr := New(config.LocalConfig{Endpoint: srv.URL + "/asr", WhisperType: "asr", VADFilter: true}, "", httpclient.New(config.HTTPClientConfig{}))
	text, err := tr.Transcribe(context.Background(), []byte("audio"), speech.TranscribeOpts{Language: "es"})
	require.NoError(t, err)
	assert.Equal(t, "Hola, ¿qué tal?", text)
}

func TestTranscribeOpenAICompatible(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "large-v3", r.FormValue("model"))
		assert.Equal(t, "fr", r.FormValue("language"))
		_, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		assert.Equal(t, "audio.ogg", hdr.Filename)
		_, _ = w.Write([]byte(`{"text":"Bonjour"}`))
	}))
	defer srv.Close()

	tr := New(config.LocalConfig{Endpoint: srv.URL}, "large-v3", httpclient.New(config.HTTPClientConfig{}))
	text, err := tr.Transcribe(context.Background(), []byte("audio"), speech.TranscribeOpts{Language: "fr", ContentType: "audio/ogg"})
	require.NoError(t, err)
	assert.Equal(t, "Bonjour", text)
}
