// Package piper implements speech.Synthesizer against a Piper server
// speaking the Wyoming protocol over TCP (port 10200 in the linuxserver
// image).
//
// Wyoming protocol format (per event):
//
//	<json_length> <payload_length>\n
//	<json_bytes>\n
//	<payload_bytes>   (if payload_length > 0)
//
// Audio is returned as headerless PCM in one fixed format so segments
// concatenate. Streams at another sample rate are resampled; streams with a
// different sample width or channel count are rejected.
package piper

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/nadzzz/tandem/internal/audio"
	"github.com/nadzzz/tandem/internal/config"
	"github.com/nadzzz/tandem/internal/speech"
)

// defaultVoices maps ISO-639-1 language codes to Piper voice model names.
var defaultVoices = map[string]string{
	"en": "en_US-lessac-medium",
	"fr": "fr_FR-siwis-medium",
	"es": "es_ES-davefx-medium",
	"de": "de_DE-thorsten-medium",
	"it": "it_IT-paola-medium",
	"pt": "pt_BR-faber-medium",
	"ru": "ru_RU-ruslan-medium",
	"zh": "zh_CN-huayan-medium",
	"ar": "ar_JO-kareem-medium",
	"tr": "tr_TR-dfki-medium",
	"el": "el_GR-rapunzelina-low",
}

// Synthesizer talks to one or more Piper instances.
type Synthesizer struct {
	endpoint  string            // default host:port
	endpoints map[string]string // language -> host:port
	voices    map[string]string // language -> voice
	pcm       audio.PCM         // output format of every segment
}

// New creates a Piper synthesizer from config.
func New(cfg config.PiperConfig) *Synthesizer {
	voices := make(map[string]string, len(defaultVoices)+len(cfg.Voices))
	for k, v := range defaultVoices {
		voices[k] = v
	}
	for k, v := range cfg.Voices {
		voices[k] = v
	}

	endpoints := make(map[string]string, len(cfg.Endpoints))
	for lang, ep := range cfg.Endpoints {
		endpoints[lang] = cleanEndpoint(ep)
	}

	return &Synthesizer{
		endpoint:  cleanEndpoint(cfg.Endpoint),
		endpoints: endpoints,
		voices:    voices,
		pcm:       outputPCM(cfg.SampleRate),
	}
}

func outputPCM(rate int) audio.PCM {
	pcm := audio.DefaultPCM
	if rate > 0 {
		pcm.SampleRate = rate
	}
	return pcm
}

func cleanEndpoint(ep string) string {
	ep = strings.TrimPrefix(ep, "tcp://")
	return strings.TrimPrefix(ep, "http://")
}

// Name returns the backend identifier.
func (s *Synthesizer) Name() string { return "piper" }

// Format reports raw PCM in the configured output format.
func (s *Synthesizer) Format() speech.Format {
	return speech.Format{Codec: speech.CodecPCM, PCM: s.pcm}
}

// voiceFor resolves the voice: the requested one when it is a Piper model
// name, otherwise the language default.
func (s *Synthesizer) voiceFor(opts speech.SynthesizeOpts) string {
	if strings.Contains(opts.Voice, "-") {
		return opts.Voice
	}
	if v := s.voices[opts.Language]; v != "" {
		return v
	}
	return s.voices["en"]
}

// Synthesize sends text to Piper and returns raw PCM.
func (s *Synthesizer) Synthesize(ctx context.Context, text string, opts speech.SynthesizeOpts) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("empty text for synthesis")
	}

	voice := s.voiceFor(opts)
	endpoint := s.endpoints[opts.Language]
	if endpoint == "" {
		endpoint = s.endpoint
	}
	if endpoint == "" {
		return nil, fmt.Errorf("no piper endpoint configured for language %q", opts.Language)
	}

	slog.DebugContext(ctx, "piper synthesize", "text_length", len(text), "voice", voice, "language", opts.Language, "endpoint", endpoint)

	dialer := net.Dialer{Timeout: 10 * time.Second}
	conn, err := dialer.DialContext(ctx, "tcp", endpoint)
	if err != nil {
		return nil, fmt.Errorf("connecting to piper: %w", err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	} else {
		_ = conn.SetDeadline(time.Now().Add(30 * time.Second))
	}

	synth := event{
		Type: "synthesize",
		Data: map[string]any{
			"text":  text,
			"voice": map[string]any{"name": voice},
		},
	}
	if opts.Speed > 0 && opts.Speed != 1 {
		// Piper's length_scale is the inverse of speaking rate.
		synth.Data["synthesize_options"] = map[string]any{"length_scale": 1 / opts.Speed}
	}
	if err := writeEvent(conn, synth, nil); err != nil {
		return nil, fmt.Errorf("sending synthesize event: %w", err)
	}

	r := bufio.NewReader(conn)
	var (
		pcmBuf bytes.Buffer
		spec   = audio.DefaultPCM
	)
	for {
		evt, payload, err := readEvent(r)
		if err != nil {
			return nil, fmt.Errorf("reading piper event: %w", err)
		}

		switch evt.Type {
		case "audio-start":
			if v, ok := evt.Data["rate"].(float64); ok {
				spec.SampleRate = int(v)
			}
			if v, ok := evt.Data["channels"].(float64); ok {
				spec.Channels = int(v)
			}
			if v, ok := evt.Data["width"].(float64); ok {
				spec.Width = int(v)
			}

		case "audio-chunk":
			pcmBuf.Write(payload)

		case "audio-stop":
			slog.DebugContext(ctx, "piper audio-stop", "pcm_bytes", pcmBuf.Len(), "rate", spec.SampleRate)
			return s.normalize(pcmBuf.Bytes(), spec, voice)

		case "error":
			msg := "unknown error"
			if t, ok := evt.Data["text"].(string); ok {
				msg = t
			}
			return nil, fmt.Errorf("piper error: %s", msg)

		default:
			slog.DebugContext(ctx, "piper unknown event", "type", evt.Type)
		}
	}
}

// normalize converts a stream to the output format.
func (s *Synthesizer) normalize(pcm []byte, spec audio.PCM, voice string) ([]byte, error) {
	if spec.Width != s.pcm.Width || spec.Channels != s.pcm.Channels {
		return nil, fmt.Errorf("piper voice %s streams %d channel(s) of %d-byte samples, want %d of %d",
			voice, spec.Channels, spec.Width, s.pcm.Channels, s.pcm.Width)
	}
	if spec.SampleRate == s.pcm.SampleRate {
		return pcm, nil
	}
	out, err := audio.Resample(pcm, spec, s.pcm.SampleRate)
	if err != nil {
		return nil, fmt.Errorf("resampling piper voice %s: %w", voice, err)
	}
	return out, nil
}

// --- Wyoming protocol helpers ---

type event struct {
	Type string         `json:"type"`
	Data map[string]any `json:"data,omitempty"`
}

func writeEvent(w io.Writer, evt event, payload []byte) error {
	jsonBytes, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshalling event: %w", err)
	}
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%d %d\n", len(jsonBytes), len(payload))
	buf.Write(jsonBytes)
	buf.WriteByte('\n')
	buf.Write(payload)
	_, err = w.Write(buf.Bytes())
	return err
}

func readEvent(r *bufio.Reader) (*event, []byte, error) {
	header, err := r.ReadString('\n')
	if err != nil {
		return nil, nil, fmt.Errorf("reading header: %w", err)
	}
	parts := strings.Fields(header)
	if len(parts) != 2 {
		return nil, nil, fmt.Errorf("invalid wyoming header: %q", header)
	}
	jsonLen, err := strconv.Atoi(parts[0])
	if err != nil {
		return nil, nil, fmt.Errorf("parsing json_length: %w", err)
	}
	payloadLen, err := strconv.Atoi(parts[1])
	if err != nil {
		return nil, nil, fmt.Errorf("parsing payload_length: %w", err)
	}

	jsonBuf := make([]byte, jsonLen+1) // trailing \n
	if _, err := io.ReadFull(r, jsonBuf); err != nil {
		return nil, nil, fmt.Errorf("reading json: %w", err)
	}
	var evt event
	if err := json.Unmarshal(jsonBuf[:jsonLen], &evt); err != nil {
		return nil, nil, fmt.Errorf("unmarshalling event: %w", err)
	}

	var payload []byte
	if payloadLen > 0 {
		payload = make([]byte, payloadLen)
		if _, err := io.ReadFull(r, payload); err != nil {
			return nil, nil, fmt.Errorf("reading payload: %w", err)
		}
	}
	return &evt, payload, nil
}
