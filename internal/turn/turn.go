// Package turn runs one conversational turn: transcription, concurrent
// partner reply and tutor evaluation, the intervention decision, concurrent
// audio synthesis and summary update, and assembly of the new session.
//
// The orchestrator is stateless. Callers that share a session between
// concurrent turns must serialise them.
package turn

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/nadzzz/tandem/internal/apperr"
	"github.com/nadzzz/tandem/internal/conversation"
	"github.com/nadzzz/tandem/internal/llm"
	"github.com/nadzzz/tandem/internal/metrics"
	"github.com/nadzzz/tandem/internal/partner"
	"github.com/nadzzz/tandem/internal/speech"
	"github.com/nadzzz/tandem/internal/summary"
	"github.com/nadzzz/tandem/internal/tutor"
)

// Models resolves completers per capability. *llm.Gateway implements it.
type Models interface {
	Completer(provider string, c llm.Capability, apiKey string) (llm.Completer, error)
}

// Keys carries per-request API key overrides.
type Keys struct {
	Model         string
	Transcription string
	Synthesis     string
}

// Input is everything one turn needs.
type Input struct {
	Session conversation.Session

	// Audio is the recorded utterance. When empty, Text is used as an
	// already transcribed utterance.
	Audio       []byte
	ContentType string
	Text        string

	Policy conversation.Policy

	// TutoringLanguage is the language being learned, TutorsLanguage the one
	// the tutor explains in. Both are names such as "German".
	TutoringLanguage string
	TutorsLanguage   string
	TutorsVoice      string
	PartnersVoice    string

	// Provider selects the model provider; empty uses the default.
	Provider     string
	Keys         Keys
	Speed        float64
	IgnoreAccent bool
}

// Result is a completed turn.
type Result struct {
	TurnID  string
	Session conversation.Session

	// Audio is the byte concatenation of every segment in slot order.
	Audio    []byte
	Format   speech.Format
	Segments []string

	Transcript string
	Reply      string
	Feedback   conversation.Feedback
	// TutorText is the plain-text rendering of Feedback.
	TutorText  string
	Summary    string
	Intervened bool
}

// Orchestrator processes turns.
type Orchestrator struct {
	transcriber speech.Transcriber
	synthesizer speech.Synthesizer
	models      Models
	metrics     *metrics.Collector
	// noLanguageHint stops sending the tutoring language to the transcriber.
	noLanguageHint bool
}

// Option customises an Orchestrator.
type Option func(*Orchestrator)

// WithMetrics records turn metrics on m.
func WithMetrics(m *metrics.Collector) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// WithLanguageHint controls whether the tutoring language is sent to the
// transcriber as a recognition hint. It is sent by default.
func WithLanguageHint(enabled bool) Option {
	return func(o *Orchestrator) { o.noLanguageHint = !enabled }
}

// New creates an Orchestrator.
func New(t speech.Transcriber, s speech.Synthesizer, m Models, opts ...Option) *Orchestrator {
	o := &Orchestrator{transcriber: t, synthesizer: s, models: m}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// ProcessTurn runs one turn. The input session is never modified, and no
// session is returned on error.
func (o *Orchestrator) ProcessTurn(ctx context.Context, in Input) (*Result, error) {
	turnID := uuid.NewString()
	log := slog.With("turn_id", turnID)

	ctx, span := tracer.Start(ctx, "turn.process", trace.WithAttributes(
		attribute.String("turn.id", turnID),
		attribute.String("turn.tutoring_language", in.TutoringLanguage),
		attribute.Int("turn.history_length", len(in.Session.History)),
	))
	defer span.End()

	res, err := o.process(ctx, log, turnID, in)
	if err != nil && apperr.KindOf(err) == "" {
		err = apperr.New(apperr.KindModelCall, "turn", err)
	}
	o.metrics.RecordTurn(string(apperr.KindOf(err)))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.Error("turn failed", "kind", apperr.KindOf(err), "error", err)
		return nil, err
	}
	log.Info("turn complete",
		"intervened", res.Intervened,
		"level", res.Feedback.Level.String(),
		"segments", len(res.Segments),
		"audio_bytes", len(res.Audio),
	)
	return res, nil
}

func (o *Orchestrator) process(ctx context.Context, log *slog.Logger, turnID string, in Input) (*Result, error) {
	if err := in.Session.Validate(); err != nil {
		return nil, err
	}
	if len(in.Audio) == 0 && strings.TrimSpace(in.Text) == "" {
		return nil, apperr.Errorf(apperr.KindInvalidRequest, "turn", "request carries neither audio nor text")
	}

	// Resolve every model up front so an unknown provider fails before any call.
	partnerModel, err := o.models.Completer(in.Provider, llm.CapabilityPartner, in.Keys.Model)
	if err != nil {
		return nil, err
	}
	tutorModel, err := o.models.Completer(in.Provider, llm.CapabilityTutor, in.Keys.Model)
	if err != nil {
		return nil, err
	}
	summaryModel, err := o.models.Completer(in.Provider, llm.CapabilitySummary, in.Keys.Model)
	if err != nil {
		return nil, err
	}

	tutoringCode := conversation.LanguageCode(in.TutoringLanguage)
	tutorsCode := conversation.LanguageCode(in.TutorsLanguage)

	// 1. Transcription.
	transcript, err := o.transcribe(ctx, log, in, tutoringCode)
	if err != nil {
		return nil, err
	}

	// 2. The working history ends with the new user utterance.
	userUtt := conversation.User(transcript)
	working := make([]conversation.Utterance, 0, len(in.Session.History)+2)
	working = append(working, in.Session.History...)
	working = append(working, userUtt)

	// 3. Partner and tutor run concurrently on the same snapshot.
	var (
		reply    string
		history  []conversation.Utterance
		feedback conversation.Feedback
	)
	err = o.stage(ctx, "fan_out", func(ctx context.Context) error {
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			reply, history, err = partner.New(partnerModel).Respond(gctx, in.TutoringLanguage, working, in.Session.LastSummary())
			return err
		})
		g.Go(func() error {
			var err error
			feedback, err = tutor.New(tutorModel).Evaluate(gctx, tutor.Input{
				TutoringLanguage: in.TutoringLanguage,
				TutorsLanguage:   in.TutorsLanguage,
				History:          working,
				TutorLog:         in.Session.TutorLogTail(tutor.LogTail),
				IgnoreAccent:     in.IgnoreAccent,
			})
			return err
		})
		return g.Wait()
	})
	if err != nil {
		return nil, err
	}

	// 4-5. The agent reply is in history; decide on intervention.
	intervene := conversation.ShouldIntervene(feedback.Level, in.Policy)
	o.metrics.RecordIntervention(intervene, feedback.Level.String())
	log.Debug("tutor evaluated", "level", feedback.Level.String(), "required", in.Policy.RequiredLevel.String(), "disabled", in.Policy.TutorDisabled, "intervene", intervene)

	// 6-7. Synthesis of every slot and the summary update share one batch.
	segs := planSegments(intervene, feedback.Comment, feedback.Correction, reply, voices{
		tutor:            in.TutorsVoice,
		partner:          in.PartnersVoice,
		tutorsLanguage:   tutorsCode,
		tutoringLanguage: tutoringCode,
	})
	parts := make([][]byte, len(segs))
	var newSummary string

	err = o.stage(ctx, "synthesis", func(ctx context.Context) error {
		g, gctx := errgroup.WithContext(ctx)
		for i, seg := range segs {
			g.Go(func() error {
				data, err := o.synthesizer.Synthesize(gctx, seg.text, speech.SynthesizeOpts{
					Voice:    seg.voice,
					Language: seg.language,
					Speed:    in.Speed,
					APIKey:   in.Keys.Synthesis,
				})
				if err != nil {
					return apperr.New(apperr.KindSynthesis, "turn.synthesize."+seg.slot, err)
				}
				parts[i] = data
				o.metrics.RecordAudioSegment(slotKind(seg.slot))
				return nil
			})
		}
		g.Go(func() error {
			s, err := summary.New(summaryModel).Summarize(gctx, in.TutoringLanguage, history, in.Session.LastSummary())
			if err != nil {
				log.Warn("summary update failed, continuing with empty summary", "error", err)
				return nil
			}
			newSummary = s
			return nil
		})
		return g.Wait()
	})
	if err != nil {
		return nil, err
	}

	// 8. Assembly.
	slots := make([]string, len(segs))
	for i, seg := range segs {
		slots[i] = seg.slot
	}
	session := conversation.Append(in.Session, userUtt, conversation.Agent(reply), newSummary,
		conversation.FormatTutorLogEntry(feedback.Comment, feedback.Correction))

	return &Result{
		TurnID:     turnID,
		Session:    session,
		Audio:      bytes.Join(parts, nil),
		Format:     o.synthesizer.Format(),
		Segments:   slots,
		Transcript: transcript,
		Reply:      reply,
		Feedback:   feedback,
		TutorText:  feedback.Text(),
		Summary:    newSummary,
		Intervened: intervene,
	}, nil
}

func (o *Orchestrator) transcribe(ctx context.Context, log *slog.Logger, in Input, language string) (string, error) {
	if len(in.Audio) == 0 {
		return strings.TrimSpace(in.Text), nil
	}
	if o.noLanguageHint {
		language = ""
	}
	var text string
	err := o.stage(ctx, "transcription", func(ctx context.Context) error {
		out, err := o.transcriber.Transcribe(ctx, in.Audio, speech.TranscribeOpts{
			Language:    language,
			ContentType: in.ContentType,
			APIKey:      in.Keys.Transcription,
		})
		if err != nil {
			return apperr.New(apperr.KindTranscription, "turn.transcribe", err)
		}
		if text = strings.TrimSpace(out); text == "" {
			return apperr.Errorf(apperr.KindTranscription, "turn.transcribe", "no speech recognised")
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	log.Debug("transcribed", "backend", o.transcriber.Name(), "audio_bytes", len(in.Audio), "text_length", len(text))
	return text, nil
}

// stage runs fn inside a span and records its duration.
func (o *Orchestrator) stage(ctx context.Context, name string, fn func(context.Context) error) error {
	ctx, span := tracer.Start(ctx, "turn."+name)
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	o.metrics.ObserveStage(name, time.Since(start))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}
