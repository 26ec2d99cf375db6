// Package service sits between the transports and the domain packages.
//
// It maps wire requests onto orchestrator input, runs the turn, homework and
// chat-naming operations, and maps results back to wire responses. Every
// transport calls the same Service, so they behave identically.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nadzzz/tandem/internal/apperr"
	"github.com/nadzzz/tandem/internal/conversation"
	"github.com/nadzzz/tandem/internal/homework"
	"github.com/nadzzz/tandem/internal/llm"
	"github.com/nadzzz/tandem/internal/turn"
)

// TaskVerify labels key verification calls.
const TaskVerify = "verify"

// Turns processes one conversational turn. *turn.Orchestrator implements it.
type Turns interface {
	ProcessTurn(ctx context.Context, in turn.Input) (*turn.Result, error)
}

// Service implements every operation the transports expose.
type Service struct {
	turns  Turns
	models turn.Models
}

// New creates a Service.
func New(turns Turns, models turn.Models) *Service {
	return &Service{turns: turns, models: models}
}

// ProcessTurn runs one turn for a wire request.
func (s *Service) ProcessTurn(ctx context.Context, req *conversation.TurnRequest) (*conversation.TurnResponse, error) {
	if req == nil {
		return nil, apperr.Errorf(apperr.KindInvalidRequest, "service.turn", "empty request")
	}
	if strings.TrimSpace(req.TutoringLanguage) == "" {
		return nil, apperr.Errorf(apperr.KindInvalidRequest, "service.turn", "tutoringLanguage is required")
	}
	if !req.InterventionLevel.Valid() {
		return nil, apperr.Errorf(apperr.KindInvalidRequest, "service.turn", "invalid interventionLevel")
	}

	slog.Debug("turn request",
		"tutoring_language", req.TutoringLanguage,
		"tutors_language", req.TutorsLanguage,
		"mother_tongue", req.MotherTongue,
		"model", req.Model,
		"audio_bytes", len(req.Audio),
		"history_length", len(req.Session.History),
		"api_key_set", req.APIKey != "",
	)

	tutorsLanguage := req.TutorsLanguage
	if tutorsLanguage == "" {
		tutorsLanguage = "English"
	}

	res, err := s.turns.ProcessTurn(ctx, turn.Input{
		Session:     req.Session,
		Audio:       req.Audio,
		ContentType: req.ContentType,
		Text:        req.Text,
		Policy: conversation.Policy{
			RequiredLevel: req.InterventionLevel,
			TutorDisabled: req.DisableTutor,
		},
		TutoringLanguage: req.TutoringLanguage,
		TutorsLanguage:   tutorsLanguage,
		TutorsVoice:      req.TutorsVoice,
		PartnersVoice:    req.PartnersVoice,
		Provider:         req.Model,
		Keys: turn.Keys{
			Model:         req.APIKey,
			Transcription: req.TranscriptionAPIKey,
			Synthesis:     req.SynthesisAPIKey,
		},
		Speed:        req.SynthesisSpeed,
		IgnoreAccent: req.AccentIgnore,
	})
	if err != nil {
		return nil, err
	}
	return toResponse(res), nil
}

func toResponse(res *turn.Result) *conversation.TurnResponse {
	resp := &conversation.TurnResponse{
		TurnID:         res.TurnID,
		Transcription:  fmt.Sprintf("You: %s\n\nPartner: %s", res.Transcript, res.Reply),
		Transcript:     res.Transcript,
		Reply:          res.Reply,
		AudioSegments:  res.Segments,
		Intervened:     res.Intervened,
		Feedback:       res.Feedback,
		TutorFeedback:  res.TutorText,
		UpdatedSummary: res.Summary,
		Session:        res.Session,
	}
	if len(res.Audio) > 0 {
		data, contentType := res.Format.Package(res.Audio)
		resp.SetAudioBytes(data)
		resp.AudioContentType = contentType
	}
	return resp
}

// GenerateHomework builds grammar and vocabulary exercises for a session.
func (s *Service) GenerateHomework(ctx context.Context, req *conversation.HomeworkRequest) (*conversation.HomeworkResponse, error) {
	if req == nil || strings.TrimSpace(req.TutoringLanguage) == "" {
		return nil, apperr.Errorf(apperr.KindInvalidRequest, "service.homework", "tutoringLanguage is required")
	}
	model, err := s.models.Completer(req.Model, llm.CapabilityHomework, req.APIKey)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	hw, err := homework.NewGenerator(model).Generate(ctx, req.TutoringLanguage, req.Session)
	if err != nil {
		slog.Error("homework generation failed", "kind", apperr.KindOf(err), "error", err)
		return nil, err
	}
	slog.Info("homework generated", "duration", time.Since(start), "history_length", len(req.Session.History))
	return &conversation.HomeworkResponse{
		Homework:   hw.String(),
		Grammar:    hw.Grammar,
		Vocabulary: hw.Vocabulary,
	}, nil
}

// GenerateChatName titles a session.
func (s *Service) GenerateChatName(ctx context.Context, req *conversation.ChatNameRequest) (*conversation.ChatNameResponse, error) {
	if req == nil || strings.TrimSpace(req.TutoringLanguage) == "" {
		return nil, apperr.Errorf(apperr.KindInvalidRequest, "service.chat_name", "tutoringLanguage is required")
	}
	model, err := s.models.Completer(req.Model, llm.CapabilityHomework, req.APIKey)
	if err != nil {
		return nil, err
	}
	name, err := homework.NewNamer(model).Name(ctx, req.TutoringLanguage, req.Session())
	if err != nil {
		slog.Error("chat naming failed", "kind", apperr.KindOf(err), "error", err)
		return nil, err
	}
	return &conversation.ChatNameResponse{ChatName: name}, nil
}

// VerifyKey checks a key with a one-word completion. Provider failures mean
// the key is invalid; an unknown provider is an error.
func (s *Service) VerifyKey(ctx context.Context, req *conversation.VerifyKeyRequest) (*conversation.VerifyKeyResponse, error) {
	if req == nil || strings.TrimSpace(req.APIKey) == "" {
		return nil, apperr.Errorf(apperr.KindInvalidRequest, "service.verify_key", "api_key is required")
	}
	model, err := s.models.Completer(req.Model, llm.CapabilityPartner, strings.TrimSpace(req.APIKey))
	if err != nil {
		if apperr.KindOf(err) == apperr.KindUnsupportedProvider {
			return nil, err
		}
		return &conversation.VerifyKeyResponse{Valid: false}, nil
	}
	_, err = model.Complete(ctx, llm.Request{
		Task:   TaskVerify,
		System: "Reply with the single word OK.",
	})
	if err != nil {
		slog.Info("api key rejected", "provider", req.Model, "error", err)
		return &conversation.VerifyKeyResponse{Valid: false}, nil
	}
	return &conversation.VerifyKeyResponse{Valid: true}, nil
}
