package http

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/nadzzz/tandem/internal/apperr"
	"github.com/nadzzz/tandem/internal/conversation"
	"github.com/nadzzz/tandem/internal/transport"
)

// multipartMemory is how much of a multipart body is kept in memory before
// spilling to temporary files.
const multipartMemory = 8 << 20

type handlers struct {
	svc       transport.Service
	maxUpload int64
}

// handleRoot returns a welcome message.
//
// @Summary  Welcome message
// @Tags     meta
// @Produce  json
// @Success  200  {object}  map[string]string
// @Router   / [get]
func (h *handlers) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Welcome to the tandem language partner API"})
}

// handleProcessAudio runs one turn for a multipart audio upload.
//
// @Summary     Process a recorded utterance
// @Description Transcribes the audio, gets the partner reply and tutor feedback, synthesizes the
// @Description reply (and tutor audio when the intervention policy calls for it) and returns the
// @Description updated chat object.
// @Tags        turn
// @Accept      multipart/form-data
// @Produce     json
// @Param       audio           formData  file    true   "Recorded utterance"
// @Param       data            formData  string  true   "JSON-encoded turn request without audio"
// @Param       groq_api_key    formData  string  false  "Transcription key override"
// @Param       openai_api_key  formData  string  false  "Synthesis key override"
// @Success     200  {object}  conversation.TurnResponse
// @Failure     400  {object}  conversation.ErrorResponse
// @Failure     413  {object}  conversation.ErrorResponse
// @Failure     502  {object}  conversation.ErrorResponse
// @Router      /process_audio [post]
func (h *handlers) handleProcessAudio(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		writeError(w, badRequest("reading multipart form", err))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	var req conversation.TurnRequest
	if err := json.Unmarshal([]byte(r.FormValue("data")), &req); err != nil {
		writeError(w, badRequest("decoding data field", err))
		return
	}

	file, header, err := r.FormFile("audio")
	if err != nil {
		writeError(w, badRequest("reading audio field", err))
		return
	}
	defer file.Close()
	if req.Audio, err = io.ReadAll(file); err != nil {
		writeError(w, badRequest("reading audio field", err))
		return
	}
	if ct := header.Header.Get("Content-Type"); ct != "" && ct != "application/octet-stream" {
		req.ContentType = ct
	}
	if key := r.FormValue("groq_api_key"); key != "" {
		req.TranscriptionAPIKey = key
	}
	if key := r.FormValue("openai_api_key"); key != "" {
		req.SynthesisAPIKey = key
	}

	slog.Debug("audio upload received", "filename", header.Filename, "bytes", len(req.Audio), "content_type", req.ContentType)
	h.runTurn(w, r, &req)
}

// handleTurn runs one turn for a JSON request carrying base64 audio or text.
//
// @Summary  Process a turn (JSON)
// @Tags     turn
// @Accept   json
// @Produce  json
// @Param    request  body      conversation.TurnRequest  true  "Turn request; audio is base64"
// @Success  200  {object}  conversation.TurnResponse
// @Failure  400  {object}  conversation.ErrorResponse
// @Failure  502  {object}  conversation.ErrorResponse
// @Router   /turn [post]
func (h *handlers) handleTurn(w http.ResponseWriter, r *http.Request) {
	var req conversation.TurnRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	h.runTurn(w, r, &req)
}

func (h *handlers) runTurn(w http.ResponseWriter, r *http.Request, req *conversation.TurnRequest) {
	resp, err := h.svc.ProcessTurn(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleHomework generates grammar and vocabulary exercises.
//
// @Summary  Generate homework for a chat
// @Tags     homework
// @Accept   json
// @Produce  json
// @Param    request  body      conversation.HomeworkRequest  true  "Chat object and languages"
// @Success  200  {object}  conversation.HomeworkResponse
// @Failure  400  {object}  conversation.ErrorResponse
// @Failure  502  {object}  conversation.ErrorResponse
// @Router   /generate_homework [post]
func (h *handlers) handleHomework(w http.ResponseWriter, r *http.Request) {
	var req conversation.HomeworkRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	resp, err := h.svc.GenerateHomework(r.Context(), &req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleChatName titles a chat.
//
// @Summary  Generate a chat name
// @Tags     homework
// @Accept   json
// @Produce  json
// @Param    request  body      conversation.ChatNameRequest  true  "Chat fields and tutoring language"
// @Success  200  {object}  conversation.ChatNameResponse
// @Failure  400  {object}  conversation.ErrorResponse
// @Failure  502  {object}  conversation.ErrorResponse
// @Router   /generate_chat_name [post]
func (h *handlers) handleChatName(w http.ResponseWriter, r *http.Request) {
	var req conversation.ChatNameRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	resp, err := h.svc.GenerateChatName(r.Context(), &req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleVerifyKey checks an API key against a provider.
//
// @Summary  Verify a model API key
// @Tags     meta
// @Accept   multipart/form-data
// @Accept   x-www-form-urlencoded
// @Produce  json
// @Param    api_key  formData  string  true  "Key to check"
// @Param    model    formData  string  true  "Provider name"
// @Success  200  {object}  conversation.VerifyKeyResponse
// @Failure  400  {object}  conversation.ErrorResponse
// @Router   /verify_api_key [post]
func (h *handlers) handleVerifyKey(w http.ResponseWriter, r *http.Request) {
	var req conversation.VerifyKeyRequest
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		if !h.decodeJSON(w, r, &req) {
			return
		}
	} else {
		r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
		if err := r.ParseMultipartForm(multipartMemory); err != nil && err != http.ErrNotMultipart {
			writeError(w, badRequest("reading form", err))
			return
		}
		req.APIKey = r.FormValue("api_key")
		req.Model = r.FormValue("model")
	}

	resp, err := h.svc.VerifyKey(r.Context(), &req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handlers) decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, badRequest("decoding request body", err))
		return false
	}
	return true
}

func badRequest(what string, err error) error {
	return apperr.New(apperr.KindInvalidRequest, "http", fmt.Errorf("%s: %w", what, err))
}
