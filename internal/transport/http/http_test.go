package http

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nadzzz/tandem/internal/apperr"
	"github.com/nadzzz/tandem/internal/config"
	"github.com/nadzzz/tandem/internal/conversation"
)

type fakeService struct {
	mu      sync.Mutex
	turns   []conversation.TurnRequest
	turnErr error
	verify  []conversation.VerifyKeyRequest
}

func (f *fakeService) ProcessTurn(_ context.Context, req *conversation.TurnRequest) (*conversation.TurnResponse, error) {
	f.mu.Lock()
	f.turns = append(f.turns, *req)
	f.mu.Unlock()
	if f.turnErr != nil {
		return nil, f.turnErr
	}
	if req.TutoringLanguage == "" {
		return nil, apperr.Errorf(apperr.KindInvalidRequest, "fake", "tutoringLanguage is required")
	}
	return &conversation.TurnResponse{
		Transcription: "You: hi\n\nPartner: hallo",
		Session:       conversation.Append(req.Session, conversation.User("hi"), conversation.Agent("hallo"), "s", "c"),
	}, nil
}

func (f *fakeService) GenerateHomework(_ context.Context, req *conversation.HomeworkRequest) (*conversation.HomeworkResponse, error) {
	return &conversation.HomeworkResponse{Homework: "homework in " + req.TutoringLanguage}, nil
}

func (f *fakeService) GenerateChatName(_ context.Context, req *conversation.ChatNameRequest) (*conversation.ChatNameResponse, error) {
	return &conversation.ChatNameResponse{ChatName: "chat of " + req.TutoringLanguage}, nil
}

func (f *fakeService) VerifyKey(_ context.Context, req *conversation.VerifyKeyRequest) (*conversation.VerifyKeyResponse, error) {
	f.mu.Lock()
	f.verify = append(f.verify, *req)
	f.mu.Unlock()
	return &conversation.VerifyKeyResponse{Valid: req.APIKey == "good"}, nil
}

func newHandler(svc *fakeService, maxUpload int64) http.Handler {
	return New(config.HTTPConfig{MaxUploadBytes: maxUpload}).Handler(svc)
}

func TestRoot(t *testing.T) {
	rec := httptest.NewRecorder()
	newHandler(&fakeService{}, 0).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Welcome")
}

func TestProcessAudioMultipart(t *testing.T) {
	svc := &fakeService{}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", `form-data; name="audio"; filename="recording.webm"`)
	hdr.Set("Content-Type", "audio/webm")
	part, err := mw.CreatePart(hdr)
	require.NoError(t, err)
	_, _ = part.Write([]byte("webm-bytes"))
	require.NoError(t, mw.WriteField("data", `{"tutoringLanguage":"German","tutorsLanguage":"English","interventionLevel":"medium","chatObject":{"chat_history":[],"tutors_comments":[],"summary":[]}}`))
	require.NoError(t, mw.WriteField("groq_api_key", "gk"))
	require.NoError(t, mw.WriteField("openai_api_key", "ok"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/process_audio", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	newHandler(svc, 0).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Len(t, svc.turns, 1)
	got := svc.turns[0]
	assert.Equal(t, []byte("webm-bytes"), got.Audio)
	assert.Equal(t, "audio/webm", got.ContentType)
	assert.Equal(t, "German", got.TutoringLanguage)
	assert.Equal(t, conversation.LevelMedium, got.InterventionLevel)
	assert.Equal(t, "gk", got.TranscriptionAPIKey)
	assert.Equal(t, "ok", got.SynthesisAPIKey)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "You: hi\n\nPartner: hallo", resp["transcription"])
	assert.Contains(t, resp, "chatObject")
}

func TestProcessAudioAcceptsWebClientPayload(t *testing.T) {
	svc := &fakeService{}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("audio", "recording.wav")
	require.NoError(t, err)
	_, _ = part.Write([]byte("RIFF-bytes"))
	require.NoError(t, mw.WriteField("data", `{"tutoringLanguage":"German","tutorsLanguage":"English",`+
		`"tutorsVoice":"onyx","partnersVoice":"nova","interventionLevel":"medium",`+
		`"chatObject":{"chat_history":[],"tutors_comments":[],"summary":[]},"disableTutor":false,`+
		`"accentignore":false,"model":"Groq","playbackSpeed":"1","pauseTime":"2","api_key":"gsk"}`))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/process_audio", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	newHandler(svc, 0).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Len(t, svc.turns, 1)
	got := svc.turns[0]
	assert.Equal(t, conversation.SliderValue(1), got.PlaybackSpeed)
	assert.Equal(t, conversation.SliderValue(2), got.PauseTime)
	assert.Equal(t, "gsk", got.APIKey)
	assert.Equal(t, "Groq", got.Model)
}

func TestProcessAudioRejectsBadData(t *testing.T) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("data", `{not json`))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/process_audio", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	newHandler(&fakeService{}, 0).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"kind":"invalid_request"`)
}

func TestTurnJSONErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		code int
		kind string
	}{
		{apperr.Errorf(apperr.KindInvalidSession, "x", "bad"), http.StatusBadRequest, "invalid_session"},
		{apperr.Errorf(apperr.KindUnsupportedProvider, "x", "bad"), http.StatusBadRequest, "unsupported_provider"},
		{apperr.Errorf(apperr.KindModelCall, "x", "bad"), http.StatusBadGateway, "model_call"},
		{apperr.Errorf(apperr.KindSynthesis, "x", "bad"), http.StatusBadGateway, "synthesis"},
	}
	for _, tc := range cases {
		t.Run(tc.kind, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/turn", strings.NewReader(`{"text":"hi","tutoringLanguage":"German"}`))
			req.Header.Set("Content-Type", "application/json")
			newHandler(&fakeService{turnErr: tc.err}, 0).ServeHTTP(rec, req)

			assert.Equal(t, tc.code, rec.Code)
			var env conversation.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
			assert.Equal(t, tc.kind, env.Kind)
		})
	}
}

func TestTurnBodyTooLarge(t *testing.T) {
	rec := httptest.NewRecorder()
	body := `{"text":"` + strings.Repeat("a", 2048) + `"}`
	newHandler(&fakeService{}, 1024).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/turn", strings.NewReader(body)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestHomeworkAndChatName(t *testing.T) {
	h := newHandler(&fakeService{}, 0)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/generate_homework", strings.NewReader(`{"tutoringLanguage":"German","chatObject":{}}`)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"homework":"homework in German","grammar":"","vocabulary":""}`, rec.Body.String())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/generate_chat_name", strings.NewReader(`{"tutoringLanguage":"German","chat_history":[]}`)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"chatName":"chat of German"}`, rec.Body.String())
}

func TestVerifyKeyForm(t *testing.T) {
	svc := &fakeService{}
	form := url.Values{"api_key": {"good"}, "model": {"Groq"}}
	req := httptest.NewRequest(http.MethodPost, "/verify_api_key", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	newHandler(svc, 0).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"valid":true}`, rec.Body.String())
	assert.Equal(t, []conversation.VerifyKeyRequest{{APIKey: "good", Model: "Groq"}}, svc.verify)
}

func TestCORSPreflight(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/process_audio", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Headers", "content-type")
	rec := httptest.NewRecorder()
	newHandler(&fakeService{}, 0).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "content-type", rec.Header().Get("Access-Control-Allow-Headers"))
}

func TestSwaggerDoc(t *testing.T) {
	rec := httptest.NewRecorder()
	newHandler(&fakeService{}, 0).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/process_audio")
}

func TestWebSocketTurnLoop(t *testing.T) {
	svc := &fakeService{}
	srv := httptest.NewServer(newHandler(svc, 0))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()

	// A failing turn answers with an envelope and keeps the session open.
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"text":"hi"}`)))
	var env conversation.ErrorResponse
	require.NoError(t, conn.ReadJSON(&env))
	assert.Equal(t, "invalid_request", env.Kind)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{not json`)))
	env = conversation.ErrorResponse{}
	require.NoError(t, conn.ReadJSON(&env))
	assert.Equal(t, "invalid_request", env.Kind)

	// The client carries the returned chat object into the next turn.
	var session conversation.Session
	for range 2 {
		frame, err := json.Marshal(conversation.TurnRequest{Text: "hi", TutoringLanguage: "German", Session: session})
		require.NoError(t, err)
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, frame))

		var resp conversation.TurnResponse
		require.NoError(t, conn.ReadJSON(&resp))
		session = resp.Session
	}
	assert.Len(t, session.History, 4)
	assert.Len(t, session.Summary, 2)
}
