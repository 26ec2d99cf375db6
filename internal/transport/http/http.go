// Package http implements the HTTP/WebSocket transport for tandem.
//
// It serves the web client's REST endpoints (multipart audio upload, JSON
// turns, homework, chat naming, key verification), a WebSocket turn loop on
// /ws and the Swagger UI.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/nadzzz/tandem/internal/apperr"
	"github.com/nadzzz/tandem/internal/config"
	"github.com/nadzzz/tandem/internal/conversation"
	"github.com/nadzzz/tandem/internal/transport"

	_ "github.com/nadzzz/tandem/docs" // registers the Swagger document
)

const defaultMaxUpload = 25 << 20

// Transport implements transport.Transport over HTTP and WebSocket.
type Transport struct {
	port      int
	maxUpload int64
	server    *http.Server
}

// New creates a new HTTP transport.
func New(cfg config.HTTPConfig) *Transport {
	maxUpload := cfg.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = defaultMaxUpload
	}
	return &Transport{port: cfg.Port, maxUpload: maxUpload}
}

// Name returns the transport identifier.
func (t *Transport) Name() string { return "http" }

// Handler returns the routes served for svc.
func (t *Transport) Handler(svc transport.Service) http.Handler {
	h := &handlers{svc: svc, maxUpload: t.maxUpload}
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", h.handleRoot)
	mux.HandleFunc("POST /process_audio", h.handleProcessAudio)
	mux.HandleFunc("POST /turn", h.handleTurn)
	mux.HandleFunc("POST /generate_homework", h.handleHomework)
	mux.HandleFunc("POST /generate_chat_name", h.handleChatName)
	mux.HandleFunc("POST /verify_api_key", h.handleVerifyKey)
	mux.HandleFunc("GET /ws", h.handleWebSocket)

	// Swagger UI serves the registered OpenAPI document.
	mux.Handle("GET /swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	return otelhttp.NewHandler(cors(mux), "tandem.http")
}

// Listen starts the HTTP server and serves requests with svc.
func (t *Transport) Listen(ctx context.Context, svc transport.Service) error {
	t.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", t.port),
		Handler:           t.Handler(svc),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}

	slog.Info("http transport listening", "port", t.port, "max_upload_bytes", t.maxUpload)

	go func() {
		<-ctx.Done()
		slog.Info("http transport shutting down")
		_ = t.Close()
	}()

	if err := t.server.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("http listen: %w", err)
	}
	return nil
}

// Close gracefully shuts down the HTTP server.
func (t *Transport) Close() error {
	if t.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return t.server.Shutdown(ctx)
	}
	return nil
}

// cors allows every origin, method and header, as the web client expects.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hdr := w.Header()
		origin := r.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}
		hdr.Set("Access-Control-Allow-Origin", origin)
		hdr.Set("Access-Control-Allow-Credentials", "true")
		hdr.Add("Vary", "Origin")
		if r.Method == http.MethodOptions {
			hdr.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			if req := r.Header.Get("Access-Control-Request-Headers"); req != "" {
				hdr.Set("Access-Control-Allow-Headers", req)
			} else {
				hdr.Set("Access-Control-Allow-Headers", "*")
			}
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps err to a status code and the JSON error envelope.
func writeError(w http.ResponseWriter, err error) {
	code := apperr.HTTPStatus(err)
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		code = http.StatusRequestEntityTooLarge
	}
	writeJSON(w, code, errorEnvelope(err))
}

func errorEnvelope(err error) conversation.ErrorResponse {
	return conversation.ErrorResponse{Error: err.Error(), Kind: string(apperr.KindOf(err))}
}
