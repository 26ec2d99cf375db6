package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/nadzzz/tandem/internal/apperr"
	"github.com/nadzzz/tandem/internal/conversation"
)

// handleWebSocket runs a turn loop: each text frame is a JSON TurnRequest
// and is answered by a TurnResponse or an ErrorResponse frame. Failed turns
// keep the connection open.
//
// @Summary     Turn loop over WebSocket
// @Description Send one JSON turn request (base64 audio) per text frame; each is answered with a
// @Description turn response or an error envelope. The client keeps the returned chatObject.
// @Tags        turn
// @Success     101
// @Router      /ws [get]
func (h *handlers) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(*http.Request) bool { return true },
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Debug("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	// base64 inflates audio by 4/3.
	conn.SetReadLimit(h.maxUpload/3*4 + 64<<10)
	log := slog.With("remote", r.RemoteAddr)
	log.Info("websocket session opened")

	ctx := r.Context()
	for {
		messageType, frame, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warn("websocket read failed", "error", err)
			}
			log.Info("websocket session closed")
			return
		}
		if messageType != websocket.TextMessage {
			if err := conn.WriteJSON(conversation.ErrorResponse{Error: "frames must be JSON text", Kind: string(apperr.KindInvalidRequest)}); err != nil {
				return
			}
			continue
		}

		var req conversation.TurnRequest
		if err := json.Unmarshal(frame, &req); err != nil {
			if err := conn.WriteJSON(errorEnvelope(badRequest("decoding turn request", err))); err != nil {
				return
			}
			continue
		}

		resp, err := h.svc.ProcessTurn(ctx, &req)
		if err != nil {
			if err := conn.WriteJSON(errorEnvelope(err)); err != nil {
				return
			}
			continue
		}
		if err := conn.WriteJSON(resp); err != nil {
			log.Warn("websocket write failed", "error", err)
			return
		}
	}
}
