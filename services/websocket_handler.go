package services

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	ws "github.com/krshsl/placeprep/backend/websocket"
)

// WebSocketHandler upgrades /ws requests into live voice interviews
type WebSocketHandler struct {
	hub        *ws.Hub
	processor  *VoiceInterviewProcessor
	interviews *InterviewService
	upgrader   websocket.Upgrader
}

func NewWebSocketHandler(hub *ws.Hub, processor *VoiceInterviewProcessor, interviews *InterviewService, allowedOrigins string) *WebSocketHandler {
	return &WebSocketHandler{
		hub:        hub,
		processor:  processor,
		interviews: interviews,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				return CheckOrigin(r, allowedOrigins)
			},
		},
	}
}

func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		slog.Error("WebSocket connection failed - user not found in context")
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	sessionID := strings.TrimSpace(r.URL.Query().Get("session_id"))
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "session_id is required")
		return
	}

	session, err := h.interviews.OwnedOpenSession(r.Context(), user.ID, sessionID)
	switch {
	case errors.Is(err, ErrSessionNotFound):
		writeError(w, http.StatusNotFound, "Interview session not found")
		return
	case errors.Is(err, ErrSessionClosed):
		writeError(w, http.StatusConflict, "Interview session has already ended")
		return
	case err != nil:
		writeDBError(w, err, "Failed to load interview session")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("WebSocket upgrade failed", "error", err)
		return
	}

	slog.Info("WebSocket connection established", "user_id", user.ID, "session_id", session.ID)

	client := h.hub.RegisterClient(conn, user.ID, session.ID)
	client.MessageHandler = h.processor.HandleMessage
	client.OnStart = h.processor.Start

	h.processor.Attach(client, session.StartedAt)

	go client.WritePump()
	client.ReadPump()
}

// CheckOrigin reports whether the request Origin is in the comma separated allow-list.
// An empty allow-list denies every origin.
func CheckOrigin(r *http.Request, allowedOrigins string) bool {
	origin := r.Header.Get("Origin")

	if strings.TrimSpace(allowedOrigins) == "" {
		slog.Warn("WebSocket connection rejected: no allowed origins configured", "origin", origin)
		return false
	}

	for _, allowed := range strings.Split(allowedOrigins, ",") {
		if strings.TrimSpace(allowed) == origin {
			return true
		}
	}

	slog.Warn("WebSocket connection rejected: origin not allowed", "origin", origin, "allowed_origins", allowedOrigins)
	return false
}
