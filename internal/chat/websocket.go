package chat

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/coder/websocket"
	"github.com/smagents/landing/internal/identity"
)

const maxSocketMessageSize = 16 << 10

// Client frame types.
const (
	frameAnswer = "answer"
	frameReset  = "reset"
	frameRetry  = "retry"
	framePing   = "ping"
)

// Server frame types.
const (
	frameState = "state"
	framePong  = "pong"
	frameError = "error"
)

type clientFrame struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type serverFrame struct {
	Type     string `json:"type"`
	State    *View  `json:"state,omitempty"`
	Accepted bool   `json:"accepted,omitempty"`
	Error    string `json:"error,omitempty"`
}

// WebSocketHandler serves the chat over a WebSocket at /ws/chat.
type WebSocketHandler struct {
	svc           *Service
	sm            *SessionManager
	rateLimiter   *RateLimiter
	allowedOrigin string
	isDev         bool
}

// NewWebSocketHandler creates a new WebSocket handler.
func NewWebSocketHandler(svc *Service, sm *SessionManager, rateLimiter *RateLimiter, allowedOrigin string, isDev bool) *WebSocketHandler {
	return &WebSocketHandler{
		svc:           svc,
		sm:            sm,
		rateLimiter:   rateLimiter,
		allowedOrigin: allowedOrigin,
		isDev:         isDev,
	}
}

// ServeHTTP implements http.Handler for WebSocket upgrade.
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	visitorID := identity.VisitorIDFromContext(r.Context())
	sessionID := identity.SessionIDFromContext(r.Context())
	if visitorID == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	if !h.checkOrigin(r) {
		http.Error(w, "origin not allowed", http.StatusForbidden)
		return
	}

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Error("Failed to accept WebSocket", "error", err, "visitor_id", visitorID)
		return
	}
	defer func() {
		if closeErr := ws.Close(websocket.StatusNormalClosure, "session ended"); closeErr != nil {
			slog.Debug("Failed to close websocket", "error", closeErr, "visitor_id", visitorID)
		}
	}()
	ws.SetReadLimit(maxSocketMessageSize)

	h.sm.Register(visitorID, sessionID, ws)
	defer h.sm.Unregister(visitorID, sessionID, ws)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	st, err := h.svc.State(ctx, visitorID, sessionID)
	if err != nil {
		slog.Error("Failed to load conversation", "visitor_id", visitorID, "error", err)
		_ = writeFrame(ws, serverFrame{Type: frameError, Error: "conversation_unavailable"})
		return
	}
	view := NewView(st)
	if err := writeFrame(ws, serverFrame{Type: frameState, State: &view, Accepted: true}); err != nil {
		return
	}

	h.readLoop(ctx, ws, visitorID, sessionID)
}

func (h *WebSocketHandler) checkOrigin(r *http.Request) bool {
	if h.isDev {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" || h.allowedOrigin == "*" || origin == h.allowedOrigin {
		return true
	}
	slog.Warn("WebSocket origin rejected", "origin", origin, "allowed", h.allowedOrigin)
	return false
}

func (h *WebSocketHandler) readLoop(ctx context.Context, ws *websocket.Conn, visitorID, sessionID string) {
	for {
		_, message, err := ws.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) != -1 || errors.Is(err, context.Canceled) {
				slog.Debug("Chat socket closed", "visitor_id", visitorID)
			} else {
				slog.Warn("Chat socket read error", "error", err, "visitor_id", visitorID)
			}
			return
		}

		var msg clientFrame
		if err := json.Unmarshal(message, &msg); err != nil {
			if err := writeFrame(ws, serverFrame{Type: frameError, Error: "invalid_message"}); err != nil {
				return
			}
			continue
		}

		if err := writeFrame(ws, h.dispatch(ctx, visitorID, sessionID, msg)); err != nil {
			slog.Debug("Failed to write chat frame", "error", err, "visitor_id", visitorID)
			return
		}
	}
}

func (h *WebSocketHandler) dispatch(ctx context.Context, visitorID, sessionID string, msg clientFrame) serverFrame {
	if msg.Type == framePing {
		return serverFrame{Type: framePong}
	}

	var (
		res Result
		err error
	)
	switch msg.Type {
	case frameAnswer, frameReset, frameRetry:
		if h.rateLimiter != nil && !h.rateLimiter.Allow(visitorID) {
			return serverFrame{Type: frameError, Error: "rate_limited"}
		}
	default:
		return serverFrame{Type: frameError, Error: "unknown_message_type"}
	}

	switch msg.Type {
	case frameAnswer:
		res, err = h.svc.Answer(ctx, visitorID, sessionID, msg.Text)
	case frameReset:
		res, err = h.svc.Reset(ctx, visitorID, sessionID)
	case frameRetry:
		res, err = h.svc.Retry(ctx, visitorID, sessionID)
	}

	if err != nil {
		if errors.Is(err, ErrBusy) {
			return serverFrame{Type: frameError, Error: "conversation_busy"}
		}
		slog.Error("Chat socket action failed", "visitor_id", visitorID, "session_id", sessionID, "error", err)
		if res.State.Phase == "" {
			return serverFrame{Type: frameError, Error: "internal_error"}
		}
	}

	view := NewView(res.State)
	return serverFrame{Type: frameState, State: &view, Accepted: res.Accepted}
}
