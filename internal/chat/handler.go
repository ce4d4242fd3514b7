package chat

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/smagents/landing/internal/api"
	"github.com/smagents/landing/internal/identity"
)

// defaultMaxRequestBodySize bounds chat request bodies (16KB).
const defaultMaxRequestBodySize = 16 << 10

// Notifier is told about every state change made over HTTP so open sockets
// for the same conversation stay in sync.
type Notifier interface {
	Push(visitorID, sessionID string, view View)
}

// Handler serves the chat JSON API.
type Handler struct {
	svc         *Service
	rateLimiter *RateLimiter
	maxBodySize int64
	notifier    Notifier
}

// NewHandler creates a chat HTTP handler.
func NewHandler(svc *Service, rateLimiter *RateLimiter) *Handler {
	return &Handler{
		svc:         svc,
		rateLimiter: rateLimiter,
		maxBodySize: defaultMaxRequestBodySize,
	}
}

// SetNotifier registers the receiver of state pushes.
func (h *Handler) SetNotifier(n Notifier) {
	h.notifier = n
}

// RegisterRoutes mounts the chat endpoints.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/chat", func(r chi.Router) {
		r.Get("/", h.HandleState)
		r.Post("/messages", h.HandleMessage)
		r.Post("/reset", h.HandleReset)
		r.Post("/retry", h.HandleRetry)
	})
}

// HandleState handles GET /api/chat.
func (h *Handler) HandleState(w http.ResponseWriter, r *http.Request) {
	visitorID, sessionID, ok := h.identify(w, r)
	if !ok {
		return
	}

	st, err := h.svc.State(r.Context(), visitorID, sessionID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	api.JSON(w, http.StatusOK, StateResponse{Accepted: true, State: NewView(st)})
}

// HandleMessage handles POST /api/chat/messages.
func (h *Handler) HandleMessage(w http.ResponseWriter, r *http.Request) {
	visitorID, sessionID, ok := h.identify(w, r)
	if !ok || !h.allow(w, visitorID) {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)
	var req MessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			api.Error(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := h.svc.Answer(r.Context(), visitorID, sessionID, req.Text)
	h.respond(w, r, visitorID, sessionID, res, err)
}

// HandleReset handles POST /api/chat/reset.
func (h *Handler) HandleReset(w http.ResponseWriter, r *http.Request) {
	visitorID, sessionID, ok := h.identify(w, r)
	if !ok || !h.allow(w, visitorID) {
		return
	}
	res, err := h.svc.Reset(r.Context(), visitorID, sessionID)
	h.respond(w, r, visitorID, sessionID, res, err)
}

// HandleRetry handles POST /api/chat/retry.
func (h *Handler) HandleRetry(w http.ResponseWriter, r *http.Request) {
	visitorID, sessionID, ok := h.identify(w, r)
	if !ok || !h.allow(w, visitorID) {
		return
	}
	res, err := h.svc.Retry(r.Context(), visitorID, sessionID)
	h.respond(w, r, visitorID, sessionID, res, err)
}

func (h *Handler) identify(w http.ResponseWriter, r *http.Request) (string, string, bool) {
	visitorID := identity.VisitorIDFromContext(r.Context())
	if visitorID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return "", "", false
	}
	return visitorID, identity.SessionIDFromContext(r.Context()), true
}

func (h *Handler) allow(w http.ResponseWriter, visitorID string) bool {
	if h.rateLimiter == nil || h.rateLimiter.Allow(visitorID) {
		return true
	}
	api.Error(w, http.StatusTooManyRequests, "rate limit exceeded")
	return false
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, visitorID, sessionID string, res Result, err error) {
	if err != nil && res.State.Phase == "" {
		h.writeError(w, r, err)
		return
	}
	if err != nil {
		// The state advanced but a later step failed; the visitor still sees
		// where the conversation stands.
		slog.Error("Chat action completed with error",
			"visitor_id", visitorID,
			"session_id", sessionID,
			"request_id", chiMiddleware.GetReqID(r.Context()),
			"error", err,
		)
	}

	view := NewView(res.State)
	if res.Accepted && h.notifier != nil {
		h.notifier.Push(visitorID, sessionID, view)
	}
	api.JSON(w, http.StatusOK, StateResponse{Accepted: res.Accepted, State: view})
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, ErrBusy) {
		api.Error(w, http.StatusConflict, "conversation is busy")
		return
	}
	slog.Error("Chat request failed", "request_id", chiMiddleware.GetReqID(r.Context()), "error", err)
	api.Error(w, http.StatusInternalServerError, "internal error")
}
