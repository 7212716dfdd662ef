package handler

import (
	"log/slog"
	"net/http"

	"github.com/mcoot/pokearena/internal/api/middleware"
	"github.com/mcoot/pokearena/internal/api/sse"
	"github.com/mcoot/pokearena/internal/presence"
)

// EventsHandler streams presence changes over SSE
type EventsHandler struct {
	hub      *sse.Hub
	presence *presence.Service
	logger   *slog.Logger
}

// NewEventsHandler creates a new events handler
func NewEventsHandler(hub *sse.Hub, presence *presence.Service, logger *slog.Logger) *EventsHandler {
	return &EventsHandler{
		hub:      hub,
		presence: presence,
		logger:   logger.With(slog.String("component", "events-handler")),
	}
}

// Stream handles GET /api/v1/events
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	userID := middleware.MustGetUserID(r.Context())

	var initial []byte
	if users, err := h.presence.OnlineOthers(r.Context(), userID); err != nil {
		h.logger.Warn("failed to load online users for stream",
			slog.String("user_id", string(userID)),
			slog.Any("error", err))
	} else if initial, err = sse.OnlineSnapshot(users); err != nil {
		h.logger.Error("failed to encode online snapshot", slog.Any("error", err))
	}

	sse.ServeSSE(w, r, h.hub, userID, initial)
}
