package sse

import (
	"encoding/json"
	"log/slog"

	"github.com/mcoot/pokearena/internal/model"
	"github.com/mcoot/pokearena/internal/presence"
)

// PresenceEvent is the SSE event name for online/offline changes
const PresenceEvent = "presence"

// OnlineEvent is the SSE event name for the online-user snapshot sent on connect
const OnlineEvent = "online"

// Broadcaster publishes presence changes to the hub
type Broadcaster struct {
	hub    *Hub
	logger *slog.Logger
}

// NewBroadcaster creates a new Broadcaster
func NewBroadcaster(hub *Hub, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		hub:    hub,
		logger: logger.With(slog.String("component", "sse-broadcaster")),
	}
}

// PublishPresence implements presence.Publisher
func (b *Broadcaster) PublishPresence(event presence.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		b.logger.Error("sse failed to encode presence event", slog.Any("error", err))
		return
	}
	b.hub.BroadcastEvent(PresenceEvent, string(data))
}

// OnlineSnapshot formats the list of online users as a single SSE message
func OnlineSnapshot(users []model.OnlineUser) ([]byte, error) {
	if users == nil {
		users = []model.OnlineUser{}
	}
	data, err := json.Marshal(users)
	if err != nil {
		return nil, err
	}
	return formatSSEMessage(OnlineEvent, string(data)), nil
}

var _ presence.Publisher = (*Broadcaster)(nil)
