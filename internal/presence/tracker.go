// Package presence tracks which users are currently logged in.
package presence

import (
	"context"

	"github.com/mcoot/pokearena/internal/model"
)

// Tracker records the set of online users. Adding an online user or
// removing an offline one is a no-op.
type Tracker interface {
	Add(ctx context.Context, id model.UserID) error
	Remove(ctx context.Context, id model.UserID) error
	// List returns online users in the order they came online
	List(ctx context.Context) ([]model.UserID, error)
	Contains(ctx context.Context, id model.UserID) (bool, error)
	// Clear drops every entry. Sessions live in process, so a starting
	// server has nobody logged in.
	Clear(ctx context.Context) error
}

// EventType names a presence transition
type EventType string

const (
	EventOnline  EventType = "online"
	EventOffline EventType = "offline"
)

// Event is published whenever a user comes online or goes offline
type Event struct {
	Type EventType        `json:"type"`
	User model.OnlineUser `json:"user"`
}

// Publisher receives presence events, typically to fan them out to clients
type Publisher interface {
	PublishPresence(event Event)
}

// NopPublisher discards events
type NopPublisher struct{}

func (NopPublisher) PublishPresence(Event) {}
