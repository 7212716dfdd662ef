package presence

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mcoot/pokearena/internal/model"
	"github.com/mcoot/pokearena/internal/storage"
)

// Service combines the tracker with the user store and event publishing
type Service struct {
	tracker   Tracker
	storage   storage.Storage
	publisher Publisher
	logger    *slog.Logger
}

// NewService creates a presence service. A nil publisher discards events.
func NewService(tracker Tracker, store storage.Storage, publisher Publisher, logger *slog.Logger) *Service {
	if publisher == nil {
		publisher = NopPublisher{}
	}
	return &Service{
		tracker:   tracker,
		storage:   store,
		publisher: publisher,
		logger:    logger.With(slog.String("component", "presence")),
	}
}

// MarkOnline records the user as online and announces it
func (s *Service) MarkOnline(ctx context.Context, user *model.User) error {
	if err := s.tracker.Add(ctx, user.ID); err != nil {
		return err
	}
	s.publisher.PublishPresence(Event{Type: EventOnline, User: toOnline(user)})
	s.logger.Debug("user online", slog.String("user_id", string(user.ID)))
	return nil
}

// MarkOffline removes the user from the online set and announces it
func (s *Service) MarkOffline(ctx context.Context, user *model.User) error {
	if err := s.tracker.Remove(ctx, user.ID); err != nil {
		return err
	}
	s.publisher.PublishPresence(Event{Type: EventOffline, User: toOnline(user)})
	s.logger.Debug("user offline", slog.String("user_id", string(user.ID)))
	return nil
}

// IsOnline reports whether the user is currently online
func (s *Service) IsOnline(ctx context.Context, id model.UserID) (bool, error) {
	return s.tracker.Contains(ctx, id)
}

// OnlineOthers lists online users other than self. Users that no longer
// exist in the store are dropped from the result.
func (s *Service) OnlineOthers(ctx context.Context, self model.UserID) ([]model.OnlineUser, error) {
	ids, err := s.tracker.List(ctx)
	if err != nil {
		return nil, err
	}

	users := make([]model.OnlineUser, 0, len(ids))
	for _, id := range ids {
		if id == self {
			continue
		}
		user, err := s.storage.GetUser(ctx, id)
		if err != nil {
			if errors.Is(err, model.ErrUserNotFound) {
				continue
			}
			return nil, err
		}
		users = append(users, toOnline(user))
	}
	return users, nil
}

func toOnline(user *model.User) model.OnlineUser {
	return model.OnlineUser{
		ID:          user.ID,
		DisplayName: user.DisplayName,
		Avatar:      user.Avatar,
	}
}
