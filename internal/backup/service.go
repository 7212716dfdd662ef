// Package backup uploads snapshots of the user store to object storage.
package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/mcoot/pokearena/internal/dependencies/clock"
	"github.com/mcoot/pokearena/internal/storage"
)

// keyLayout names snapshots so they sort chronologically
const keyLayout = "20060102T150405Z"

// Uploader stores an object
type Uploader interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
}

// Service takes snapshots of the user collection
type Service struct {
	storage  storage.Storage
	uploader Uploader
	clock    clock.Clock
	logger   *slog.Logger
}

// New creates a backup Service
func New(storage storage.Storage, uploader Uploader, clock clock.Clock, logger *slog.Logger) *Service {
	return &Service{
		storage:  storage,
		uploader: uploader,
		clock:    clock,
		logger:   logger.With(slog.String("component", "backup")),
	}
}

// Snapshot serialises every user as a JSON array and uploads it, returning
// the object key
func (s *Service) Snapshot(ctx context.Context) (string, error) {
	users, err := s.storage.ListUsers(ctx)
	if err != nil {
		return "", err
	}

	data, err := json.MarshalIndent(users, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode snapshot: %w", err)
	}

	key := "users-" + s.clock.Now().UTC().Format(keyLayout) + ".json"
	if err := s.uploader.Upload(ctx, key, data, "application/json"); err != nil {
		return "", fmt.Errorf("upload snapshot %s: %w", key, err)
	}

	s.logger.Info("snapshot uploaded",
		slog.String("key", key),
		slog.Int("users", len(users)),
		slog.Int("bytes", len(data)))
	return key, nil
}
