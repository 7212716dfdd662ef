package leaderboard

import (
	"context"
	"sort"
	"strconv"

	"github.com/mcoot/pokearena/internal/model"
	"github.com/mcoot/pokearena/internal/storage"
)

// Service answers ranking and history queries over the user store
type Service struct {
	storage storage.Storage
}

// New creates a leaderboard Service
func New(storage storage.Storage) *Service {
	return &Service{storage: storage}
}

// Leaderboard ranks every user by total score, highest first. Users with
// equal scores keep registration order.
func (s *Service) Leaderboard(ctx context.Context) ([]model.LeaderboardEntry, error) {
	users, err := s.storage.ListUsers(ctx)
	if err != nil {
		return nil, err
	}

	entries := make([]model.LeaderboardEntry, 0, len(users))
	for _, u := range users {
		battles := len(u.History)
		entries = append(entries, model.LeaderboardEntry{
			UserID:      u.ID,
			Name:        u.DisplayName,
			Avatar:      u.Avatar,
			Score:       u.Score.Total,
			Battles:     battles,
			SuccessRate: SuccessRate(u.Wins(), battles),
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Score > entries[j].Score
	})
	return entries, nil
}

// History returns the user's battles, oldest first
func (s *Service) History(ctx context.Context, userID model.UserID) ([]model.BattleRecord, error) {
	user, err := s.storage.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.History == nil {
		return []model.BattleRecord{}, nil
	}
	return user.History, nil
}

// SuccessRate formats wins as a percentage of battles with two decimals
func SuccessRate(wins, battles int) string {
	if battles == 0 {
		return "0.00"
	}
	return strconv.FormatFloat(float64(wins)/float64(battles)*100, 'f', 2, 64)
}
