package response

import (
	"time"

	"github.com/mcoot/pokearena/internal/model"
	"github.com/mcoot/pokearena/internal/services/auth"
	"github.com/mcoot/pokearena/internal/services/battle"
)

// User represents a user in API responses. It never carries the password hash.
type User struct {
	ID        string      `json:"id"`
	FirstName string      `json:"firstName"`
	Email     string      `json:"email"`
	Avatar    string      `json:"avatar"`
	Score     model.Score `json:"score"`
	Battles   int         `json:"battles"`
}

// UserFromModel converts a model.User to a response User
func UserFromModel(u *model.User) User {
	return User{
		ID:        string(u.ID),
		FirstName: u.DisplayName,
		Email:     u.Email,
		Avatar:    u.Avatar,
		Score:     u.Score,
		Battles:   len(u.History),
	}
}

// AuthResponse is the response for authentication endpoints
type AuthResponse struct {
	User         User   `json:"user"`
	SessionToken string `json:"session_token"`
}

// AuthResponseFrom creates an AuthResponse from a session and its user
func AuthResponseFrom(s *auth.Session, u *model.User) AuthResponse {
	return AuthResponse{
		User:         UserFromModel(u),
		SessionToken: s.Token,
	}
}

// OnlineUsers lists the other users currently logged in
type OnlineUsers struct {
	Users []model.OnlineUser `json:"users"`
}

// Favorites lists a user's favorite creatures
type Favorites struct {
	Favorites []model.Creature `json:"favorites"`
}

// BattleResult is the outcome of a resolved battle
type BattleResult struct {
	Result        model.Outcome `json:"result"`
	PlayerScore   float64       `json:"playerScore"`
	OpponentScore float64       `json:"opponentScore"`
	Remaining     int           `json:"remaining"`
}

// BattleResultFrom converts an engine result
func BattleResultFrom(r *battle.Result, remaining int) BattleResult {
	return BattleResult{
		Result:        r.Outcome,
		PlayerScore:   r.PlayerScore,
		OpponentScore: r.OpponentScore,
		Remaining:     remaining,
	}
}

// Remaining reports how many battles are left today
type Remaining struct {
	Remaining  int       `json:"remaining"`
	DailyLimit int       `json:"dailyLimit"`
	ResetsAt   time.Time `json:"resetsAt"`
}

// History lists a user's battles, oldest first
type History struct {
	History []model.BattleRecord `json:"history"`
}

// LeaderboardEntry is one leaderboard row
type LeaderboardEntry struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Avatar      string `json:"avatar"`
	Score       int    `json:"score"`
	Battles     int    `json:"battles"`
	SuccessRate string `json:"successRate"`
}

// Leaderboard is the full leaderboard, highest score first
type Leaderboard struct {
	Entries []LeaderboardEntry `json:"leaderboard"`
}

// LeaderboardFromModel converts leaderboard entries
func LeaderboardFromModel(entries []model.LeaderboardEntry) Leaderboard {
	out := make([]LeaderboardEntry, len(entries))
	for i, e := range entries {
		out[i] = LeaderboardEntry{
			ID:          string(e.UserID),
			Name:        e.Name,
			Avatar:      e.Avatar,
			Score:       e.Score,
			Battles:     e.Battles,
			SuccessRate: e.SuccessRate,
		}
	}
	return Leaderboard{Entries: out}
}

// Creature is a creature flagged with whether the caller has favorited it
type Creature struct {
	model.Creature
	IsFavorite bool `json:"isFavorite"`
}

// Creatures lists creatures
type Creatures struct {
	Creatures []Creature `json:"pokemon"`
}

// CreaturesFromModel flags each creature found in favorites
func CreaturesFromModel(cs []model.Creature, favorites map[model.CreatureID]bool) Creatures {
	out := make([]Creature, len(cs))
	for i, c := range cs {
		out[i] = Creature{Creature: c, IsFavorite: favorites[c.ID]}
	}
	return Creatures{Creatures: out}
}

// Health is the health check response
type Health struct {
	Status  string `json:"status"`
	Storage string `json:"storage,omitempty"`
}
