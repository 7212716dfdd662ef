package model

import (
	"strings"
	"time"
)

// UserID uniquely identifies a user across the system
type UserID string

// OpponentKind names who a battle was fought against
type OpponentKind string

const (
	OpponentBot   OpponentKind = "bot"
	OpponentHuman OpponentKind = "human"
)

// Valid returns true for the known opponent kinds
func (k OpponentKind) Valid() bool {
	return k == OpponentBot || k == OpponentHuman
}

// Score is a user's cumulative points, split by opponent kind
type Score struct {
	Bot   int `json:"bot"`
	Human int `json:"human"`
	Total int `json:"total"`
}

// Add credits points to the bucket for kind and to the total
func (s *Score) Add(kind OpponentKind, points int) {
	if points == 0 {
		return
	}
	switch kind {
	case OpponentBot:
		s.Bot += points
	case OpponentHuman:
		s.Human += points
	default:
		return
	}
	s.Total += points
}

// User is a registered player and everything persisted about them
type User struct {
	ID           UserID         `json:"id"`
	DisplayName  string         `json:"firstName"`
	Email        string         `json:"email"`
	PasswordHash string         `json:"password"`
	Avatar       string         `json:"avatar"`
	Favorites    []Creature     `json:"favorites"`
	Score        Score          `json:"score"`
	History      []BattleRecord `json:"history"`
	CreatedAt    time.Time      `json:"createdAt"`
}

// BattlesOn counts the history entries dated on the given calendar day
func (u *User) BattlesOn(date string) int {
	count := 0
	for _, h := range u.History {
		if h.Date == date {
			count++
		}
	}
	return count
}

// HasFavorite returns true if the creature is already a favorite
func (u *User) HasFavorite(id CreatureID) bool {
	for _, f := range u.Favorites {
		if f.ID == id {
			return true
		}
	}
	return false
}

// Wins counts battles won
func (u *User) Wins() int {
	wins := 0
	for _, h := range u.History {
		if h.Outcome == OutcomeWin {
			wins++
		}
	}
	return wins
}

// Clone returns a deep copy so callers can mutate without aliasing storage
func (u *User) Clone() *User {
	c := *u
	if u.Favorites != nil {
		c.Favorites = make([]Creature, len(u.Favorites))
		for i, f := range u.Favorites {
			c.Favorites[i] = f.Clone()
		}
	}
	if u.History != nil {
		c.History = make([]BattleRecord, len(u.History))
		copy(c.History, u.History)
	}
	return &c
}

// NormalizeName folds a display name for case-insensitive comparison
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// OnlineUser is the public view of a user who is currently logged in
type OnlineUser struct {
	ID          UserID `json:"id"`
	DisplayName string `json:"displayName"`
	Avatar      string `json:"avatar"`
}
