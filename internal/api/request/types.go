package request

import "github.com/mcoot/pokearena/internal/model"

// RegisterRequest is the request body for registering a user
type RegisterRequest struct {
	FirstName string `json:"firstName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

// LoginRequest is the request body for logging in
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// BattleRequest is the request body for resolving a battle
type BattleRequest struct {
	PlayerPokemon   *model.Creature    `json:"playerPokemon"`
	OpponentPokemon *model.Creature    `json:"opponentPokemon"`
	Opponent        model.OpponentKind `json:"opponent"`
}

// AddFavoriteRequest is the request body for adding a favorite
type AddFavoriteRequest struct {
	Pokemon *model.Creature `json:"pokemon"`
}
