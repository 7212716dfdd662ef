package model

// Outcome is the result of a battle from the player's point of view
type Outcome string

const (
	OutcomeWin  Outcome = "win"
	OutcomeLose Outcome = "lose"
	OutcomeTie  Outcome = "tie"
)

// BattleRecord is one immutable entry in a user's battle history
type BattleRecord struct {
	Date             string       `json:"date"`
	Opponent         OpponentKind `json:"opponent"`
	PlayerCreature   CreatureRef  `json:"playerPokemon"`
	OpponentCreature CreatureRef  `json:"opponentPokemon"`
	Outcome          Outcome      `json:"result"`
}

// LeaderboardEntry is one row of the leaderboard
type LeaderboardEntry struct {
	UserID      UserID
	Name        string
	Avatar      string
	Score       int
	Battles     int
	SuccessRate string // percentage with two decimals
}
