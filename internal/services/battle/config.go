package battle

// Weights are the per-stat multipliers of the battle score
type Weights struct {
	HP      float64
	Attack  float64
	Defense float64
	Speed   float64
}

// Config tunes battle scoring and the daily allowance
type Config struct {
	Weights Weights
	// RandomSpread is the upper bound of the uniform random term added to
	// each creature's score
	RandomSpread float64
	// TieBand is the absolute score difference below which a battle is a tie
	TieBand float64
	// DailyLimit is the number of battles a user may fight per UTC day
	DailyLimit int
	WinPoints  int
	TiePoints  int
}

// DefaultConfig returns the standard arena rules
func DefaultConfig() Config {
	return Config{
		Weights: Weights{
			HP:      0.3,
			Attack:  0.4,
			Defense: 0.2,
			Speed:   0.1,
		},
		RandomSpread: 10,
		TieBand:      2,
		DailyLimit:   5,
		WinPoints:    3,
		TiePoints:    1,
	}
}
