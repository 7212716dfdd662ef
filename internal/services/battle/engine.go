package battle

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/mcoot/pokearena/internal/dependencies/clock"
	"github.com/mcoot/pokearena/internal/dependencies/random"
	"github.com/mcoot/pokearena/internal/model"
	"github.com/mcoot/pokearena/internal/storage"
)

// Request describes a battle to resolve
type Request struct {
	PlayerCreature   model.Creature
	OpponentCreature model.Creature
	Opponent         model.OpponentKind
}

// Result is the outcome of a resolved battle with the raw scores
type Result struct {
	Outcome       model.Outcome
	PlayerScore   float64
	OpponentScore float64
}

// Engine resolves battles and keeps score and history for the player
type Engine struct {
	storage storage.Storage
	clock   clock.Clock
	random  random.Random
	cfg     Config
	logger  *slog.Logger
}

// New creates a battle Engine
func New(storage storage.Storage, clock clock.Clock, random random.Random, cfg Config, logger *slog.Logger) *Engine {
	return &Engine{
		storage: storage,
		clock:   clock,
		random:  random,
		cfg:     cfg,
		logger:  logger.With(slog.String("component", "battle")),
	}
}

// Config returns the rules the engine was built with
func (e *Engine) Config() Config {
	return e.cfg
}

// Resolve fights one battle for the user. Nothing is recorded when the user
// has already used today's allowance or when persisting fails.
func (e *Engine) Resolve(ctx context.Context, userID model.UserID, req Request) (*Result, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	today := clock.Today(e.clock)

	var result *Result
	_, err := e.storage.UpdateUser(ctx, userID, func(user *model.User) error {
		if user.BattlesOn(today) >= e.cfg.DailyLimit {
			return model.ErrDailyBattleLimit
		}

		// Optimistic backends may rerun the callback; draw the scores once
		if result == nil {
			p := e.Score(req.PlayerCreature)
			o := e.Score(req.OpponentCreature)
			result = &Result{
				Outcome:       e.Decide(p, o),
				PlayerScore:   p,
				OpponentScore: o,
			}
		}

		user.History = append(user.History, model.BattleRecord{
			Date:             today,
			Opponent:         req.Opponent,
			PlayerCreature:   req.PlayerCreature.Ref(),
			OpponentCreature: req.OpponentCreature.Ref(),
			Outcome:          result.Outcome,
		})
		user.Score.Add(req.Opponent, e.points(result.Outcome))
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("battle resolved",
		slog.String("user_id", string(userID)),
		slog.String("opponent", string(req.Opponent)),
		slog.String("outcome", string(result.Outcome)),
		slog.Float64("player_score", result.PlayerScore),
		slog.Float64("opponent_score", result.OpponentScore))

	return result, nil
}

// Score computes a creature's weighted stat total plus a fresh random term
func (e *Engine) Score(c model.Creature) float64 {
	var stats model.Stats
	if c.Stats != nil {
		stats = *c.Stats
	}
	w := e.cfg.Weights
	base := w.HP*float64(stats.HP) +
		w.Attack*float64(stats.Attack) +
		w.Defense*float64(stats.Defense) +
		w.Speed*float64(stats.Speed)
	return base + e.random.Float64()*e.cfg.RandomSpread
}

// Decide compares two scores from the player's side
func (e *Engine) Decide(playerScore, opponentScore float64) model.Outcome {
	switch {
	case math.Abs(playerScore-opponentScore) < e.cfg.TieBand:
		return model.OutcomeTie
	case playerScore > opponentScore:
		return model.OutcomeWin
	default:
		return model.OutcomeLose
	}
}

// ResetsAt returns when the daily allowance next resets
func (e *Engine) ResetsAt() time.Time {
	return clock.NextMidnight(e.clock)
}

// RemainingToday returns how many battles the user may still fight today
func (e *Engine) RemainingToday(ctx context.Context, userID model.UserID) (int, error) {
	user, err := e.storage.GetUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	remaining := e.cfg.DailyLimit - user.BattlesOn(clock.Today(e.clock))
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

func (e *Engine) points(outcome model.Outcome) int {
	switch outcome {
	case model.OutcomeWin:
		return e.cfg.WinPoints
	case model.OutcomeTie:
		return e.cfg.TiePoints
	default:
		return 0
	}
}

func validateRequest(req Request) error {
	verr := &model.ValidationError{}
	validateCreature(verr, "playerPokemon", req.PlayerCreature)
	validateCreature(verr, "opponentPokemon", req.OpponentCreature)
	if !req.Opponent.Valid() {
		verr.Add("opponent", "must be bot or human")
	}
	if verr.HasErrors() {
		return verr
	}
	return nil
}

func validateCreature(verr *model.ValidationError, field string, c model.Creature) {
	switch {
	case c.Name == "":
		verr.Add(field, "creature is required")
	case c.Stats == nil:
		verr.Add(field, "stats are required")
	case c.Stats.HP < 0 || c.Stats.Attack < 0 || c.Stats.Defense < 0 || c.Stats.Speed < 0:
		verr.Add(field, "stats must not be negative")
	}
}
