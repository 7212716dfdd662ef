package handler

import (
	"net/http"

	"github.com/mcoot/pokearena/internal/api/middleware"
	"github.com/mcoot/pokearena/internal/api/request"
	"github.com/mcoot/pokearena/internal/api/response"
	"github.com/mcoot/pokearena/internal/model"
	"github.com/mcoot/pokearena/internal/services/battle"
	"github.com/mcoot/pokearena/internal/services/leaderboard"
)

// BattleHandler handles battles, history and the leaderboard
type BattleHandler struct {
	engine      *battle.Engine
	leaderboard *leaderboard.Service
}

// NewBattleHandler creates a new battle handler
func NewBattleHandler(engine *battle.Engine, leaderboard *leaderboard.Service) *BattleHandler {
	return &BattleHandler{
		engine:      engine,
		leaderboard: leaderboard,
	}
}

// Resolve handles POST /api/v1/battles
func (h *BattleHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	userID := middleware.MustGetUserID(r.Context())

	var req request.BattleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, err)
		return
	}

	result, err := h.engine.Resolve(r.Context(), userID, battle.Request{
		PlayerCreature:   deref(req.PlayerPokemon),
		OpponentCreature: deref(req.OpponentPokemon),
		Opponent:         req.Opponent,
	})
	if err != nil {
		WriteError(w, err)
		return
	}

	remaining, err := h.engine.RemainingToday(r.Context(), userID)
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.BattleResultFrom(result, remaining))
}

// Remaining handles GET /api/v1/battles/remaining
func (h *BattleHandler) Remaining(w http.ResponseWriter, r *http.Request) {
	remaining, err := h.engine.RemainingToday(r.Context(), middleware.MustGetUserID(r.Context()))
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.Remaining{
		Remaining:  remaining,
		DailyLimit: h.engine.Config().DailyLimit,
		ResetsAt:   h.engine.ResetsAt(),
	})
}

// History handles GET /api/v1/history
func (h *BattleHandler) History(w http.ResponseWriter, r *http.Request) {
	history, err := h.leaderboard.History(r.Context(), middleware.MustGetUserID(r.Context()))
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.History{History: history})
}

// Leaderboard handles GET /api/v1/leaderboard
func (h *BattleHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	entries, err := h.leaderboard.Leaderboard(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.LeaderboardFromModel(entries))
}

func deref(c *model.Creature) model.Creature {
	if c == nil {
		return model.Creature{}
	}
	return *c
}
