package handler

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/mcoot/pokearena/internal/api/middleware"
	"github.com/mcoot/pokearena/internal/api/request"
	"github.com/mcoot/pokearena/internal/api/response"
	"github.com/mcoot/pokearena/internal/model"
	"github.com/mcoot/pokearena/internal/services/favorites"
)

// FavoritesHandler handles a user's favorite creatures
type FavoritesHandler struct {
	favorites *favorites.Service
}

// NewFavoritesHandler creates a new favorites handler
func NewFavoritesHandler(favorites *favorites.Service) *FavoritesHandler {
	return &FavoritesHandler{favorites: favorites}
}

// List handles GET /api/v1/players/{id}/favorites. Any logged-in player may
// read another's favorites to pick an opponent creature.
func (h *FavoritesHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := model.UserID(mux.Vars(r)["id"])

	var (
		favs []model.Creature
		err  error
	)
	if enrich, _ := strconv.ParseBool(r.URL.Query().Get("enrich")); enrich {
		favs, err = h.favorites.ListEnriched(r.Context(), userID)
	} else {
		favs, err = h.favorites.List(r.Context(), userID)
	}
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.Favorites{Favorites: favs})
}

// Add handles POST /api/v1/players/{id}/favorites
func (h *FavoritesHandler) Add(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.ownID(w, r)
	if !ok {
		return
	}

	var req request.AddFavoriteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, err)
		return
	}
	if req.Pokemon == nil {
		WriteError(w, model.NewValidationError("pokemon", "pokemon is required"))
		return
	}

	favs, err := h.favorites.Add(r.Context(), userID, *req.Pokemon)
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, response.Favorites{Favorites: favs})
}

// Remove handles DELETE /api/v1/players/{id}/favorites/{creature_id}
func (h *FavoritesHandler) Remove(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.ownID(w, r)
	if !ok {
		return
	}

	creatureID, err := strconv.Atoi(mux.Vars(r)["creature_id"])
	if err != nil || creatureID <= 0 {
		WriteError(w, NewInvalidRequestError("invalid creature id"))
		return
	}

	favs, err := h.favorites.Remove(r.Context(), userID, model.CreatureID(creatureID))
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.Favorites{Favorites: favs})
}

// ownID returns the path user ID when it matches the caller
func (h *FavoritesHandler) ownID(w http.ResponseWriter, r *http.Request) (model.UserID, bool) {
	caller := middleware.MustGetUserID(r.Context())
	if model.UserID(mux.Vars(r)["id"]) != caller {
		WriteError(w, NewForbiddenError("favorites can only be managed by their owner"))
		return "", false
	}
	return caller, true
}
