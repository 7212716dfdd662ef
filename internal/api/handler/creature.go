package handler

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/pokearena/internal/api/middleware"
	"github.com/mcoot/pokearena/internal/api/response"
	"github.com/mcoot/pokearena/internal/model"
	"github.com/mcoot/pokearena/internal/services/favorites"
	"github.com/mcoot/pokearena/internal/services/pokedex"
)

// CreatureHandler serves creature data from the provider
type CreatureHandler struct {
	pokedex   *pokedex.Client
	favorites *favorites.Service
	logger    *slog.Logger
}

// NewCreatureHandler creates a new creature handler
func NewCreatureHandler(pokedex *pokedex.Client, favorites *favorites.Service, logger *slog.Logger) *CreatureHandler {
	return &CreatureHandler{
		pokedex:   pokedex,
		favorites: favorites,
		logger:    logger.With(slog.String("component", "creature-handler")),
	}
}

// Random handles GET /api/v1/creatures/random
func (h *CreatureHandler) Random(w http.ResponseWriter, r *http.Request) {
	c, err := h.pokedex.Random(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, c)
}

// Popular handles GET /api/v1/creatures/popular
func (h *CreatureHandler) Popular(w http.ResponseWriter, r *http.Request) {
	cs, err := h.pokedex.Popular(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.CreaturesFromModel(cs, h.favoriteIDs(r)))
}

// Search handles GET /api/v1/creatures/search?q=
func (h *CreatureHandler) Search(w http.ResponseWriter, r *http.Request) {
	cs, err := h.pokedex.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.CreaturesFromModel(cs, h.favoriteIDs(r)))
}

// Get handles GET /api/v1/creatures/{id}
func (h *CreatureHandler) Get(w http.ResponseWriter, r *http.Request) {
	c, err := h.pokedex.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		WriteError(w, err)
		return
	}

	userID := middleware.MustGetUserID(r.Context())
	isFavorite, err := h.favorites.Contains(r.Context(), userID, c.ID)
	if err != nil {
		h.logger.Warn("failed to load favorites for flags",
			slog.String("user_id", string(userID)),
			slog.Any("error", err))
	}
	response.JSON(w, http.StatusOK, response.Creature{Creature: *c, IsFavorite: isFavorite})
}

// favoriteIDs returns the caller's favorites. Lookup failures only lose the
// flags, never the listing.
func (h *CreatureHandler) favoriteIDs(r *http.Request) map[model.CreatureID]bool {
	userID := middleware.MustGetUserID(r.Context())
	ids, err := h.favorites.IDs(r.Context(), userID)
	if err != nil {
		h.logger.Warn("failed to load favorites for flags",
			slog.String("user_id", string(userID)),
			slog.Any("error", err))
		return nil
	}
	return ids
}
