package api

import (
	"log/slog"
	"net/http"
	"slices"

	"github.com/go-chi/cors"
	"github.com/gorilla/mux"

	"github.com/mcoot/pokearena/internal/api/apierr"
	"github.com/mcoot/pokearena/internal/api/handler"
	apimw "github.com/mcoot/pokearena/internal/api/middleware"
	"github.com/mcoot/pokearena/internal/api/response"
	"github.com/mcoot/pokearena/internal/api/sse"
	"github.com/mcoot/pokearena/internal/middleware"
	"github.com/mcoot/pokearena/internal/presence"
	"github.com/mcoot/pokearena/internal/services/auth"
	"github.com/mcoot/pokearena/internal/services/battle"
	"github.com/mcoot/pokearena/internal/services/favorites"
	"github.com/mcoot/pokearena/internal/services/leaderboard"
	"github.com/mcoot/pokearena/internal/services/pokedex"
	"github.com/mcoot/pokearena/internal/storage"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger             *slog.Logger
	Storage            storage.Storage
	StorageType        string
	AuthService        *auth.Service
	PresenceService    *presence.Service
	BattleEngine       *battle.Engine
	FavoritesService   *favorites.Service
	LeaderboardService *leaderboard.Service
	Pokedex            *pokedex.Client
	Hub                *sse.Hub
	// AllowedOrigins for CORS. Empty allows any origin.
	AllowedOrigins []string
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	// Create handlers
	playerHandler := handler.NewPlayerHandler(cfg.AuthService, cfg.PresenceService, cfg.Storage)
	favoritesHandler := handler.NewFavoritesHandler(cfg.FavoritesService)
	battleHandler := handler.NewBattleHandler(cfg.BattleEngine, cfg.LeaderboardService)
	creatureHandler := handler.NewCreatureHandler(cfg.Pokedex, cfg.FavoritesService, cfg.Logger)
	eventsHandler := handler.NewEventsHandler(cfg.Hub, cfg.PresenceService, cfg.Logger)

	// Create middleware
	authMiddleware := apimw.Auth(cfg.AuthService)
	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger, writePanicError)

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(recoveryMiddleware)
	api.Use(loggingMiddleware)

	// Public routes
	api.HandleFunc("/players/register", playerHandler.Register).Methods(http.MethodPost)
	api.HandleFunc("/players/login", playerHandler.Login).Methods(http.MethodPost)
	api.HandleFunc("/leaderboard", battleHandler.Leaderboard).Methods(http.MethodGet)
	api.HandleFunc("/health", healthHandler(cfg.StorageType)).Methods(http.MethodGet)

	// Everything else requires a session
	protected := api.NewRoute().Subrouter()
	protected.Use(authMiddleware)

	protected.HandleFunc("/players/logout", playerHandler.Logout).Methods(http.MethodPost)
	protected.HandleFunc("/players/me", playerHandler.GetMe).Methods(http.MethodGet)
	protected.HandleFunc("/players/online", playerHandler.Online).Methods(http.MethodGet)

	protected.HandleFunc("/players/{id}/favorites", favoritesHandler.List).Methods(http.MethodGet)
	protected.HandleFunc("/players/{id}/favorites", favoritesHandler.Add).Methods(http.MethodPost)
	protected.HandleFunc("/players/{id}/favorites/{creature_id}", favoritesHandler.Remove).Methods(http.MethodDelete)

	protected.HandleFunc("/battles", battleHandler.Resolve).Methods(http.MethodPost)
	protected.HandleFunc("/battles/remaining", battleHandler.Remaining).Methods(http.MethodGet)
	protected.HandleFunc("/history", battleHandler.History).Methods(http.MethodGet)

	// Fixed creature paths must be registered before {id}
	protected.HandleFunc("/creatures/random", creatureHandler.Random).Methods(http.MethodGet)
	protected.HandleFunc("/creatures/popular", creatureHandler.Popular).Methods(http.MethodGet)
	protected.HandleFunc("/creatures/search", creatureHandler.Search).Methods(http.MethodGet)
	protected.HandleFunc("/creatures/{id}", creatureHandler.Get).Methods(http.MethodGet)

	protected.HandleFunc("/events", eventsHandler.Stream).Methods(http.MethodGet)

	return corsHandler(cfg.AllowedOrigins)(r)
}

// writePanicError answers a recovered panic with the JSON error envelope
func writePanicError(w http.ResponseWriter, _ *http.Request, _ any) {
	apierr.WriteError(w, apierr.NewInternalError())
}

// corsHandler allows credentialed (cookie) requests only from listed origins;
// the wildcard gets plain CORS without credentials.
func corsHandler(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders:   []string{middleware.RequestIDHeader},
		AllowCredentials: !slices.Contains(origins, "*"),
		MaxAge:           300,
	})
}

func healthHandler(storageType string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, http.StatusOK, response.Health{Status: "ok", Storage: storageType})
	}
}
