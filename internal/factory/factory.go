package factory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/mcoot/pokearena/internal/api"
	"github.com/mcoot/pokearena/internal/api/sse"
	"github.com/mcoot/pokearena/internal/backup"
	"github.com/mcoot/pokearena/internal/config"
	"github.com/mcoot/pokearena/internal/dependencies/clock"
	"github.com/mcoot/pokearena/internal/dependencies/random"
	"github.com/mcoot/pokearena/internal/presence"
	"github.com/mcoot/pokearena/internal/services/auth"
	"github.com/mcoot/pokearena/internal/services/battle"
	"github.com/mcoot/pokearena/internal/services/favorites"
	"github.com/mcoot/pokearena/internal/services/leaderboard"
	"github.com/mcoot/pokearena/internal/services/pokedex"
	"github.com/mcoot/pokearena/internal/storage"
	"github.com/mcoot/pokearena/internal/storage/file"
	"github.com/mcoot/pokearena/internal/storage/memory"
	"github.com/mcoot/pokearena/internal/storage/postgres"
	redisstorage "github.com/mcoot/pokearena/internal/storage/redis"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage     storage.Storage
	StorageType string

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Services
	PresenceService    *presence.Service
	AuthService        *auth.Service
	BattleEngine       *battle.Engine
	FavoritesService   *favorites.Service
	LeaderboardService *leaderboard.Service
	Pokedex            *pokedex.Client
	Hub                *sse.Hub

	// BackupService is nil unless backups are configured
	BackupService *backup.Service

	logger  *slog.Logger
	closers []io.Closer
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend. If empty, defaults to "memory"
	StorageType string
	// DataFile is the JSON document used by the "file" backend
	DataFile string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// PostgresConfig holds database settings (required if StorageType is "postgres")
	PostgresConfig *postgres.Config
	// AuthConfig holds configuration for the auth service (optional)
	AuthConfig auth.Config
	// BattleConfig holds the battle rules. If zero value, battle.DefaultConfig()
	BattleConfig battle.Config
	// PokedexConfig points at the creature-data provider (optional)
	PokedexConfig pokedex.Config
	// Backup enables snapshot uploads when non-nil
	Backup *backup.MinioConfig
}

// ConfigFrom maps loaded settings onto factory configuration
func ConfigFrom(c config.Config, logger *slog.Logger) Config {
	redisCfg := redisstorage.DefaultConfig()
	redisCfg.URL = c.RedisURL
	pgCfg := postgres.DefaultConfig()
	if c.PostgresDSN != "" {
		pgCfg.DSN = c.PostgresDSN
	}

	battleCfg := battle.DefaultConfig()
	battleCfg.TieBand = c.BattleTieBand
	battleCfg.RandomSpread = c.BattleRandomSpread
	battleCfg.DailyLimit = c.BattleDailyLimit

	pokedexCfg := pokedex.DefaultConfig()
	pokedexCfg.BaseURL = c.PokeAPIURL
	pokedexCfg.Timeout = c.PokeAPITimeout

	cfg := Config{
		Logger:         logger,
		StorageType:    c.StorageType,
		DataFile:       c.DataFile,
		RedisConfig:    &redisCfg,
		PostgresConfig: &pgCfg,
		AuthConfig: auth.Config{
			SessionDuration:   c.SessionDuration,
			AvatarURLTemplate: c.AvatarURLTemplate,
		},
		BattleConfig:  battleCfg,
		PokedexConfig: pokedexCfg,
	}
	if c.BackupEnabled {
		cfg.Backup = &backup.MinioConfig{
			Endpoint:  c.BackupEndpoint,
			AccessKey: c.BackupAccessKey,
			SecretKey: c.BackupSecretKey,
			Bucket:    c.BackupBucket,
			UseSSL:    c.BackupUseSSL,
		}
	}
	return cfg
}

// New creates a new application with all dependencies wired
func New(ctx context.Context, cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	clk := clock.New()
	rnd := random.New()

	var (
		store   storage.Storage
		tracker presence.Tracker
		closers []io.Closer
	)
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = config.StorageMemory
	}

	switch storageType {
	case config.StorageMemory:
		store = memory.New()
	case config.StorageFile:
		if cfg.DataFile == "" {
			return nil, errors.New("DataFile required when StorageType is file")
		}
		store = file.New(cfg.DataFile)
	case config.StorageRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		store = redisStore
		tracker = presence.NewRedisTracker(redisStore.Client(), clk)
		closers = append(closers, redisStore)
	case config.StoragePostgres:
		if cfg.PostgresConfig == nil {
			return nil, errors.New("PostgresConfig required when StorageType is postgres")
		}
		pgStore, err := postgres.New(*cfg.PostgresConfig)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		store = pgStore
		closers = append(closers, pgStore)
	default:
		return nil, fmt.Errorf("invalid StorageType %q", storageType)
	}

	if tracker == nil {
		tracker = presence.NewMemoryTracker()
	}
	// Sessions do not survive a restart, so neither may presence
	if err := tracker.Clear(ctx); err != nil {
		for _, c := range closers {
			_ = c.Close()
		}
		return nil, fmt.Errorf("reset presence: %w", err)
	}

	app := newWithDependencies(dependencies{
		store:      store,
		tracker:    tracker,
		clock:      clk,
		random:     rnd,
		authCfg:    cfg.AuthConfig,
		battleCfg:  cfg.BattleConfig,
		pokedexCfg: cfg.PokedexConfig,
		logger:     logger,
	})
	app.StorageType = storageType
	app.closers = append(app.closers, closers...)

	if cfg.Backup != nil {
		uploader, err := backup.NewMinioUploader(ctx, *cfg.Backup)
		if err != nil {
			_ = app.Close()
			return nil, fmt.Errorf("backup: %w", err)
		}
		app.BackupService = backup.New(store, uploader, clk, logger)
	}

	return app, nil
}

type dependencies struct {
	store      storage.Storage
	tracker    presence.Tracker
	clock      clock.Clock
	random     random.Random
	authCfg    auth.Config
	battleCfg  battle.Config
	pokedexCfg pokedex.Config
	logger     *slog.Logger
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(d dependencies) *App {
	if d.battleCfg == (battle.Config{}) {
		d.battleCfg = battle.DefaultConfig()
	}

	hub := sse.NewHub(d.logger)
	go hub.Run()

	presenceService := presence.NewService(d.tracker, d.store, sse.NewBroadcaster(hub, d.logger), d.logger)
	pokedexClient := pokedex.New(d.pokedexCfg, d.random, d.logger)

	return &App{
		Storage:            d.store,
		StorageType:        config.StorageMemory,
		Clock:              d.clock,
		Random:             d.random,
		PresenceService:    presenceService,
		AuthService:        auth.New(d.store, presenceService, d.clock, d.authCfg, d.logger),
		BattleEngine:       battle.New(d.store, d.clock, d.random, d.battleCfg, d.logger),
		FavoritesService:   favorites.New(d.store, pokedexClient, d.logger),
		LeaderboardService: leaderboard.New(d.store),
		Pokedex:            pokedexClient,
		Hub:                hub,
		logger:             d.logger,
	}
}

// Router builds the HTTP API for the app
func (a *App) Router(allowedOrigins []string) http.Handler {
	return api.NewRouter(api.RouterConfig{
		Logger:             a.logger,
		Storage:            a.Storage,
		StorageType:        a.StorageType,
		AuthService:        a.AuthService,
		PresenceService:    a.PresenceService,
		BattleEngine:       a.BattleEngine,
		FavoritesService:   a.FavoritesService,
		LeaderboardService: a.LeaderboardService,
		Pokedex:            a.Pokedex,
		Hub:                a.Hub,
		AllowedOrigins:     allowedOrigins,
	})
}

// Close disconnects SSE clients and releases storage connections
func (a *App) Close() error {
	a.Hub.Close()
	var errs []error
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
