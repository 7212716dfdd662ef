// Package config loads server settings from the environment and an
// optional app.env file.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Storage backends
const (
	StorageMemory   = "memory"
	StorageFile     = "file"
	StorageRedis    = "redis"
	StoragePostgres = "postgres"
)

// Config is the full server configuration
type Config struct {
	Port     int    `mapstructure:"PORT"`
	LogLevel string `mapstructure:"LOG_LEVEL"`

	StorageType string `mapstructure:"STORAGE_TYPE"`
	DataFile    string `mapstructure:"DATA_FILE"`
	RedisURL    string `mapstructure:"REDIS_URL"`
	PostgresDSN string `mapstructure:"POSTGRES_DSN"`

	PokeAPIURL     string        `mapstructure:"POKEAPI_URL"`
	PokeAPITimeout time.Duration `mapstructure:"POKEAPI_TIMEOUT"`

	SessionDuration      time.Duration `mapstructure:"SESSION_DURATION"`
	SessionSweepInterval time.Duration `mapstructure:"SESSION_SWEEP_INTERVAL"`
	AvatarURLTemplate    string        `mapstructure:"AVATAR_URL_TEMPLATE"`
	AllowedOrigins       []string      `mapstructure:"ALLOWED_ORIGINS"`

	BattleTieBand      float64 `mapstructure:"BATTLE_TIE_BAND"`
	BattleRandomSpread float64 `mapstructure:"BATTLE_RANDOM_SPREAD"`
	BattleDailyLimit   int     `mapstructure:"BATTLE_DAILY_LIMIT"`

	BackupEnabled   bool          `mapstructure:"BACKUP_ENABLED"`
	BackupInterval  time.Duration `mapstructure:"BACKUP_INTERVAL"`
	BackupEndpoint  string        `mapstructure:"BACKUP_ENDPOINT"`
	BackupAccessKey string        `mapstructure:"BACKUP_ACCESS_KEY"`
	BackupSecretKey string        `mapstructure:"BACKUP_SECRET_KEY"`
	BackupBucket    string        `mapstructure:"BACKUP_BUCKET"`
	BackupUseSSL    bool          `mapstructure:"BACKUP_USE_SSL"`
}

var defaults = map[string]any{
	"PORT":                   8080,
	"LOG_LEVEL":              "info",
	"STORAGE_TYPE":           StorageFile,
	"DATA_FILE":              "data/users.json",
	"REDIS_URL":              "redis://localhost:6379",
	"POSTGRES_DSN":           "",
	"POKEAPI_URL":            "https://pokeapi.co/api/v2",
	"POKEAPI_TIMEOUT":        "10s",
	"SESSION_DURATION":       "24h",
	"SESSION_SWEEP_INTERVAL": "10m",
	"AVATAR_URL_TEMPLATE":    "https://api.dicebear.com/9.x/bottts/png?seed=%s",
	"ALLOWED_ORIGINS":        "*",
	"BATTLE_TIE_BAND":        2.0,
	"BATTLE_RANDOM_SPREAD":   10.0,
	"BATTLE_DAILY_LIMIT":     5,
	"BACKUP_ENABLED":         false,
	"BACKUP_INTERVAL":        "1h",
	"BACKUP_ENDPOINT":        "localhost:9000",
	"BACKUP_ACCESS_KEY":      "",
	"BACKUP_SECRET_KEY":      "",
	"BACKUP_BUCKET":          "pokearena-backups",
	"BACKUP_USE_SSL":         false,
}

// Load reads app.env from path if present, then lets environment variables
// override any key
func Load(path string) (Config, error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("app")
	v.SetConfigType("env")

	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.AllowedOrigins = splitOrigins(cfg.AllowedOrigins)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that the selected backends have what they need
func (c Config) Validate() error {
	switch c.StorageType {
	case StorageMemory:
	case StorageFile:
		if c.DataFile == "" {
			return errors.New("DATA_FILE required when STORAGE_TYPE=file")
		}
	case StorageRedis:
		if c.RedisURL == "" {
			return errors.New("REDIS_URL required when STORAGE_TYPE=redis")
		}
	case StoragePostgres:
		if c.PostgresDSN == "" {
			return errors.New("POSTGRES_DSN required when STORAGE_TYPE=postgres")
		}
	default:
		return fmt.Errorf("invalid STORAGE_TYPE %q: must be one of memory, file, redis, postgres", c.StorageType)
	}

	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid PORT %d", c.Port)
	}
	if c.BattleDailyLimit <= 0 {
		return errors.New("BATTLE_DAILY_LIMIT must be positive")
	}
	if c.BattleTieBand < 0 || c.BattleRandomSpread < 0 {
		return errors.New("BATTLE_TIE_BAND and BATTLE_RANDOM_SPREAD must not be negative")
	}
	if c.BackupEnabled && (c.BackupEndpoint == "" || c.BackupBucket == "") {
		return errors.New("BACKUP_ENDPOINT and BACKUP_BUCKET required when BACKUP_ENABLED=true")
	}
	return nil
}

// splitOrigins accepts either a list or a single comma-separated entry
func splitOrigins(in []string) []string {
	var out []string
	for _, entry := range in {
		for _, origin := range strings.Split(entry, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				out = append(out, origin)
			}
		}
	}
	return out
}
