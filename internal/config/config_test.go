package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, StorageFile, cfg.StorageType)
	assert.Equal(t, "data/users.json", cfg.DataFile)
	assert.Equal(t, 24*time.Hour, cfg.SessionDuration)
	assert.Equal(t, 10*time.Minute, cfg.SessionSweepInterval)
	assert.Equal(t, 10*time.Second, cfg.PokeAPITimeout)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	assert.InDelta(t, 2.0, cfg.BattleTieBand, 1e-9)
	assert.InDelta(t, 10.0, cfg.BattleRandomSpread, 1e-9)
	assert.Equal(t, 5, cfg.BattleDailyLimit)
	assert.False(t, cfg.BackupEnabled)
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("STORAGE_TYPE", "memory")
	t.Setenv("SESSION_DURATION", "2h")
	t.Setenv("ALLOWED_ORIGINS", "http://a.example, http://b.example")
	t.Setenv("BATTLE_DAILY_LIMIT", "7")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, StorageMemory, cfg.StorageType)
	assert.Equal(t, 2*time.Hour, cfg.SessionDuration)
	assert.Equal(t, []string{"http://a.example", "http://b.example"}, cfg.AllowedOrigins)
	assert.Equal(t, 7, cfg.BattleDailyLimit)
}

func TestAppEnvFile(t *testing.T) {
	dir := t.TempDir()
	content := "STORAGE_TYPE=redis\nREDIS_URL=redis://cache:6379\nPOKEAPI_TIMEOUT=3s\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.env"), []byte(content), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, StorageRedis, cfg.StorageType)
	assert.Equal(t, "redis://cache:6379", cfg.RedisURL)
	assert.Equal(t, 3*time.Second, cfg.PokeAPITimeout)
}

func TestEnvironmentBeatsFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.env"), []byte("PORT=7000\n"), 0o644))
	t.Setenv("PORT", "7001")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 7001, cfg.Port)
}

func TestValidate(t *testing.T) {
	base, err := Load(t.TempDir())
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown storage", func(c *Config) { c.StorageType = "mongo" }},
		{"postgres without dsn", func(c *Config) { c.StorageType = StoragePostgres; c.PostgresDSN = "" }},
		{"redis without url", func(c *Config) { c.StorageType = StorageRedis; c.RedisURL = "" }},
		{"file without path", func(c *Config) { c.DataFile = "" }},
		{"bad port", func(c *Config) { c.Port = 0 }},
		{"zero daily limit", func(c *Config) { c.BattleDailyLimit = 0 }},
		{"negative tie band", func(c *Config) { c.BattleTieBand = -1 }},
		{"backup without bucket", func(c *Config) { c.BackupEnabled = true; c.BackupBucket = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
