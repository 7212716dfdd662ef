package factory

import (
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/pokearena/internal/dependencies/mocks"
	"github.com/mcoot/pokearena/internal/presence"
	"github.com/mcoot/pokearena/internal/services/auth"
	"github.com/mcoot/pokearena/internal/services/battle"
	"github.com/mcoot/pokearena/internal/services/pokedex"
	"github.com/mcoot/pokearena/internal/storage/memory"
	"github.com/mcoot/pokearena/internal/testutil"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
}

// TestOption customises a TestApp
type TestOption func(*dependencies)

// WithPokedexURL points the provider client at a fake server
func WithPokedexURL(url string) TestOption {
	return func(d *dependencies) {
		d.pokedexCfg.BaseURL = url
	}
}

// WithBattleConfig overrides the battle rules
func WithBattleConfig(cfg battle.Config) TestOption {
	return func(d *dependencies) {
		d.battleCfg = cfg
	}
}

// NewTestApp creates an App configured for testing with mocked dependencies.
// Callers should Close it when done.
func NewTestApp(opts ...TestOption) *TestApp {
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()

	authCfg := auth.DefaultConfig()
	authCfg.BcryptCost = bcrypt.MinCost

	pokedexCfg := pokedex.DefaultConfig()
	pokedexCfg.BaseURL = "http://127.0.0.1:1"
	pokedexCfg.Timeout = time.Second

	d := dependencies{
		store:      memory.New(),
		tracker:    presence.NewMemoryTracker(),
		clock:      mockClock,
		random:     mockRandom,
		authCfg:    authCfg,
		battleCfg:  battle.DefaultConfig(),
		pokedexCfg: pokedexCfg,
		logger:     testutil.NopLogger(),
	}
	for _, opt := range opts {
		opt(&d)
	}

	return &TestApp{
		App:        newWithDependencies(d),
		MockClock:  mockClock,
		MockRandom: mockRandom,
	}
}
