package battle

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/pokearena/internal/dependencies/mocks"
	"github.com/mcoot/pokearena/internal/model"
	"github.com/mcoot/pokearena/internal/storage"
	"github.com/mcoot/pokearena/internal/storage/file"
	"github.com/mcoot/pokearena/internal/storage/memory"
	redisstorage "github.com/mcoot/pokearena/internal/storage/redis"
	"github.com/mcoot/pokearena/internal/testutil"
)

type EngineSuite struct {
	suite.Suite
	storage *memory.Storage
	clock   *mocks.MockClock
	random  *mocks.MockRandom
	engine  *Engine
	ctx     context.Context
	user    *model.User
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineSuite))
}

func (s *EngineSuite) SetupTest() {
	s.storage = memory.New()
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.random = mocks.NewMockRandom()
	s.engine = New(s.storage, s.clock, s.random, DefaultConfig(), testutil.NopLogger())
	s.ctx = context.Background()

	s.user = &model.User{
		ID:          "u1",
		DisplayName: "Ash",
		Email:       "ash@example.com",
		Favorites:   []model.Creature{},
		History:     []model.BattleRecord{},
		CreatedAt:   s.clock.Now(),
	}
	s.Require().NoError(s.storage.CreateUser(s.ctx, s.user))
}

func creature(id int, name string, hp, atk, def, spd int) model.Creature {
	return model.Creature{
		ID:    model.CreatureID(id),
		Name:  name,
		Stats: &model.Stats{HP: hp, Attack: atk, Defense: def, Speed: spd},
	}
}

func uniform(id int, name string, v int) model.Creature {
	return creature(id, name, v, v, v, v)
}

func (s *EngineSuite) battle(player, opponent model.Creature, kind model.OpponentKind) (*Result, error) {
	return s.engine.Resolve(s.ctx, s.user.ID, Request{
		PlayerCreature:   player,
		OpponentCreature: opponent,
		Opponent:         kind,
	})
}

func (s *EngineSuite) reload() *model.User {
	u, err := s.storage.GetUser(s.ctx, s.user.ID)
	s.Require().NoError(err)
	return u
}

func (s *EngineSuite) seedHistory(date string, n int) {
	_, err := s.storage.UpdateUser(s.ctx, s.user.ID, func(u *model.User) error {
		for range n {
			u.History = append(u.History, model.BattleRecord{
				Date:             date,
				Opponent:         model.OpponentBot,
				PlayerCreature:   model.CreatureRef{ID: 1, Name: "bulbasaur"},
				OpponentCreature: model.CreatureRef{ID: 4, Name: "charmander"},
				Outcome:          model.OutcomeLose,
			})
		}
		return nil
	})
	s.Require().NoError(err)
}

// Scoring

func (s *EngineSuite) TestScoreWeightsWithZeroRandom() {
	score := s.engine.Score(creature(1, "a", 10, 20, 30, 40))
	s.InDelta(0.3*10+0.4*20+0.2*30+0.1*40, score, 1e-9)
}

func (s *EngineSuite) TestScoreAddsScaledRandomTerm() {
	s.random.QueueFloat64(0.5)
	score := s.engine.Score(uniform(1, "a", 100))
	s.InDelta(100+5, score, 1e-9)
}

func (s *EngineSuite) TestDecideUsesAbsoluteTieBand() {
	s.Equal(model.OutcomeTie, s.engine.Decide(50, 51.99))
	s.Equal(model.OutcomeTie, s.engine.Decide(51.99, 50))
	s.Equal(model.OutcomeWin, s.engine.Decide(52, 50))
	s.Equal(model.OutcomeLose, s.engine.Decide(50, 52))
}

// Outcomes in deterministic mode

func (s *EngineSuite) TestIdenticalStatsTie() {
	result, err := s.battle(uniform(1, "mew", 100), uniform(2, "mewtwo", 100), model.OpponentBot)
	s.Require().NoError(err)
	s.Equal(model.OutcomeTie, result.Outcome)
	s.InDelta(100.0, result.PlayerScore, 1e-9)
	s.InDelta(100.0, result.OpponentScore, 1e-9)
}

func (s *EngineSuite) TestDoubledStatsWin() {
	result, err := s.battle(uniform(1, "mew", 200), uniform(2, "mewtwo", 100), model.OpponentBot)
	s.Require().NoError(err)
	s.Equal(model.OutcomeWin, result.Outcome)
}

func (s *EngineSuite) TestHalvedStatsLose() {
	result, err := s.battle(uniform(1, "mew", 50), uniform(2, "mewtwo", 100), model.OpponentHuman)
	s.Require().NoError(err)
	s.Equal(model.OutcomeLose, result.Outcome)
}

func (s *EngineSuite) TestRandomTermCanFlipOutcome() {
	// Opponent's base is 1.5 higher, the player's random term overcomes it
	s.random.QueueFloat64(0.4, 0)
	result, err := s.battle(uniform(1, "a", 100), creature(2, "b", 105, 100, 100, 100), model.OpponentBot)
	s.Require().NoError(err)
	s.Equal(model.OutcomeWin, result.Outcome)
	s.InDelta(104.0, result.PlayerScore, 1e-9)
	s.InDelta(101.5, result.OpponentScore, 1e-9)
}

// Scoring bookkeeping

func (s *EngineSuite) TestWinAgainstBotAwardsBotPoints() {
	_, err := s.battle(uniform(1, "a", 200), uniform(2, "b", 100), model.OpponentBot)
	s.Require().NoError(err)

	u := s.reload()
	s.Equal(model.Score{Bot: 3, Human: 0, Total: 3}, u.Score)
}

func (s *EngineSuite) TestWinAgainstHumanAwardsHumanPoints() {
	_, err := s.battle(uniform(1, "a", 200), uniform(2, "b", 100), model.OpponentHuman)
	s.Require().NoError(err)

	u := s.reload()
	s.Equal(model.Score{Bot: 0, Human: 3, Total: 3}, u.Score)
}

func (s *EngineSuite) TestTieAwardsOnePoint() {
	_, err := s.battle(uniform(1, "a", 100), uniform(2, "b", 100), model.OpponentHuman)
	s.Require().NoError(err)

	u := s.reload()
	s.Equal(model.Score{Bot: 0, Human: 1, Total: 1}, u.Score)
}

func (s *EngineSuite) TestLossAwardsNothing() {
	_, err := s.battle(uniform(1, "a", 10), uniform(2, "b", 100), model.OpponentBot)
	s.Require().NoError(err)

	u := s.reload()
	s.Equal(model.Score{}, u.Score)
	s.Len(u.History, 1)
}

func (s *EngineSuite) TestTotalEqualsBotPlusHumanAfterEveryBattle() {
	battles := []struct {
		player model.Creature
		kind   model.OpponentKind
	}{
		{uniform(1, "a", 200), model.OpponentBot},
		{uniform(1, "a", 100), model.OpponentHuman},
		{uniform(1, "a", 200), model.OpponentHuman},
		{uniform(1, "a", 10), model.OpponentBot},
		{uniform(1, "a", 100), model.OpponentBot},
	}
	for _, b := range battles {
		_, err := s.battle(b.player, uniform(2, "b", 100), b.kind)
		s.Require().NoError(err)

		u := s.reload()
		s.Equal(u.Score.Bot+u.Score.Human, u.Score.Total)
	}
	s.Equal(model.Score{Bot: 4, Human: 4, Total: 8}, s.reload().Score)
}

func (s *EngineSuite) TestHistoryRecordsBattle() {
	_, err := s.battle(uniform(25, "pikachu", 200), uniform(7, "squirtle", 100), model.OpponentBot)
	s.Require().NoError(err)

	u := s.reload()
	s.Require().Len(u.History, 1)
	s.Equal(model.BattleRecord{
		Date:             "2024-01-01",
		Opponent:         model.OpponentBot,
		PlayerCreature:   model.CreatureRef{ID: 25, Name: "pikachu"},
		OpponentCreature: model.CreatureRef{ID: 7, Name: "squirtle"},
		Outcome:          model.OutcomeWin,
	}, u.History[0])
}

// Daily limit

func (s *EngineSuite) TestSixthBattleTodayFails() {
	for range 5 {
		_, err := s.battle(uniform(1, "a", 100), uniform(2, "b", 100), model.OpponentBot)
		s.Require().NoError(err)
	}
	before := s.reload()

	_, err := s.battle(uniform(1, "a", 100), uniform(2, "b", 100), model.OpponentBot)
	s.ErrorIs(err, model.ErrDailyBattleLimit)
	s.ErrorIs(err, model.ErrLimitReached)

	after := s.reload()
	s.Equal(before.History, after.History)
	s.Equal(before.Score, after.Score)
}

func (s *EngineSuite) TestLimitResetsTomorrow() {
	s.seedHistory("2024-01-01", 5)

	_, err := s.battle(uniform(1, "a", 100), uniform(2, "b", 100), model.OpponentBot)
	s.Require().ErrorIs(err, model.ErrLimitReached)

	s.clock.AdvanceDays(1)
	_, err = s.battle(uniform(1, "a", 100), uniform(2, "b", 100), model.OpponentBot)
	s.Require().NoError(err)

	u := s.reload()
	s.Equal(1, u.BattlesOn("2024-01-02"))
	s.Equal(5, u.BattlesOn("2024-01-01"))
}

func (s *EngineSuite) TestYesterdayDoesNotCount() {
	s.seedHistory("2023-12-31", 5)

	_, err := s.battle(uniform(1, "a", 100), uniform(2, "b", 100), model.OpponentBot)
	s.NoError(err)
}

func (s *EngineSuite) TestDayRollsOverAtUTCMidnight() {
	s.clock.Set(time.Date(2024, 1, 1, 23, 59, 0, 0, time.UTC))
	s.seedHistory("2024-01-01", 5)

	_, err := s.battle(uniform(1, "a", 100), uniform(2, "b", 100), model.OpponentBot)
	s.Require().ErrorIs(err, model.ErrLimitReached)

	s.clock.Advance(2 * time.Minute)
	_, err = s.battle(uniform(1, "a", 100), uniform(2, "b", 100), model.OpponentBot)
	s.NoError(err)
}

func (s *EngineSuite) TestRemainingToday() {
	remaining, err := s.engine.RemainingToday(s.ctx, s.user.ID)
	s.Require().NoError(err)
	s.Equal(5, remaining)

	s.seedHistory("2024-01-01", 3)
	remaining, err = s.engine.RemainingToday(s.ctx, s.user.ID)
	s.Require().NoError(err)
	s.Equal(2, remaining)

	s.seedHistory("2024-01-01", 4)
	remaining, err = s.engine.RemainingToday(s.ctx, s.user.ID)
	s.Require().NoError(err)
	s.Equal(0, remaining)
}

func (s *EngineSuite) TestResetsAtNextUTCMidnight() {
	s.Equal(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), s.engine.ResetsAt())

	s.clock.Set(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC))
	s.Equal(time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC), s.engine.ResetsAt())
}

// Validation and failures

func (s *EngineSuite) TestUnknownUser() {
	_, err := s.engine.Resolve(s.ctx, "nobody", Request{
		PlayerCreature:   uniform(1, "a", 100),
		OpponentCreature: uniform(2, "b", 100),
		Opponent:         model.OpponentBot,
	})
	s.ErrorIs(err, model.ErrUserNotFound)
}

func (s *EngineSuite) TestInvalidRequest() {
	_, err := s.battle(model.Creature{Name: "a"}, uniform(2, "b", -1), "dragon")
	s.Require().ErrorIs(err, model.ErrValidation)

	var verr *model.ValidationError
	s.Require().True(errors.As(err, &verr))
	s.Len(verr.Fields, 3)
	s.Empty(s.reload().History)
}

func (s *EngineSuite) TestPersistenceFailureDiscardsMutation() {
	failing := &failingStorage{Storage: s.storage}
	engine := New(failing, s.clock, s.random, DefaultConfig(), testutil.NopLogger())

	_, err := engine.Resolve(s.ctx, s.user.ID, Request{
		PlayerCreature:   uniform(1, "a", 200),
		OpponentCreature: uniform(2, "b", 100),
		Opponent:         model.OpponentBot,
	})
	s.ErrorIs(err, model.ErrPersistence)

	u := s.reload()
	s.Empty(u.History)
	s.Equal(model.Score{}, u.Score)
}

func (s *EngineSuite) TestCustomConfig() {
	cfg := DefaultConfig()
	cfg.DailyLimit = 1
	cfg.WinPoints = 10
	engine := New(s.storage, s.clock, s.random, cfg, testutil.NopLogger())
	req := Request{
		PlayerCreature:   uniform(1, "a", 200),
		OpponentCreature: uniform(2, "b", 100),
		Opponent:         model.OpponentBot,
	}

	_, err := engine.Resolve(s.ctx, s.user.ID, req)
	s.Require().NoError(err)
	_, err = engine.Resolve(s.ctx, s.user.ID, req)
	s.ErrorIs(err, model.ErrLimitReached)
	s.Equal(10, s.reload().Score.Total)
}

// failingStorage runs the update callback but never persists the result
type failingStorage struct {
	*memory.Storage
}

func (f *failingStorage) UpdateUser(ctx context.Context, id model.UserID, fn storage.UpdateFunc) (*model.User, error) {
	u, err := f.Storage.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(u); err != nil {
		return nil, err
	}
	return nil, storage.Wrap("update user", errors.New("disk full"))
}

func TestConcurrentBattlesRespectDailyLimit(t *testing.T) {
	backends := map[string]func(t *testing.T) storage.Storage{
		"memory": func(t *testing.T) storage.Storage { return memory.New() },
		"file": func(t *testing.T) storage.Storage {
			return file.New(filepath.Join(t.TempDir(), "users.json"))
		},
		"redis": func(t *testing.T) storage.Storage {
			mini := miniredis.RunT(t)
			client := goredis.NewClient(&goredis.Options{Addr: mini.Addr()})
			return redisstorage.NewWithClient(client, redisstorage.DefaultConfig())
		},
	}

	for name, newStorage := range backends {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store := newStorage(t)
			clk := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
			require.NoError(t, store.CreateUser(ctx, &model.User{
				ID:          "u1",
				DisplayName: "Ash",
				Email:       "ash@example.com",
				CreatedAt:   clk.Now(),
			}))
			engine := New(store, clk, mocks.NewMockRandom(), DefaultConfig(), testutil.NopLogger())

			const attempts = 20
			var (
				wg        sync.WaitGroup
				mu        sync.Mutex
				succeeded int
				limited   int
			)
			for range attempts {
				wg.Add(1)
				go func() {
					defer wg.Done()
					_, err := engine.Resolve(ctx, "u1", Request{
						PlayerCreature:   uniform(1, "a", 200),
						OpponentCreature: uniform(2, "b", 100),
						Opponent:         model.OpponentBot,
					})
					mu.Lock()
					defer mu.Unlock()
					switch {
					case err == nil:
						succeeded++
					case errors.Is(err, model.ErrDailyBattleLimit):
						limited++
					default:
						t.Errorf("unexpected error: %v", err)
					}
				}()
			}
			wg.Wait()

			assert.Equal(t, 5, succeeded)
			assert.Equal(t, attempts-5, limited)

			user, err := store.GetUser(ctx, "u1")
			require.NoError(t, err)
			assert.Len(t, user.History, 5)
			assert.Equal(t, 15, user.Score.Total)
			assert.Equal(t, user.Score.Bot+user.Score.Human, user.Score.Total)
		})
	}
}
