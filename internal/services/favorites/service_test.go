package favorites

import (
	"context"
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/pokearena/internal/model"
	"github.com/mcoot/pokearena/internal/storage/memory"
	"github.com/mcoot/pokearena/internal/testutil"
)

// fakeSource serves stats from a map; missing IDs fail like the upstream
type fakeSource struct {
	stats map[model.CreatureID]model.Stats
}

func (f *fakeSource) Get(_ context.Context, idOrName string) (*model.Creature, error) {
	id, err := strconv.Atoi(idOrName)
	if err != nil {
		return nil, model.ErrCreatureNotFound
	}
	stats, ok := f.stats[model.CreatureID(id)]
	if !ok {
		return nil, model.ErrCreatureNotFound
	}
	return &model.Creature{ID: model.CreatureID(id), Name: "fresh", Stats: &stats}, nil
}

type ServiceSuite struct {
	suite.Suite
	storage *memory.Storage
	source  *fakeSource
	service *Service
	ctx     context.Context
	userID  model.UserID
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.storage = memory.New()
	s.source = &fakeSource{stats: map[model.CreatureID]model.Stats{}}
	s.service = New(s.storage, s.source, testutil.NopLogger())
	s.ctx = context.Background()
	s.userID = "u1"

	s.Require().NoError(s.storage.CreateUser(s.ctx, &model.User{
		ID:          s.userID,
		DisplayName: "Ash",
		Email:       "ash@example.com",
		Favorites:   []model.Creature{},
		CreatedAt:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}))
}

func pokemon(id int) model.Creature {
	return model.Creature{
		ID:    model.CreatureID(id),
		Name:  fmt.Sprintf("pokemon-%d", id),
		Image: fmt.Sprintf("https://img.example/%d.png", id),
		Types: []string{"normal"},
	}
}

func (s *ServiceSuite) fill(n int) {
	for i := 1; i <= n; i++ {
		_, err := s.service.Add(s.ctx, s.userID, pokemon(i))
		s.Require().NoError(err)
	}
}

func (s *ServiceSuite) TestAddPersists() {
	favs, err := s.service.Add(s.ctx, s.userID, pokemon(25))
	s.Require().NoError(err)
	s.Len(favs, 1)

	listed, err := s.service.List(s.ctx, s.userID)
	s.Require().NoError(err)
	s.Equal([]model.Creature{pokemon(25)}, listed)
}

func (s *ServiceSuite) TestTenthFavoriteAllowed() {
	s.fill(10)

	listed, err := s.service.List(s.ctx, s.userID)
	s.Require().NoError(err)
	s.Len(listed, MaxFavorites)
}

func (s *ServiceSuite) TestEleventhFavoriteFails() {
	s.fill(10)

	_, err := s.service.Add(s.ctx, s.userID, pokemon(11))
	s.ErrorIs(err, model.ErrFavoritesFull)
	s.ErrorIs(err, model.ErrLimitReached)

	listed, err := s.service.List(s.ctx, s.userID)
	s.Require().NoError(err)
	s.Len(listed, 10)
}

func (s *ServiceSuite) TestLimitCheckedBeforeDuplicate() {
	s.fill(10)

	_, err := s.service.Add(s.ctx, s.userID, pokemon(1))
	s.ErrorIs(err, model.ErrLimitReached)
}

func (s *ServiceSuite) TestDuplicateFails() {
	s.fill(1)

	_, err := s.service.Add(s.ctx, s.userID, pokemon(1))
	s.ErrorIs(err, model.ErrFavoriteExists)
	s.ErrorIs(err, model.ErrDuplicate)

	listed, err := s.service.List(s.ctx, s.userID)
	s.Require().NoError(err)
	s.Len(listed, 1)
}

func (s *ServiceSuite) TestAddInvalidCreature() {
	_, err := s.service.Add(s.ctx, s.userID, model.Creature{})
	s.ErrorIs(err, model.ErrValidation)
}

func (s *ServiceSuite) TestAddUnknownUser() {
	_, err := s.service.Add(s.ctx, "nobody", pokemon(1))
	s.ErrorIs(err, model.ErrUserNotFound)
}

func (s *ServiceSuite) TestRemove() {
	s.fill(3)

	favs, err := s.service.Remove(s.ctx, s.userID, 2)
	s.Require().NoError(err)
	s.Equal([]model.Creature{pokemon(1), pokemon(3)}, favs)
}

func (s *ServiceSuite) TestRemoveAbsentIsNoop() {
	s.fill(2)

	favs, err := s.service.Remove(s.ctx, s.userID, 99)
	s.Require().NoError(err)
	s.Equal([]model.Creature{pokemon(1), pokemon(2)}, favs)
}

func (s *ServiceSuite) TestRemoveFreesSlot() {
	s.fill(10)
	_, err := s.service.Remove(s.ctx, s.userID, 5)
	s.Require().NoError(err)

	_, err = s.service.Add(s.ctx, s.userID, pokemon(11))
	s.NoError(err)
}

func (s *ServiceSuite) TestContains() {
	s.fill(1)

	ok, err := s.service.Contains(s.ctx, s.userID, 1)
	s.Require().NoError(err)
	s.True(ok)

	ok, err = s.service.Contains(s.ctx, s.userID, 2)
	s.Require().NoError(err)
	s.False(ok)
}

func (s *ServiceSuite) TestListEnrichedRefreshesStatsAndSkipsFailures() {
	s.fill(3)
	s.source.stats[1] = model.Stats{HP: 45, Attack: 49, Defense: 49, Speed: 45}
	s.source.stats[3] = model.Stats{HP: 80, Attack: 82, Defense: 83, Speed: 80}

	enriched, err := s.service.ListEnriched(s.ctx, s.userID)
	s.Require().NoError(err)
	s.Require().Len(enriched, 2)

	s.Equal(model.CreatureID(1), enriched[0].ID)
	s.Equal("pokemon-1", enriched[0].Name)
	s.Equal(&model.Stats{HP: 45, Attack: 49, Defense: 49, Speed: 45}, enriched[0].Stats)
	s.Equal(model.CreatureID(3), enriched[1].ID)
}
