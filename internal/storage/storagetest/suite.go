// Package storagetest holds a behavioural test suite shared by every
// storage backend.
package storagetest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/pokearena/internal/model"
	"github.com/mcoot/pokearena/internal/storage"
)

// Suite runs the storage contract against the backend returned by NewStorage
type Suite struct {
	suite.Suite

	// NewStorage builds a fresh, empty backend for each test
	NewStorage func() storage.Storage

	Storage storage.Storage
	Ctx     context.Context
}

func (s *Suite) SetupTest() {
	s.Storage = s.NewStorage()
	s.Ctx = context.Background()
}

// NewUser returns a user with the given id and name and a derived email
func NewUser(id, name string) *model.User {
	return &model.User{
		ID:           model.UserID(id),
		DisplayName:  name,
		Email:        fmt.Sprintf("%s@example.com", id),
		PasswordHash: "hash",
		Avatar:       "https://avatars.example/" + name,
		Favorites:    []model.Creature{},
		History:      []model.BattleRecord{},
		CreatedAt:    time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (s *Suite) create(id, name string) *model.User {
	u := NewUser(id, name)
	s.Require().NoError(s.Storage.CreateUser(s.Ctx, u))
	return u
}

func (s *Suite) TestCreateAndGetUser() {
	u := s.create("u1", "Ash")

	got, err := s.Storage.GetUser(s.Ctx, "u1")
	s.Require().NoError(err)
	s.Equal(u.DisplayName, got.DisplayName)
	s.Equal(u.Email, got.Email)
	s.True(u.CreatedAt.Equal(got.CreatedAt))
}

func (s *Suite) TestGetUserNotFound() {
	_, err := s.Storage.GetUser(s.Ctx, "missing")
	s.ErrorIs(err, model.ErrUserNotFound)
	s.ErrorIs(err, model.ErrNotFound)
}

func (s *Suite) TestCreateUserDuplicateEmail() {
	s.create("u1", "Ash")

	dup := NewUser("u2", "Misty")
	dup.Email = "u1@example.com"
	s.ErrorIs(s.Storage.CreateUser(s.Ctx, dup), model.ErrEmailExists)
}

func (s *Suite) TestCreateUserDuplicateNameIgnoresCase() {
	s.create("u1", "Ash")

	err := s.Storage.CreateUser(s.Ctx, NewUser("u2", "ASH"))
	s.ErrorIs(err, model.ErrUsernameExists)
	s.ErrorIs(err, model.ErrDuplicate)
}

func (s *Suite) TestGetUserByEmail() {
	s.create("u1", "Ash")

	got, err := s.Storage.GetUserByEmail(s.Ctx, "u1@example.com")
	s.Require().NoError(err)
	s.Equal(model.UserID("u1"), got.ID)

	_, err = s.Storage.GetUserByEmail(s.Ctx, "nobody@example.com")
	s.ErrorIs(err, model.ErrUserNotFound)
}

func (s *Suite) TestGetUserByDisplayName() {
	s.create("u1", "Ash Ketchum")

	got, err := s.Storage.GetUserByDisplayName(s.Ctx, "ash ketchum")
	s.Require().NoError(err)
	s.Equal(model.UserID("u1"), got.ID)
}

func (s *Suite) TestListUsersInCreationOrder() {
	s.create("u1", "Ash")
	s.create("u2", "Misty")
	s.create("u3", "Brock")

	users, err := s.Storage.ListUsers(s.Ctx)
	s.Require().NoError(err)
	s.Require().Len(users, 3)
	s.Equal(model.UserID("u1"), users[0].ID)
	s.Equal(model.UserID("u2"), users[1].ID)
	s.Equal(model.UserID("u3"), users[2].ID)
}

func (s *Suite) TestListUsersEmpty() {
	users, err := s.Storage.ListUsers(s.Ctx)
	s.Require().NoError(err)
	s.Empty(users)
}

func (s *Suite) TestUpdateUserPersists() {
	s.create("u1", "Ash")

	updated, err := s.Storage.UpdateUser(s.Ctx, "u1", func(u *model.User) error {
		u.Score.Add(model.OpponentBot, 3)
		u.Favorites = append(u.Favorites, model.Creature{ID: 25, Name: "pikachu"})
		return nil
	})
	s.Require().NoError(err)
	s.Equal(3, updated.Score.Total)

	got, err := s.Storage.GetUser(s.Ctx, "u1")
	s.Require().NoError(err)
	s.Equal(model.Score{Bot: 3, Total: 3}, got.Score)
	s.Require().Len(got.Favorites, 1)
	s.Equal(model.CreatureID(25), got.Favorites[0].ID)
}

func (s *Suite) TestUpdateUserCallbackErrorLeavesStoreUntouched() {
	s.create("u1", "Ash")
	boom := errors.New("boom")

	_, err := s.Storage.UpdateUser(s.Ctx, "u1", func(u *model.User) error {
		u.Score.Add(model.OpponentHuman, 3)
		return boom
	})
	s.ErrorIs(err, boom)

	got, err := s.Storage.GetUser(s.Ctx, "u1")
	s.Require().NoError(err)
	s.Equal(model.Score{}, got.Score)
}

func (s *Suite) TestUpdateUserNotFound() {
	_, err := s.Storage.UpdateUser(s.Ctx, "missing", func(u *model.User) error { return nil })
	s.ErrorIs(err, model.ErrUserNotFound)
}

func (s *Suite) TestUpdateUserKeepsIdentityFields() {
	s.create("u1", "Ash")

	_, err := s.Storage.UpdateUser(s.Ctx, "u1", func(u *model.User) error {
		u.ID = "other"
		u.Email = "changed@example.com"
		return nil
	})
	s.Require().NoError(err)

	got, err := s.Storage.GetUser(s.Ctx, "u1")
	s.Require().NoError(err)
	s.Equal("u1@example.com", got.Email)
}

func (s *Suite) TestReturnedUsersDoNotAliasStorage() {
	s.create("u1", "Ash")

	got, err := s.Storage.GetUser(s.Ctx, "u1")
	s.Require().NoError(err)
	got.Score.Total = 99
	got.Favorites = append(got.Favorites, model.Creature{ID: 1})

	again, err := s.Storage.GetUser(s.Ctx, "u1")
	s.Require().NoError(err)
	s.Equal(0, again.Score.Total)
	s.Empty(again.Favorites)
}

func (s *Suite) TestRoundTripPreservesEveryField() {
	u := NewUser("u1", "Ash")
	u.Favorites = []model.Creature{{
		ID:        6,
		Name:      "charizard",
		Image:     "https://img/6.png",
		Stats:     &model.Stats{HP: 78, Attack: 84, Defense: 78, Speed: 100},
		Types:     []string{"fire", "flying"},
		Abilities: []string{"blaze"},
	}}
	u.Score = model.Score{Bot: 3, Human: 1, Total: 4}
	u.History = []model.BattleRecord{{
		Date:             "2024-01-01",
		Opponent:         model.OpponentBot,
		PlayerCreature:   model.CreatureRef{ID: 6, Name: "charizard"},
		OpponentCreature: model.CreatureRef{ID: 7, Name: "squirtle"},
		Outcome:          model.OutcomeWin,
	}}
	s.Require().NoError(s.Storage.CreateUser(s.Ctx, u))

	got, err := s.Storage.GetUser(s.Ctx, "u1")
	s.Require().NoError(err)
	s.True(u.CreatedAt.Equal(got.CreatedAt))
	got.CreatedAt = u.CreatedAt
	s.Equal(u, got)
}

func (s *Suite) TestConcurrentUpdatesAreNotLost() {
	s.create("u1", "Ash")

	const workers = 20
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Storage.UpdateUser(s.Ctx, "u1", func(u *model.User) error {
				u.Score.Add(model.OpponentBot, 1)
				return nil
			})
			s.NoError(err)
		}()
	}
	wg.Wait()

	got, err := s.Storage.GetUser(s.Ctx, "u1")
	s.Require().NoError(err)
	s.Equal(workers, got.Score.Total)
	s.Equal(workers, got.Score.Bot)
}
