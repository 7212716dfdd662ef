package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/pokearena/internal/dependencies/mocks"
	"github.com/mcoot/pokearena/internal/model"
	"github.com/mcoot/pokearena/internal/presence"
	"github.com/mcoot/pokearena/internal/storage/memory"
	"github.com/mcoot/pokearena/internal/testutil"
)

type ServiceSuite struct {
	suite.Suite
	storage  *memory.Storage
	clock    *mocks.MockClock
	presence *presence.Service
	service  *Service
	ctx      context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.storage = memory.New()
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.presence = presence.NewService(presence.NewMemoryTracker(), s.storage, nil, testutil.NopLogger())
	cfg := DefaultConfig()
	cfg.BcryptCost = bcrypt.MinCost
	s.service = New(s.storage, s.presence, s.clock, cfg, testutil.NopLogger())
	s.ctx = context.Background()
}

func (s *ServiceSuite) register(name, email string) (*Session, *model.User) {
	session, user, err := s.service.Register(s.ctx, name, email, "Secret1!")
	s.Require().NoError(err)
	return session, user
}

func (s *ServiceSuite) isOnline(id model.UserID) bool {
	online, err := s.presence.IsOnline(s.ctx, id)
	s.Require().NoError(err)
	return online
}

// Register tests

func (s *ServiceSuite) TestRegisterSucceeds() {
	session, user := s.register("Ash Ketchum", "ash@example.com")

	s.NotEmpty(session.Token)
	s.Equal(user.ID, session.UserID)
	s.Equal("Ash Ketchum", user.DisplayName)
	s.Equal(model.Score{}, user.Score)
	s.Empty(user.Favorites)
	s.Empty(user.History)
	s.Equal(s.clock.Now(), user.CreatedAt)
}

func (s *ServiceSuite) TestRegisterPersistsHashedPassword() {
	_, user := s.register("Ash", "ash@example.com")

	stored, err := s.storage.GetUser(s.ctx, user.ID)
	s.Require().NoError(err)
	s.NotEqual("Secret1!", stored.PasswordHash)
	s.NoError(bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("Secret1!")))
}

func (s *ServiceSuite) TestRegisterSetsAvatar() {
	_, user := s.register("Ash Ketchum", "ash@example.com")
	s.Equal("https://api.dicebear.com/9.x/bottts/png?seed=Ash+Ketchum", user.Avatar)
}

func (s *ServiceSuite) TestRegisterMarksUserOnline() {
	_, user := s.register("Ash", "ash@example.com")
	s.True(s.isOnline(user.ID))
}

func (s *ServiceSuite) TestRegisterReportsEveryInvalidField() {
	_, _, err := s.service.Register(s.ctx, "Ash99", "not-an-email", "short")
	s.Require().ErrorIs(err, model.ErrValidation)

	var verr *model.ValidationError
	s.Require().True(errors.As(err, &verr))
	s.Len(verr.Fields, 3)
	s.Contains(verr.Fields, "firstName")
	s.Contains(verr.Fields, "email")
	s.Contains(verr.Fields, "password")
}

func (s *ServiceSuite) TestRegisterRejectsLongName() {
	long := "Abcdefghij Abcdefghij Abcdefghij Abcdefghij Abcdefghij"
	_, _, err := s.service.Register(s.ctx, long, "ash@example.com", "Secret1!")
	s.ErrorIs(err, model.ErrValidation)
}

func (s *ServiceSuite) TestRegisterDuplicateEmail() {
	s.register("Ash", "ash@example.com")

	_, _, err := s.service.Register(s.ctx, "Misty", "ash@example.com", "Secret1!")
	s.ErrorIs(err, model.ErrEmailExists)
	s.ErrorIs(err, model.ErrDuplicate)
}

func (s *ServiceSuite) TestRegisterDuplicateNameIgnoresCase() {
	s.register("Ash", "ash@example.com")

	_, _, err := s.service.Register(s.ctx, "ASH", "other@example.com", "Secret1!")
	s.ErrorIs(err, model.ErrUsernameExists)
}

func (s *ServiceSuite) TestRegisterValidationHappensBeforeStorage() {
	_, _, err := s.service.Register(s.ctx, "", "", "")
	s.Require().ErrorIs(err, model.ErrValidation)

	users, err := s.storage.ListUsers(s.ctx)
	s.Require().NoError(err)
	s.Empty(users)
}

// Login tests

func (s *ServiceSuite) TestLoginSucceeds() {
	_, registered := s.register("Ash", "ash@example.com")

	session, user, err := s.service.Login(s.ctx, "ash@example.com", "Secret1!")
	s.Require().NoError(err)
	s.Equal(registered.ID, session.UserID)
	s.Equal(registered.ID, user.ID)
}

func (s *ServiceSuite) TestLoginWrongPassword() {
	s.register("Ash", "ash@example.com")

	_, _, err := s.service.Login(s.ctx, "ash@example.com", "Wrong1!!")
	s.ErrorIs(err, model.ErrInvalidCredentials)
}

func (s *ServiceSuite) TestLoginUnknownEmail() {
	_, _, err := s.service.Login(s.ctx, "nobody@example.com", "Secret1!")
	s.ErrorIs(err, model.ErrInvalidCredentials)
}

func (s *ServiceSuite) TestLoginMissingFields() {
	_, _, err := s.service.Login(s.ctx, "", "")
	s.ErrorIs(err, model.ErrValidation)
}

// Session tests

func (s *ServiceSuite) TestSessionExpires() {
	session, _ := s.register("Ash", "ash@example.com")

	s.clock.Advance(25 * time.Hour)

	_, err := s.service.ValidateSession(session.Token)
	s.ErrorIs(err, ErrInvalidSession)
	s.ErrorIs(err, model.ErrUnauthorized)
}

func (s *ServiceSuite) TestLogoutInvalidatesSessionAndMarksOffline() {
	session, user := s.register("Ash", "ash@example.com")

	s.Require().NoError(s.service.Logout(s.ctx, session.Token))

	_, err := s.service.ValidateSession(session.Token)
	s.ErrorIs(err, ErrInvalidSession)
	s.False(s.isOnline(user.ID))
}

func (s *ServiceSuite) TestLogoutKeepsUserOnlineWithOtherSession() {
	first, user := s.register("Ash", "ash@example.com")
	_, _, err := s.service.Login(s.ctx, "ash@example.com", "Secret1!")
	s.Require().NoError(err)

	s.Require().NoError(s.service.Logout(s.ctx, first.Token))
	s.True(s.isOnline(user.ID))
}

func (s *ServiceSuite) TestLogoutUnknownToken() {
	s.ErrorIs(s.service.Logout(s.ctx, "sess_nope"), ErrInvalidSession)
}

func (s *ServiceSuite) TestCleanExpiredSessions() {
	old, user := s.register("Ash", "ash@example.com")
	s.clock.Advance(23 * time.Hour)
	fresh, _ := s.register("Misty", "misty@example.com")
	s.clock.Advance(2 * time.Hour)

	removed := s.service.CleanExpiredSessions(s.ctx)
	s.Equal(1, removed)

	_, err := s.service.ValidateSession(old.Token)
	s.ErrorIs(err, ErrInvalidSession)
	_, err = s.service.ValidateSession(fresh.Token)
	s.NoError(err)
	s.False(s.isOnline(user.ID))
}
