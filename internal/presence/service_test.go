package presence

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/pokearena/internal/model"
	"github.com/mcoot/pokearena/internal/storage/memory"
	"github.com/mcoot/pokearena/internal/testutil"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []Event
}

func (p *recordingPublisher) PublishPresence(e Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

type ServiceSuite struct {
	suite.Suite
	store     *memory.Storage
	publisher *recordingPublisher
	service   *Service
	ctx       context.Context
}

func (s *ServiceSuite) SetupTest() {
	s.store = memory.New()
	s.publisher = &recordingPublisher{}
	s.service = NewService(NewMemoryTracker(), s.store, s.publisher, testutil.NopLogger())
	s.ctx = context.Background()
}

func (s *ServiceSuite) createUser(id, name string) *model.User {
	u := &model.User{
		ID:          model.UserID(id),
		DisplayName: name,
		Email:       id + "@example.com",
		Avatar:      "avatar-" + id,
		CreatedAt:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	s.Require().NoError(s.store.CreateUser(s.ctx, u))
	return u
}

func (s *ServiceSuite) TestOnlineOthersExcludesSelf() {
	ash := s.createUser("u1", "Ash")
	misty := s.createUser("u2", "Misty")
	s.Require().NoError(s.service.MarkOnline(s.ctx, ash))
	s.Require().NoError(s.service.MarkOnline(s.ctx, misty))

	others, err := s.service.OnlineOthers(s.ctx, ash.ID)
	s.Require().NoError(err)
	s.Equal([]model.OnlineUser{{ID: "u2", DisplayName: "Misty", Avatar: "avatar-u2"}}, others)
}

func (s *ServiceSuite) TestMarkOfflineRemovesUser() {
	ash := s.createUser("u1", "Ash")
	misty := s.createUser("u2", "Misty")
	s.Require().NoError(s.service.MarkOnline(s.ctx, misty))
	s.Require().NoError(s.service.MarkOffline(s.ctx, misty))

	others, err := s.service.OnlineOthers(s.ctx, ash.ID)
	s.Require().NoError(err)
	s.Empty(others)

	online, err := s.service.IsOnline(s.ctx, misty.ID)
	s.Require().NoError(err)
	s.False(online)
}

func (s *ServiceSuite) TestUnknownUsersAreSkipped() {
	ash := s.createUser("u1", "Ash")
	s.Require().NoError(s.service.MarkOnline(s.ctx, &model.User{ID: "ghost"}))

	others, err := s.service.OnlineOthers(s.ctx, ash.ID)
	s.Require().NoError(err)
	s.Empty(others)
}

func (s *ServiceSuite) TestEventsArePublished() {
	ash := s.createUser("u1", "Ash")
	s.Require().NoError(s.service.MarkOnline(s.ctx, ash))
	s.Require().NoError(s.service.MarkOffline(s.ctx, ash))

	s.Require().Len(s.publisher.events, 2)
	s.Equal(EventOnline, s.publisher.events[0].Type)
	s.Equal(EventOffline, s.publisher.events[1].Type)
	s.Equal("Ash", s.publisher.events[1].User.DisplayName)
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}
