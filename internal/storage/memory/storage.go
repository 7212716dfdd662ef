package memory

import (
	"context"
	"sync"

	"github.com/mcoot/pokearena/internal/model"
	"github.com/mcoot/pokearena/internal/storage"
)

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu sync.RWMutex

	users      map[model.UserID]*model.User
	order      []model.UserID
	emailIndex map[string]model.UserID
	nameIndex  map[string]model.UserID
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		users:      make(map[model.UserID]*model.User),
		emailIndex: make(map[string]model.UserID),
		nameIndex:  make(map[string]model.UserID),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

func (s *Storage) CreateUser(ctx context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.emailIndex[user.Email]; ok {
		return model.ErrEmailExists
	}
	name := model.NormalizeName(user.DisplayName)
	if _, ok := s.nameIndex[name]; ok {
		return model.ErrUsernameExists
	}

	s.users[user.ID] = user.Clone()
	s.order = append(s.order, user.ID)
	s.emailIndex[user.Email] = user.ID
	s.nameIndex[name] = user.ID
	return nil
}

func (s *Storage) GetUser(ctx context.Context, id model.UserID) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	return user.Clone(), nil
}

func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	s.mu.RLock()
	id, ok := s.emailIndex[email]
	s.mu.RUnlock()
	if !ok {
		return nil, model.ErrUserNotFound
	}
	return s.GetUser(ctx, id)
}

func (s *Storage) GetUserByDisplayName(ctx context.Context, name string) (*model.User, error) {
	s.mu.RLock()
	id, ok := s.nameIndex[model.NormalizeName(name)]
	s.mu.RUnlock()
	if !ok {
		return nil, model.ErrUserNotFound
	}
	return s.GetUser(ctx, id)
}

func (s *Storage) ListUsers(ctx context.Context) ([]*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]*model.User, 0, len(s.order))
	for _, id := range s.order {
		users = append(users, s.users[id].Clone())
	}
	return users, nil
}

func (s *Storage) UpdateUser(ctx context.Context, id model.UserID, fn storage.UpdateFunc) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.users[id]
	if !ok {
		return nil, model.ErrUserNotFound
	}

	// Mutate a copy so a failed callback leaves the stored record untouched
	updated := current.Clone()
	if err := fn(updated); err != nil {
		return nil, err
	}
	updated.ID, updated.Email, updated.DisplayName = id, current.Email, current.DisplayName

	s.users[id] = updated
	return updated.Clone(), nil
}
