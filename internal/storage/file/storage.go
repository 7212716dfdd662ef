// Package file stores every user in a single JSON document. Each operation
// reads the whole file and every mutation rewrites it.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/mcoot/pokearena/internal/model"
	"github.com/mcoot/pokearena/internal/storage"
)

// Storage is a flat-file implementation of the storage interface.
// All access from this process is serialised, so concurrent requests
// cannot lose each other's writes. Other processes writing the same file
// are not coordinated with.
type Storage struct {
	mu   sync.Mutex
	path string
}

// New creates a file storage backed by path. The file and its directory are
// created on first write.
func New(path string) *Storage {
	return &Storage{path: path}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Path returns the location of the backing file
func (s *Storage) Path() string {
	return s.path
}

func (s *Storage) CreateUser(ctx context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.load()
	if err != nil {
		return err
	}

	name := model.NormalizeName(user.DisplayName)
	for _, u := range users {
		if u.Email == user.Email {
			return model.ErrEmailExists
		}
		if model.NormalizeName(u.DisplayName) == name {
			return model.ErrUsernameExists
		}
	}

	return s.save(append(users, user.Clone()))
}

func (s *Storage) GetUser(ctx context.Context, id model.UserID) (*model.User, error) {
	return s.find(func(u *model.User) bool { return u.ID == id })
}

func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.find(func(u *model.User) bool { return u.Email == email })
}

func (s *Storage) GetUserByDisplayName(ctx context.Context, name string) (*model.User, error) {
	name = model.NormalizeName(name)
	return s.find(func(u *model.User) bool { return model.NormalizeName(u.DisplayName) == name })
}

func (s *Storage) ListUsers(ctx context.Context) ([]*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *Storage) UpdateUser(ctx context.Context, id model.UserID, fn storage.UpdateFunc) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.load()
	if err != nil {
		return nil, err
	}

	idx := -1
	for i, u := range users {
		if u.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, model.ErrUserNotFound
	}

	current := users[idx]
	updated := current.Clone()
	if err := fn(updated); err != nil {
		return nil, err
	}
	updated.ID, updated.Email, updated.DisplayName = id, current.Email, current.DisplayName

	users[idx] = updated
	if err := s.save(users); err != nil {
		// Nothing is cached, so the next read sees the last good file
		return nil, err
	}
	return updated.Clone(), nil
}

func (s *Storage) find(match func(*model.User) bool) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.load()
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		if match(u) {
			return u, nil
		}
	}
	return nil, model.ErrUserNotFound
}

// load reads the whole collection. A missing or empty file is an empty store.
func (s *Storage) load() ([]*model.User, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []*model.User{}, nil
		}
		return nil, storage.Wrap("read store", err)
	}
	if len(data) == 0 {
		return []*model.User{}, nil
	}

	var users []*model.User
	if err := json.Unmarshal(data, &users); err != nil {
		return nil, storage.Wrap("decode store", err)
	}
	if users == nil {
		users = []*model.User{}
	}
	return users, nil
}

// save rewrites the whole collection. The data is written to a temporary
// file in the same directory and renamed over the original, so a crash
// mid-write never leaves a truncated store behind.
func (s *Storage) save(users []*model.User) error {
	data, err := json.MarshalIndent(users, "", "  ")
	if err != nil {
		return storage.Wrap("encode store", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return storage.Wrap("create store dir", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return storage.Wrap("create temp file", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return storage.Wrap("write store", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return storage.Wrap("sync store", err)
	}
	if err := tmp.Close(); err != nil {
		return storage.Wrap("close store", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return storage.Wrap("replace store", err)
	}
	return nil
}
