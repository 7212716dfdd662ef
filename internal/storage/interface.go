package storage

import (
	"context"

	"github.com/mcoot/pokearena/internal/model"
)

// UpdateFunc mutates a user in place. Returning an error aborts the update
// and nothing is persisted.
type UpdateFunc func(user *model.User) error

// Storage defines the interface for data persistence
type Storage interface {
	// CreateUser stores a new user. Fails with model.ErrEmailExists or
	// model.ErrUsernameExists if either is already taken.
	CreateUser(ctx context.Context, user *model.User) error

	GetUser(ctx context.Context, id model.UserID) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	// GetUserByDisplayName matches case-insensitively
	GetUserByDisplayName(ctx context.Context, name string) (*model.User, error)

	// ListUsers returns every user in creation order
	ListUsers(ctx context.Context) ([]*model.User, error)

	// UpdateUser applies fn to the stored user as a single atomic
	// read-modify-write and returns the updated record. ID, email and display
	// name are immutable; changes to them are discarded.
	UpdateUser(ctx context.Context, id model.UserID, fn UpdateFunc) (*model.User, error)
}
