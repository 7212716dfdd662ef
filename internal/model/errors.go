package model

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Error kinds. Every error returned by the services wraps exactly one of these
var (
	ErrValidation   = errors.New("validation failed")
	ErrDuplicate    = errors.New("already exists")
	ErrLimitReached = errors.New("limit reached")
	ErrNotFound     = errors.New("not found")
	ErrPersistence  = errors.New("persistence failure")
	ErrUpstream     = errors.New("upstream failure")
	ErrUnauthorized = errors.New("unauthorized")
)

// Common errors used across the application
var (
	// User errors
	ErrUserNotFound       = fmt.Errorf("user %w", ErrNotFound)
	ErrEmailExists        = fmt.Errorf("email %w", ErrDuplicate)
	ErrUsernameExists     = fmt.Errorf("username %w", ErrDuplicate)
	ErrInvalidCredentials = fmt.Errorf("invalid credentials: %w", ErrUnauthorized)

	// Creature errors
	ErrCreatureNotFound = fmt.Errorf("creature %w", ErrNotFound)

	// Favorites errors
	ErrFavoriteExists = fmt.Errorf("favorite %w", ErrDuplicate)
	ErrFavoritesFull  = fmt.Errorf("favorites %w", ErrLimitReached)

	// Battle errors
	ErrDailyBattleLimit = fmt.Errorf("daily battle %w", ErrLimitReached)
)

// ValidationError reports every invalid field of a request at once
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError creates a ValidationError for a single field
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

// Add records a problem with a field
func (e *ValidationError) Add(field, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	e.Fields[field] = message
}

// HasErrors returns true if any field failed validation
func (e *ValidationError) HasErrors() bool {
	return len(e.Fields) > 0
}

// Error implements error, listing fields in a stable order
func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return ErrValidation.Error() + ": " + strings.Join(parts, "; ")
}

// Is lets errors.Is(err, ErrValidation) match any ValidationError
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
