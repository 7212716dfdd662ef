package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/pokearena/internal/dependencies/clock"
	"github.com/mcoot/pokearena/internal/model"
	"github.com/mcoot/pokearena/internal/presence"
	"github.com/mcoot/pokearena/internal/storage"
)

// ErrInvalidSession is returned for unknown or expired session tokens
var ErrInvalidSession = fmt.Errorf("invalid or expired session: %w", model.ErrUnauthorized)

// Session represents an authenticated session
type Session struct {
	Token       string
	UserID      model.UserID
	DisplayName string
	CreatedAt   time.Time
	ExpiresAt   time.Time
}

// Service handles registration, login and session management
type Service struct {
	storage  storage.Storage
	presence *presence.Service
	clock    clock.Clock
	logger   *slog.Logger

	mu       sync.RWMutex
	sessions map[string]*Session

	cfg Config
}

// Config holds configuration for the auth service
type Config struct {
	SessionDuration time.Duration
	// AvatarURLTemplate has a single %s replaced by the escaped display name
	AvatarURLTemplate string
	BcryptCost        int
}

// DefaultConfig returns default auth configuration
func DefaultConfig() Config {
	return Config{
		SessionDuration:   24 * time.Hour,
		AvatarURLTemplate: "https://api.dicebear.com/9.x/bottts/png?seed=%s",
		BcryptCost:        bcrypt.DefaultCost,
	}
}

// New creates a new auth Service
func New(storage storage.Storage, presence *presence.Service, clock clock.Clock, cfg Config, logger *slog.Logger) *Service {
	defaults := DefaultConfig()
	if cfg.SessionDuration == 0 {
		cfg.SessionDuration = defaults.SessionDuration
	}
	if cfg.AvatarURLTemplate == "" {
		cfg.AvatarURLTemplate = defaults.AvatarURLTemplate
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = defaults.BcryptCost
	}
	return &Service{
		storage:  storage,
		presence: presence,
		clock:    clock,
		logger:   logger.With(slog.String("component", "auth")),
		sessions: make(map[string]*Session),
		cfg:      cfg,
	}
}

// Register creates an account, starts a session and marks the user online
func (s *Service) Register(ctx context.Context, displayName, email, password string) (*Session, *model.User, error) {
	if err := validateRegistration(displayName, email, password); err != nil {
		return nil, nil, err
	}

	// Pre-checks give the precise error; CreateUser enforces them atomically
	if _, err := s.storage.GetUserByEmail(ctx, email); err == nil {
		return nil, nil, model.ErrEmailExists
	} else if !errors.Is(err, model.ErrUserNotFound) {
		return nil, nil, err
	}
	if _, err := s.storage.GetUserByDisplayName(ctx, displayName); err == nil {
		return nil, nil, model.ErrUsernameExists
	} else if !errors.Is(err, model.ErrUserNotFound) {
		return nil, nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	if err != nil {
		return nil, nil, err
	}

	user := &model.User{
		ID:           model.UserID(uuid.NewString()),
		DisplayName:  displayName,
		Email:        email,
		PasswordHash: string(hash),
		Avatar:       s.AvatarURL(displayName),
		Favorites:    []model.Creature{},
		History:      []model.BattleRecord{},
		CreatedAt:    s.clock.Now(),
	}
	if err := s.storage.CreateUser(ctx, user); err != nil {
		return nil, nil, err
	}

	s.logger.Info("user registered",
		slog.String("user_id", string(user.ID)),
		slog.String("display_name", user.DisplayName))

	session, err := s.startSession(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	return session, user, nil
}

// Login authenticates by email and password and starts a session
func (s *Service) Login(ctx context.Context, email, password string) (*Session, *model.User, error) {
	verr := &model.ValidationError{}
	if strings.TrimSpace(email) == "" {
		verr.Add("email", "Email is required")
	}
	if password == "" {
		verr.Add("password", "Password is required")
	}
	if verr.HasErrors() {
		return nil, nil, verr
	}

	user, err := s.storage.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return nil, nil, model.ErrInvalidCredentials
		}
		return nil, nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, nil, model.ErrInvalidCredentials
	}

	session, err := s.startSession(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	return session, user, nil
}

// Logout invalidates the session and, once the user has no other live
// session, marks them offline
func (s *Service) Logout(ctx context.Context, token string) error {
	session, err := s.ValidateSession(token)
	if err != nil {
		return err
	}
	s.InvalidateSession(token)

	if s.hasSession(session.UserID) {
		return nil
	}

	user, err := s.storage.GetUser(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return nil
		}
		return err
	}
	return s.presence.MarkOffline(ctx, user)
}

// ValidateSession checks if a session token is valid and returns the session
func (s *Service) ValidateSession(token string) (*Session, error) {
	s.mu.RLock()
	session, ok := s.sessions[token]
	s.mu.RUnlock()

	if !ok {
		return nil, ErrInvalidSession
	}

	if s.clock.Now().After(session.ExpiresAt) {
		s.mu.Lock()
		delete(s.sessions, token)
		s.mu.Unlock()
		return nil, ErrInvalidSession
	}

	return session, nil
}

// InvalidateSession removes a session
func (s *Service) InvalidateSession(token string) {
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
}

// AvatarURL builds the avatar reference for a display name
func (s *Service) AvatarURL(displayName string) string {
	return fmt.Sprintf(s.cfg.AvatarURLTemplate, url.QueryEscape(displayName))
}

func (s *Service) startSession(ctx context.Context, user *model.User) (*Session, error) {
	session := s.createSession(user)
	if err := s.presence.MarkOnline(ctx, user); err != nil {
		s.InvalidateSession(session.Token)
		return nil, err
	}
	return session, nil
}

// createSession creates a new session for a user
func (s *Service) createSession(user *model.User) *Session {
	token := s.generateID("sess_")
	now := s.clock.Now()

	session := &Session{
		Token:       token,
		UserID:      user.ID,
		DisplayName: user.DisplayName,
		CreatedAt:   now,
		ExpiresAt:   now.Add(s.cfg.SessionDuration),
	}

	s.mu.Lock()
	s.sessions[token] = session
	s.mu.Unlock()

	return session
}

func (s *Service) hasSession(id model.UserID) bool {
	now := s.clock.Now()
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, session := range s.sessions {
		if session.UserID == id && !now.After(session.ExpiresAt) {
			return true
		}
	}
	return false
}

// generateID generates a random ID with a prefix
func (s *Service) generateID(prefix string) string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return prefix + base64.RawURLEncoding.EncodeToString(b)
}

// CleanExpiredSessions removes expired sessions and marks users without a
// remaining session offline. Returns the number of sessions removed.
func (s *Service) CleanExpiredSessions(ctx context.Context) int {
	now := s.clock.Now()

	s.mu.Lock()
	expired := make(map[model.UserID]bool)
	removed := 0
	for token, session := range s.sessions {
		if now.After(session.ExpiresAt) {
			delete(s.sessions, token)
			expired[session.UserID] = true
			removed++
		}
	}
	s.mu.Unlock()

	for id := range expired {
		if s.hasSession(id) {
			continue
		}
		user, err := s.storage.GetUser(ctx, id)
		if err != nil {
			continue
		}
		if err := s.presence.MarkOffline(ctx, user); err != nil {
			s.logger.Warn("failed to mark user offline",
				slog.String("user_id", string(id)),
				slog.Any("error", err))
		}
	}

	if removed > 0 {
		s.logger.Info("expired sessions cleaned", slog.Int("removed", removed))
	}
	return removed
}
