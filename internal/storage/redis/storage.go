package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/pokearena/internal/model"
	"github.com/mcoot/pokearena/internal/storage"
)

// ErrTooMuchContention is returned when an update keeps losing the
// optimistic-lock race
var ErrTooMuchContention = errors.New("too many concurrent updates")

// Storage is a Redis-backed implementation of the storage interface.
// Each user is a separate key, so updates to different users never conflict.
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}
	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return NewWithClient(client, cfg), nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	if cfg.MaxUpdateRetries <= 0 {
		cfg.MaxUpdateRetries = DefaultConfig().MaxUpdateRetries
	}
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Client exposes the underlying client so other Redis-backed components
// can share the connection pool
func (s *Storage) Client() *redis.Client {
	return s.client
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

func (s *Storage) CreateUser(ctx context.Context, user *model.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return storage.Wrap("encode user", err)
	}

	emailKey := emailIndexKey(user.Email)
	nameKey := nameIndexKey(user.DisplayName)

	var domainErr error
	txf := func(tx *redis.Tx) error {
		n, err := tx.Exists(ctx, emailKey).Result()
		if err != nil {
			return err
		}
		if n > 0 {
			domainErr = model.ErrEmailExists
			return domainErr
		}
		n, err = tx.Exists(ctx, nameKey).Result()
		if err != nil {
			return err
		}
		if n > 0 {
			domainErr = model.ErrUsernameExists
			return domainErr
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, userKey(user.ID), data, 0)
			pipe.Set(ctx, emailKey, string(user.ID), 0)
			pipe.Set(ctx, nameKey, string(user.ID), 0)
			pipe.RPush(ctx, userListKey(), string(user.ID))
			return nil
		})
		return err
	}

	return s.withRetry(ctx, "create user", &domainErr, txf, emailKey, nameKey)
}

func (s *Storage) GetUser(ctx context.Context, id model.UserID) (*model.User, error) {
	data, err := s.client.Get(ctx, userKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrUserNotFound
		}
		return nil, storage.Wrap("get user", err)
	}
	return decodeUser(data)
}

func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.getByIndex(ctx, emailIndexKey(email))
}

func (s *Storage) GetUserByDisplayName(ctx context.Context, name string) (*model.User, error) {
	return s.getByIndex(ctx, nameIndexKey(name))
}

func (s *Storage) getByIndex(ctx context.Context, key string) (*model.User, error) {
	id, err := s.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrUserNotFound
		}
		return nil, storage.Wrap("lookup index", err)
	}
	return s.GetUser(ctx, model.UserID(id))
}

func (s *Storage) ListUsers(ctx context.Context) ([]*model.User, error) {
	ids, err := s.client.LRange(ctx, userListKey(), 0, -1).Result()
	if err != nil {
		return nil, storage.Wrap("list users", err)
	}
	if len(ids) == 0 {
		return []*model.User{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = userKey(model.UserID(id))
	}

	// Fetch all users in one round trip using MGET
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, storage.Wrap("list users", err)
	}

	users := make([]*model.User, 0, len(values))
	for _, val := range values {
		str, ok := val.(string)
		if !ok {
			continue // Listed but missing
		}
		user, err := decodeUser([]byte(str))
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}

func (s *Storage) UpdateUser(ctx context.Context, id model.UserID, fn storage.UpdateFunc) (*model.User, error) {
	key := userKey(id)

	var (
		updated   *model.User
		domainErr error
	)
	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				domainErr = model.ErrUserNotFound
				return domainErr
			}
			return err
		}

		current, err := decodeUser(data)
		if err != nil {
			return err
		}
		user := current.Clone()
		if err := fn(user); err != nil {
			domainErr = err
			return err
		}
		user.ID, user.Email, user.DisplayName = id, current.Email, current.DisplayName

		out, err := json.Marshal(user)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, out, 0)
			return nil
		})
		if err == nil {
			updated = user
		}
		return err
	}

	if err := s.withRetry(ctx, "update user", &domainErr, txf, key); err != nil {
		return nil, err
	}
	return updated, nil
}

// withRetry runs txf under WATCH on keys, retrying while another client
// modifies a watched key first. Errors recorded in domainErr are returned
// untouched, everything else is a persistence failure.
func (s *Storage) withRetry(ctx context.Context, op string, domainErr *error, txf func(*redis.Tx) error, keys ...string) error {
	for range s.cfg.MaxUpdateRetries {
		*domainErr = nil
		err := s.client.Watch(ctx, txf, keys...)
		if err == nil {
			return nil
		}
		if *domainErr != nil {
			return *domainErr
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return storage.Wrap(op, err)
	}
	return storage.Wrap(op, ErrTooMuchContention)
}

func decodeUser(data []byte) (*model.User, error) {
	var user model.User
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, storage.Wrap("decode user", err)
	}
	return &user, nil
}
