package postgres

import (
	"context"
	"errors"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/mcoot/pokearena/internal/model"
	"github.com/mcoot/pokearena/internal/storage"
)

// Storage is a Postgres-backed implementation of the storage interface
type Storage struct {
	db *gorm.DB
}

// New opens a connection pool and migrates the schema
func New(cfg Config) (*Storage, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	return NewWithDB(db)
}

// NewWithDB wraps an existing gorm handle and runs migrations
func NewWithDB(db *gorm.DB) (*Storage, error) {
	if err := db.AutoMigrate(&userRow{}); err != nil {
		return nil, err
	}
	return &Storage{db: db}, nil
}

// Close closes the underlying connection pool
func (s *Storage) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

func (s *Storage) CreateUser(ctx context.Context, user *model.User) error {
	row := toRow(user)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&userRow{}).Where("email = ?", row.Email).Count(&count).Error; err != nil {
			return storage.Wrap("create user", err)
		}
		if count > 0 {
			return model.ErrEmailExists
		}
		if err := tx.Model(&userRow{}).Where("name_key = ?", row.NameKey).Count(&count).Error; err != nil {
			return storage.Wrap("create user", err)
		}
		if count > 0 {
			return model.ErrUsernameExists
		}

		if err := tx.Create(row).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return err
			}
			return storage.Wrap("create user", err)
		}
		return nil
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// Lost a race with a concurrent registration. The aborted transaction
		// cannot be queried, so look again outside it.
		return s.duplicateError(ctx, row)
	}
	return err
}

// duplicateError names the unique column that row clashes with
func (s *Storage) duplicateError(ctx context.Context, row *userRow) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&userRow{}).Where("email = ?", row.Email).Count(&count).Error; err != nil {
		return storage.Wrap("create user", err)
	}
	if count > 0 {
		return model.ErrEmailExists
	}
	return model.ErrUsernameExists
}

func (s *Storage) GetUser(ctx context.Context, id model.UserID) (*model.User, error) {
	return s.first(ctx, "id = ?", string(id))
}

func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.first(ctx, "email = ?", email)
}

func (s *Storage) GetUserByDisplayName(ctx context.Context, name string) (*model.User, error) {
	return s.first(ctx, "name_key = ?", model.NormalizeName(name))
}

func (s *Storage) first(ctx context.Context, query string, arg any) (*model.User, error) {
	var row userRow
	if err := s.db.WithContext(ctx).Where(query, arg).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrUserNotFound
		}
		return nil, storage.Wrap("get user", err)
	}
	return row.toModel(), nil
}

func (s *Storage) ListUsers(ctx context.Context) ([]*model.User, error) {
	var rows []userRow
	if err := s.db.WithContext(ctx).Order("seq ASC").Find(&rows).Error; err != nil {
		return nil, storage.Wrap("list users", err)
	}
	users := make([]*model.User, 0, len(rows))
	for i := range rows {
		users = append(users, rows[i].toModel())
	}
	return users, nil
}

func (s *Storage) UpdateUser(ctx context.Context, id model.UserID, fn storage.UpdateFunc) (*model.User, error) {
	var updated *model.User
	var domainErr error

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row userRow
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", string(id)).
			First(&row).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				domainErr = model.ErrUserNotFound
				return domainErr
			}
			return err
		}

		current := row.toModel()
		user := current.Clone()
		if err := fn(user); err != nil {
			domainErr = err
			return err
		}

		user.ID, user.Email, user.DisplayName = current.ID, current.Email, current.DisplayName
		if err := tx.Model(&row).
			Select("password_hash", "avatar", "favorites", "score", "history", "updated_at").
			Updates(toRow(user)).Error; err != nil {
			return err
		}

		updated = user
		return nil
	})
	if err != nil {
		if domainErr != nil {
			return nil, domainErr
		}
		return nil, storage.Wrap("update user", err)
	}
	return updated, nil
}
