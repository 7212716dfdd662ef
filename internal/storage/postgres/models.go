package postgres

import (
	"time"

	"github.com/mcoot/pokearena/internal/model"
)

// userRow is the users table. Nested collections are stored as JSON columns
// so a user stays a single row and a single lock.
type userRow struct {
	ID           string `gorm:"primaryKey;type:text"`
	Seq          int64  `gorm:"type:bigserial;not null;<-:false"`
	DisplayName  string `gorm:"not null"`
	NameKey      string `gorm:"uniqueIndex;not null"`
	Email        string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`
	Avatar       string
	Favorites    []model.Creature     `gorm:"type:jsonb;serializer:json"`
	Score        model.Score          `gorm:"type:jsonb;serializer:json"`
	History      []model.BattleRecord `gorm:"type:jsonb;serializer:json"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (userRow) TableName() string {
	return "users"
}

func toRow(u *model.User) *userRow {
	return &userRow{
		ID:           string(u.ID),
		DisplayName:  u.DisplayName,
		NameKey:      model.NormalizeName(u.DisplayName),
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Avatar:       u.Avatar,
		Favorites:    u.Favorites,
		Score:        u.Score,
		History:      u.History,
		CreatedAt:    u.CreatedAt,
	}
}

func (r *userRow) toModel() *model.User {
	return &model.User{
		ID:           model.UserID(r.ID),
		DisplayName:  r.DisplayName,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		Avatar:       r.Avatar,
		Favorites:    r.Favorites,
		Score:        r.Score,
		History:      r.History,
		CreatedAt:    r.CreatedAt.UTC(),
	}
}
