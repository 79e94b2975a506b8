// Package appstate is a schemaless key-value store for operator state
// that has no structured home, e.g. per-partner stats blobs.
package appstate

import (
	"context"
	"errors"
	"time"

	"go.uber.org/fx"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrNotFound = errors.New("not_found")

type Entry struct {
	Key       string            `gorm:"primaryKey;column:key" json:"key"`
	Value     datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"value"`
	UpdatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Entry) TableName() string {
	return "app_state"
}

type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Get(ctx context.Context, key string) (datatypes.JSONMap, error) {
	var entry Entry
	err := s.db.WithContext(ctx).Where("key = ?", key).Take(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return entry.Value, nil
}

func (s *Store) Put(ctx context.Context, key string, value datatypes.JSONMap) error {
	entry := Entry{
		Key:       key,
		Value:     value,
		UpdatedAt: time.Now().UTC(),
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry).Error
}

func (s *Store) Delete(ctx context.Context, key string) error {
	return s.db.WithContext(ctx).Where("key = ?", key).Delete(&Entry{}).Error
}

var Module = fx.Module("appstate",
	fx.Provide(NewStore),
)
