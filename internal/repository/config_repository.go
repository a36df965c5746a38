package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"birthdaybot/internal/model"
)

// ConfigRepository is a small key/value store for bot configuration.
type ConfigRepository struct {
	db *gorm.DB
}

func NewConfigRepository(db *gorm.DB) *ConfigRepository {
	return &ConfigRepository{db: db}
}

// Get returns the value for key, or "" when the key is absent.
func (r *ConfigRepository) Get(ctx context.Context, key string) (string, error) {
	var entry model.ConfigEntry
	err := r.db.WithContext(ctx).Where("key = ?", key).First(&entry).Error
	switch {
	case err == nil:
		return entry.Value, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return "", nil
	default:
		return "", fmt.Errorf("get config %q: %w", key, err)
	}
}

// Set writes the value for key, inserting or overwriting.
func (r *ConfigRepository) Set(ctx context.Context, key, value string) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&model.ConfigEntry{Key: key, Value: value}).Error
	if err != nil {
		return fmt.Errorf("set config %q: %w", key, err)
	}
	return nil
}

// SetIfAbsent writes the value only when the key has no entry yet.
func (r *ConfigRepository) SetIfAbsent(ctx context.Context, key, value string) error {
	current, err := r.Get(ctx, key)
	if err != nil {
		return err
	}
	if current != "" {
		return nil
	}
	return r.Set(ctx, key, value)
}
