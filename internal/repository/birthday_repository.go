package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"birthdaybot/internal/date"
	"birthdaybot/internal/model"
)

// BirthdayRepository handles CRUD for birthday records.
type BirthdayRepository struct {
	db *gorm.DB
}

func NewBirthdayRepository(db *gorm.DB) *BirthdayRepository {
	return &BirthdayRepository{db: db}
}

// Upsert inserts or overwrites the record for birthday.UserID. Last write wins.
func (r *BirthdayRepository) Upsert(ctx context.Context, birthday *model.Birthday) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"username", "display_name", "birthdate", "updated_at"}),
	}).Create(birthday).Error
	if err != nil {
		return fmt.Errorf("upsert birthday: %w", err)
	}
	return nil
}

// FindByUserID returns the record for the given user, or nil when none exists.
func (r *BirthdayRepository) FindByUserID(ctx context.Context, userID string) (*model.Birthday, error) {
	var birthday model.Birthday
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&birthday).Error
	switch {
	case err == nil:
		return &birthday, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, nil
	default:
		return nil, fmt.Errorf("find birthday: %w", err)
	}
}

// ListAll returns every record ordered by month then day. The sentinel year
// is constant, so ordering by the canonical string is exactly that order.
func (r *BirthdayRepository) ListAll(ctx context.Context) ([]model.Birthday, error) {
	var birthdays []model.Birthday
	if err := r.db.WithContext(ctx).Order("birthdate ASC").Find(&birthdays).Error; err != nil {
		return nil, fmt.Errorf("list birthdays: %w", err)
	}
	return birthdays, nil
}

// FindByDate returns all records whose birthday falls on the given canonical
// date. Equality on the canonical string is an exact month+day match.
func (r *BirthdayRepository) FindByDate(ctx context.Context, day date.Canonical) ([]model.Birthday, error) {
	var birthdays []model.Birthday
	if err := r.db.WithContext(ctx).Where("birthdate = ?", day).Find(&birthdays).Error; err != nil {
		return nil, fmt.Errorf("find birthdays by date: %w", err)
	}
	return birthdays, nil
}

// Delete removes the record for the given user and reports whether one existed.
func (r *BirthdayRepository) Delete(ctx context.Context, userID string) (bool, error) {
	res := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&model.Birthday{})
	if res.Error != nil {
		return false, fmt.Errorf("delete birthday: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}
