package service

import (
	"context"
	"log"
	"sort"
	"strings"
	"time"

	"birthdaybot/internal/date"
	"birthdaybot/internal/model"
	"birthdaybot/internal/repository"
)

// Upcoming is one entry of the ranked upcoming-birthdays list.
type Upcoming struct {
	UserID      string
	DisplayName string
	Month       int
	Day         int
	DaysUntil   int // 0 = today, 1 = tomorrow
}

// BirthdayService wraps birthday-record business logic.
type BirthdayService struct {
	birthdayRepo *repository.BirthdayRepository
}

func NewBirthdayService(birthdayRepo *repository.BirthdayRepository) *BirthdayService {
	return &BirthdayService{birthdayRepo: birthdayRepo}
}

// Set validates the month/day pair and upserts the record for userID.
// Returns date.ErrInvalidDate without writing when the pair is out of range.
func (s *BirthdayService) Set(ctx context.Context, userID, username string, month, day int, displayName string) error {
	canonical, err := date.Normalize(month, day)
	if err != nil {
		return err
	}
	return s.birthdayRepo.Upsert(ctx, &model.Birthday{
		UserID:      userID,
		Username:    username,
		DisplayName: strings.TrimSpace(displayName),
		Birthdate:   canonical,
	})
}

// SetDisplayName updates the display name on an existing record. Reports
// false when the user has no birthday set yet; the name is never stored
// without one.
func (s *BirthdayService) SetDisplayName(ctx context.Context, userID, displayName string) (bool, error) {
	birthday, err := s.birthdayRepo.FindByUserID(ctx, userID)
	if err != nil || birthday == nil {
		return false, err
	}
	birthday.DisplayName = strings.TrimSpace(displayName)
	if err := s.birthdayRepo.Upsert(ctx, birthday); err != nil {
		return false, err
	}
	return true, nil
}

// Remove deletes the record for userID, reporting whether one existed.
func (s *BirthdayService) Remove(ctx context.Context, userID string) (bool, error) {
	return s.birthdayRepo.Delete(ctx, userID)
}

// RemoveMany deletes the records for a batch of user IDs. IDs without a
// record are reported back as missing; a storage failure on one ID is
// logged and does not stop the remaining removals.
func (s *BirthdayService) RemoveMany(ctx context.Context, userIDs []string) (removed int, missing []string) {
	for _, userID := range userIDs {
		existed, err := s.birthdayRepo.Delete(ctx, userID)
		if err != nil {
			log.Printf("[warn] bulk remove %s: %v", userID, err)
			missing = append(missing, userID)
			continue
		}
		if !existed {
			missing = append(missing, userID)
			continue
		}
		removed++
	}
	return removed, missing
}

// Get returns the record for userID, or nil when none is set.
func (s *BirthdayService) Get(ctx context.Context, userID string) (*model.Birthday, error) {
	return s.birthdayRepo.FindByUserID(ctx, userID)
}

// List returns every record ordered by month then day.
func (s *BirthdayService) List(ctx context.Context) ([]model.Birthday, error) {
	return s.birthdayRepo.ListAll(ctx)
}

// Upcoming ranks all records by days until their next occurrence relative to
// now. Ties keep store order. n bounds the result; n <= 0 means all.
func (s *BirthdayService) Upcoming(ctx context.Context, now time.Time, n int) ([]Upcoming, error) {
	birthdays, err := s.birthdayRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	ranked := rankUpcoming(birthdays, now)
	if n > 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked, nil
}

// rankUpcoming computes each record's occurrence in the reference year, or
// the next year when that date already passed, and sorts by day distance.
func rankUpcoming(birthdays []model.Birthday, now time.Time) []Upcoming {
	year, month, day := now.Date()
	reference := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)

	ranked := make([]Upcoming, 0, len(birthdays))
	for _, birthday := range birthdays {
		bMonth, bDay := birthday.MonthDay()
		// Feb 29 in a non-leap year rolls forward to Mar 1 here, which
		// keeps the entry rankable in every year.
		occurrence := time.Date(year, time.Month(bMonth), bDay, 0, 0, 0, 0, time.UTC)
		if occurrence.Before(reference) {
			occurrence = time.Date(year+1, time.Month(bMonth), bDay, 0, 0, 0, 0, time.UTC)
		}
		ranked = append(ranked, Upcoming{
			UserID:      birthday.UserID,
			DisplayName: birthday.DisplayName,
			Month:       bMonth,
			Day:         bDay,
			DaysUntil:   int(occurrence.Sub(reference).Hours() / 24),
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].DaysUntil < ranked[j].DaysUntil
	})
	return ranked
}
