package model

import (
	"time"

	"birthdaybot/internal/date"
)

// Birthday stores one member's birthday, keyed by their chat user ID.
// DisplayName is optional free text used in announcements; empty means unset.
type Birthday struct {
	UserID      string `gorm:"primaryKey"`
	Username    string
	DisplayName string
	Birthdate   date.Canonical
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// MonthDay returns the stored month and day.
func (b Birthday) MonthDay() (int, int) {
	return b.Birthdate.MonthDay()
}
