// Package date stores birthdays as month/day pairs pinned to a fixed
// sentinel year, so that reading a stored date back never involves a
// timezone-sensitive conversion.
package date

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// sentinelYear is the placeholder year in every canonical date. The value
// itself is never shown to users; it only has to be a leap year so that
// February 29th round-trips.
const sentinelYear = 2000

// ErrInvalidDate is returned when a month/day pair is out of range.
var ErrInvalidDate = errors.New("invalid date")

// daysInMonth lists the maximum day per month. February is 29 so leap-day
// birthdays stay valid in every year.
var daysInMonth = [13]int{0, 31, 29, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}

// Canonical is a YYYY-MM-DD string with the sentinel year, e.g. "2000-12-25".
type Canonical string

// Normalize validates a month/day pair and returns its canonical form.
func Normalize(month, day int) (Canonical, error) {
	if month < 1 || month > 12 {
		return "", fmt.Errorf("%w: month %d out of range", ErrInvalidDate, month)
	}
	if day < 1 || day > daysInMonth[month] {
		return "", fmt.Errorf("%w: day %d out of range for month %d", ErrInvalidDate, day, month)
	}
	return Canonical(fmt.Sprintf("%04d-%02d-%02d", sentinelYear, month, day)), nil
}

// MonthDay decomposes the canonical string directly. It deliberately avoids
// time.Parse: a canonical date must mean the same month/day on every host,
// regardless of local timezone or DST.
func (c Canonical) MonthDay() (month, day int) {
	parts := strings.SplitN(string(c), "-", 3)
	if len(parts) != 3 {
		return 0, 0
	}
	month, _ = strconv.Atoi(parts[1])
	day, _ = strconv.Atoi(parts[2])
	return month, day
}

// Today maps a wall-clock instant to the canonical date of its month/day.
// This is the single place where a time.Time crosses into canonical space.
func Today(now time.Time) Canonical {
	_, month, day := now.Date()
	return Canonical(fmt.Sprintf("%04d-%02d-%02d", sentinelYear, int(month), day))
}
