package date

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeRoundTrip(t *testing.T) {
	limits := []int{31, 29, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}
	for month := 1; month <= 12; month++ {
		for day := 1; day <= limits[month-1]; day++ {
			canonical, err := Normalize(month, day)
			require.NoError(t, err, "month %d day %d", month, day)

			gotMonth, gotDay := canonical.MonthDay()
			assert.Equal(t, month, gotMonth)
			assert.Equal(t, day, gotDay)
		}
	}
}

func TestNormalizeCanonicalForm(t *testing.T) {
	canonical, err := Normalize(12, 25)
	require.NoError(t, err)
	assert.Equal(t, Canonical("2000-12-25"), canonical)

	canonical, err = Normalize(1, 5)
	require.NoError(t, err)
	assert.Equal(t, Canonical("2000-01-05"), canonical)
}

func TestNormalizeLeapDay(t *testing.T) {
	canonical, err := Normalize(2, 29)
	require.NoError(t, err)

	month, day := canonical.MonthDay()
	assert.Equal(t, 2, month)
	assert.Equal(t, 29, day)
}

func TestNormalizeInvalid(t *testing.T) {
	cases := []struct {
		month, day int
	}{
		{0, 1},
		{13, 1},
		{1, 0},
		{1, 32},
		{2, 30},
		{4, 31},
		{6, 31},
		{-1, 10},
		{5, -3},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("%d-%d", tc.month, tc.day), func(t *testing.T) {
			_, err := Normalize(tc.month, tc.day)
			assert.ErrorIs(t, err, ErrInvalidDate)
		})
	}
}

func TestTodayIgnoresTimeOfDayAndZone(t *testing.T) {
	zone := time.FixedZone("UTC+13", 13*3600)
	late := time.Date(2024, 7, 9, 23, 45, 0, 0, zone)
	early := time.Date(2024, 7, 9, 0, 5, 0, 0, time.UTC)

	assert.Equal(t, Canonical("2000-07-09"), Today(late))
	assert.Equal(t, Canonical("2000-07-09"), Today(early))
}

func TestMonthDayMalformed(t *testing.T) {
	month, day := Canonical("garbage").MonthDay()
	assert.Zero(t, month)
	assert.Zero(t, day)
}
