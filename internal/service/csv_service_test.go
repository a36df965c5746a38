package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const csvTestHeader = "User ID,Username,Display Name,Month,Day\n"

func TestValidateCleanBatch(t *testing.T) {
	birthdayRepo, _ := newTestRepos(t)
	svc := NewCSVService(birthdayRepo)

	result := svc.Validate(csvTestHeader + "U12345678,alice,Alice A,12,25\nU87654321,bob,\"Lee, Bob\",1,15")
	assert.True(t, result.Valid)
	assert.Empty(t, result.Errors)
	assert.Empty(t, result.Warnings)
}

func TestValidateEmpty(t *testing.T) {
	birthdayRepo, _ := newTestRepos(t)
	svc := NewCSVService(birthdayRepo)

	result := svc.Validate("   \n ")
	assert.False(t, result.Valid)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "empty")
}

func TestValidateHeaderOnly(t *testing.T) {
	birthdayRepo, _ := newTestRepos(t)
	svc := NewCSVService(birthdayRepo)

	result := svc.Validate(strings.TrimSpace(csvTestHeader))
	assert.False(t, result.Valid)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "header and at least one data row")
}

func TestValidateBadHeader(t *testing.T) {
	birthdayRepo, _ := newTestRepos(t)
	svc := NewCSVService(birthdayRepo)

	result := svc.Validate("id,name,m,d\nU12345678,alice,Alice,12,25")
	assert.False(t, result.Valid)
}

func TestValidateInvalidMonthIsHardError(t *testing.T) {
	birthdayRepo, _ := newTestRepos(t)
	svc := NewCSVService(birthdayRepo)

	result := svc.Validate(csvTestHeader + "U33333333,carl,Carl C,13,1")
	assert.False(t, result.Valid)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "invalid month")
}

func TestValidateDayInMonth(t *testing.T) {
	birthdayRepo, _ := newTestRepos(t)
	svc := NewCSVService(birthdayRepo)

	t.Run("Feb 30 rejected", func(t *testing.T) {
		result := svc.Validate(csvTestHeader + "U33333333,carl,,2,30")
		assert.False(t, result.Valid)
	})
	t.Run("Feb 29 accepted", func(t *testing.T) {
		result := svc.Validate(csvTestHeader + "U33333333,carl,,2,29")
		assert.True(t, result.Valid)
	})
	t.Run("Apr 31 rejected", func(t *testing.T) {
		result := svc.Validate(csvTestHeader + "U33333333,carl,,4,31")
		assert.False(t, result.Valid)
	})
}

func TestValidateSuspiciousUserIDIsOnlyWarning(t *testing.T) {
	birthdayRepo, _ := newTestRepos(t)
	svc := NewCSVService(birthdayRepo)

	result := svc.Validate(csvTestHeader + "X1,alice,Alice,12,25")
	assert.True(t, result.Valid)
	assert.Empty(t, result.Errors)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "X1")
}

func TestValidateUnterminatedQuoteIsWarning(t *testing.T) {
	birthdayRepo, _ := newTestRepos(t)
	svc := NewCSVService(birthdayRepo)

	result := svc.Validate(csvTestHeader + `U12345678,alice,"Alice unclosed,12,25`)
	assert.False(t, result.Valid) // quote ate the remaining columns
	found := false
	for _, warning := range result.Warnings {
		if strings.Contains(warning, "unterminated quote") {
			found = true
		}
	}
	assert.True(t, found)
}

func TestValidateNotEnoughColumns(t *testing.T) {
	birthdayRepo, _ := newTestRepos(t)
	svc := NewCSVService(birthdayRepo)

	result := svc.Validate(csvTestHeader + "U12345678,alice,12,25")
	assert.False(t, result.Valid)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "not enough columns")
}

func TestImportCleanBatch(t *testing.T) {
	birthdayRepo, _ := newTestRepos(t)
	svc := NewCSVService(birthdayRepo)
	ctx := context.Background()

	result := svc.Import(ctx, csvTestHeader+"U12345678,alice,Alice A,12,25\nU87654321,bob,\"Lee, Bob\",1,15")
	assert.Equal(t, 2, result.Imported)
	assert.Empty(t, result.Errors)

	birthday, err := birthdayRepo.FindByUserID(ctx, "U87654321")
	require.NoError(t, err)
	require.NotNil(t, birthday)
	assert.Equal(t, "Lee, Bob", birthday.DisplayName)
	month, day := birthday.MonthDay()
	assert.Equal(t, 1, month)
	assert.Equal(t, 15, day)
}

func TestImportRejectsWholeBatchOnHardError(t *testing.T) {
	birthdayRepo, _ := newTestRepos(t)
	svc := NewCSVService(birthdayRepo)
	ctx := context.Background()

	result := svc.Import(ctx, csvTestHeader+"U12345678,alice,Alice A,12,25\nU33333333,carl,Carl C,13,1")
	assert.Zero(t, result.Imported)
	assert.NotEmpty(t, result.Errors)

	// The valid row must not have been written either.
	birthday, err := birthdayRepo.FindByUserID(ctx, "U12345678")
	require.NoError(t, err)
	assert.Nil(t, birthday)
}

func TestImportLastRowWinsPerUser(t *testing.T) {
	birthdayRepo, _ := newTestRepos(t)
	svc := NewCSVService(birthdayRepo)
	ctx := context.Background()

	result := svc.Import(ctx, csvTestHeader+"U12345678,alice,First,1,1\nU12345678,alice,Second,6,15")
	assert.Equal(t, 2, result.Imported)

	birthday, err := birthdayRepo.FindByUserID(ctx, "U12345678")
	require.NoError(t, err)
	require.NotNil(t, birthday)
	assert.Equal(t, "Second", birthday.DisplayName)
	month, day := birthday.MonthDay()
	assert.Equal(t, 6, month)
	assert.Equal(t, 15, day)
}

func TestImportWarningsDoNotBlock(t *testing.T) {
	birthdayRepo, _ := newTestRepos(t)
	svc := NewCSVService(birthdayRepo)
	ctx := context.Background()

	result := svc.Import(ctx, csvTestHeader+"X1,alice,Alice,12,25")
	assert.Equal(t, 1, result.Imported)
	assert.Empty(t, result.Errors)
	assert.NotEmpty(t, result.Warnings)
}

func TestTemplateRoundTrips(t *testing.T) {
	birthdayRepo, _ := newTestRepos(t)
	svc := NewCSVService(birthdayRepo)

	template := svc.Template()
	assert.True(t, strings.HasPrefix(template, "User ID,"))
	assert.Contains(t, template, `"Doe, Jane"`)

	// The template must pass its own validator cleanly.
	result := svc.Validate(template)
	assert.True(t, result.Valid)
	assert.Empty(t, result.Errors)
	assert.Empty(t, result.Warnings)
}
