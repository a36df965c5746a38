package service

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"birthdaybot/internal/model"
	"birthdaybot/internal/repository"
)

// newTestRepos opens an isolated in-memory database per test.
func newTestRepos(t *testing.T) (*repository.BirthdayRepository, *repository.ConfigRepository) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(&model.Birthday{}, &model.ConfigEntry{}))

	return repository.NewBirthdayRepository(db), repository.NewConfigRepository(db)
}

// newBrokenConfigRepo returns a config repository whose every query fails,
// for exercising persistence-failure paths.
func newBrokenConfigRepo(t *testing.T) *repository.ConfigRepository {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	return repository.NewConfigRepository(db)
}
