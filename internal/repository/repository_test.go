package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"birthdaybot/internal/date"
	"birthdaybot/internal/model"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.Birthday{}, &model.ConfigEntry{}))
	return db
}

func TestConfigRepositoryGetAbsentKey(t *testing.T) {
	repo := NewConfigRepository(newTestDB(t))

	value, err := repo.Get(context.Background(), "missing")
	require.NoError(t, err)
	assert.Empty(t, value)
}

func TestConfigRepositorySetOverwrites(t *testing.T) {
	repo := NewConfigRepository(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, model.KeyChannelName, "general"))
	require.NoError(t, repo.Set(ctx, model.KeyChannelName, "party"))

	value, err := repo.Get(ctx, model.KeyChannelName)
	require.NoError(t, err)
	assert.Equal(t, "party", value)
}

func TestConfigRepositorySetIfAbsent(t *testing.T) {
	repo := NewConfigRepository(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.SetIfAbsent(ctx, model.KeyChannelName, "general"))
	require.NoError(t, repo.SetIfAbsent(ctx, model.KeyChannelName, "other"))

	value, err := repo.Get(ctx, model.KeyChannelName)
	require.NoError(t, err)
	assert.Equal(t, "general", value)
}

func TestBirthdayRepositoryUpsertOverwrites(t *testing.T) {
	repo := NewBirthdayRepository(newTestDB(t))
	ctx := context.Background()

	first, err := date.Normalize(1, 1)
	require.NoError(t, err)
	second, err := date.Normalize(6, 15)
	require.NoError(t, err)

	require.NoError(t, repo.Upsert(ctx, &model.Birthday{UserID: "U1", Username: "old", Birthdate: first}))
	require.NoError(t, repo.Upsert(ctx, &model.Birthday{UserID: "U1", Username: "new", Birthdate: second}))

	birthday, err := repo.FindByUserID(ctx, "U1")
	require.NoError(t, err)
	require.NotNil(t, birthday)
	assert.Equal(t, "new", birthday.Username)
	assert.Equal(t, second, birthday.Birthdate)
}

func TestBirthdayRepositoryFindByDate(t *testing.T) {
	repo := NewBirthdayRepository(newTestDB(t))
	ctx := context.Background()

	target, err := date.Normalize(6, 10)
	require.NoError(t, err)
	other, err := date.Normalize(6, 11)
	require.NoError(t, err)

	require.NoError(t, repo.Upsert(ctx, &model.Birthday{UserID: "U1", Birthdate: target}))
	require.NoError(t, repo.Upsert(ctx, &model.Birthday{UserID: "U2", Birthdate: other}))
	require.NoError(t, repo.Upsert(ctx, &model.Birthday{UserID: "U3", Birthdate: target}))

	matches, err := repo.FindByDate(ctx, target)
	require.NoError(t, err)
	require.Len(t, matches, 2)
}

func TestBirthdayRepositoryDeleteReportsExistence(t *testing.T) {
	repo := NewBirthdayRepository(newTestDB(t))
	ctx := context.Background()

	canonical, err := date.Normalize(3, 3)
	require.NoError(t, err)
	require.NoError(t, repo.Upsert(ctx, &model.Birthday{UserID: "U1", Birthdate: canonical}))

	existed, err := repo.Delete(ctx, "U1")
	require.NoError(t, err)
	assert.True(t, existed)

	existed, err = repo.Delete(ctx, "U1")
	require.NoError(t, err)
	assert.False(t, existed)
}
