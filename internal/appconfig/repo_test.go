package appconfig

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/shipbridge-backend/pkg/db/models"
	"github.com/angelmondragon/shipbridge-backend/pkg/types"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.AppConfig{}))
	return conn
}

func TestRepositoryFindMissingRow(t *testing.T) {
	repo := NewRepository(newTestDB(t))

	record, err := repo.Find(context.Background(), 100)
	require.NoError(t, err)
	assert.Nil(t, record)
}

func TestRepositoryUpsertInsertsAndUpdates(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	ctx := context.Background()

	_, err := repo.Upsert(ctx, 100, types.JSONDocument(`{"zip":"01310-100"}`))
	require.NoError(t, err)

	record, err := repo.Find(ctx, 100)
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, `{"zip":"01310-100"}`, string(record.Data))

	_, err = repo.Upsert(ctx, 100, types.JSONDocument(`{"zip":"04001-000"}`))
	require.NoError(t, err)

	record, err = repo.Find(ctx, 100)
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, `{"zip":"04001-000"}`, string(record.Data))

	var count int64
	require.NoError(t, repo.db.Model(&models.AppConfig{}).Count(&count).Error)
	assert.Equal(t, int64(1), count, "upsert should keep a single row per store")
}

func TestRepositoryIsolatesStores(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	ctx := context.Background()

	_, err := repo.Upsert(ctx, 100, types.JSONDocument(`{"zip":"01310-100"}`))
	require.NoError(t, err)
	_, err = repo.Upsert(ctx, 200, types.JSONDocument(`{"zip":"30110-000"}`))
	require.NoError(t, err)

	record, err := repo.Find(ctx, 200)
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, `{"zip":"30110-000"}`, string(record.Data))
}
