package syncqueue

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/khaleelElias/YA/internal/database"
	"github.com/khaleelElias/YA/internal/entities"
)

func setupTestRepo(t *testing.T) *Repository {
	t.Helper()
	store, err := database.Open(context.Background(), filepath.Join(t.TempDir(), "test.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return NewRepository(store)
}

func TestRepository_AppendAndPending(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	first, err := repo.Append(ctx, "local_bookmarks", "bm1", entities.SyncOperationInsert, map[string]string{"id": "bm1"})
	require.NoError(t, err)
	assert.NotZero(t, first.ID)

	_, err = repo.Append(ctx, "local_bookmarks", "bm1", entities.SyncOperationDelete, map[string]string{"id": "bm1"})
	require.NoError(t, err)

	pending, err := repo.Pending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, entities.SyncOperationInsert, pending[0].Operation)
	assert.Equal(t, entities.SyncOperationDelete, pending[1].Operation)
	assert.Equal(t, "local_bookmarks", pending[0].Table)
	assert.JSONEq(t, `{"id":"bm1"}`, pending[0].Payload)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestRepository_RetryAndRemove(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	entry, err := repo.Append(ctx, "local_bookmarks", "bm1", entities.SyncOperationInsert, nil)
	require.NoError(t, err)

	require.NoError(t, repo.IncrementRetry(ctx, entry.ID))
	require.NoError(t, repo.IncrementRetry(ctx, entry.ID))

	pending, err := repo.Pending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, 2, pending[0].RetryCount)

	require.NoError(t, repo.Remove(ctx, entry.ID))
	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}
