package bookmarks

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/khaleelElias/YA/internal/database"
	"github.com/khaleelElias/YA/internal/entities"
	"github.com/khaleelElias/YA/internal/errs"
)

func setupTestRepo(t *testing.T) *Repository {
	t.Helper()
	store, err := database.Open(context.Background(), filepath.Join(t.TempDir(), "test.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return NewRepository(store)
}

func bookmark(id, bookID, createdAt string, userID *string) *entities.Bookmark {
	cfi := "/6/4"
	return &entities.Bookmark{ID: id, BookID: bookID, CFI: &cfi, CreatedAt: createdAt, UserID: userID}
}

func TestRepository_ListForBookScopesIdentity(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()
	user := "u1"

	require.NoError(t, repo.Create(ctx, bookmark("a2", "b1", "2024-01-02T00:00:00.000000Z", nil)))
	require.NoError(t, repo.Create(ctx, bookmark("a1", "b1", "2024-01-01T00:00:00.000000Z", nil)))
	require.NoError(t, repo.Create(ctx, bookmark("u", "b1", "2024-01-01T00:00:00.000000Z", &user)))
	require.NoError(t, repo.Create(ctx, bookmark("other", "b2", "2024-01-01T00:00:00.000000Z", nil)))

	anon, err := repo.ListForBook(ctx, "b1", "")
	require.NoError(t, err)
	require.Len(t, anon, 2)
	assert.Equal(t, "a1", anon[0].ID)
	assert.Equal(t, "a2", anon[1].ID)

	mine, err := repo.ListForBook(ctx, "b1", "u1")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "u", mine[0].ID)
}

func TestRepository_GetAndDelete(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, bookmark("a1", "b1", "2024-01-01T00:00:00.000000Z", nil)))

	got, err := repo.Get(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, "b1", got.BookID)

	deleted, err := repo.Delete(ctx, "a1")
	require.NoError(t, err)
	assert.True(t, deleted)

	_, err = repo.Get(ctx, "a1")
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestRepository_DeleteForBook(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, bookmark("a1", "b1", "2024-01-01T00:00:00.000000Z", nil)))
	require.NoError(t, repo.Create(ctx, bookmark("a2", "b1", "2024-01-02T00:00:00.000000Z", nil)))

	n, err := repo.DeleteForBook(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}
