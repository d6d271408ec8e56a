package downloads

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/khaleelElias/YA/internal/auth"
)

func TestCollectOrphans(t *testing.T) {
	env := setupTestEnv(t, nil)
	ctx := context.Background()

	path, err := env.manager.DownloadBook(ctx, epubBook("b1"), auth.AnonymousIdentity)
	require.NoError(t, err)
	cover := filepath.Join(env.docs, "covers", "b1.jpg")

	strays := []string{
		filepath.Join(env.docs, "books", "x.epub"),
		filepath.Join(env.docs, "books", "b1.epub.123456.part"),
		filepath.Join(env.docs, "covers", "x.jpg"),
	}
	for _, p := range strays {
		require.NoError(t, os.WriteFile(p, []byte("stray"), 0o644))
	}

	removed, err := env.manager.CollectOrphans(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, strays, removed)

	assert.FileExists(t, path)
	assert.FileExists(t, cover)
	for _, p := range strays {
		assert.NoFileExists(t, p)
	}
}

func TestCollectOrphans_NoDirectories(t *testing.T) {
	env := setupTestEnv(t, nil)

	removed, err := env.manager.CollectOrphans(context.Background())
	require.NoError(t, err)
	assert.Empty(t, removed)
}

func TestCollectOrphans_RelativeDocsDir(t *testing.T) {
	env := setupTestEnv(t, nil)
	ctx := context.Background()

	root := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(root))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	relative := NewManager(env.store, env.repos, env.manager.resolver, env.manager.fetcher, "data", zap.NewNop())
	path, err := relative.DownloadBook(ctx, epubBook("b1"), auth.AnonymousIdentity)
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(path))

	record, err := env.repos.Books.Get(ctx, "b1")
	require.NoError(t, err)
	require.NotNil(t, record.EPUBURI)
	require.NotNil(t, record.CoverURI)
	assert.True(t, filepath.IsAbs(*record.EPUBURI))
	assert.True(t, filepath.IsAbs(*record.CoverURI))

	absRoot, err := filepath.Abs("data")
	require.NoError(t, err)
	absolute := NewManager(env.store, env.repos, env.manager.resolver, env.manager.fetcher, absRoot, zap.NewNop())
	removed, err := absolute.CollectOrphans(ctx)
	require.NoError(t, err)
	assert.Empty(t, removed)
	assert.FileExists(t, *record.EPUBURI)
	assert.FileExists(t, *record.CoverURI)
}

func TestCollectOrphans_MatchesRelativeStoredPaths(t *testing.T) {
	env := setupTestEnv(t, nil)
	ctx := context.Background()

	root := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(root))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	path, err := env.manager.DownloadBook(ctx, epubBook("b1"), auth.AnonymousIdentity)
	require.NoError(t, err)

	cwd, err := os.Getwd()
	require.NoError(t, err)
	rel, err := filepath.Rel(cwd, path)
	require.NoError(t, err)
	db, err := env.store.DB(ctx)
	require.NoError(t, err)
	require.NoError(t, db.Exec("UPDATE local_books SET epub_uri = ? WHERE id = ?", rel, "b1").Error)

	removed, err := env.manager.CollectOrphans(ctx)
	require.NoError(t, err)
	assert.NotContains(t, removed, path)
	assert.FileExists(t, path)
}
