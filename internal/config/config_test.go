package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewConfig_Defaults(t *testing.T) {
	t.Setenv("DATA_DIR", "/tmp/yazidi")

	cfg := NewConfig()

	assert.Equal(t, "/tmp/yazidi", cfg.Database.DataDir)
	assert.Equal(t, filepath.Join("/tmp/yazidi", DatabaseName), cfg.Database.Path)
	assert.Equal(t, time.Second, cfg.Progress.Debounce)
	assert.Equal(t, DefaultFilesBucket, cfg.Catalog.FilesBucket)
	assert.Equal(t, DefaultCoversBucket, cfg.Catalog.CoversBucket)
	assert.Equal(t, StorageBackendPublic, cfg.Catalog.StorageBackend)
	assert.Equal(t, "0 3 * * *", cfg.GC.Schedule)
	assert.Equal(t, filepath.Join("/tmp/yazidi", "books"), cfg.BooksDir())
	assert.Zero(t, cfg.HTTP.HSTSMaxAge)
	assert.Empty(t, cfg.Auth.AccessToken)
}

func TestNewConfig_EnvOverrides(t *testing.T) {
	t.Setenv("DATABASE_PATH", "/var/lib/library.db")
	t.Setenv("PROGRESS_DEBOUNCE", "250ms")
	t.Setenv("STORAGE_BACKEND", "minio")
	t.Setenv("TASK_WORKERS", "3")
	t.Setenv("CATALOG_FIXTURE", "./demo/catalog.json")
	t.Setenv("AUTH_ACCESS_TOKEN", "stored-token")
	t.Setenv("HTTP_HSTS_MAX_AGE", "31536000")

	cfg := NewConfig()

	assert.Equal(t, "/var/lib/library.db", cfg.Database.Path)
	assert.Equal(t, 250*time.Millisecond, cfg.Progress.Debounce)
	assert.Equal(t, StorageBackendMinio, cfg.Catalog.StorageBackend)
	assert.Equal(t, 3, cfg.Tasks.Workers)
	assert.Equal(t, "./demo/catalog.json", cfg.Catalog.Fixture)
	assert.Equal(t, "stored-token", cfg.Auth.AccessToken)
	assert.Equal(t, 31536000, cfg.HTTP.HSTSMaxAge)
}

func TestNewForTest(t *testing.T) {
	dir := t.TempDir()
	cfg := NewForTest(dir)

	assert.Equal(t, filepath.Join(dir, DatabaseName), cfg.Database.Path)
	assert.False(t, cfg.Tasks.Enabled)
	assert.False(t, cfg.GC.Enabled)
}
