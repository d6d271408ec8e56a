package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khaleelElias/YA/internal/database"
)

type brokenStore struct{}

func (brokenStore) Ping(context.Context) error           { return errors.New("database is locked") }
func (brokenStore) Version(context.Context) (int, error) { return 0, errors.New("database is locked") }
func (brokenStore) Reset(context.Context) error          { return errors.New("database is locked") }

func TestHealthController_Status(t *testing.T) {
	t.Run("healthy store reports schema version", func(t *testing.T) {
		router := gin.New()
		router.GET("/health", NewHealthController(HealthOptions{
			Store:   setupTestStore(t),
			DataDir: t.TempDir(),
			Version: "1.2.3",
		}).Status)

		w := doRequest(router, http.MethodGet, "/health", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var resp HealthResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "healthy", resp.Status)
		assert.Equal(t, "1.2.3", resp.Version)
		assert.Equal(t, "ok", resp.Checks["database"])
		assert.Equal(t, strconv.Itoa(database.LatestVersion), resp.Checks["schema_version"])
		assert.Equal(t, "ok", resp.Checks["data_dir"])
		assert.Equal(t, "disabled", resp.Checks["tasks"])
		assert.NotEmpty(t, resp.Uptime)
	})

	t.Run("broken store is unhealthy", func(t *testing.T) {
		router := gin.New()
		router.GET("/health", NewHealthController(HealthOptions{Store: brokenStore{}, Version: "dev"}).Status)

		w := doRequest(router, http.MethodGet, "/health", nil)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Contains(t, w.Body.String(), "database is locked")
	})

	t.Run("no store configured", func(t *testing.T) {
		router := gin.New()
		router.GET("/health", NewHealthController(HealthOptions{TasksEnabled: true}).Status)

		w := doRequest(router, http.MethodGet, "/health", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "not configured")
		assert.Contains(t, w.Body.String(), `"tasks": "enabled"`)
	})

	t.Run("data dir not created yet is healthy", func(t *testing.T) {
		router := gin.New()
		router.GET("/health", NewHealthController(HealthOptions{
			DataDir: filepath.Join(t.TempDir(), "missing"),
		}).Status)

		w := doRequest(router, http.MethodGet, "/health", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "not created")
	})

	t.Run("data dir that is a file is unhealthy", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "docs")
		require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

		router := gin.New()
		router.GET("/health", NewHealthController(HealthOptions{DataDir: path}).Status)

		w := doRequest(router, http.MethodGet, "/health", nil)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Contains(t, w.Body.String(), "not a directory")
	})
}
