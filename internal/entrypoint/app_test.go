package entrypoint

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/khaleelElias/YA/internal/auth"
	"github.com/khaleelElias/YA/internal/config"
	"github.com/khaleelElias/YA/internal/tasks"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestNewApp(t *testing.T) {
	cfg := config.NewForTest(t.TempDir())
	ctx := context.Background()

	app, err := NewApp(ctx, cfg, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, app.Start(ctx))

	assert.NotNil(t, app.Profiles, "a configured catalog URL uses the hosted client")
	assert.Nil(t, app.Tasks, "task queue disabled in test config")
	assert.False(t, app.GC.IsRunning())
	assert.IsType(t, auth.Anonymous{}, app.Session.State(), "no stored token starts anonymous")

	router := app.Router("test")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/downloads?async=true", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	require.NoError(t, app.Close(ctx))
}

func TestNewApp_WithTasks(t *testing.T) {
	cfg := config.NewForTest(t.TempDir())
	cfg.Tasks.Enabled = true
	cfg.Catalog.URL = ""
	ctx := context.Background()

	app, err := NewApp(ctx, cfg, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, app.Start(ctx))

	assert.Nil(t, app.Profiles, "no catalog URL falls back to the offline catalog")
	assert.NotNil(t, app.Tasks)
	_, err = os.Stat(tasks.PathFor(cfg.Database.Path))
	assert.NoError(t, err, "task database sits next to the local store")

	require.NoError(t, app.Close(ctx))
}

func TestNewResolver(t *testing.T) {
	cfg := config.NewForTest(t.TempDir())

	cfg.Catalog.StorageBackend = config.StorageBackendPublic
	r, err := newResolver(cfg, zap.NewNop())
	require.NoError(t, err)
	assert.NotNil(t, r)

	cfg.Catalog.StorageBackend = config.StorageBackendMinio
	cfg.Minio.Endpoint = "localhost:9000"
	r, err = newResolver(cfg, zap.NewNop())
	require.NoError(t, err)
	assert.NotNil(t, r)

	cfg.Catalog.StorageBackend = "ftp"
	_, err = newResolver(cfg, zap.NewNop())
	assert.Error(t, err)
}

func TestApp_RestoreSession(t *testing.T) {
	cfg := config.NewForTest(t.TempDir())
	cfg.Catalog.URL = ""
	cfg.Auth.JWTSecret = "secret"
	cfg.Auth.AccessToken = "not-a-token"
	ctx := context.Background()

	app, err := NewApp(ctx, cfg, zap.NewNop())
	require.NoError(t, err)
	defer app.Close(ctx)

	assert.IsType(t, auth.Loading{}, app.Session.State())
	state := app.RestoreSession(ctx)
	assert.IsType(t, auth.Anonymous{}, state)
}
