package entrypoint

import (
	"context"
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/khaleelElias/YA/internal/auth"
	"github.com/khaleelElias/YA/internal/bookmarks"
	"github.com/khaleelElias/YA/internal/catalog"
	"github.com/khaleelElias/YA/internal/config"
	"github.com/khaleelElias/YA/internal/database"
	progressrepo "github.com/khaleelElias/YA/internal/database/progress"
	"github.com/khaleelElias/YA/internal/database/syncqueue"
	"github.com/khaleelElias/YA/internal/downloads"
	http_controllers "github.com/khaleelElias/YA/internal/http"
	"github.com/khaleelElias/YA/internal/progress"
	"github.com/khaleelElias/YA/internal/scheduler"
	"github.com/khaleelElias/YA/internal/tasks"
	"github.com/khaleelElias/YA/internal/transfer"
)

// App holds every long-lived component. The CLI and the HTTP server share it.
type App struct {
	Config *config.Config
	Logger *zap.Logger

	Store     *database.Store
	Catalog   catalog.Catalog
	Profiles  *catalog.Client // nil when no catalog URL is configured
	Resolver  catalog.FileURLResolver
	Downloads *downloads.Manager
	Locator   *progress.LocationsLocator
	Tracker   *progress.Tracker
	Progress  *progressrepo.Repository
	SyncQueue *syncqueue.Repository
	Bookmarks *bookmarks.Service
	Session   *auth.Session

	Tasks *tasks.Queue // nil when the task queue is disabled
	GC    *scheduler.GCScheduler

	cancelWorkers context.CancelFunc
}

// NewApp opens the local store and builds every component. Background
// workers are not started; see Start.
func NewApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	store, err := database.Open(ctx, cfg.Database.Path, logger)
	if err != nil {
		return nil, fmt.Errorf("open local store: %w", err)
	}

	app := &App{Config: cfg, Logger: logger, Store: store}
	if err := app.build(); err != nil {
		_ = store.Close()
		return nil, err
	}
	return app, nil
}

func (a *App) build() error {
	cfg := a.Config

	switch {
	case cfg.Catalog.URL == "" && cfg.Catalog.Fixture != "":
		fixture, err := catalog.LoadFixture(cfg.Catalog.Fixture)
		if err != nil {
			return err
		}
		a.Logger.Info("Serving offline catalog fixture", zap.String("path", cfg.Catalog.Fixture))
		a.Catalog = fixture
	case cfg.Catalog.URL == "":
		a.Logger.Warn("CATALOG_URL is not set, serving an empty offline catalog")
		a.Catalog = catalog.NewInMemory()
	default:
		a.Profiles = catalog.NewClient(cfg.Catalog.URL, cfg.Catalog.AnonKey, cfg.Catalog.Timeout, a.Logger)
		a.Catalog = a.Profiles
	}

	resolver, err := newResolver(cfg, a.Logger)
	if err != nil {
		return err
	}
	a.Resolver = resolver

	fetcher := transfer.NewHTTPFetcher(cfg.Transfer.Timeout)
	a.Downloads = downloads.NewManager(a.Store, downloads.NewRepos(a.Store), resolver, fetcher, cfg.Database.DataDir, a.Logger)

	a.Progress = progressrepo.NewRepository(a.Store)
	a.SyncQueue = syncqueue.NewRepository(a.Store)
	a.Locator = progress.NewLocationsLocator()
	a.Downloads.OnDelete(a.Locator.Forget)
	a.Tracker = progress.NewTracker(a.Progress, a.Locator, nil, cfg.Progress.Debounce, a.Logger)
	a.Bookmarks = bookmarks.NewService(a.Store, a.Logger)
	a.Session = auth.NewSession()

	if cfg.Tasks.Enabled {
		taskCfg := tasks.Config{
			Workers:         cfg.Tasks.Workers,
			ReleaseAfter:    cfg.Tasks.ReleaseAfter,
			CleanupInterval: cfg.Tasks.CleanupInterval,
		}
		q, err := tasks.Open(tasks.PathFor(cfg.Database.Path), taskCfg, a.Downloads, a.Logger)
		if err != nil {
			return fmt.Errorf("initialize task queue: %w", err)
		}
		a.Tasks = q
	}

	a.GC = scheduler.NewGCScheduler(a.Downloads, cfg.GC.Enabled, cfg.GC.Schedule, a.Logger)
	return nil
}

func newResolver(cfg *config.Config, logger *zap.Logger) (catalog.FileURLResolver, error) {
	switch cfg.Catalog.StorageBackend {
	case config.StorageBackendMinio:
		r, err := catalog.NewMinioResolver(catalog.MinioOptions{
			Endpoint:     cfg.Minio.Endpoint,
			AccessKey:    cfg.Minio.AccessKey,
			SecretKey:    cfg.Minio.SecretKey,
			Region:       cfg.Minio.Region,
			UseSSL:       cfg.Minio.UseSSL,
			FilesBucket:  cfg.Catalog.FilesBucket,
			CoversBucket: cfg.Catalog.CoversBucket,
			Expiry:       cfg.Minio.PresignExpiry,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("initialize minio resolver: %w", err)
		}
		logger.Info("Resolving files through S3-compatible storage", zap.String("endpoint", cfg.Minio.Endpoint))
		return r, nil
	case config.StorageBackendPublic, "":
		return catalog.NewPublicResolver(cfg.Catalog.URL, cfg.Catalog.FilesBucket, cfg.Catalog.CoversBucket), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Catalog.StorageBackend)
	}
}

// Start resolves the sign-in state and launches the task workers and the
// orphan collection schedule.
func (a *App) Start(ctx context.Context) error {
	a.RestoreSession(ctx)
	ctx, a.cancelWorkers = context.WithCancel(ctx)
	if a.Tasks != nil {
		a.Tasks.Start(ctx)
	}
	return a.GC.Start(ctx)
}

// RestoreSession moves the session out of Loading using the configured
// access token. An invalid token leaves the app anonymous.
func (a *App) RestoreSession(ctx context.Context) auth.State {
	var profiles auth.ProfileFetcher
	if a.Profiles != nil {
		profiles = a.Profiles
	}
	state, err := a.Session.Restore(ctx, a.Config.Auth.AccessToken, a.Config.Auth.JWTSecret, profiles)
	if err != nil {
		a.Logger.Warn("Stored access token rejected, continuing anonymously", zap.Error(err))
	}
	a.Logger.Info("Session restored", zap.String("state", state.Name()))
	return state
}

// Router builds the HTTP router over the app's components.
func (a *App) Router(version string) *gin.Engine {
	routerCfg := http_controllers.RouterConfig{
		Catalog:    a.Catalog,
		Downloads:  a.Downloads,
		Tracker:    a.Tracker,
		Locations:  a.Locator,
		Bookmarks:  a.Bookmarks,
		Progress:   a.Progress,
		SyncQueue:  a.SyncQueue,
		Store:      a.Store,
		DataDir:    a.Config.Database.DataDir,
		Session:    a.Session,
		HSTSMaxAge: a.Config.HTTP.HSTSMaxAge,
		Collector:  a.GC,
		JWTSecret:  a.Config.Auth.JWTSecret,
		Version:    version,
		Logger:     a.Logger,
	}
	// Typed nils in interface fields would not compare equal to nil.
	if a.Tasks != nil {
		routerCfg.Enqueuer = a.Tasks
	}
	if a.Profiles != nil {
		routerCfg.Profiles = a.Profiles
	}
	return http_controllers.NewRouter(routerCfg)
}

// Close flushes open reading sessions, stops background work and closes the
// local store.
func (a *App) Close(ctx context.Context) error {
	var errList []error
	if err := a.Tracker.FlushAll(ctx); err != nil {
		errList = append(errList, err)
	}
	a.GC.Stop()
	if a.Tasks != nil {
		if err := a.Tasks.Close(ctx); err != nil {
			errList = append(errList, fmt.Errorf("close task queue: %w", err))
		}
	}
	if a.cancelWorkers != nil {
		a.cancelWorkers()
	}
	if err := a.Store.Close(); err != nil {
		errList = append(errList, fmt.Errorf("close local store: %w", err))
	}
	return errors.Join(errList...)
}
