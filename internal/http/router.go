package http

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/khaleelElias/YA/internal/auth"
	"github.com/khaleelElias/YA/internal/catalog"
)

// RouterConfig holds all dependencies needed to build the router. Optional
// dependencies may be nil; their routes are then not registered.
type RouterConfig struct {
	Catalog    catalog.Catalog
	Downloads  BookDownloader
	Enqueuer   DownloadEnqueuer // nil when the task queue is disabled
	Tracker    PositionTracker
	Locations  LocationStore
	Bookmarks  BookmarkStore
	Progress   UnsyncedProgressReader
	SyncQueue  SyncQueueReader
	Store      LocalStore
	DataDir    string
	Session    *auth.Session       // nil leaves tokenless requests anonymous
	Profiles   auth.ProfileFetcher // optional, used on sign-in
	HSTSMaxAge int
	Collector  OrphanCollector // nil when orphan collection is disabled
	JWTSecret  string
	Version    string
	Logger     *zap.Logger
}

// NewRouter creates a Gin router with every API route registered.
func NewRouter(cfg RouterConfig) *gin.Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(Recovery(logger))
	router.Use(RequestLogger(logger.Named("http")))
	router.Use(auth.SecurityHeadersMiddleware())
	if cfg.HSTSMaxAge > 0 {
		router.Use(auth.StrictTransportSecurityMiddleware(cfg.HSTSMaxAge))
	}

	health := NewHealthController(HealthOptions{
		Store:        cfg.Store,
		DataDir:      cfg.DataDir,
		TasksEnabled: cfg.Enqueuer != nil,
		Version:      cfg.Version,
	})
	router.GET("/health", health.Status)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	api := router.Group("/api")
	identity := auth.NewMiddleware(cfg.JWTSecret, logger)
	if cfg.Session != nil {
		identity.WithSession(cfg.Session)
	}
	api.Use(identity.Handler())

	if cfg.Session != nil {
		sc := NewSessionController(cfg.Session, cfg.JWTSecret, cfg.Profiles, logger)
		api.GET("/session", sc.Get)
		api.POST("/session", sc.SignIn)
		api.DELETE("/session", sc.SignOut)
	}

	if cfg.Catalog != nil {
		cc := NewCatalogController(cfg.Catalog, logger)
		api.GET("/catalog/books", cc.ListBooks)
		api.GET("/catalog/books/:id", cc.GetBook)
		api.GET("/catalog/translations/:groupId", cc.GetTranslations)
		api.GET("/catalog/categories", cc.Categories)
	}

	if cfg.Downloads != nil {
		dc := NewDownloadsController(cfg.Downloads, cfg.Enqueuer, cfg.Catalog, logger)
		api.GET("/downloads", dc.ListDownloaded)
		api.POST("/downloads", dc.Download)
		api.GET("/downloads/queue", dc.ListQueue)
		api.GET("/downloads/:id", dc.GetStatus)
		api.DELETE("/downloads/:id", dc.Delete)
		api.POST("/downloads/:id/open", dc.Open)
	}

	if cfg.Tracker != nil {
		pc := NewProgressController(cfg.Tracker, cfg.Locations, logger)
		api.GET("/progress/:bookId", pc.GetPosition)
		api.PUT("/progress/:bookId", pc.RecordPosition)
		api.POST("/progress/:bookId/flush", pc.Flush)
		api.POST("/progress/:bookId/locations", pc.SetLocations)
	}

	if cfg.Bookmarks != nil {
		bc := NewBookmarksController(cfg.Bookmarks, logger)
		api.GET("/bookmarks/:bookId", bc.List)
		api.POST("/bookmarks/:bookId", bc.Create)
		api.DELETE("/bookmarks/item/:id", bc.Delete)
	}

	if cfg.Progress != nil && cfg.SyncQueue != nil {
		sc := NewSyncController(cfg.Progress, cfg.SyncQueue, logger)
		api.GET("/sync/pending", sc.Pending)
	}

	if cfg.Store != nil {
		ac := NewAdminController(cfg.Store, cfg.Collector, logger)
		admin := api.Group("/admin")
		admin.POST("/reset", ac.Reset)
		admin.GET("/gc", ac.GCStatus)
		admin.POST("/gc", ac.CollectOrphans)
	}

	return router
}
