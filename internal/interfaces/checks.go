package interfaces

// This file contains compile-time interface implementation checks.
// These ensure that concrete types satisfy their interfaces at compile time,
// catching missing methods before runtime.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/khaleelElias/YA/internal/auth"
	"github.com/khaleelElias/YA/internal/bookmarks"
	"github.com/khaleelElias/YA/internal/catalog"
	"github.com/khaleelElias/YA/internal/database"
	progressrepo "github.com/khaleelElias/YA/internal/database/progress"
	"github.com/khaleelElias/YA/internal/database/syncqueue"
	"github.com/khaleelElias/YA/internal/downloads"
	"github.com/khaleelElias/YA/internal/http"
	"github.com/khaleelElias/YA/internal/progress"
	"github.com/khaleelElias/YA/internal/scheduler"
	"github.com/khaleelElias/YA/internal/tasks"
	"github.com/khaleelElias/YA/internal/transfer"
)

// =============================================================================
// Data Access Layer
// =============================================================================

var _ database.Conn = (*database.Store)(nil)
var _ http.LocalStore = (*database.Store)(nil)

// Position persistence
var _ progress.Store = (*progressrepo.Repository)(nil)
var _ http.UnsyncedProgressReader = (*progressrepo.Repository)(nil)

var _ http.SyncQueueReader = (*syncqueue.Repository)(nil)

// =============================================================================
// Catalog
// =============================================================================

var _ catalog.Catalog = (*catalog.Client)(nil)
var _ catalog.Catalog = (*catalog.InMemory)(nil)
var _ auth.ProfileFetcher = (*catalog.Client)(nil)

// FileURLResolver implementations
var _ catalog.FileURLResolver = (*catalog.PublicResolver)(nil)
var _ catalog.FileURLResolver = (*catalog.MinioResolver)(nil)

// =============================================================================
// Downloads
// =============================================================================

var _ transfer.Fetcher = (*transfer.HTTPFetcher)(nil)

var _ http.BookDownloader = (*downloads.Manager)(nil)
var _ tasks.Downloads = (*downloads.Manager)(nil)
var _ scheduler.OrphanCollector = (*downloads.Manager)(nil)
var _ http.DownloadEnqueuer = (*tasks.Queue)(nil)
var _ http.OrphanCollector = (*scheduler.GCScheduler)(nil)

// =============================================================================
// Reading
// =============================================================================

var _ http.PositionTracker = (*progress.Tracker)(nil)
var _ http.LocationStore = (*progress.LocationsLocator)(nil)
var _ progress.Locator = (*progress.LocationsLocator)(nil)
var _ progress.Scheduler = progress.TimerScheduler{}

var _ http.BookmarkStore = (*bookmarks.Service)(nil)
