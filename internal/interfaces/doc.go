// Package interfaces documents the core abstractions used throughout the application.
//
// This package consolidates interface documentation so the extension points
// are listed in one place. checks.go asserts at compile time that the
// concrete types satisfy them.
//
// # Interface Categories
//
// ## Data Access Interfaces
//
//   - database.Conn: lazily opened connection handed to repositories (internal/database/query.go)
//   - progress.Store: position persistence (internal/progress/tracker.go)
//   - http.LocalStore: ping, schema version and reset of the local store (internal/http/stores.go)
//   - http.UnsyncedProgressReader, http.SyncQueueReader: pending sync state (internal/http/stores.go)
//
// ## Catalog Interfaces
//
//   - catalog.Catalog: published book queries (internal/catalog/catalog.go)
//   - catalog.FileURLResolver: storage path to download URL (internal/catalog/resolver.go)
//   - auth.ProfileFetcher: profile lookup after sign-in (internal/auth/state.go)
//
// ## Download Interfaces
//
//   - transfer.Fetcher: streams a URL to a file (internal/transfer/fetcher.go)
//   - http.BookDownloader, tasks.Downloads: download manager surfaces
//   - scheduler.OrphanCollector: orphan file removal (internal/scheduler/orphan_gc.go)
//
// ## Reading Interfaces
//
//   - progress.Locator: marker to percent complete (internal/progress/locator.go)
//   - progress.Scheduler: debounce timer (internal/progress/scheduler.go)
//   - http.PositionTracker, http.BookmarkStore: reader state (internal/http/stores.go)
//
// # Adding a New Storage Backend
//
// To resolve content files from another object store, implement
// FileURLResolver in internal/catalog/ and select it from a new
// config.StorageBackend value in entrypoint/app.go:
//
//	type GCSResolver struct {
//		client *storage.Client
//	}
//
//	func (r *GCSResolver) ResolveFileURL(ctx context.Context, path string) *string
//	func (r *GCSResolver) ResolveCoverURL(ctx context.Context, path string) *string
//
//	var _ FileURLResolver = (*GCSResolver)(nil)
//
// # Adding a New Percent Source
//
// Percent complete comes from a Locator. A renderer that reports its own
// percentage can be plugged in without touching the tracker:
//
//	type ReportedLocator struct { ... }
//
//	func (l *ReportedLocator) Percent(bookID, marker string) (int, bool)
//
//	var _ progress.Locator = (*ReportedLocator)(nil)
//
// # Adding a New Database Domain
//
//  1. Create sub-package: internal/database/<domain>/
//
//  2. Define repository over a database.Conn:
//
//     type Repository struct { conn database.Conn }
//
//     func NewRepository(conn database.Conn) *Repository
//     func (r *Repository) WithTx(tx *gorm.DB) *Repository
//
//  3. Add the table to schema.go and a migration step to migrations.go
//
//  4. Add compile-time check:
//
//     var _ SomeStore = (*Repository)(nil)
//
// # Compile-Time Interface Checks
//
// All implementations should include compile-time checks to ensure they satisfy
// their interfaces:
//
//	var _ SomeInterface = (*MyImplementation)(nil)
//
// See checks.go for examples.
package interfaces
