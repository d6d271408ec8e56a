package http

import (
	"context"
	"time"

	"github.com/khaleelElias/YA/internal/auth"
	"github.com/khaleelElias/YA/internal/bookmarks"
	"github.com/khaleelElias/YA/internal/entities"
	"github.com/khaleelElias/YA/internal/progress"
	"github.com/khaleelElias/YA/internal/scheduler"
)

// This file consolidates the interfaces HTTP controllers depend on. Each
// controller takes only what it uses; internal/interfaces checks that the
// concrete types satisfy them.

// BookDownloader is the download manager surface.
type BookDownloader interface {
	DownloadBook(ctx context.Context, book *entities.Book, owner auth.Identity) (string, error)
	IsBookDownloaded(ctx context.Context, bookID string) bool
	DeleteBook(ctx context.Context, bookID string) error
	GetDownloadedBooks(ctx context.Context) ([]entities.Book, error)
	Record(ctx context.Context, bookID string) (*entities.LocalBook, error)
	Status(ctx context.Context, bookID string) (*entities.DownloadQueueEntry, error)
	Queue(ctx context.Context, status entities.DownloadStatus) ([]entities.DownloadQueueEntry, error)
	Touch(ctx context.Context, bookID string) error
	LocalPath(ctx context.Context, bookID string) (string, error)
}

// DownloadEnqueuer hands a download to the background task queue.
type DownloadEnqueuer interface {
	Enqueue(ctx context.Context, book *entities.Book, owner auth.Identity) (string, error)
}

// PositionTracker records and restores reading positions.
type PositionTracker interface {
	RecordPosition(bookID string, identity auth.Identity, marker string, fallback progress.Fallback, page *progress.PageInfo)
	GetLastPosition(ctx context.Context, bookID string, identity auth.Identity) (*progress.Position, error)
	Flush(ctx context.Context, bookID string, identity auth.Identity) error
}

// LocationStore receives location breakpoints generated by the renderer.
type LocationStore interface {
	SetLocations(bookID string, locations []string) error
}

// BookmarkStore manages bookmarks.
type BookmarkStore interface {
	Create(ctx context.Context, bookID string, identity auth.Identity, in bookmarks.Input) (*entities.Bookmark, error)
	List(ctx context.Context, bookID string, identity auth.Identity) ([]entities.Bookmark, error)
	Delete(ctx context.Context, id string, identity auth.Identity) error
}

// UnsyncedProgressReader lists progress rows not yet synced.
type UnsyncedProgressReader interface {
	ListUnsynced(ctx context.Context, limit int) ([]entities.ReadingProgress, error)
}

// SyncQueueReader reads the outbound sync queue.
type SyncQueueReader interface {
	Pending(ctx context.Context, limit int) ([]entities.SyncQueueEntry, error)
	Count(ctx context.Context) (int64, error)
}

// LocalStore is the lifecycle surface of the local database.
type LocalStore interface {
	Ping(ctx context.Context) error
	Version(ctx context.Context) (int, error)
	Reset(ctx context.Context) error
}

// OrphanCollector triggers orphan file collection and reports its schedule.
type OrphanCollector interface {
	RunNow()
	IsRunning() bool
	GetNextRunTime() *time.Time
	LastRun() *scheduler.RunResult
}
