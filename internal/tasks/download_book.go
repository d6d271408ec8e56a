package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mikestefanello/backlite"
	"go.uber.org/zap"

	"github.com/khaleelElias/YA/internal/auth"
	"github.com/khaleelElias/YA/internal/entities"
	"github.com/khaleelElias/YA/internal/errs"
)

// BookDownloader performs the download of one book.
type BookDownloader interface {
	DownloadBook(ctx context.Context, book *entities.Book, owner auth.Identity) (string, error)
}

// DownloadQueue is the download manager surface the enqueuer needs.
type DownloadQueue interface {
	MarkQueued(ctx context.Context, book *entities.Book) error
	MarkFailed(ctx context.Context, bookID string, cause error) error
}

// DownloadBookTask downloads a catalog book in the background.
type DownloadBookTask struct {
	Book   entities.Book `json:"book"`
	UserID string        `json:"user_id,omitempty"`
}

// Config returns the queue configuration for download tasks.
func (t DownloadBookTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "download_book",
		MaxAttempts: 3,
		Backoff:     time.Minute,
		Timeout:     10 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// DownloadBookProcessor creates a processor function for DownloadBookTask.
// A book that is already local or has no file is not retried.
func DownloadBookProcessor(downloader BookDownloader, logger *zap.Logger) backlite.QueueProcessor[DownloadBookTask] {
	return func(ctx context.Context, task DownloadBookTask) error {
		if downloader == nil {
			return fmt.Errorf("downloader not configured")
		}

		path, err := downloader.DownloadBook(ctx, &task.Book, auth.User(task.UserID))
		switch {
		case errors.Is(err, errs.ErrAlreadyDownloaded), errors.Is(err, errs.ErrMissingFile):
			logger.Info("Skipping queued download",
				zap.String("book_id", task.Book.ID),
				zap.String("reason", errs.Kind(err)))
			return nil
		case err != nil:
			return fmt.Errorf("download book %s: %w", task.Book.ID, err)
		}

		logger.Info("Downloaded queued book",
			zap.String("book_id", task.Book.ID),
			zap.String("path", path))
		return nil
	}
}

// NewDownloadBookQueue creates a backlite queue for download tasks.
func NewDownloadBookQueue(downloader BookDownloader, logger *zap.Logger) backlite.Queue {
	return backlite.NewQueue(DownloadBookProcessor(downloader, logger))
}
