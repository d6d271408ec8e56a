// Package downloads provides database operations for the download queue.
//
// The queue holds one row per book. The synchronous download path moves a
// row through downloading to completed or failed; pending is written when a
// download is handed to the background task queue.
package downloads

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/khaleelElias/YA/internal/database"
	"github.com/khaleelElias/YA/internal/entities"
	"github.com/khaleelElias/YA/internal/errs"
)

// Repository handles download_queue operations.
type Repository struct {
	conn database.Conn
}

// NewRepository creates a new download queue repository.
func NewRepository(conn database.Conn) *Repository {
	return &Repository{conn: conn}
}

// WithTx returns a repository bound to an open transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{conn: database.TxConn(tx)}
}

const setStatusSQL = `INSERT INTO download_queue (
	book_id, status, progress_bytes, total_bytes, error_message, created_at, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(book_id) DO UPDATE SET
	status = excluded.status,
	progress_bytes = excluded.progress_bytes,
	total_bytes = excluded.total_bytes,
	error_message = excluded.error_message,
	updated_at = excluded.updated_at`

// SetStatus creates or updates the row for bookID.
func (r *Repository) SetStatus(ctx context.Context, bookID string, status entities.DownloadStatus, progressBytes int64, totalBytes *int64, message *string) error {
	db, err := r.conn.DB(ctx)
	if err != nil {
		return err
	}
	now := entities.FormatTime(time.Now())
	return db.Exec(setStatusSQL, bookID, status, progressBytes, totalBytes, message, now, now).Error
}

// MarkDownloading resets the row to an in-flight transfer.
func (r *Repository) MarkDownloading(ctx context.Context, bookID string, totalBytes *int64) error {
	return r.SetStatus(ctx, bookID, entities.DownloadStatusDownloading, 0, totalBytes, nil)
}

// MarkPending records a download waiting for a worker.
func (r *Repository) MarkPending(ctx context.Context, bookID string, totalBytes *int64) error {
	return r.SetStatus(ctx, bookID, entities.DownloadStatusPending, 0, totalBytes, nil)
}

// MarkCompleted records a finished transfer of n bytes.
func (r *Repository) MarkCompleted(ctx context.Context, bookID string, n int64) error {
	return r.SetStatus(ctx, bookID, entities.DownloadStatusCompleted, n, &n, nil)
}

// MarkFailed records a failed transfer and its reason.
func (r *Repository) MarkFailed(ctx context.Context, bookID string, reason error) error {
	msg := reason.Error()
	return r.SetStatus(ctx, bookID, entities.DownloadStatusFailed, 0, nil, &msg)
}

// Get returns the row for bookID, or errs.ErrNotFound.
func (r *Repository) Get(ctx context.Context, bookID string) (*entities.DownloadQueueEntry, error) {
	db, err := r.conn.DB(ctx)
	if err != nil {
		return nil, err
	}
	var entry entities.DownloadQueueEntry
	if err := db.Where("book_id = ?", bookID).Take(&entry).Error; err != nil {
		if database.IsNotFound(err) {
			return nil, fmt.Errorf("%w: download %s", errs.ErrNotFound, bookID)
		}
		return nil, err
	}
	return &entry, nil
}

// List returns every row, most recently updated first. An empty status
// returns all rows.
func (r *Repository) List(ctx context.Context, status entities.DownloadStatus) ([]entities.DownloadQueueEntry, error) {
	db, err := r.conn.DB(ctx)
	if err != nil {
		return nil, err
	}
	q := db.Order("updated_at DESC, id DESC")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var entries []entities.DownloadQueueEntry
	err = q.Find(&entries).Error
	return entries, err
}

// Delete removes the row for bookID.
func (r *Repository) Delete(ctx context.Context, bookID string) error {
	db, err := r.conn.DB(ctx)
	if err != nil {
		return err
	}
	return db.Where("book_id = ?", bookID).Delete(&entities.DownloadQueueEntry{}).Error
}
