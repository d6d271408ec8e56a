// Package progress provides database operations for reading progress.
//
// One row exists per (book_id, identity_key). The identity key is the user
// id, or the empty string for the anonymous identity, so the anonymous
// reader gets its own row and can be upserted like any other identity.
package progress

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/khaleelElias/YA/internal/database"
	"github.com/khaleelElias/YA/internal/entities"
)

// Repository handles local_reading_progress operations.
type Repository struct {
	conn database.Conn
}

// NewRepository creates a new progress repository.
func NewRepository(conn database.Conn) *Repository {
	return &Repository{conn: conn}
}

// WithTx returns a repository bound to an open transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{conn: database.TxConn(tx)}
}

// Write is one position to persist.
type Write struct {
	BookID         string
	UserID         *string
	IdentityKey    string
	CFI            *string
	ChapterID      *string
	SectionID      *string
	ScrollPosition *float64
	CurrentPage    *int
	TotalPages     *int
	Percent        *int // nil keeps the stored percent
	ReadAt         time.Time
}

const upsertSQL = `INSERT INTO local_reading_progress (
	book_id, user_id, identity_key, cfi, chapter_id, section_id, scroll_position,
	current_page, total_pages, progress_percent, last_read_at, synced_to_cloud
) VALUES (
	@book_id, @user_id, @identity_key, @cfi, @chapter_id, @section_id, @scroll_position,
	@current_page, @total_pages, COALESCE(@percent, 0), @last_read_at, 0
)
ON CONFLICT(book_id, identity_key) DO UPDATE SET
	cfi = excluded.cfi,
	chapter_id = excluded.chapter_id,
	section_id = excluded.section_id,
	scroll_position = excluded.scroll_position,
	current_page = excluded.current_page,
	total_pages = excluded.total_pages,
	progress_percent = CASE WHEN @percent IS NULL
		THEN local_reading_progress.progress_percent
		ELSE excluded.progress_percent END,
	last_read_at = excluded.last_read_at,
	synced_to_cloud = 0`

// Upsert inserts or overwrites the position for (book, identity) in a single
// statement and marks it unsynced.
func (r *Repository) Upsert(ctx context.Context, w Write) error {
	db, err := r.conn.DB(ctx)
	if err != nil {
		return err
	}

	var percent any
	if w.Percent != nil {
		percent = *w.Percent
	}

	return db.Exec(upsertSQL, map[string]any{
		"book_id":         w.BookID,
		"user_id":         w.UserID,
		"identity_key":    w.IdentityKey,
		"cfi":             w.CFI,
		"chapter_id":      w.ChapterID,
		"section_id":      w.SectionID,
		"scroll_position": w.ScrollPosition,
		"current_page":    w.CurrentPage,
		"total_pages":     w.TotalPages,
		"percent":         percent,
		"last_read_at":    entities.FormatTime(w.ReadAt),
	}).Error
}

// Get returns the stored position, or nil when none exists.
func (r *Repository) Get(ctx context.Context, bookID, identityKey string) (*entities.ReadingProgress, error) {
	db, err := r.conn.DB(ctx)
	if err != nil {
		return nil, err
	}
	var rows []entities.ReadingProgress
	err = db.Where("book_id = ? AND identity_key = ?", bookID, identityKey).Limit(1).Find(&rows).Error
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return &rows[0], nil
}

// DeleteForBook removes every identity's progress for a book.
func (r *Repository) DeleteForBook(ctx context.Context, bookID string) (int64, error) {
	db, err := r.conn.DB(ctx)
	if err != nil {
		return 0, err
	}
	result := db.Where("book_id = ?", bookID).Delete(&entities.ReadingProgress{})
	return result.RowsAffected, result.Error
}

// ListUnsynced returns dirty rows, oldest first, for the cloud sync process.
func (r *Repository) ListUnsynced(ctx context.Context, limit int) ([]entities.ReadingProgress, error) {
	db, err := r.conn.DB(ctx)
	if err != nil {
		return nil, err
	}
	var rows []entities.ReadingProgress
	err = db.Where("synced_to_cloud = ?", entities.SyncDirty).
		Order("last_read_at ASC").Limit(limit).Find(&rows).Error
	return rows, err
}
