// Package books provides database operations for downloaded books.
//
// Rows are written only by the download manager, after the content file is
// on disk, and removed only when the user deletes the book.
//
// # Usage
//
//	repo := books.NewRepository(store)
//	exists, err := repo.Exists(ctx, "b1")
package books

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/khaleelElias/YA/internal/database"
	"github.com/khaleelElias/YA/internal/entities"
	"github.com/khaleelElias/YA/internal/errs"
)

// Repository handles local_books operations.
type Repository struct {
	conn database.Conn
}

// NewRepository creates a new books repository.
func NewRepository(conn database.Conn) *Repository {
	return &Repository{conn: conn}
}

// WithTx returns a repository bound to an open transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{conn: database.TxConn(tx)}
}

// Get retrieves a downloaded book, or errs.ErrNotFound.
func (r *Repository) Get(ctx context.Context, id string) (*entities.LocalBook, error) {
	db, err := r.conn.DB(ctx)
	if err != nil {
		return nil, err
	}
	var book entities.LocalBook
	if err := db.Where("id = ?", id).Take(&book).Error; err != nil {
		if database.IsNotFound(err) {
			return nil, fmt.Errorf("%w: book %s", errs.ErrNotFound, id)
		}
		return nil, err
	}
	return &book, nil
}

// Exists reports whether a local record exists for id.
func (r *Repository) Exists(ctx context.Context, id string) (bool, error) {
	db, err := r.conn.DB(ctx)
	if err != nil {
		return false, err
	}
	var count int64
	if err := db.Model(&entities.LocalBook{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Create inserts a downloaded book.
func (r *Repository) Create(ctx context.Context, book *entities.LocalBook) error {
	db, err := r.conn.DB(ctx)
	if err != nil {
		return err
	}
	return db.Create(book).Error
}

// List returns every downloaded book, newest download first.
func (r *Repository) List(ctx context.Context) ([]entities.LocalBook, error) {
	db, err := r.conn.DB(ctx)
	if err != nil {
		return nil, err
	}
	var books []entities.LocalBook
	err = db.Order("downloaded_at DESC, id ASC").Find(&books).Error
	return books, err
}

// Touch records that the book was opened at the given time.
func (r *Repository) Touch(ctx context.Context, id string, at time.Time) error {
	db, err := r.conn.DB(ctx)
	if err != nil {
		return err
	}
	result := db.Model(&entities.LocalBook{}).Where("id = ?", id).
		Update("last_accessed_at", entities.FormatTime(at))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: book %s", errs.ErrNotFound, id)
	}
	return nil
}

// Delete removes the row for id and reports whether one existed.
func (r *Repository) Delete(ctx context.Context, id string) (bool, error) {
	db, err := r.conn.DB(ctx)
	if err != nil {
		return false, err
	}
	result := db.Where("id = ?", id).Delete(&entities.LocalBook{})
	return result.RowsAffected > 0, result.Error
}

// ReferencedPaths returns every local file path referenced by a row.
func (r *Repository) ReferencedPaths(ctx context.Context) (map[string]struct{}, error) {
	db, err := r.conn.DB(ctx)
	if err != nil {
		return nil, err
	}
	var rows []struct {
		CoverURI *string
		EPUBURI  *string `gorm:"column:epub_uri"`
		PDFURI   *string `gorm:"column:pdf_uri"`
	}
	if err := db.Model(&entities.LocalBook{}).Select("cover_uri, epub_uri, pdf_uri").Scan(&rows).Error; err != nil {
		return nil, err
	}

	paths := make(map[string]struct{}, len(rows)*2)
	for _, row := range rows {
		for _, p := range []*string{row.CoverURI, row.EPUBURI, row.PDFURI} {
			if p != nil && *p != "" {
				paths[*p] = struct{}{}
			}
		}
	}
	return paths, nil
}
