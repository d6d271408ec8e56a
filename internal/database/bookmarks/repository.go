// Package bookmarks provides database operations for user bookmarks.
package bookmarks

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/khaleelElias/YA/internal/database"
	"github.com/khaleelElias/YA/internal/entities"
	"github.com/khaleelElias/YA/internal/errs"
)

// Repository handles local_bookmarks operations.
type Repository struct {
	conn database.Conn
}

// NewRepository creates a new bookmarks repository.
func NewRepository(conn database.Conn) *Repository {
	return &Repository{conn: conn}
}

// WithTx returns a repository bound to an open transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{conn: database.TxConn(tx)}
}

// Create inserts a bookmark.
func (r *Repository) Create(ctx context.Context, b *entities.Bookmark) error {
	db, err := r.conn.DB(ctx)
	if err != nil {
		return err
	}
	return db.Create(b).Error
}

// Get retrieves a bookmark by id, or errs.ErrNotFound.
func (r *Repository) Get(ctx context.Context, id string) (*entities.Bookmark, error) {
	db, err := r.conn.DB(ctx)
	if err != nil {
		return nil, err
	}
	var b entities.Bookmark
	if err := db.Where("id = ?", id).Take(&b).Error; err != nil {
		if database.IsNotFound(err) {
			return nil, fmt.Errorf("%w: bookmark %s", errs.ErrNotFound, id)
		}
		return nil, err
	}
	return &b, nil
}

// ListForBook returns the bookmarks one identity holds in a book, oldest
// first. An empty identityKey selects the anonymous identity.
func (r *Repository) ListForBook(ctx context.Context, bookID, identityKey string) ([]entities.Bookmark, error) {
	db, err := r.conn.DB(ctx)
	if err != nil {
		return nil, err
	}
	var list []entities.Bookmark
	err = db.Where("book_id = ? AND COALESCE(user_id, '') = ?", bookID, identityKey).
		Order("created_at ASC").Find(&list).Error
	return list, err
}

// Delete removes a bookmark and reports whether it existed.
func (r *Repository) Delete(ctx context.Context, id string) (bool, error) {
	db, err := r.conn.DB(ctx)
	if err != nil {
		return false, err
	}
	result := db.Where("id = ?", id).Delete(&entities.Bookmark{})
	return result.RowsAffected > 0, result.Error
}

// DeleteForBook removes every bookmark in a book.
func (r *Repository) DeleteForBook(ctx context.Context, bookID string) (int64, error) {
	db, err := r.conn.DB(ctx)
	if err != nil {
		return 0, err
	}
	result := db.Where("book_id = ?", bookID).Delete(&entities.Bookmark{})
	return result.RowsAffected, result.Error
}
