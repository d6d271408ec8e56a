// Package bookmarks creates and removes reader bookmarks.
//
// Changes made by a signed-in reader are appended to the sync queue in the
// same transaction as the bookmark row, for a cloud sync process to pick up.
// Anonymous bookmarks stay local.
package bookmarks

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/khaleelElias/YA/internal/auth"
	"github.com/khaleelElias/YA/internal/database"
	bookmarkrepo "github.com/khaleelElias/YA/internal/database/bookmarks"
	"github.com/khaleelElias/YA/internal/database/syncqueue"
	"github.com/khaleelElias/YA/internal/entities"
	"github.com/khaleelElias/YA/internal/errs"
)

const syncTable = "local_bookmarks"

// Input is a bookmark to create. CFI or SectionID must be set.
type Input struct {
	CFI         string `json:"cfi"`
	SectionID   string `json:"section_id"`
	Note        string `json:"note"`
	ContextText string `json:"context_text"`
}

type Service struct {
	store     *database.Store
	bookmarks *bookmarkrepo.Repository
	queue     *syncqueue.Repository
	logger    *zap.Logger
}

func NewService(store *database.Store, logger *zap.Logger) *Service {
	return &Service{
		store:     store,
		bookmarks: bookmarkrepo.NewRepository(store),
		queue:     syncqueue.NewRepository(store),
		logger:    logger.Named("bookmarks"),
	}
}

// Create stores a bookmark for identity.
func (s *Service) Create(ctx context.Context, bookID string, identity auth.Identity, in Input) (*entities.Bookmark, error) {
	if strings.TrimSpace(bookID) == "" {
		return nil, fmt.Errorf("%w: book id is required", errs.ErrInvalidArgument)
	}
	if strings.TrimSpace(in.CFI) == "" && strings.TrimSpace(in.SectionID) == "" {
		return nil, fmt.Errorf("%w: bookmark needs a cfi or a section id", errs.ErrInvalidArgument)
	}

	b := &entities.Bookmark{
		ID:            uuid.NewString(),
		BookID:        bookID,
		CFI:           optional(in.CFI),
		SectionID:     optional(in.SectionID),
		Note:          optional(in.Note),
		ContextText:   optional(in.ContextText),
		CreatedAt:     entities.FormatTime(time.Now()),
		SyncedToCloud: entities.SyncDirty,
		UserID:        identity.UserIDPtr(),
	}

	err := s.store.Transaction(ctx, func(tx *gorm.DB) error {
		if err := s.bookmarks.WithTx(tx).Create(ctx, b); err != nil {
			return err
		}
		if identity.IsAnonymous() {
			return nil
		}
		_, err := s.queue.WithTx(tx).Append(ctx, syncTable, b.ID, entities.SyncOperationInsert, b)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("create bookmark: %w", err)
	}

	s.logger.Debug("Created bookmark",
		zap.String("book_id", bookID),
		zap.String("bookmark_id", b.ID))
	return b, nil
}

// List returns the identity's bookmarks for a book, oldest first.
func (s *Service) List(ctx context.Context, bookID string, identity auth.Identity) ([]entities.Bookmark, error) {
	return s.bookmarks.ListForBook(ctx, bookID, identity.Key())
}

// Delete removes a bookmark owned by identity. Bookmarks of other identities
// are reported as errs.ErrNotFound.
func (s *Service) Delete(ctx context.Context, id string, identity auth.Identity) error {
	b, err := s.bookmarks.Get(ctx, id)
	if err != nil {
		return err
	}
	owner := ""
	if b.UserID != nil {
		owner = *b.UserID
	}
	if owner != identity.Key() {
		return fmt.Errorf("%w: bookmark %s", errs.ErrNotFound, id)
	}

	return s.store.Transaction(ctx, func(tx *gorm.DB) error {
		if _, err := s.bookmarks.WithTx(tx).Delete(ctx, id); err != nil {
			return err
		}
		if identity.IsAnonymous() {
			return nil
		}
		_, err := s.queue.WithTx(tx).Append(ctx, syncTable, id, entities.SyncOperationDelete,
			map[string]string{"id": id, "book_id": b.BookID})
		return err
	})
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
