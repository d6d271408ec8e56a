// Package downloads moves catalog books to local storage and registers them
// in the local store.
//
// A book row is written only after its content file is on disk, in the same
// transaction that marks the download queue row completed. Deleting a book
// removes its files before its rows, so a failure leaves at worst an orphan
// file that CollectOrphans can reclaim.
package downloads

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"

	"github.com/khaleelElias/YA/internal/auth"
	"github.com/khaleelElias/YA/internal/catalog"
	"github.com/khaleelElias/YA/internal/database"
	bookmarkrepo "github.com/khaleelElias/YA/internal/database/bookmarks"
	bookrepo "github.com/khaleelElias/YA/internal/database/books"
	queuerepo "github.com/khaleelElias/YA/internal/database/downloads"
	progressrepo "github.com/khaleelElias/YA/internal/database/progress"
	"github.com/khaleelElias/YA/internal/entities"
	"github.com/khaleelElias/YA/internal/errs"
	"github.com/khaleelElias/YA/internal/transfer"
	"github.com/khaleelElias/YA/internal/utils"
)

const (
	BooksDir  = "books"
	CoversDir = "covers"
)

// flightTimeout bounds a shared download once it no longer follows any
// caller's context.
const flightTimeout = 30 * time.Minute

// Repos groups the repositories the manager writes to.
type Repos struct {
	Books     *bookrepo.Repository
	Progress  *progressrepo.Repository
	Bookmarks *bookmarkrepo.Repository
	Queue     *queuerepo.Repository
}

// NewRepos builds every repository on one store.
func NewRepos(store *database.Store) Repos {
	return Repos{
		Books:     bookrepo.NewRepository(store),
		Progress:  progressrepo.NewRepository(store),
		Bookmarks: bookmarkrepo.NewRepository(store),
		Queue:     queuerepo.NewRepository(store),
	}
}

// Manager downloads, lists and deletes local books.
type Manager struct {
	store    *database.Store
	repos    Repos
	resolver catalog.FileURLResolver
	fetcher  transfer.Fetcher
	docsDir  string
	logger   *zap.Logger

	flights  singleflight.Group
	onDelete []func(bookID string)

	// files is held shared by transfers and exclusively by CollectOrphans, so
	// a file between rename and registration is never collected.
	files sync.RWMutex
}

// NewManager creates a manager that stores files under docsDir.
func NewManager(store *database.Store, repos Repos, resolver catalog.FileURLResolver, fetcher transfer.Fetcher, docsDir string, logger *zap.Logger) *Manager {
	return &Manager{
		store:    store,
		repos:    repos,
		resolver: resolver,
		fetcher:  fetcher,
		docsDir:  absPath(docsDir),
		logger:   logger.Named("downloads"),
	}
}

// OnDelete registers fn to run after a book is deleted. Hooks must be
// registered before the manager is used.
func (m *Manager) OnDelete(fn func(bookID string)) {
	m.onDelete = append(m.onDelete, fn)
}

// Destination returns the deterministic local path for a book's content.
func (m *Manager) Destination(book *entities.Book) string {
	return filepath.Join(m.docsDir, BooksDir, book.ID+book.ContentType.Extension())
}

// CheckPreconditions reports why book cannot be downloaded: errs.ErrMissingFile
// when it has no type-matching file, errs.ErrAlreadyDownloaded when a local
// record exists, errs.ErrInvalidArgument when the id cannot name a local file.
// It touches neither the network nor the filesystem.
func (m *Manager) CheckPreconditions(ctx context.Context, book *entities.Book) error {
	if book == nil || strings.TrimSpace(book.ID) == "" {
		return fmt.Errorf("%w: book id is required", errs.ErrInvalidArgument)
	}
	if !utils.ValidFileStem(book.ID) {
		return fmt.Errorf("%w: book id %q cannot be used as a file name", errs.ErrInvalidArgument, book.ID)
	}
	if book.FilePath() == "" {
		return fmt.Errorf("%w: book %s has no %s file", errs.ErrMissingFile, book.ID, book.ContentType)
	}

	exists, err := m.repos.Books.Exists(ctx, book.ID)
	if err != nil {
		return fmt.Errorf("check local book %s: %w", book.ID, err)
	}
	if exists {
		return fmt.Errorf("%w: book %s", errs.ErrAlreadyDownloaded, book.ID)
	}
	return nil
}

// MarkQueued checks preconditions and records the book as waiting for a
// background worker.
func (m *Manager) MarkQueued(ctx context.Context, book *entities.Book) error {
	if err := m.CheckPreconditions(ctx, book); err != nil {
		return err
	}
	return m.repos.Queue.MarkPending(ctx, book.ID, totalBytes(book))
}

// MarkFailed records that a download of bookID failed with cause.
func (m *Manager) MarkFailed(ctx context.Context, bookID string, cause error) error {
	return m.repos.Queue.MarkFailed(ctx, bookID, cause)
}

// DownloadBook fetches the book's content file and registers it. owner is
// stored as the record's owning user. Concurrent calls for the same book
// share one transfer and its outcome. A caller whose ctx ends stops waiting
// without cancelling the transfer for the others.
func (m *Manager) DownloadBook(ctx context.Context, book *entities.Book, owner auth.Identity) (string, error) {
	if book == nil || strings.TrimSpace(book.ID) == "" {
		return "", fmt.Errorf("%w: book id is required", errs.ErrInvalidArgument)
	}

	ch := m.flights.DoChan(book.ID, func() (interface{}, error) {
		flightCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), flightTimeout)
		defer cancel()
		return m.download(flightCtx, book, owner)
	})

	select {
	case res := <-ch:
		if res.Shared {
			m.logger.Debug("Joined in-flight download", zap.String("book_id", book.ID))
		}
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		m.logger.Debug("Stopped waiting for download", zap.String("book_id", book.ID), zap.Error(ctx.Err()))
		return "", ctx.Err()
	}
}

func (m *Manager) download(ctx context.Context, book *entities.Book, owner auth.Identity) (string, error) {
	if err := m.CheckPreconditions(ctx, book); err != nil {
		return "", err
	}

	m.files.RLock()
	defer m.files.RUnlock()

	if err := m.repos.Queue.MarkDownloading(ctx, book.ID, totalBytes(book)); err != nil {
		return "", fmt.Errorf("record download of %s: %w", book.ID, err)
	}

	dir := filepath.Join(m.docsDir, BooksDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", m.fail(ctx, book.ID, fmt.Errorf("%w: create %s: %w", errs.ErrStorageUnavailable, dir, err))
	}

	url := m.resolver.ResolveFileURL(ctx, book.FilePath())
	if url == nil {
		return "", m.fail(ctx, book.ID, fmt.Errorf("%w: no download url for %s", errs.ErrTransferFailed, book.FilePath()))
	}

	dest := m.Destination(book)
	res, err := m.fetcher.Fetch(ctx, *url, dest)
	if err == nil && res.Status != http.StatusOK {
		_ = removeIfExists(dest)
		err = fmt.Errorf("status %d", res.Status)
	}
	if err != nil {
		if !errors.Is(err, errs.ErrTransferFailed) {
			err = fmt.Errorf("%w: %w", errs.ErrTransferFailed, err)
		}
		return "", m.fail(ctx, book.ID, err)
	}

	cover := m.downloadCover(ctx, book)

	record, err := newRecord(book, dest, cover, res.Bytes, owner)
	if err != nil {
		m.discard(dest, cover)
		return "", m.fail(ctx, book.ID, err)
	}

	err = m.store.Transaction(ctx, func(tx *gorm.DB) error {
		if err := m.repos.Books.WithTx(tx).Create(ctx, record); err != nil {
			return err
		}
		return m.repos.Queue.WithTx(tx).MarkCompleted(ctx, book.ID, res.Bytes)
	})
	if err != nil {
		m.discard(dest, cover)
		return "", m.fail(ctx, book.ID, fmt.Errorf("register book %s: %w", book.ID, err))
	}

	m.logger.Info("Downloaded book",
		zap.String("book_id", book.ID),
		zap.String("path", dest),
		zap.Int64("bytes", res.Bytes))
	return dest, nil
}

// downloadCover fetches the cover image. Failures are logged and yield nil.
func (m *Manager) downloadCover(ctx context.Context, book *entities.Book) *string {
	if strings.TrimSpace(book.CoverImagePath) == "" {
		return nil
	}
	log := m.logger.With(zap.String("book_id", book.ID))

	url := m.resolver.ResolveCoverURL(ctx, book.CoverImagePath)
	if url == nil {
		log.Warn("No cover url", zap.String("path", book.CoverImagePath))
		return nil
	}

	dir := filepath.Join(m.docsDir, CoversDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Warn("Failed to create covers directory", zap.Error(err))
		return nil
	}

	dest := filepath.Join(dir, book.ID+".jpg")
	res, err := m.fetcher.Fetch(ctx, *url, dest)
	if err == nil && res.Status != http.StatusOK {
		_ = removeIfExists(dest)
		err = fmt.Errorf("status %d", res.Status)
	}
	if err != nil {
		log.Warn("Failed to download cover", zap.Error(err))
		return nil
	}
	return &dest
}

// fail marks the queue row failed and returns cause.
func (m *Manager) fail(ctx context.Context, bookID string, cause error) error {
	if err := m.repos.Queue.MarkFailed(ctx, bookID, cause); err != nil {
		m.logger.Warn("Failed to record download failure",
			zap.String("book_id", bookID),
			zap.Error(err))
	}
	m.logger.Warn("Download failed", zap.String("book_id", bookID), zap.Error(cause))
	return cause
}

func (m *Manager) discard(dest string, cover *string) {
	paths := []string{dest}
	if cover != nil {
		paths = append(paths, *cover)
	}
	for _, p := range paths {
		if err := removeIfExists(p); err != nil {
			m.logger.Warn("Failed to remove unregistered file", zap.String("path", p), zap.Error(err))
		}
	}
}

// IsBookDownloaded reports whether a local record exists. Store errors are
// logged and reported as false.
func (m *Manager) IsBookDownloaded(ctx context.Context, bookID string) bool {
	exists, err := m.repos.Books.Exists(ctx, bookID)
	if err != nil {
		m.logger.Warn("Failed to check local book",
			zap.String("book_id", bookID),
			zap.Error(err))
		return false
	}
	return exists
}

// DeleteBook removes the book's files, then its record together with the
// book's progress, bookmarks and queue row.
func (m *Manager) DeleteBook(ctx context.Context, bookID string) error {
	record, err := m.repos.Books.Get(ctx, bookID)
	if err != nil {
		return err
	}

	for _, p := range []*string{record.EPUBURI, record.PDFURI, record.CoverURI} {
		if p == nil || *p == "" {
			continue
		}
		if err := removeIfExists(*p); err != nil {
			return fmt.Errorf("remove %s: %w", *p, err)
		}
	}

	err = m.store.Transaction(ctx, func(tx *gorm.DB) error {
		if _, err := m.repos.Books.WithTx(tx).Delete(ctx, bookID); err != nil {
			return err
		}
		if _, err := m.repos.Progress.WithTx(tx).DeleteForBook(ctx, bookID); err != nil {
			return err
		}
		if _, err := m.repos.Bookmarks.WithTx(tx).DeleteForBook(ctx, bookID); err != nil {
			return err
		}
		return m.repos.Queue.WithTx(tx).Delete(ctx, bookID)
	})
	if err != nil {
		return fmt.Errorf("delete book %s: %w", bookID, err)
	}

	for _, fn := range m.onDelete {
		fn(bookID)
	}
	m.logger.Info("Deleted book", zap.String("book_id", bookID))
	return nil
}

// GetDownloadedBooks returns the metadata snapshot of every local book,
// newest download first. Rows whose snapshot cannot be decoded are skipped
// and logged.
func (m *Manager) GetDownloadedBooks(ctx context.Context) ([]entities.Book, error) {
	records, err := m.repos.Books.List(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]entities.Book, 0, len(records))
	for _, r := range records {
		var book entities.Book
		if err := json.Unmarshal([]byte(r.MetadataJSON), &book); err != nil {
			m.logger.Warn("Skipping book with unreadable metadata",
				zap.String("book_id", r.ID),
				zap.Error(err))
			continue
		}
		result = append(result, book)
	}
	return result, nil
}

// Record returns the local record of a book, or errs.ErrNotFound.
func (m *Manager) Record(ctx context.Context, bookID string) (*entities.LocalBook, error) {
	return m.repos.Books.Get(ctx, bookID)
}

// Status returns the queue row of a book, or errs.ErrNotFound.
func (m *Manager) Status(ctx context.Context, bookID string) (*entities.DownloadQueueEntry, error) {
	return m.repos.Queue.Get(ctx, bookID)
}

// Queue lists queue rows, optionally filtered by status.
func (m *Manager) Queue(ctx context.Context, status entities.DownloadStatus) ([]entities.DownloadQueueEntry, error) {
	return m.repos.Queue.List(ctx, status)
}

// Touch stamps the book as opened now.
func (m *Manager) Touch(ctx context.Context, bookID string) error {
	return m.repos.Books.Touch(ctx, bookID, time.Now())
}

// LocalPath returns the content file of a downloaded book. It fails with
// errs.ErrNotFound when the record or the file is missing.
func (m *Manager) LocalPath(ctx context.Context, bookID string) (string, error) {
	record, err := m.repos.Books.Get(ctx, bookID)
	if err != nil {
		return "", err
	}
	path := record.ContentPath()
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("%w: content file of %s: %w", errs.ErrNotFound, bookID, err)
	}
	return path, nil
}

func newRecord(book *entities.Book, dest string, cover *string, size int64, owner auth.Identity) (*entities.LocalBook, error) {
	snapshot, err := json.Marshal(book)
	if err != nil {
		return nil, fmt.Errorf("encode metadata of %s: %w", book.ID, err)
	}

	record := &entities.LocalBook{
		ID:            book.ID,
		Title:         book.Title,
		Author:        optional(book.Author),
		Translator:    optional(book.Translator),
		Description:   optional(book.Description),
		Language:      string(book.Language),
		Script:        book.Script,
		Category:      book.Category,
		AgeRange:      optional(book.AgeRange),
		ContentType:   book.ContentType,
		CoverURI:      cover,
		FileSizeBytes: &size,
		DownloadedAt:  entities.FormatTime(time.Now()),
		MetadataJSON:  string(snapshot),
		UserID:        owner.UserIDPtr(),
	}
	if len(book.Tags) > 0 {
		tags, err := json.Marshal(book.Tags)
		if err != nil {
			return nil, fmt.Errorf("encode tags of %s: %w", book.ID, err)
		}
		s := string(tags)
		record.Tags = &s
	}
	if book.PageCount > 0 {
		pages := book.PageCount
		record.PageCount = &pages
	}

	switch book.ContentType {
	case entities.ContentTypeEPUB:
		record.EPUBURI = &dest
	case entities.ContentTypePDF:
		record.PDFURI = &dest
	}
	return record, nil
}

func totalBytes(book *entities.Book) *int64 {
	if book.FileSizeBytes <= 0 {
		return nil
	}
	n := book.FileSizeBytes
	return &n
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func removeIfExists(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// absPath resolves dir against the working directory so stored paths stay
// valid when it changes.
func absPath(dir string) string {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return filepath.Clean(dir)
	}
	return abs
}
