// Package progress tracks reading positions and persists them with a
// debounce.
//
// Position events update in-memory state only. A single write per
// (book, identity) is scheduled after the debounce delay and replaced by each
// new event. Flush cancels the pending write, writes the latest position
// inline and releases the session.
package progress

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/khaleelElias/YA/internal/auth"
	progressrepo "github.com/khaleelElias/YA/internal/database/progress"
	"github.com/khaleelElias/YA/internal/entities"
)

const (
	DefaultDebounce = time.Second
	writeTimeout    = 5 * time.Second
)

// Store persists positions.
type Store interface {
	Upsert(ctx context.Context, w progressrepo.Write) error
	Get(ctx context.Context, bookID, identityKey string) (*entities.ReadingProgress, error)
}

// Fallback is the structural position used when the marker cannot be
// resolved by the renderer.
type Fallback struct {
	ChapterID      string   `json:"chapter_id,omitempty"`
	SectionID      string   `json:"section_id,omitempty"`
	ScrollPosition *float64 `json:"scroll_position,omitempty"`
}

// PageInfo is informational page state for paginated formats. It never
// feeds percent complete.
type PageInfo struct {
	Current int `json:"current"`
	Total   int `json:"total"`
}

// Position is the last known position of an identity within a book.
type Position struct {
	BookID     string        `json:"book_id"`
	Identity   auth.Identity `json:"-"`
	Marker     string        `json:"cfi"`
	Fallback   Fallback      `json:"fallback"`
	Page       *PageInfo     `json:"page,omitempty"`
	Percent    int           `json:"progress_percent"`
	LastReadAt time.Time     `json:"last_read_at"`
}

type sessionKey struct {
	bookID   string
	identity string
}

type session struct {
	pos     Position
	percent *int
	gen     uint64
	dirty   bool
	handle  Handle
}

// Tracker records reader position events and persists them.
type Tracker struct {
	store     Store
	locator   Locator
	scheduler Scheduler
	delay     time.Duration
	logger    *zap.Logger
	now       func() time.Time

	mu       sync.Mutex
	sessions map[sessionKey]*session

	// writeMu keeps writes for all sessions in snapshot order.
	writeMu sync.Mutex
}

// NewTracker creates a tracker. A nil locator leaves percent unknown; a nil
// scheduler uses TimerScheduler; a non-positive delay uses DefaultDebounce.
func NewTracker(store Store, locator Locator, scheduler Scheduler, delay time.Duration, logger *zap.Logger) *Tracker {
	if scheduler == nil {
		scheduler = TimerScheduler{}
	}
	if delay <= 0 {
		delay = DefaultDebounce
	}
	return &Tracker{
		store:     store,
		locator:   locator,
		scheduler: scheduler,
		delay:     delay,
		logger:    logger.Named("progress"),
		now:       time.Now,
		sessions:  make(map[sessionKey]*session),
	}
}

// RecordPosition updates the in-memory position and reschedules the write.
func (t *Tracker) RecordPosition(bookID string, identity auth.Identity, marker string, fallback Fallback, page *PageInfo) {
	key := sessionKey{bookID: bookID, identity: identity.Key()}

	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.sessions[key]
	if !ok {
		s = &session{}
		t.sessions[key] = s
	}

	s.gen++
	s.dirty = true
	s.pos = Position{
		BookID:     bookID,
		Identity:   identity,
		Marker:     marker,
		Fallback:   fallback,
		Page:       copyPage(page),
		LastReadAt: t.now().UTC(),
	}
	s.percent = nil
	if t.locator != nil {
		if percent, ok := t.locator.Percent(bookID, marker); ok {
			s.percent = &percent
		}
	}

	if s.handle != nil {
		s.handle.Cancel()
	}
	gen := s.gen
	s.handle = t.scheduler.Schedule(t.delay, func() {
		t.scheduledWrite(key, gen)
	})
}

func (t *Tracker) scheduledWrite(key sessionKey, gen uint64) {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	t.mu.Lock()
	s, ok := t.sessions[key]
	if !ok || s.gen != gen || !s.dirty {
		t.mu.Unlock()
		return
	}
	s.handle = nil
	w := s.write()
	t.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	if err := t.store.Upsert(ctx, w); err != nil {
		t.logger.Warn("Failed to persist reading position",
			zap.String("book_id", key.bookID),
			zap.Error(err))
		return
	}

	t.mu.Lock()
	if s.gen == gen {
		s.dirty = false
	}
	t.mu.Unlock()
}

// GetLastPosition returns the live session position if the book is open,
// else the stored row, else nil.
func (t *Tracker) GetLastPosition(ctx context.Context, bookID string, identity auth.Identity) (*Position, error) {
	key := sessionKey{bookID: bookID, identity: identity.Key()}

	t.mu.Lock()
	var live *Position
	var percentKnown bool
	if s, ok := t.sessions[key]; ok {
		pos := s.pos
		pos.Page = copyPage(s.pos.Page)
		if s.percent != nil {
			pos.Percent, percentKnown = *s.percent, true
		}
		live = &pos
	}
	t.mu.Unlock()

	if live != nil && percentKnown {
		return live, nil
	}

	row, err := t.store.Get(ctx, bookID, identity.Key())
	if err != nil {
		if live != nil {
			t.logger.Warn("Failed to load stored percent",
				zap.String("book_id", bookID),
				zap.Error(err),
			)
			return live, nil
		}
		return nil, fmt.Errorf("load reading position: %w", err)
	}
	if live != nil {
		if row != nil {
			live.Percent = row.ProgressPercent
		}
		return live, nil
	}
	if row == nil {
		return nil, nil
	}
	return positionFromRow(row, identity), nil
}

// Flush writes the latest position of a session inline and releases it.
// The error is also logged; callers on a navigation path may ignore it.
func (t *Tracker) Flush(ctx context.Context, bookID string, identity auth.Identity) error {
	return t.flush(ctx, sessionKey{bookID: bookID, identity: identity.Key()})
}

// FlushAll flushes every live session.
func (t *Tracker) FlushAll(ctx context.Context) error {
	t.mu.Lock()
	keys := make([]sessionKey, 0, len(t.sessions))
	for key := range t.sessions {
		keys = append(keys, key)
	}
	t.mu.Unlock()

	var errList []error
	for _, key := range keys {
		if err := t.flush(ctx, key); err != nil {
			errList = append(errList, err)
		}
	}
	return errors.Join(errList...)
}

// Open reports how many sessions hold unreleased state.
func (t *Tracker) Open() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.sessions)
}

func (t *Tracker) flush(ctx context.Context, key sessionKey) error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	t.mu.Lock()
	s, ok := t.sessions[key]
	if !ok {
		t.mu.Unlock()
		return nil
	}
	if s.handle != nil {
		s.handle.Cancel()
	}
	delete(t.sessions, key)
	dirty := s.dirty
	w := s.write()
	t.mu.Unlock()

	if !dirty {
		return nil
	}

	if err := t.store.Upsert(ctx, w); err != nil {
		t.logger.Error("Failed to flush reading position",
			zap.String("book_id", key.bookID),
			zap.Error(err))
		return fmt.Errorf("flush reading position for %s: %w", key.bookID, err)
	}
	return nil
}

func (s *session) write() progressrepo.Write {
	w := progressrepo.Write{
		BookID:         s.pos.BookID,
		UserID:         s.pos.Identity.UserIDPtr(),
		IdentityKey:    s.pos.Identity.Key(),
		CFI:            optional(s.pos.Marker),
		ChapterID:      optional(s.pos.Fallback.ChapterID),
		SectionID:      optional(s.pos.Fallback.SectionID),
		ScrollPosition: s.pos.Fallback.ScrollPosition,
		ReadAt:         s.pos.LastReadAt,
	}
	if s.pos.Page != nil {
		current, total := s.pos.Page.Current, s.pos.Page.Total
		w.CurrentPage, w.TotalPages = &current, &total
	}
	if s.percent != nil {
		percent := *s.percent
		w.Percent = &percent
	}
	return w
}

func positionFromRow(row *entities.ReadingProgress, identity auth.Identity) *Position {
	pos := &Position{
		BookID:   row.BookID,
		Identity: identity,
		Percent:  row.ProgressPercent,
		Fallback: Fallback{ScrollPosition: row.ScrollPosition},
	}
	if row.CFI != nil {
		pos.Marker = *row.CFI
	}
	if row.ChapterID != nil {
		pos.Fallback.ChapterID = *row.ChapterID
	}
	if row.SectionID != nil {
		pos.Fallback.SectionID = *row.SectionID
	}
	if row.CurrentPage != nil {
		pos.Page = &PageInfo{Current: *row.CurrentPage}
		if row.TotalPages != nil {
			pos.Page.Total = *row.TotalPages
		}
	}
	if at, err := entities.ParseTime(row.LastReadAt); err == nil {
		pos.LastReadAt = at
	}
	return pos
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func copyPage(p *PageInfo) *PageInfo {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}
