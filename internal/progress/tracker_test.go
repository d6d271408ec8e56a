package progress

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/khaleelElias/YA/internal/auth"
	"github.com/khaleelElias/YA/internal/database"
	progressrepo "github.com/khaleelElias/YA/internal/database/progress"
	"github.com/khaleelElias/YA/internal/entities"
)

// manualScheduler runs scheduled calls only when the test fires them.
type manualScheduler struct {
	mu    sync.Mutex
	tasks []*manualTask
}

type manualTask struct {
	s         *manualScheduler
	delay     time.Duration
	fn        func()
	cancelled bool
	fired     bool
}

func (s *manualScheduler) Schedule(delay time.Duration, fn func()) Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	task := &manualTask{s: s, delay: delay, fn: fn}
	s.tasks = append(s.tasks, task)
	return task
}

func (t *manualTask) Cancel() bool {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if t.fired || t.cancelled {
		return false
	}
	t.cancelled = true
	return true
}

func (s *manualScheduler) pending() []*manualTask {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*manualTask
	for _, task := range s.tasks {
		if !task.cancelled && !task.fired {
			out = append(out, task)
		}
	}
	return out
}

func (s *manualScheduler) fireAll() {
	for _, task := range s.pending() {
		s.mu.Lock()
		task.fired = true
		s.mu.Unlock()
		task.fn()
	}
}

// countingStore counts writes and can be switched to fail.
type countingStore struct {
	*progressrepo.Repository
	writes  atomic.Int32
	fail    atomic.Bool
	failGet atomic.Bool
}

func (c *countingStore) Get(ctx context.Context, bookID, identityKey string) (*entities.ReadingProgress, error) {
	if c.failGet.Load() {
		return nil, errors.New("database is locked")
	}
	return c.Repository.Get(ctx, bookID, identityKey)
}

func (c *countingStore) Upsert(ctx context.Context, w progressrepo.Write) error {
	if c.fail.Load() {
		return errors.New("disk full")
	}
	c.writes.Add(1)
	return c.Repository.Upsert(ctx, w)
}

func setupTracker(t *testing.T, locator Locator, logger *zap.Logger) (*Tracker, *countingStore, *manualScheduler) {
	t.Helper()
	store, err := database.Open(context.Background(), filepath.Join(t.TempDir(), "test.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	repo := &countingStore{Repository: progressrepo.NewRepository(store)}
	sched := &manualScheduler{}
	if logger == nil {
		logger = zap.NewNop()
	}
	return NewTracker(repo, locator, sched, time.Second, logger), repo, sched
}

func TestTracker_BurstProducesOneWrite(t *testing.T) {
	tracker, repo, sched := setupTracker(t, nil, nil)
	ctx := context.Background()
	markers := []string{"/6/2", "/6/4", "/6/4!/2", "/6/4!/4", "/6/6"}

	for _, m := range markers {
		tracker.RecordPosition("b1", auth.AnonymousIdentity, m, Fallback{}, nil)
	}

	pending := sched.pending()
	require.Len(t, pending, 1, "one scheduled write per book and identity")
	assert.Equal(t, time.Second, pending[0].delay)
	assert.Zero(t, repo.writes.Load(), "events alone do not touch storage")

	sched.fireAll()
	assert.Equal(t, int32(1), repo.writes.Load())

	row, err := repo.Get(ctx, "b1", "")
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, "/6/6", *row.CFI)
}

func TestTracker_EventWithinDebounceReplacesPending(t *testing.T) {
	tracker, repo, sched := setupTracker(t, nil, nil)
	ctx := context.Background()

	tracker.RecordPosition("b1", auth.AnonymousIdentity, "/6/4[chap01]", Fallback{ChapterID: "chap01"}, nil)
	first := sched.pending()
	require.Len(t, first, 1)

	tracker.RecordPosition("b1", auth.AnonymousIdentity, "/6/4[chap01]!/2", Fallback{ChapterID: "chap01"}, nil)
	assert.True(t, first[0].cancelled)
	require.Len(t, sched.pending(), 1)

	sched.fireAll()
	assert.Equal(t, int32(1), repo.writes.Load())

	row, err := repo.Get(ctx, "b1", "")
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, "/6/4[chap01]!/2", *row.CFI)
	assert.Equal(t, "chap01", *row.ChapterID)
}

func TestTracker_FlushRoundTrip(t *testing.T) {
	locator := NewLocationsLocator()
	require.NoError(t, locator.SetLocations("b1", []string{"/6/2", "/6/4", "/6/6", "/6/8", "/6/10"}))
	tracker, repo, sched := setupTracker(t, locator, nil)
	ctx := context.Background()
	user := auth.User("u1")
	marker := "epubcfi(/6/6!/4/2/1:12)"

	tracker.RecordPosition("b1", user, marker, Fallback{}, &PageInfo{Current: 3, Total: 10})
	require.NoError(t, tracker.Flush(ctx, "b1", user))
	assert.Empty(t, sched.pending(), "flush cancels the pending write")
	assert.Zero(t, tracker.Open())
	assert.Equal(t, int32(1), repo.writes.Load())

	pos, err := tracker.GetLastPosition(ctx, "b1", user)
	require.NoError(t, err)
	require.NotNil(t, pos)
	assert.Equal(t, marker, pos.Marker)
	assert.Equal(t, 50, pos.Percent)
	require.NotNil(t, pos.Page)
	assert.Equal(t, PageInfo{Current: 3, Total: 10}, *pos.Page)

	tracker.RecordPosition("b1", user, marker, Fallback{}, &PageInfo{Current: 3, Total: 900})
	require.NoError(t, tracker.Flush(ctx, "b1", user))

	pos, err = tracker.GetLastPosition(ctx, "b1", user)
	require.NoError(t, err)
	assert.Equal(t, 50, pos.Percent, "page count does not feed percent")
}

func TestTracker_FlushWithoutSessionIsNoop(t *testing.T) {
	tracker, repo, _ := setupTracker(t, nil, nil)

	require.NoError(t, tracker.Flush(context.Background(), "b1", auth.AnonymousIdentity))
	assert.Zero(t, repo.writes.Load())
}

func TestTracker_FlushAfterScheduledWriteSkipsRewrite(t *testing.T) {
	tracker, repo, sched := setupTracker(t, nil, nil)

	tracker.RecordPosition("b1", auth.AnonymousIdentity, "/6/2", Fallback{}, nil)
	sched.fireAll()
	require.NoError(t, tracker.Flush(context.Background(), "b1", auth.AnonymousIdentity))

	assert.Equal(t, int32(1), repo.writes.Load())
}

func TestTracker_UnknownPercentKeepsStored(t *testing.T) {
	locator := NewLocationsLocator()
	require.NoError(t, locator.SetLocations("b1", []string{"/6/2", "/6/4", "/6/6"}))
	tracker, _, _ := setupTracker(t, locator, nil)
	ctx := context.Background()

	tracker.RecordPosition("b1", auth.AnonymousIdentity, "/6/6", Fallback{}, nil)
	require.NoError(t, tracker.Flush(ctx, "b1", auth.AnonymousIdentity))

	locator.Forget("b1")
	tracker.RecordPosition("b1", auth.AnonymousIdentity, "/6/4", Fallback{}, nil)

	live, err := tracker.GetLastPosition(ctx, "b1", auth.AnonymousIdentity)
	require.NoError(t, err)
	assert.Equal(t, "/6/4", live.Marker)
	assert.Equal(t, 100, live.Percent)

	require.NoError(t, tracker.Flush(ctx, "b1", auth.AnonymousIdentity))
	stored, err := tracker.GetLastPosition(ctx, "b1", auth.AnonymousIdentity)
	require.NoError(t, err)
	assert.Equal(t, "/6/4", stored.Marker)
	assert.Equal(t, 100, stored.Percent)
}

func TestTracker_UnparsedMarkerDropsPreviousPercent(t *testing.T) {
	locator := NewLocationsLocator()
	require.NoError(t, locator.SetLocations("b1", []string{"/6/2", "/6/4", "/6/6"}))
	tracker, repo, _ := setupTracker(t, locator, nil)
	ctx := context.Background()

	tracker.RecordPosition("b1", auth.AnonymousIdentity, "/6/4", Fallback{}, nil)
	require.NoError(t, tracker.Flush(ctx, "b1", auth.AnonymousIdentity))

	tracker.RecordPosition("b1", auth.AnonymousIdentity, "/6/6", Fallback{}, nil)
	locator.Forget("b1")
	tracker.RecordPosition("b1", auth.AnonymousIdentity, "/6/2", Fallback{}, nil)

	live, err := tracker.GetLastPosition(ctx, "b1", auth.AnonymousIdentity)
	require.NoError(t, err)
	assert.Equal(t, "/6/2", live.Marker)
	assert.Equal(t, 50, live.Percent)

	require.NoError(t, tracker.Flush(ctx, "b1", auth.AnonymousIdentity))
	row, err := repo.Get(ctx, "b1", "")
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, "/6/2", *row.CFI)
	assert.Equal(t, 50, row.ProgressPercent)
}

func TestTracker_LivePositionSurvivesStoreReadError(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	tracker, repo, _ := setupTracker(t, nil, zap.New(core))
	ctx := context.Background()

	tracker.RecordPosition("b1", auth.AnonymousIdentity, "/6/2", Fallback{}, nil)
	repo.failGet.Store(true)

	live, err := tracker.GetLastPosition(ctx, "b1", auth.AnonymousIdentity)
	require.NoError(t, err)
	require.NotNil(t, live)
	assert.Equal(t, "/6/2", live.Marker)
	assert.Equal(t, 1, logs.FilterMessage("Failed to load stored percent").Len())

	require.NoError(t, tracker.Flush(ctx, "b1", auth.AnonymousIdentity))
	_, err = tracker.GetLastPosition(ctx, "b1", auth.AnonymousIdentity)
	assert.Error(t, err, "without a live session the store error is returned")
}

func TestTracker_IdentitiesAreSeparate(t *testing.T) {
	tracker, _, sched := setupTracker(t, nil, nil)
	ctx := context.Background()

	tracker.RecordPosition("b1", auth.AnonymousIdentity, "/6/2", Fallback{}, nil)
	tracker.RecordPosition("b1", auth.User("u1"), "/6/8", Fallback{}, nil)
	require.Len(t, sched.pending(), 2)
	sched.fireAll()

	anon, err := tracker.GetLastPosition(ctx, "b1", auth.AnonymousIdentity)
	require.NoError(t, err)
	assert.Equal(t, "/6/2", anon.Marker)

	mine, err := tracker.GetLastPosition(ctx, "b1", auth.User("u1"))
	require.NoError(t, err)
	assert.Equal(t, "/6/8", mine.Marker)
}

func TestTracker_GetLastPositionNone(t *testing.T) {
	tracker, _, _ := setupTracker(t, nil, nil)

	pos, err := tracker.GetLastPosition(context.Background(), "b1", auth.AnonymousIdentity)
	require.NoError(t, err)
	assert.Nil(t, pos)
}

func TestTracker_FailedWriteIsLoggedAndRetried(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	tracker, repo, sched := setupTracker(t, nil, zap.New(core))
	ctx := context.Background()

	repo.fail.Store(true)
	tracker.RecordPosition("b1", auth.AnonymousIdentity, "/6/2", Fallback{}, nil)
	sched.fireAll()

	require.Equal(t, 1, logs.FilterMessage("Failed to persist reading position").Len())
	row, err := repo.Get(ctx, "b1", "")
	require.NoError(t, err)
	assert.Nil(t, row)

	repo.fail.Store(false)
	tracker.RecordPosition("b1", auth.AnonymousIdentity, "/6/4", Fallback{}, nil)
	sched.fireAll()

	row, err = repo.Get(ctx, "b1", "")
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, "/6/4", *row.CFI)
}

func TestTracker_FailedFlushIsLogged(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	tracker, repo, _ := setupTracker(t, nil, zap.New(core))

	repo.fail.Store(true)
	tracker.RecordPosition("b1", auth.AnonymousIdentity, "/6/2", Fallback{}, nil)

	assert.Error(t, tracker.Flush(context.Background(), "b1", auth.AnonymousIdentity))
	assert.Equal(t, 1, logs.FilterMessage("Failed to flush reading position").Len())
	assert.Zero(t, tracker.Open(), "state is released even when the write fails")
}

func TestTracker_FlushAll(t *testing.T) {
	tracker, repo, _ := setupTracker(t, nil, nil)

	tracker.RecordPosition("b1", auth.AnonymousIdentity, "/6/2", Fallback{}, nil)
	tracker.RecordPosition("b2", auth.User("u1"), "/6/4", Fallback{}, nil)

	require.NoError(t, tracker.FlushAll(context.Background()))
	assert.Equal(t, int32(2), repo.writes.Load())
	assert.Zero(t, tracker.Open())
}

func TestTracker_TimerScheduler(t *testing.T) {
	store, err := database.Open(context.Background(), filepath.Join(t.TempDir(), "test.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	repo := progressrepo.NewRepository(store)

	tracker := NewTracker(repo, nil, TimerScheduler{}, 20*time.Millisecond, zap.NewNop())
	tracker.RecordPosition("b1", auth.AnonymousIdentity, "/6/2", Fallback{}, nil)
	tracker.RecordPosition("b1", auth.AnonymousIdentity, "/6/4", Fallback{}, nil)

	assert.Eventually(t, func() bool {
		row, err := repo.Get(context.Background(), "b1", "")
		return err == nil && row != nil && row.CFI != nil && *row.CFI == "/6/4"
	}, 2*time.Second, 10*time.Millisecond)
}
