package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// DefaultGCSchedule runs collection daily at 03:00.
const DefaultGCSchedule = "0 3 * * *"

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// OrphanCollector removes unreferenced local files.
type OrphanCollector interface {
	CollectOrphans(ctx context.Context) ([]string, error)
}

// RunResult describes the last collection.
type RunResult struct {
	StartedAt time.Time
	Duration  time.Duration
	Removed   int
	Err       error
}

// GCScheduler periodically collects orphan files.
type GCScheduler struct {
	collector OrphanCollector
	schedule  string
	enabled   bool
	logger    *zap.Logger

	cron       *cron.Cron
	entryID    cron.EntryID
	mu         sync.RWMutex
	isRunning  bool
	cancelFunc context.CancelFunc
	lastRun    *RunResult
}

// NewGCScheduler creates a new scheduler instance. An empty schedule uses
// DefaultGCSchedule.
func NewGCScheduler(collector OrphanCollector, enabled bool, schedule string, logger *zap.Logger) *GCScheduler {
	if schedule == "" {
		schedule = DefaultGCSchedule
	}
	return &GCScheduler{
		collector: collector,
		schedule:  schedule,
		enabled:   enabled,
		logger:    logger.Named("gc"),
		cron:      cron.New(cron.WithParser(parser)),
	}
}

// ValidateSchedule checks a five-field cron expression.
func ValidateSchedule(schedule string) error {
	_, err := parser.Parse(schedule)
	return err
}

// Start begins the scheduler if collection is enabled.
func (s *GCScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	if !s.enabled {
		s.logger.Info("Orphan collection disabled")
		return nil
	}

	if err := ValidateSchedule(s.schedule); err != nil {
		return fmt.Errorf("invalid cron schedule '%s': %w", s.schedule, err)
	}

	entryID, err := s.cron.AddFunc(s.schedule, func() {
		s.runCollect(context.Background())
	})
	if err != nil {
		return fmt.Errorf("failed to schedule gc job: %w", err)
	}
	s.entryID = entryID

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	s.cron.Start()
	s.isRunning = true

	s.logger.Info("Orphan collection scheduled",
		zap.String("schedule", s.schedule),
		zap.Time("next_run", s.cron.Entry(entryID).Next))

	go func() {
		<-cancelCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop waits for a running collection and stops the scheduler.
func (s *GCScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()

	s.cron.Remove(s.entryID)
	if s.cancelFunc != nil {
		s.cancelFunc()
	}
	s.isRunning = false
	s.cancelFunc = nil

	s.logger.Info("Orphan collection stopped")
}

// RunNow triggers an immediate collection in the background.
func (s *GCScheduler) RunNow() {
	go s.runCollect(context.Background())
}

// IsRunning returns whether the scheduler is active.
func (s *GCScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetNextRunTime returns when the next collection will occur.
func (s *GCScheduler) GetNextRunTime() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}

	entry := s.cron.Entry(s.entryID)
	if !entry.Valid() {
		return nil
	}
	t := entry.Next
	return &t
}

// LastRun returns the result of the most recent collection, or nil.
func (s *GCScheduler) LastRun() *RunResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.lastRun == nil {
		return nil
	}
	r := *s.lastRun
	return &r
}

func (s *GCScheduler) runCollect(ctx context.Context) {
	start := time.Now()
	removed, err := s.collector.CollectOrphans(ctx)
	result := &RunResult{StartedAt: start, Duration: time.Since(start), Removed: len(removed), Err: err}

	if err != nil {
		s.logger.Error("Orphan collection failed", zap.Int("removed", len(removed)), zap.Error(err))
	} else {
		s.logger.Info("Orphan collection finished",
			zap.Int("removed", len(removed)),
			zap.Duration("duration", result.Duration.Round(time.Millisecond)))
	}

	s.mu.Lock()
	s.lastRun = result
	s.mu.Unlock()
}
