package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeCollector struct {
	removed []string
	err     error
	calls   chan struct{}
}

func (f *fakeCollector) CollectOrphans(context.Context) ([]string, error) {
	if f.calls != nil {
		f.calls <- struct{}{}
	}
	return f.removed, f.err
}

func TestValidateSchedule(t *testing.T) {
	assert.NoError(t, ValidateSchedule(DefaultGCSchedule))
	assert.NoError(t, ValidateSchedule("*/15 * * * *"))
	assert.Error(t, ValidateSchedule("not a schedule"))
	assert.Error(t, ValidateSchedule("0 0 3 * * *"), "seconds field is not accepted")
}

func TestGCScheduler_Disabled(t *testing.T) {
	s := NewGCScheduler(&fakeCollector{}, false, "", zap.NewNop())

	require.NoError(t, s.Start(context.Background()))
	assert.False(t, s.IsRunning())
	assert.Nil(t, s.GetNextRunTime())
}

func TestGCScheduler_InvalidSchedule(t *testing.T) {
	s := NewGCScheduler(&fakeCollector{}, true, "every day", zap.NewNop())

	assert.Error(t, s.Start(context.Background()))
	assert.False(t, s.IsRunning())
}

func TestGCScheduler_StartStop(t *testing.T) {
	s := NewGCScheduler(&fakeCollector{}, true, "0 3 * * *", zap.NewNop())

	require.NoError(t, s.Start(context.Background()))
	assert.True(t, s.IsRunning())
	require.NoError(t, s.Start(context.Background()), "second start is a no-op")

	next := s.GetNextRunTime()
	require.NotNil(t, next)
	assert.Equal(t, 3, next.Hour())
	assert.Equal(t, 0, next.Minute())

	s.Stop()
	assert.False(t, s.IsRunning())
	assert.Nil(t, s.GetNextRunTime())
	s.Stop()
}

func TestGCScheduler_StopsWithContext(t *testing.T) {
	s := NewGCScheduler(&fakeCollector{}, true, "", zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())

	require.NoError(t, s.Start(ctx))
	cancel()

	assert.Eventually(t, func() bool { return !s.IsRunning() }, time.Second, 10*time.Millisecond)
}

func TestGCScheduler_RunNowRecordsResult(t *testing.T) {
	collector := &fakeCollector{removed: []string{"a", "b"}, calls: make(chan struct{}, 1)}
	s := NewGCScheduler(collector, true, "", zap.NewNop())
	assert.Nil(t, s.LastRun())

	s.RunNow()
	<-collector.calls

	require.Eventually(t, func() bool { return s.LastRun() != nil }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 2, s.LastRun().Removed)
	assert.NoError(t, s.LastRun().Err)
}

func TestGCScheduler_RunNowRecordsFailure(t *testing.T) {
	boom := errors.New("permission denied")
	collector := &fakeCollector{err: boom}
	s := NewGCScheduler(collector, true, "", zap.NewNop())

	s.RunNow()

	require.Eventually(t, func() bool { return s.LastRun() != nil }, time.Second, 5*time.Millisecond)
	assert.ErrorIs(t, s.LastRun().Err, boom)
}
