package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aihubhq/aihub/internal/domain/mocks"
)

func TestExecutionReaper_NewExecutionReaper(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	reaper := NewExecutionReaper(mocks.NewMockExecutionService(ctrl), setupMockLogger(ctrl), time.Minute, 15*time.Minute)

	require.NotNil(t, reaper)
	assert.Equal(t, time.Minute, reaper.interval)
	assert.Equal(t, 15*time.Minute, reaper.maxAge)
	assert.False(t, reaper.IsRunning())
}

func TestExecutionReaper_StartStop(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	executions := mocks.NewMockExecutionService(ctrl)
	var sweeps int32
	executions.EXPECT().FailStale(gomock.Any(), 15*time.Minute).
		DoAndReturn(func(context.Context, time.Duration) (int64, error) {
			atomic.AddInt32(&sweeps, 1)
			return 0, nil
		}).
		MinTimes(1)

	reaper := NewExecutionReaper(executions, setupMockLogger(ctrl), 50*time.Millisecond, 15*time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reaper.Start(ctx)
	assert.True(t, reaper.IsRunning())

	// second start is a no-op
	reaper.Start(ctx)

	time.Sleep(120 * time.Millisecond)
	reaper.Stop()

	assert.False(t, reaper.IsRunning())
	assert.GreaterOrEqual(t, atomic.LoadInt32(&sweeps), int32(2))

	// stopping twice is safe
	reaper.Stop()
}

func TestExecutionReaper_ContextCancelled(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	executions := mocks.NewMockExecutionService(ctrl)
	executions.EXPECT().FailStale(gomock.Any(), gomock.Any()).Return(int64(0), errors.New("db down")).MinTimes(1)

	reaper := NewExecutionReaper(executions, setupMockLogger(ctrl), time.Hour, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	reaper.Start(ctx)
	cancel()

	select {
	case <-reaper.stoppedChan:
	case <-time.After(time.Second):
		t.Fatal("reaper did not stop after context cancellation")
	}
	assert.False(t, reaper.IsRunning())
}
