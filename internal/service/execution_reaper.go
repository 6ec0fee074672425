package service

import (
	"context"
	"sync"
	"time"

	"github.com/aihubhq/aihub/internal/domain"
	"github.com/aihubhq/aihub/pkg/logger"
)

// ExecutionReaper periodically fails executions whose webhook never answered
type ExecutionReaper struct {
	executions  domain.ExecutionService
	logger      logger.Logger
	interval    time.Duration
	maxAge      time.Duration
	stopChan    chan struct{}
	stoppedChan chan struct{}
	mu          sync.Mutex
	running     bool
}

func NewExecutionReaper(executions domain.ExecutionService, log logger.Logger, interval, maxAge time.Duration) *ExecutionReaper {
	return &ExecutionReaper{
		executions:  executions,
		logger:      log,
		interval:    interval,
		maxAge:      maxAge,
		stopChan:    make(chan struct{}),
		stoppedChan: make(chan struct{}),
	}
}

func (r *ExecutionReaper) Start(ctx context.Context) {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		r.logger.Warn("Execution reaper already running")
		return
	}
	r.running = true
	r.mu.Unlock()

	r.logger.WithField("interval", r.interval.String()).
		WithField("max_age", r.maxAge.String()).
		Info("Starting execution reaper")

	go r.run(ctx)
}

// Stop waits up to 5 seconds for the current sweep to finish
func (r *ExecutionReaper) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	r.running = false
	r.mu.Unlock()

	close(r.stopChan)

	select {
	case <-r.stoppedChan:
		r.logger.Info("Execution reaper stopped")
	case <-time.After(5 * time.Second):
		r.logger.Warn("Execution reaper stop timeout exceeded")
	}
}

func (r *ExecutionReaper) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

func (r *ExecutionReaper) run(ctx context.Context) {
	defer close(r.stoppedChan)
	defer func() {
		r.mu.Lock()
		r.running = false
		r.mu.Unlock()
	}()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.stopChan:
			return
		case <-ticker.C:
			r.sweep(ctx)
		}
	}
}

func (r *ExecutionReaper) sweep(ctx context.Context) {
	if _, err := r.executions.FailStale(ctx, r.maxAge); err != nil {
		r.logger.WithField("error", err.Error()).Error("Failed to reap stale executions")
	}
}
