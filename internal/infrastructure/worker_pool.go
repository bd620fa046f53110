package infrastructure

import (
	"context"
	"log/slog"
	"runtime/debug"
	"time"

	"golang.org/x/sync/errgroup"
)

// WorkerPool runs inbound events with bounded concurrency. Submit blocks
// while every worker is busy, which pushes back on the poll loop.
type WorkerPool struct {
	group  errgroup.Group
	logger *slog.Logger
}

func NewWorkerPool(size int, logger *slog.Logger) *WorkerPool {
	if size <= 0 {
		size = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	p := &WorkerPool{logger: logger.With("component", "worker_pool")}
	p.group.SetLimit(size)
	return p
}

const submitRetry = 5 * time.Millisecond

// Submit schedules task, waiting while every worker is busy. It returns false
// without running the task when ctx is done before a worker frees up.
func (p *WorkerPool) Submit(ctx context.Context, task func(ctx context.Context)) bool {
	run := func() error {
		defer func() {
			if r := recover(); r != nil {
				p.logger.Error("task panicked", "panic", r, "stack", string(debug.Stack()))
			}
		}()
		task(ctx)
		return nil
	}

	ticker := time.NewTicker(submitRetry)
	defer ticker.Stop()
	for {
		if ctx.Err() != nil {
			return false
		}
		if p.group.TryGo(run) {
			return true
		}
		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
		}
	}
}

// Wait blocks until every submitted task has returned.
func (p *WorkerPool) Wait() {
	_ = p.group.Wait()
}
