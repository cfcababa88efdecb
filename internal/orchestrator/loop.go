package orchestrator

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

const defaultParallelism = 4

// Loop drives the recurring scan/process schedule. It is an explicit,
// cancellable ticker; Tick is exported so tests can drive cycles
// without waiting on wall-clock time.
type Loop struct {
	orchestrator *Orchestrator
	logger       *zap.Logger
	interval     time.Duration
	parallelism  int64
}

func NewLoop(o *Orchestrator, logger *zap.Logger, interval time.Duration, parallelism int) *Loop {
	if parallelism <= 0 {
		parallelism = defaultParallelism
	}
	return &Loop{
		orchestrator: o,
		logger:       logger,
		interval:     interval,
		parallelism:  int64(parallelism),
	}
}

// Run ticks until the context is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	l.logger.Info("scheduling loop started", zap.Duration("interval", l.interval))

	for {
		select {
		case <-ctx.Done():
			l.logger.Info("scheduling loop stopped")
			return ctx.Err()
		case <-ticker.C:
			l.Tick(ctx)
		}
	}
}

// Tick visits every active user once. Cycles run bounded-parallel, and
// one user's failure is logged without aborting the others.
func (l *Loop) Tick(ctx context.Context) {
	users := l.orchestrator.ActiveUsers()
	if len(users) == 0 {
		return
	}

	sem := semaphore.NewWeighted(l.parallelism)
	group, ctx := errgroup.WithContext(ctx)

	for _, userID := range users {
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}

		group.Go(func() error {
			defer sem.Release(1)

			if err := l.orchestrator.Cycle(ctx, userID); err != nil {
				l.logger.Error("user cycle failed",
					zap.String("user_id", userID),
					zap.Error(err),
				)
			}
			return nil
		})
	}

	_ = group.Wait()
}
