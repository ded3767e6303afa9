// Package lock provides the single-flight guard shared by ingestion and delivery.
package lock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// ErrLockContention is returned when the lock could not be acquired within the wait.
var ErrLockContention = errors.New("lock contention")

// Locker acquires a process-wide exclusive lock, blocking until ctx is done.
type Locker interface {
	Acquire(ctx context.Context) (release func(), err error)
}

// Guard runs tasks under a Locker with a bounded wait. Tasks that cannot get
// the lock are skipped, never queued.
type Guard struct {
	locker Locker
	wait   time.Duration
	logger *slog.Logger
}

func NewGuard(locker Locker, wait time.Duration, logger *slog.Logger) *Guard {
	return &Guard{
		locker: locker,
		wait:   wait,
		logger: logger.With("component", "guard"),
	}
}

func (g *Guard) Run(ctx context.Context, task string, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	acquireCtx, cancel := context.WithTimeout(ctx, g.wait)
	release, err := g.locker.Acquire(acquireCtx)
	cancel()
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if errors.Is(err, ErrLockContention) {
			g.logger.Warn("task skipped, another task holds the lock",
				"task", task,
				"wait", g.wait,
			)
			return err
		}
		return fmt.Errorf("acquire lock for %s: %w", task, err)
	}
	defer release()

	g.logger.Debug("lock acquired", "task", task)
	return fn(ctx)
}
