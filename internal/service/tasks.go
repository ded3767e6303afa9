package service

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"time"

	"newsagent/internal/domain"
	"newsagent/internal/lock"
)

const (
	TaskCrawl   = "crawl"
	TaskDeliver = "deliver"
)

const contentionMessage = "Another task is running; skipped"

// Result is the outcome of one task invocation as reported to manual callers.
type Result struct {
	Message  string                `json:"message"`
	Skipped  bool                  `json:"skipped"`
	Ingest   *domain.IngestStats   `json:"ingest,omitempty"`
	Delivery *domain.DeliveryStats `json:"delivery,omitempty"`
}

// Tasks runs crawl and delivery under the shared guard and records each
// completed run.
type Tasks struct {
	guard         Guard
	ingest        *IngestService
	delivery      *DeliveryService
	runState      RunStateStore
	deliveryHours []int
	location      *time.Location
	logger        *slog.Logger
	now           func() time.Time
}

func NewTasks(
	guard Guard,
	ingest *IngestService,
	delivery *DeliveryService,
	runState RunStateStore,
	deliveryHours []int,
	location *time.Location,
	logger *slog.Logger,
) *Tasks {
	if location == nil {
		location = time.UTC
	}
	return &Tasks{
		guard:         guard,
		ingest:        ingest,
		delivery:      delivery,
		runState:      runState,
		deliveryHours: deliveryHours,
		location:      location,
		logger:        logger.With("component", "tasks"),
		now:           time.Now,
	}
}

func (t *Tasks) Crawl(ctx context.Context) (*Result, error) {
	var stats *domain.IngestStats
	err := t.guard.Run(ctx, TaskCrawl, func(ctx context.Context) error {
		var err error
		stats, err = t.ingest.Run(ctx)
		if err != nil {
			return err
		}
		t.record(ctx, TaskCrawl, int64(stats.Added))
		return nil
	})
	if errors.Is(err, lock.ErrLockContention) {
		return &Result{Message: contentionMessage, Skipped: true}, nil
	}
	if err != nil {
		return nil, err
	}
	return &Result{Message: stats.Message(), Ingest: stats}, nil
}

// Deliver sends unsent articles regardless of the delivery schedule.
func (t *Tasks) Deliver(ctx context.Context) (*Result, error) {
	return t.deliver(ctx, false)
}

// DeliverScheduled delivers only during a configured delivery hour and at most
// once per calendar hour.
func (t *Tasks) DeliverScheduled(ctx context.Context) (*Result, error) {
	now := t.now().In(t.location)
	if !slices.Contains(t.deliveryHours, now.Hour()) {
		t.logger.Debug("outside delivery hours", "hour", now.Hour())
		return &Result{Message: "Not a delivery hour", Skipped: true}, nil
	}
	return t.deliver(ctx, true)
}

func (t *Tasks) deliver(ctx context.Context, scheduled bool) (*Result, error) {
	var (
		stats   *domain.DeliveryStats
		already bool
	)
	err := t.guard.Run(ctx, TaskDeliver, func(ctx context.Context) error {
		if scheduled {
			state, err := t.runState.Get(ctx, TaskDeliver)
			if err != nil {
				return err
			}
			if t.sameHour(state.LastRunAt, t.now()) {
				already = true
				return nil
			}
		}

		var err error
		stats, err = t.delivery.Deliver(ctx)
		if err != nil {
			return err
		}
		t.record(ctx, TaskDeliver, int64(stats.Delivered))
		return nil
	})
	if errors.Is(err, lock.ErrLockContention) {
		return &Result{Message: contentionMessage, Skipped: true}, nil
	}
	if err != nil {
		return nil, err
	}
	if already {
		t.logger.Info("delivery already ran this hour")
		return &Result{Message: "Already delivered this hour", Skipped: true}, nil
	}
	return &Result{Message: stats.Message(), Delivery: stats}, nil
}

func (t *Tasks) sameHour(a, b time.Time) bool {
	if a.IsZero() {
		return false
	}
	a, b = a.In(t.location), b.In(t.location)
	return a.Year() == b.Year() && a.YearDay() == b.YearDay() && a.Hour() == b.Hour()
}

func (t *Tasks) record(ctx context.Context, task string, count int64) {
	if t.runState == nil {
		return
	}
	err := t.runState.Record(ctx, &domain.RunState{
		Task:      task,
		LastRunAt: t.now(),
		LastCount: count,
	})
	if err != nil {
		t.logger.Warn("record run state failed", "task", task, "error", err)
	}
}
