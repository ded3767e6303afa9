package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"newsagent/internal/domain"
)

type RunStateStore struct {
	db *sqlx.DB
}

func NewRunStateStore(db *sqlx.DB) *RunStateStore {
	return &RunStateStore{db: db}
}

// Get returns the last recorded run of task, or a zero state if it never ran.
func (s *RunStateStore) Get(ctx context.Context, task string) (*domain.RunState, error) {
	var state domain.RunState
	query := `
		SELECT task, last_run_at, last_count, total_count
		FROM run_state
		WHERE task = $1`

	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &state, query, task)
	if errors.Is(err, sql.ErrNoRows) {
		return &domain.RunState{Task: task}, nil
	}
	if err != nil {
		return nil, err
	}
	return &state, nil
}

// Record stores a completed run and adds its count to the running total.
func (s *RunStateStore) Record(ctx context.Context, state *domain.RunState) error {
	query := `
		INSERT INTO run_state (task, last_run_at, last_count, total_count)
		VALUES ($1, $2, $3, $3)
		ON CONFLICT (task) DO UPDATE SET
			last_run_at = EXCLUDED.last_run_at,
			last_count = EXCLUDED.last_count,
			total_count = run_state.total_count + EXCLUDED.last_count`

	_, err := GetExecutor(ctx, s.db).ExecContext(ctx, query,
		state.Task,
		state.LastRunAt,
		state.LastCount,
	)
	return err
}
