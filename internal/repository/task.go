package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"llama-arcade/internal/model"
)

const dailyTaskColumns = `id, user_id, task_type, completed, completed_at, reward, date, created_at`

// TaskRepository handles daily task rows.
type TaskRepository struct {
	db DBTX
}

// NewTaskRepository creates a new TaskRepository instance.
func NewTaskRepository(db DBTX) *TaskRepository {
	return &TaskRepository{db: db}
}

func scanDailyTask(row pgx.Row) (*model.DailyTask, error) {
	var t model.DailyTask
	if err := row.Scan(
		&t.ID,
		&t.UserID,
		&t.TaskType,
		&t.Completed,
		&t.CompletedAt,
		&t.Reward,
		&t.Date,
		&t.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &t, nil
}

// Seed creates one row per catalog entry for the date. Existing rows are left
// alone, so calling it again is a no-op.
func (r *TaskRepository) Seed(ctx context.Context, userID, date string, catalog map[string]decimal.Decimal) error {
	const query = `
		INSERT INTO daily_tasks (user_id, task_type, reward, date)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, task_type, date) DO NOTHING
	`

	types := make([]string, 0, len(catalog))
	for t := range catalog {
		types = append(types, t)
	}
	sort.Strings(types)

	for _, t := range types {
		if _, err := r.db.Exec(ctx, query, userID, t, catalog[t], date); err != nil {
			return fmt.Errorf("failed to create daily task %s: %w", t, err)
		}
	}
	return nil
}

// ListForDate returns a user's tasks for one date ordered by task type.
func (r *TaskRepository) ListForDate(ctx context.Context, userID, date string) ([]*model.DailyTask, error) {
	query := `SELECT ` + dailyTaskColumns + ` FROM daily_tasks WHERE user_id = $1 AND date = $2 ORDER BY task_type`

	rows, err := r.db.Query(ctx, query, userID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to get daily tasks: %w", err)
	}
	defer rows.Close()

	tasks := make([]*model.DailyTask, 0)
	for rows.Next() {
		t, err := scanDailyTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan daily task: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating daily tasks: %w", err)
	}
	return tasks, nil
}

// MarkCompleted flips an incomplete task to completed. Only one caller can win
// the transition; every other caller gets ErrTaskNotAvailable.
func (r *TaskRepository) MarkCompleted(ctx context.Context, userID, taskType, date string) (*model.DailyTask, error) {
	query := `
		UPDATE daily_tasks
		SET completed = TRUE, completed_at = NOW()
		WHERE user_id = $1 AND task_type = $2 AND date = $3 AND completed = FALSE
		RETURNING ` + dailyTaskColumns

	t, err := scanDailyTask(r.db.QueryRow(ctx, query, userID, taskType, date))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTaskNotAvailable
		}
		return nil, fmt.Errorf("failed to complete task: %w", err)
	}
	return t, nil
}
