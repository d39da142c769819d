package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/nhle/tracker/internal/model"
)

// CreateTimeLog inserts a time log entry. Entries are never updated.
func (q *queries) CreateTimeLog(ctx context.Context, log model.TimeLog) error {
	if log.Minutes <= 0 {
		return fmt.Errorf("time log minutes must be positive")
	}
	if log.ID == "" {
		log.ID = uuid.New().String()
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}
	if log.LoggedAt.IsZero() {
		log.LoggedAt = log.CreatedAt
	}

	_, err := q.ext.ExecContext(ctx, `
		INSERT INTO time_logs (id, todo_id, user_id, minutes, note, logged_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		log.ID, log.TodoID, log.UserID, log.Minutes, log.Note,
		log.LoggedAt.UTC(), log.CreatedAt,
	)
	return wrapErr(err, "creating time log for todo %s", log.TodoID)
}

// GetTimeLogs returns a todo's time logs, most recent first.
func (q *queries) GetTimeLogs(ctx context.Context, todoID string) ([]model.TimeLog, error) {
	var logs []model.TimeLog
	err := sqlx.SelectContext(ctx, q.ext, &logs, `
		SELECT id, todo_id, user_id, minutes, note, logged_at, created_at
		FROM time_logs WHERE todo_id = ?
		ORDER BY logged_at DESC, id`, todoID)
	if err != nil {
		return nil, wrapErr(err, "querying time logs for todo %s", todoID)
	}
	return logs, nil
}

// GetTotalMinutes sums the minutes logged against a todo.
func (q *queries) GetTotalMinutes(ctx context.Context, todoID string) (int, error) {
	var total int
	err := sqlx.GetContext(ctx, q.ext, &total,
		"SELECT COALESCE(SUM(minutes), 0) FROM time_logs WHERE todo_id = ?", todoID)
	if err != nil {
		return 0, wrapErr(err, "summing time logs for todo %s", todoID)
	}
	return total, nil
}
