package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/nhle/tracker/internal/authz"
	"github.com/nhle/tracker/internal/model"
	"github.com/nhle/tracker/internal/store"
)

// TimeLogInput records time spent on a todo. LoggedAt defaults to now.
type TimeLogInput struct {
	Minutes  int    `json:"minutes"`
	Note     string `json:"note"`
	LoggedAt string `json:"logged_at"`
}

// TimeLogSummary is a todo's time logs with their total.
type TimeLogSummary struct {
	Logs         []model.TimeLog `json:"logs"`
	TotalMinutes int             `json:"total_minutes"`
}

// LogTime records time against a todo the caller can view. Time logs are
// immutable once written.
func (s *Service) LogTime(ctx context.Context, todoID string, in TimeLogInput) (model.TimeLog, error) {
	p, err := caller(ctx)
	if err != nil {
		return model.TimeLog{}, err
	}
	if in.Minutes <= 0 {
		return model.TimeLog{}, invalid("minutes must be positive")
	}
	if prob := checkLength("note", in.Note, 0, MaxTimeLogNote); prob != "" {
		return model.TimeLog{}, invalid(prob)
	}

	now := s.sessions.Now().UTC()
	entry := model.TimeLog{
		ID:        uuid.NewString(),
		TodoID:    todoID,
		UserID:    p.UserID(),
		Minutes:   in.Minutes,
		Note:      strings.TrimSpace(in.Note),
		LoggedAt:  now,
		CreatedAt: now,
	}
	if strings.TrimSpace(in.LoggedAt) != "" {
		at, prob := parseDate("logged_at", in.LoggedAt)
		if prob != "" {
			return model.TimeLog{}, invalid(prob)
		}
		entry.LoggedAt = at
	}

	err = s.inTx(ctx, "log time", func(q store.Queries) error {
		snap, err := loadTodo(ctx, newProjectCache(q), todoID)
		if err != nil {
			return err
		}
		if !authz.CanAddTimeLog(p, snap) {
			return ErrNotFound
		}
		return storeErr(q.CreateTimeLog(ctx, entry), "creating time log")
	})
	if err != nil {
		return model.TimeLog{}, err
	}
	return entry, nil
}

// ListTimeLogs returns a todo's time logs, newest first, with their total.
func (s *Service) ListTimeLogs(ctx context.Context, todoID string) (TimeLogSummary, error) {
	p, err := caller(ctx)
	if err != nil {
		return TimeLogSummary{}, err
	}
	snap, err := loadTodo(ctx, newProjectCache(s.store), todoID)
	if err != nil {
		return TimeLogSummary{}, s.fail("list time logs", err)
	}
	if !authz.CanViewTimeLogs(p, snap) {
		return TimeLogSummary{}, ErrNotFound
	}

	logs, err := s.store.GetTimeLogs(ctx, todoID)
	if err != nil {
		return TimeLogSummary{}, s.fail("list time logs", err)
	}
	total, err := s.store.GetTotalMinutes(ctx, todoID)
	if err != nil {
		return TimeLogSummary{}, s.fail("list time logs", err)
	}
	if logs == nil {
		logs = []model.TimeLog{}
	}
	return TimeLogSummary{Logs: logs, TotalMinutes: total}, nil
}
