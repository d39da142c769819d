package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/nhle/tracker/internal/model"
)

// CreateSession inserts a session record.
func (q *queries) CreateSession(ctx context.Context, s model.Session) error {
	_, err := q.ext.ExecContext(ctx, `
		INSERT INTO sessions (token_hash, user_id, persistent, expires_at, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		s.TokenHash, s.UserID, boolToInt(s.Persistent), s.ExpiresAt.UTC(), s.CreatedAt.UTC(),
	)
	return wrapErr(err, "creating session")
}

// GetSession returns the session stored under tokenHash, whether or not it
// has expired.
func (q *queries) GetSession(ctx context.Context, tokenHash string) (model.Session, bool, error) {
	var s model.Session
	err := sqlx.GetContext(ctx, q.ext, &s, `
		SELECT token_hash, user_id, persistent, expires_at, created_at
		FROM sessions WHERE token_hash = ?`, tokenHash)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Session{}, false, nil
	}
	if err != nil {
		return model.Session{}, false, fmt.Errorf("getting session: %w", err)
	}
	return s, true, nil
}

// DeleteSession removes a session. Missing sessions are ignored.
func (q *queries) DeleteSession(ctx context.Context, tokenHash string) error {
	_, err := q.ext.ExecContext(ctx, "DELETE FROM sessions WHERE token_hash = ?", tokenHash)
	return wrapErr(err, "deleting session")
}

// DeleteUserSessions removes every session of userID except exceptHash.
func (q *queries) DeleteUserSessions(ctx context.Context, userID, exceptHash string) error {
	_, err := q.ext.ExecContext(ctx,
		"DELETE FROM sessions WHERE user_id = ? AND token_hash != ?",
		userID, exceptHash)
	return wrapErr(err, "deleting sessions for user %s", userID)
}

// DeleteExpiredSessions removes sessions that expired at or before now.
func (q *queries) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	result, err := q.ext.ExecContext(ctx,
		"DELETE FROM sessions WHERE expires_at <= ?", now.UTC())
	if err != nil {
		return 0, wrapErr(err, "deleting expired sessions")
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting deleted sessions: %w", err)
	}
	return n, nil
}
