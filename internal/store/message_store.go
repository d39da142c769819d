package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/nhle/tracker/internal/model"
)

const messageColumns = "id, project_id, author_id, body, created_at, updated_at"

// CreateMessage inserts a project message and its todo references.
func (q *queries) CreateMessage(ctx context.Context, msg model.ProjectMessage) error {
	if strings.TrimSpace(msg.Body) == "" {
		return fmt.Errorf("message body must not be empty")
	}
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	msg.CreatedAt = now
	msg.UpdatedAt = now

	_, err := q.ext.ExecContext(ctx, `
		INSERT INTO project_messages (`+messageColumns+`)
		VALUES (?, ?, ?, ?, ?, ?)`,
		msg.ID, msg.ProjectID, msg.AuthorID, msg.Body, msg.CreatedAt, msg.UpdatedAt,
	)
	if err != nil {
		return wrapErr(err, "creating message")
	}

	return q.setMessageTodos(ctx, msg.ID, msg.TodoIDs)
}

// GetMessageByID retrieves a single message with its todo references.
func (q *queries) GetMessageByID(ctx context.Context, id string) (*model.ProjectMessage, error) {
	var msg model.ProjectMessage
	err := sqlx.GetContext(ctx, q.ext, &msg,
		"SELECT "+messageColumns+" FROM project_messages WHERE id = ?", id)
	if err != nil {
		return nil, wrapErr(err, "getting message %s", id)
	}
	if err := q.loadMessageTodos(ctx, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// GetMessages retrieves a project's messages, newest first.
func (q *queries) GetMessages(ctx context.Context, projectID string) ([]model.ProjectMessage, error) {
	var msgs []model.ProjectMessage
	err := sqlx.SelectContext(ctx, q.ext, &msgs, `
		SELECT `+messageColumns+` FROM project_messages
		WHERE project_id = ?
		ORDER BY created_at DESC, id`, projectID)
	if err != nil {
		return nil, wrapErr(err, "querying messages for project %s", projectID)
	}
	for i := range msgs {
		if err := q.loadMessageTodos(ctx, &msgs[i]); err != nil {
			return nil, err
		}
	}
	return msgs, nil
}

// UpdateMessage replaces a message's body and todo references.
func (q *queries) UpdateMessage(ctx context.Context, msg model.ProjectMessage) error {
	if strings.TrimSpace(msg.Body) == "" {
		return fmt.Errorf("message body must not be empty")
	}
	result, err := q.ext.ExecContext(ctx,
		"UPDATE project_messages SET body = ?, updated_at = ? WHERE id = ?",
		msg.Body, time.Now().UTC(), msg.ID)
	if err != nil {
		return wrapErr(err, "updating message %s", msg.ID)
	}
	if err := requireAffected(result, "message", msg.ID); err != nil {
		return err
	}
	return q.setMessageTodos(ctx, msg.ID, msg.TodoIDs)
}

// DeleteMessage removes a message by ID.
func (q *queries) DeleteMessage(ctx context.Context, id string) error {
	result, err := q.ext.ExecContext(ctx, "DELETE FROM project_messages WHERE id = ?", id)
	if err != nil {
		return wrapErr(err, "deleting message %s", id)
	}
	return requireAffected(result, "message", id)
}

func (q *queries) setMessageTodos(ctx context.Context, messageID string, todoIDs []string) error {
	if _, err := q.ext.ExecContext(ctx,
		"DELETE FROM message_todos WHERE message_id = ?", messageID); err != nil {
		return wrapErr(err, "clearing message todos")
	}
	for _, todoID := range todoIDs {
		if _, err := q.ext.ExecContext(ctx,
			"INSERT OR IGNORE INTO message_todos (message_id, todo_id) VALUES (?, ?)",
			messageID, todoID); err != nil {
			return wrapErr(err, "referencing todo %s from message %s", todoID, messageID)
		}
	}
	return nil
}

func (q *queries) loadMessageTodos(ctx context.Context, msg *model.ProjectMessage) error {
	ids := []string{}
	err := sqlx.SelectContext(ctx, q.ext, &ids,
		"SELECT todo_id FROM message_todos WHERE message_id = ? ORDER BY todo_id", msg.ID)
	if err != nil {
		return wrapErr(err, "loading todos for message %s", msg.ID)
	}
	msg.TodoIDs = ids
	return nil
}
