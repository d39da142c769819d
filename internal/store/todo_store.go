package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/nhle/tracker/internal/model"
)

const todoColumns = `todos.id, todos.title, todos.description, todos.created_by,
	todos.assigned_to, todos.priority, todos.status, todos.due_date,
	todos.estimated_minutes, todos.created_at, todos.completed_at, todos.updated_at`

// CreateTodo inserts a new todo. Generates a UUID if ID is empty. Project
// links and recurrence are written separately.
func (q *queries) CreateTodo(ctx context.Context, todo model.Todo) error {
	if strings.TrimSpace(todo.Title) == "" {
		return fmt.Errorf("todo title must not be empty")
	}
	if todo.ID == "" {
		todo.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	todo.CreatedAt = now
	todo.UpdatedAt = now
	if todo.Status == "" {
		todo.Status = model.TodoStatusPending
	}
	if todo.Priority == "" {
		todo.Priority = model.PriorityMedium
	}
	if todo.Status == model.TodoStatusCompleted && todo.CompletedAt == nil {
		todo.CompletedAt = &now
	}

	_, err := q.ext.ExecContext(ctx, `
		INSERT INTO todos (
			id, title, description, created_by, assigned_to,
			priority, status, due_date, estimated_minutes,
			created_at, completed_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		todo.ID, todo.Title, todo.Description, todo.CreatedBy, todo.AssignedTo,
		string(todo.Priority), string(todo.Status), todo.DueDate, todo.EstimatedMinutes,
		todo.CreatedAt, todo.CompletedAt, todo.UpdatedAt,
	)
	return wrapErr(err, "creating todo")
}

// UpdateTodo updates an existing todo's fields by ID.
func (q *queries) UpdateTodo(ctx context.Context, todo model.Todo) error {
	if strings.TrimSpace(todo.Title) == "" {
		return fmt.Errorf("todo title must not be empty")
	}

	now := time.Now().UTC()
	todo.UpdatedAt = now

	// Auto-manage completed_at based on status.
	if todo.Status == model.TodoStatusCompleted && todo.CompletedAt == nil {
		todo.CompletedAt = &now
	} else if todo.Status != model.TodoStatusCompleted {
		todo.CompletedAt = nil
	}

	result, err := q.ext.ExecContext(ctx, `
		UPDATE todos SET
			title = ?, description = ?, assigned_to = ?,
			priority = ?, status = ?, due_date = ?, estimated_minutes = ?,
			completed_at = ?, updated_at = ?
		WHERE id = ?`,
		todo.Title, todo.Description, todo.AssignedTo,
		string(todo.Priority), string(todo.Status), todo.DueDate, todo.EstimatedMinutes,
		todo.CompletedAt, todo.UpdatedAt,
		todo.ID,
	)
	if err != nil {
		return wrapErr(err, "updating todo %s", todo.ID)
	}
	return requireAffected(result, "todo", todo.ID)
}

// DeleteTodo removes a todo by ID. Cascades to time_logs,
// recurrence_patterns, todo_projects and message_todos.
func (q *queries) DeleteTodo(ctx context.Context, id string) error {
	result, err := q.ext.ExecContext(ctx, "DELETE FROM todos WHERE id = ?", id)
	if err != nil {
		return wrapErr(err, "deleting todo %s", id)
	}
	return requireAffected(result, "todo", id)
}

// GetTodoByID retrieves a single todo by ID, including its project links
// and recurrence.
func (q *queries) GetTodoByID(ctx context.Context, id string) (*model.Todo, error) {
	row := q.ext.QueryRowxContext(ctx, "SELECT "+todoColumns+" FROM todos WHERE todos.id = ?", id)
	todo, err := scanTodo(row)
	if err != nil {
		return nil, wrapErr(err, "getting todo %s", id)
	}

	if err := q.loadTodoRelations(ctx, &todo); err != nil {
		return nil, err
	}
	return &todo, nil
}

// GetTodos retrieves todos matching the filter.
func (q *queries) GetTodos(ctx context.Context, filter TodoFilter) ([]model.Todo, error) {
	query, args := buildTodoQuery("SELECT "+todoColumns, filter)

	rows, err := q.ext.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, wrapErr(err, "querying todos")
	}
	defer rows.Close()

	var todos []model.Todo
	for rows.Next() {
		todo, err := scanTodo(rows)
		if err != nil {
			return nil, wrapErr(err, "scanning todo row")
		}
		todos = append(todos, todo)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	for i := range todos {
		if err := q.loadTodoRelations(ctx, &todos[i]); err != nil {
			return nil, err
		}
	}

	return todos, nil
}

// loadTodoRelations fills ProjectIDs and Recurrence.
func (q *queries) loadTodoRelations(ctx context.Context, todo *model.Todo) error {
	ids := []string{}
	err := sqlx.SelectContext(ctx, q.ext, &ids,
		"SELECT project_id FROM todo_projects WHERE todo_id = ? ORDER BY project_id", todo.ID)
	if err != nil {
		return wrapErr(err, "loading projects for todo %s", todo.ID)
	}
	todo.ProjectIDs = ids

	var pattern model.RecurrencePattern
	err = sqlx.GetContext(ctx, q.ext, &pattern, `
		SELECT todo_id, frequency, interval_count, ends_on, created_at
		FROM recurrence_patterns WHERE todo_id = ?`, todo.ID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		todo.Recurrence = nil
	case err != nil:
		return wrapErr(err, "loading recurrence for todo %s", todo.ID)
	default:
		todo.Recurrence = &pattern
	}
	return nil
}

// SetTodoProjects replaces all project links for a todo. Call it inside
// WithTx together with the field update so both land or neither does.
func (q *queries) SetTodoProjects(ctx context.Context, todoID string, projectIDs []string) error {
	if _, err := q.ext.ExecContext(ctx,
		"DELETE FROM todo_projects WHERE todo_id = ?", todoID); err != nil {
		return wrapErr(err, "clearing todo projects")
	}

	for _, projectID := range projectIDs {
		if _, err := q.ext.ExecContext(ctx,
			"INSERT OR IGNORE INTO todo_projects (todo_id, project_id) VALUES (?, ?)",
			todoID, projectID); err != nil {
			return wrapErr(err, "linking project %s to todo %s", projectID, todoID)
		}
	}
	return nil
}

// SetRecurrence inserts or replaces the recurrence record of a todo.
func (q *queries) SetRecurrence(ctx context.Context, pattern model.RecurrencePattern) error {
	if pattern.CreatedAt.IsZero() {
		pattern.CreatedAt = time.Now().UTC()
	}
	_, err := q.ext.ExecContext(ctx, `
		INSERT OR REPLACE INTO recurrence_patterns (todo_id, frequency, interval_count, ends_on, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		pattern.TodoID, pattern.Frequency, pattern.Interval, pattern.EndsOn, pattern.CreatedAt,
	)
	return wrapErr(err, "setting recurrence for todo %s", pattern.TodoID)
}

// DeleteRecurrence removes a todo's recurrence record, if any.
func (q *queries) DeleteRecurrence(ctx context.Context, todoID string) error {
	_, err := q.ext.ExecContext(ctx, "DELETE FROM recurrence_patterns WHERE todo_id = ?", todoID)
	return wrapErr(err, "deleting recurrence for todo %s", todoID)
}

// priorityOrder sorts urgent first when ascending.
const priorityOrder = `CASE todos.priority
	WHEN 'urgent' THEN 0 WHEN 'high' THEN 1 WHEN 'medium' THEN 2 ELSE 3 END`

// buildTodoQuery constructs the SQL query and args for a TodoFilter.
func buildTodoQuery(selectClause string, filter TodoFilter) (string, []interface{}) {
	var conditions []string
	var args []interface{}

	if filter.VisibleTo != "" {
		conditions = append(conditions, `(
			todos.created_by = ?
			OR todos.assigned_to = ?
			OR EXISTS (
				SELECT 1 FROM todo_projects tp
				INNER JOIN projects p ON p.id = tp.project_id
				LEFT JOIN memberships m ON m.project_id = p.id AND m.user_id = ?
				WHERE tp.todo_id = todos.id AND (p.owner_id = ? OR m.id IS NOT NULL)
			))`)
		args = append(args, filter.VisibleTo, filter.VisibleTo, filter.VisibleTo, filter.VisibleTo)
	}
	if filter.ProjectID != nil {
		conditions = append(conditions,
			"EXISTS (SELECT 1 FROM todo_projects WHERE todo_id = todos.id AND project_id = ?)")
		args = append(args, *filter.ProjectID)
	}
	if filter.Status != nil {
		conditions = append(conditions, "todos.status = ?")
		args = append(args, string(*filter.Status))
	}
	if filter.Priority != nil {
		conditions = append(conditions, "todos.priority = ?")
		args = append(args, string(*filter.Priority))
	}
	if filter.Query != nil && *filter.Query != "" {
		conditions = append(conditions,
			"(todos.title LIKE ? OR todos.description LIKE ?)")
		q := "%" + *filter.Query + "%"
		args = append(args, q, q)
	}

	query := selectClause + " FROM todos"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	// Sort.
	sortBy := "todos.created_at"
	if filter.SortBy != "" {
		allowed := map[string]string{
			"created_at": "todos.created_at",
			"updated_at": "todos.updated_at",
			"due_date":   "todos.due_date",
			"title":      "todos.title",
			"priority":   priorityOrder,
		}
		if col, ok := allowed[filter.SortBy]; ok {
			sortBy = col
		}
	}
	direction := "ASC"
	if filter.SortDesc {
		direction = "DESC"
	}
	query += fmt.Sprintf(" ORDER BY %s %s, todos.id", sortBy, direction)

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	if filter.Offset > 0 {
		if filter.Limit <= 0 {
			query += " LIMIT -1"
		}
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	return query, args
}

// scanTodo scans a todo row.
func scanTodo(rows interface{ Scan(dest ...interface{}) error }) (model.Todo, error) {
	var (
		todo       model.Todo
		priority   string
		status     string
		assignedTo sql.NullString
		estimate   sql.NullInt64
	)

	err := rows.Scan(
		&todo.ID, &todo.Title, &todo.Description, &todo.CreatedBy,
		&assignedTo, &priority, &status, &todo.DueDate,
		&estimate, &todo.CreatedAt, &todo.CompletedAt, &todo.UpdatedAt,
	)
	if err != nil {
		return model.Todo{}, err
	}

	todo.Priority = model.Priority(priority)
	todo.Status = model.TodoStatus(status)
	if assignedTo.Valid {
		todo.AssignedTo = &assignedTo.String
	}
	if estimate.Valid {
		n := int(estimate.Int64)
		todo.EstimatedMinutes = &n
	}

	return todo, nil
}
