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

const projectColumns = "id, owner_id, name, description, created_at, updated_at"

// CreateProject inserts a new project. Generates a UUID if ID is empty.
// The owner's membership row is written separately by the caller, in the
// same transaction.
func (q *queries) CreateProject(ctx context.Context, project model.Project) error {
	if strings.TrimSpace(project.Name) == "" {
		return fmt.Errorf("project name must not be empty")
	}
	if project.ID == "" {
		project.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	project.CreatedAt = now
	project.UpdatedAt = now

	_, err := q.ext.ExecContext(ctx, `
		INSERT INTO projects (`+projectColumns+`)
		VALUES (?, ?, ?, ?, ?, ?)`,
		project.ID, project.OwnerID, project.Name, project.Description,
		project.CreatedAt, project.UpdatedAt,
	)
	return wrapErr(err, "creating project")
}

// GetProjectByID retrieves a single project by ID.
func (q *queries) GetProjectByID(ctx context.Context, id string) (*model.Project, error) {
	var project model.Project
	err := sqlx.GetContext(ctx, q.ext, &project,
		"SELECT "+projectColumns+" FROM projects WHERE id = ?", id)
	if err != nil {
		return nil, wrapErr(err, "getting project %s", id)
	}
	return &project, nil
}

// GetProjectsForUser retrieves projects the user owns or is a member of.
func (q *queries) GetProjectsForUser(ctx context.Context, userID string) ([]model.Project, error) {
	var projects []model.Project
	err := sqlx.SelectContext(ctx, q.ext, &projects, `
		SELECT `+projectColumns+` FROM projects
		WHERE owner_id = ?
		   OR id IN (SELECT project_id FROM memberships WHERE user_id = ?)
		ORDER BY name`,
		userID, userID)
	if err != nil {
		return nil, wrapErr(err, "querying projects for user %s", userID)
	}
	return projects, nil
}

// UpdateProject updates an existing project's name and description.
func (q *queries) UpdateProject(ctx context.Context, project model.Project) error {
	if strings.TrimSpace(project.Name) == "" {
		return fmt.Errorf("project name must not be empty")
	}
	project.UpdatedAt = time.Now().UTC()

	result, err := q.ext.ExecContext(ctx, `
		UPDATE projects SET name = ?, description = ?, updated_at = ?
		WHERE id = ?`,
		project.Name, project.Description, project.UpdatedAt,
		project.ID,
	)
	if err != nil {
		return wrapErr(err, "updating project %s", project.ID)
	}
	return requireAffected(result, "project", project.ID)
}

// DeleteProject removes a project. Cascades to memberships, todo links and
// messages; the todos themselves survive.
func (q *queries) DeleteProject(ctx context.Context, id string) error {
	result, err := q.ext.ExecContext(ctx, "DELETE FROM projects WHERE id = ?", id)
	if err != nil {
		return wrapErr(err, "deleting project %s", id)
	}
	return requireAffected(result, "project", id)
}
