package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/tracker/internal/model"
)

// CreateMembership inserts a membership. A second row for the same
// (project, user) pair yields ErrConflict.
func (q *queries) CreateMembership(ctx context.Context, m model.Membership) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	if m.Permissions == nil {
		m.Permissions = []string{}
	}
	perms, err := json.Marshal(m.Permissions)
	if err != nil {
		return fmt.Errorf("marshaling permissions: %w", err)
	}
	now := time.Now().UTC()

	_, err = q.ext.ExecContext(ctx, `
		INSERT INTO memberships (id, project_id, user_id, role, permissions, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.ProjectID, m.UserID, string(m.Role), string(perms), now, now,
	)
	return wrapErr(err, "creating membership for user %s on project %s", m.UserID, m.ProjectID)
}

const membershipSelect = `
	SELECT m.id, m.project_id, m.user_id, m.role, m.permissions,
	       m.created_at, m.updated_at, u.email, u.name
	FROM memberships m
	INNER JOIN users u ON u.id = m.user_id`

// GetMembershipByID retrieves a single membership.
func (q *queries) GetMembershipByID(ctx context.Context, id string) (*model.Membership, error) {
	row := q.ext.QueryRowxContext(ctx, membershipSelect+" WHERE m.id = ?", id)
	m, err := scanMembership(row)
	if err != nil {
		return nil, wrapErr(err, "getting membership %s", id)
	}
	return &m, nil
}

// GetMemberships retrieves every membership of a project, owners first.
func (q *queries) GetMemberships(ctx context.Context, projectID string) ([]model.Membership, error) {
	rows, err := q.ext.QueryxContext(ctx, membershipSelect+`
		WHERE m.project_id = ?
		ORDER BY CASE m.role
			WHEN 'owner' THEN 0 WHEN 'admin' THEN 1 WHEN 'editor' THEN 2 ELSE 3
		END, u.email`, projectID)
	if err != nil {
		return nil, wrapErr(err, "querying memberships for project %s", projectID)
	}
	defer rows.Close()

	var members []model.Membership
	for rows.Next() {
		m, err := scanMembership(rows)
		if err != nil {
			return nil, wrapErr(err, "scanning membership row")
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// UpdateMembershipRole changes a membership's role.
func (q *queries) UpdateMembershipRole(ctx context.Context, id string, role model.Role) error {
	result, err := q.ext.ExecContext(ctx,
		"UPDATE memberships SET role = ?, updated_at = ? WHERE id = ?",
		string(role), time.Now().UTC(), id)
	if err != nil {
		return wrapErr(err, "updating membership %s", id)
	}
	return requireAffected(result, "membership", id)
}

// DeleteMembership removes a membership by ID.
func (q *queries) DeleteMembership(ctx context.Context, id string) error {
	result, err := q.ext.ExecContext(ctx, "DELETE FROM memberships WHERE id = ?", id)
	if err != nil {
		return wrapErr(err, "deleting membership %s", id)
	}
	return requireAffected(result, "membership", id)
}

// scanMembership scans a membershipSelect row.
func scanMembership(row interface{ Scan(dest ...interface{}) error }) (model.Membership, error) {
	var (
		m     model.Membership
		role  string
		perms string
	)

	err := row.Scan(
		&m.ID, &m.ProjectID, &m.UserID, &role, &perms,
		&m.CreatedAt, &m.UpdatedAt, &m.UserEmail, &m.UserName,
	)
	if err != nil {
		return model.Membership{}, err
	}

	m.Role = model.Role(role)
	if perms != "" {
		if err := json.Unmarshal([]byte(perms), &m.Permissions); err != nil {
			return model.Membership{}, fmt.Errorf("unmarshaling permissions: %w", err)
		}
	}
	if m.Permissions == nil {
		m.Permissions = []string{}
	}

	return m, nil
}
