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

const userColumns = "id, email, name, password_hash, is_admin, created_at, updated_at"

// CreateUser inserts a new user. Generates a UUID if ID is empty. A taken
// email yields ErrConflict.
func (q *queries) CreateUser(ctx context.Context, user model.User) error {
	if strings.TrimSpace(user.Email) == "" {
		return fmt.Errorf("user email must not be empty")
	}
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	_, err := q.ext.ExecContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		user.ID, user.Email, user.Name, user.PasswordHash,
		boolToInt(user.IsAdmin), user.CreatedAt, user.UpdatedAt,
	)
	return wrapErr(err, "creating user %s", user.Email)
}

// GetUserByID retrieves a single user by ID.
func (q *queries) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	err := sqlx.GetContext(ctx, q.ext, &user,
		"SELECT "+userColumns+" FROM users WHERE id = ?", id)
	if err != nil {
		return nil, wrapErr(err, "getting user %s", id)
	}
	return &user, nil
}

// GetUserByEmail retrieves a single user by email address.
func (q *queries) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := sqlx.GetContext(ctx, q.ext, &user,
		"SELECT "+userColumns+" FROM users WHERE email = ?", email)
	if err != nil {
		return nil, wrapErr(err, "getting user by email")
	}
	return &user, nil
}

// UpdateUser updates a user's name, password hash and admin flag. Email is
// immutable.
func (q *queries) UpdateUser(ctx context.Context, user model.User) error {
	user.UpdatedAt = time.Now().UTC()
	result, err := q.ext.ExecContext(ctx, `
		UPDATE users SET name = ?, password_hash = ?, is_admin = ?, updated_at = ?
		WHERE id = ?`,
		user.Name, user.PasswordHash, boolToInt(user.IsAdmin), user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		return wrapErr(err, "updating user %s", user.ID)
	}
	return requireAffected(result, "user", user.ID)
}

// DeleteUser removes a user. Cascades to sessions, owned projects,
// memberships, created todos and time logs.
func (q *queries) DeleteUser(ctx context.Context, id string) error {
	result, err := q.ext.ExecContext(ctx, "DELETE FROM users WHERE id = ?", id)
	if err != nil {
		return wrapErr(err, "deleting user %s", id)
	}
	return requireAffected(result, "user", id)
}

// CountUsers returns the number of registered users.
func (q *queries) CountUsers(ctx context.Context) (int, error) {
	var n int
	if err := sqlx.GetContext(ctx, q.ext, &n, "SELECT COUNT(*) FROM users"); err != nil {
		return 0, wrapErr(err, "counting users")
	}
	return n, nil
}
