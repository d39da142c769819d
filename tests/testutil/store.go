package testutil

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/nhle/tracker/internal/model"
	"github.com/nhle/tracker/internal/store"
)

// NewTestStore creates an in-memory SQLiteStore with all migrations applied.
// It automatically closes the store when the test completes.
func NewTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()

	s, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("creating test store: %v", err)
	}

	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing test store: %v", err)
		}
	})

	return s
}

// CreateUser inserts a user with the given email and a placeholder
// password hash, and returns it.
func CreateUser(t *testing.T, s store.Store, email string) model.User {
	t.Helper()

	user := model.User{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         email,
		PasswordHash: "x",
	}
	if err := s.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("creating user %s: %v", email, err)
	}
	return user
}

// CreateProject inserts a project owned by owner together with the owner's
// membership row.
func CreateProject(t *testing.T, s store.Store, owner model.User, name string) model.Project {
	t.Helper()

	project := model.Project{ID: uuid.NewString(), OwnerID: owner.ID, Name: name}
	err := s.WithTx(context.Background(), func(q store.Queries) error {
		if err := q.CreateProject(context.Background(), project); err != nil {
			return err
		}
		return q.CreateMembership(context.Background(), model.Membership{
			ProjectID: project.ID,
			UserID:    owner.ID,
			Role:      model.RoleOwner,
		})
	})
	if err != nil {
		t.Fatalf("creating project %s: %v", name, err)
	}
	return project
}

// AddMember grants user role on project.
func AddMember(t *testing.T, s store.Store, project model.Project, user model.User, role model.Role) model.Membership {
	t.Helper()

	m := model.Membership{
		ID:        uuid.NewString(),
		ProjectID: project.ID,
		UserID:    user.ID,
		Role:      role,
	}
	if err := s.CreateMembership(context.Background(), m); err != nil {
		t.Fatalf("adding %s to %s: %v", user.Email, project.Name, err)
	}
	return m
}
