package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/nhle/tracker/internal/authz"
	"github.com/nhle/tracker/internal/identity"
	"github.com/nhle/tracker/internal/model"
	"github.com/nhle/tracker/internal/store"
)

// ProjectInput creates a project.
type ProjectInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ProjectPatch changes the fields that are set.
type ProjectPatch struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

// ProjectView is a project as seen by one caller.
type ProjectView struct {
	model.Project
	Role    model.Role      `json:"role,omitempty"`
	Actions authz.ActionSet `json:"actions"`
}

func projectView(p identity.Principal, snap authz.ProjectSnapshot) ProjectView {
	v := ProjectView{Project: snap.Project, Actions: authz.ProjectActions(p, snap)}
	if m, ok := snap.MembershipOf(p.UserID()); ok {
		v.Role = m.Role
	}
	return v
}

func validateProjectFields(name, description string) error {
	if prob := checkLength("name", name, 1, MaxProjectName); prob != "" {
		return invalid(prob)
	}
	if prob := checkLength("description", description, 0, MaxProjectDescription); prob != "" {
		return invalid(prob)
	}
	return nil
}

// CreateProject creates a project owned by the caller. The owner's
// membership row is written in the same transaction.
func (s *Service) CreateProject(ctx context.Context, in ProjectInput) (ProjectView, error) {
	p, err := caller(ctx)
	if err != nil {
		return ProjectView{}, err
	}
	if err := validateProjectFields(in.Name, in.Description); err != nil {
		return ProjectView{}, err
	}

	project := model.Project{
		ID:          uuid.NewString(),
		OwnerID:     p.UserID(),
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
	}

	var snap authz.ProjectSnapshot
	err = s.inTx(ctx, "create project", func(q store.Queries) error {
		if err := q.CreateProject(ctx, project); err != nil {
			return storeErr(err, "creating project")
		}
		owner := model.Membership{
			ID:        uuid.NewString(),
			ProjectID: project.ID,
			UserID:    p.UserID(),
			Role:      model.RoleOwner,
		}
		if err := q.CreateMembership(ctx, owner); err != nil {
			return storeErr(err, "creating owner membership")
		}
		snap, err = loadProject(ctx, q, project.ID)
		return err
	})
	if err != nil {
		return ProjectView{}, err
	}

	s.logger.Debug("project created", "project", project.ID, "owner", p.UserID())
	return projectView(p, snap), nil
}

// GetProject returns a project the caller can view.
func (s *Service) GetProject(ctx context.Context, id string) (ProjectView, error) {
	p, err := caller(ctx)
	if err != nil {
		return ProjectView{}, err
	}
	snap, err := loadProject(ctx, s.store, id)
	if err != nil {
		return ProjectView{}, s.fail("get project", err)
	}
	if !authz.CanViewProject(p, snap) {
		return ProjectView{}, ErrNotFound
	}
	return projectView(p, snap), nil
}

// ListProjects returns every project the caller can view, by name.
func (s *Service) ListProjects(ctx context.Context) ([]ProjectView, error) {
	p, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	projects, err := s.store.GetProjectsForUser(ctx, p.UserID())
	if err != nil {
		return nil, s.fail("list projects", err)
	}

	views := make([]ProjectView, 0, len(projects))
	for _, project := range projects {
		members, err := s.store.GetMemberships(ctx, project.ID)
		if err != nil {
			return nil, s.fail("list projects", err)
		}
		snap := authz.ProjectSnapshot{Project: project, Memberships: members}
		if !authz.CanViewProject(p, snap) {
			continue
		}
		views = append(views, projectView(p, snap))
	}
	return views, nil
}

// UpdateProject changes a project's name or description.
func (s *Service) UpdateProject(ctx context.Context, id string, patch ProjectPatch) (ProjectView, error) {
	p, err := caller(ctx)
	if err != nil {
		return ProjectView{}, err
	}

	var snap authz.ProjectSnapshot
	err = s.inTx(ctx, "update project", func(q store.Queries) error {
		snap, err = loadProject(ctx, q, id)
		if err != nil {
			return err
		}
		if !authz.CanViewProject(p, snap) {
			return ErrNotFound
		}
		if !authz.CanEditProject(p, snap) {
			return ErrAccessDenied
		}

		project := snap.Project
		if patch.Name != nil {
			project.Name = strings.TrimSpace(*patch.Name)
		}
		if patch.Description != nil {
			project.Description = strings.TrimSpace(*patch.Description)
		}
		if err := validateProjectFields(project.Name, project.Description); err != nil {
			return err
		}
		if err := q.UpdateProject(ctx, project); err != nil {
			return storeErr(err, "updating project")
		}
		snap, err = loadProject(ctx, q, id)
		return err
	})
	if err != nil {
		return ProjectView{}, err
	}
	return projectView(p, snap), nil
}

// DeleteProject removes a project with its memberships, todo links and
// messages. Only the owner may.
func (s *Service) DeleteProject(ctx context.Context, id string) error {
	p, err := caller(ctx)
	if err != nil {
		return err
	}
	return s.inTx(ctx, "delete project", func(q store.Queries) error {
		snap, err := loadProject(ctx, q, id)
		if err != nil {
			return err
		}
		if !authz.CanViewProject(p, snap) {
			return ErrNotFound
		}
		if !authz.CanDeleteProject(p, snap) {
			return ErrAccessDenied
		}
		return storeErr(q.DeleteProject(ctx, id), "deleting project")
	})
}
