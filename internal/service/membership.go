package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/nhle/tracker/internal/authz"
	"github.com/nhle/tracker/internal/credential"
	"github.com/nhle/tracker/internal/model"
	"github.com/nhle/tracker/internal/store"
)

// InviteInput adds an existing user to a project.
type InviteInput struct {
	Email string `json:"email"`
	Role  string `json:"role"`

	// Permissions is stored and echoed back but grants nothing.
	Permissions []string `json:"permissions"`
}

// ListMembers returns a project's memberships, owners first.
func (s *Service) ListMembers(ctx context.Context, projectID string) ([]model.Membership, error) {
	p, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	snap, err := loadProject(ctx, s.store, projectID)
	if err != nil {
		return nil, s.fail("list members", err)
	}
	if !authz.CanViewProject(p, snap) {
		return nil, ErrNotFound
	}
	return snap.Memberships, nil
}

// InviteMember grants a registered user a role on the project. An unknown
// email yields ErrNotFound; inviting someone who is already a member yields
// ErrConflict.
func (s *Service) InviteMember(ctx context.Context, projectID string, in InviteInput) (model.Membership, error) {
	p, err := caller(ctx)
	if err != nil {
		return model.Membership{}, err
	}
	role, prob := parseAssignableRole(in.Role)
	if prob != "" {
		return model.Membership{}, invalid(prob)
	}
	email := credential.NormalizeEmail(in.Email)
	if !credential.ValidateEmailFormat(email) {
		return model.Membership{}, invalid("email is not a valid address")
	}

	var created *model.Membership
	err = s.inTx(ctx, "invite member", func(q store.Queries) error {
		snap, err := loadProject(ctx, q, projectID)
		if err != nil {
			return err
		}
		if !authz.CanViewProject(p, snap) {
			return ErrNotFound
		}
		if !authz.CanAssignRole(p, snap, role) {
			return ErrAccessDenied
		}

		user, err := q.GetUserByEmail(ctx, email)
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		m := model.Membership{
			ID:          uuid.NewString(),
			ProjectID:   projectID,
			UserID:      user.ID,
			Role:        role,
			Permissions: uniqueIDs(in.Permissions),
		}
		if err := q.CreateMembership(ctx, m); err != nil {
			return storeErr(err, "creating membership")
		}
		created, err = q.GetMembershipByID(ctx, m.ID)
		return storeErr(err, "reloading membership")
	})
	if err != nil {
		return model.Membership{}, err
	}

	s.logger.Debug("member invited", "project", projectID, "membership", created.ID, "role", role)
	return *created, nil
}

// loadMember returns the project snapshot and the membership memberID,
// which must belong to that project.
func loadMember(ctx context.Context, q store.Queries, projectID, memberID string) (authz.ProjectSnapshot, model.Membership, error) {
	snap, err := loadProject(ctx, q, projectID)
	if err != nil {
		return snap, model.Membership{}, err
	}
	for _, m := range snap.Memberships {
		if m.ID == memberID {
			return snap, m, nil
		}
	}
	return snap, model.Membership{}, ErrNotFound
}

// UpdateMemberRole moves another member between admin, editor and viewer.
// The owner role is never granted or taken away.
func (s *Service) UpdateMemberRole(ctx context.Context, projectID, memberID, newRole string) (model.Membership, error) {
	p, err := caller(ctx)
	if err != nil {
		return model.Membership{}, err
	}
	role, prob := parseAssignableRole(newRole)
	if prob != "" {
		return model.Membership{}, invalid(prob)
	}

	var updated *model.Membership
	err = s.inTx(ctx, "update member role", func(q store.Queries) error {
		snap, target, err := loadMember(ctx, q, projectID, memberID)
		if err != nil {
			return err
		}
		if !authz.CanViewProject(p, snap) {
			return ErrNotFound
		}
		if !authz.CanChangeRole(p, snap, target, role) {
			return ErrAccessDenied
		}
		if err := q.UpdateMembershipRole(ctx, target.ID, role); err != nil {
			return storeErr(err, "updating membership")
		}
		updated, err = q.GetMembershipByID(ctx, target.ID)
		return storeErr(err, "reloading membership")
	})
	if err != nil {
		return model.Membership{}, err
	}
	return *updated, nil
}

// RemoveMember deletes a membership. The project owner cannot be removed.
func (s *Service) RemoveMember(ctx context.Context, projectID, memberID string) error {
	p, err := caller(ctx)
	if err != nil {
		return err
	}
	return s.inTx(ctx, "remove member", func(q store.Queries) error {
		snap, target, err := loadMember(ctx, q, projectID, memberID)
		if err != nil {
			return err
		}
		if !authz.CanViewProject(p, snap) {
			return ErrNotFound
		}
		if !authz.CanRemoveMembership(p, snap, target) {
			return ErrAccessDenied
		}
		return storeErr(q.DeleteMembership(ctx, target.ID), "deleting membership")
	})
}
