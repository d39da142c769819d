package service_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/tracker/internal/authz"
	"github.com/nhle/tracker/internal/model"
	"github.com/nhle/tracker/internal/service"
)

func TestAnonymousIsRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.ListProjects(ctx)
	assert.ErrorIs(t, err, service.ErrNotAuthenticated)
	_, err = f.svc.CreateProject(ctx, service.ProjectInput{Name: "x"})
	assert.ErrorIs(t, err, service.ErrNotAuthenticated)
	_, err = f.svc.ListTodos(ctx, service.TodoQuery{})
	assert.ErrorIs(t, err, service.ErrNotAuthenticated)
	_, err = f.svc.Me(ctx)
	assert.ErrorIs(t, err, service.ErrNotAuthenticated)
}

func TestCreateProjectMaterializesOwner(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice@example.com")

	view, err := f.svc.CreateProject(as(alice), service.ProjectInput{Name: "  Apollo ", Description: "moon"})
	require.NoError(t, err)
	assert.Equal(t, "Apollo", view.Name)
	assert.Equal(t, model.RoleOwner, view.Role)
	assert.Equal(t, authz.NewActionSet(authz.ActionView, authz.ActionEdit, authz.ActionDelete, authz.ActionManageMembers), view.Actions)

	members, err := f.svc.ListMembers(as(alice), view.ID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, alice.ID, members[0].UserID)
	assert.Equal(t, model.RoleOwner, members[0].Role)
}

func TestProjectValidation(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice@example.com")

	_, err := f.svc.CreateProject(as(alice), service.ProjectInput{Name: "   "})
	assert.Equal(t, []string{"name is required"}, problems(t, err))

	_, err = f.svc.CreateProject(as(alice), service.ProjectInput{Name: strings.Repeat("n", 101)})
	assert.Equal(t, []string{"name must be at most 100 characters"}, problems(t, err))

	_, err = f.svc.CreateProject(as(alice), service.ProjectInput{Name: "ok", Description: strings.Repeat("d", 1001)})
	assert.Equal(t, []string{"description must be at most 1000 characters"}, problems(t, err))

	p := f.project(t, alice, "Valid")
	_, err = f.svc.UpdateProject(as(alice), p.ID, service.ProjectPatch{Name: ptr("")})
	assert.Equal(t, []string{"name is required"}, problems(t, err))
}

func TestProjectAccessByRole(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "owner@example.com")
	admin := f.user(t, "admin@example.com")
	editor := f.user(t, "editor@example.com")
	stranger := f.user(t, "stranger@example.com")

	p := f.project(t, owner, "Shared")
	f.member(t, owner, p.ID, admin, model.RoleAdmin)
	f.member(t, owner, p.ID, editor, model.RoleEditor)

	_, err := f.svc.GetProject(as(stranger), p.ID)
	assert.ErrorIs(t, err, service.ErrNotFound)
	_, err = f.svc.GetProject(as(owner), "no-such-project")
	assert.ErrorIs(t, err, service.ErrNotFound)

	view, err := f.svc.GetProject(as(editor), p.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RoleEditor, view.Role)
	assert.Equal(t, "view", view.Actions.String())

	_, err = f.svc.UpdateProject(as(editor), p.ID, service.ProjectPatch{Name: ptr("Renamed")})
	assert.ErrorIs(t, err, service.ErrAccessDenied)
	view, err = f.svc.UpdateProject(as(admin), p.ID, service.ProjectPatch{Name: ptr("Renamed")})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", view.Name)

	// Only the owner deletes, whatever role others hold.
	assert.ErrorIs(t, f.svc.DeleteProject(as(admin), p.ID), service.ErrAccessDenied)
	assert.ErrorIs(t, f.svc.DeleteProject(as(stranger), p.ID), service.ErrNotFound)

	list, err := f.svc.ListProjects(as(editor))
	require.NoError(t, err)
	require.Len(t, list, 1)
	list, err = f.svc.ListProjects(as(stranger))
	require.NoError(t, err)
	assert.Empty(t, list)

	require.NoError(t, f.svc.DeleteProject(as(owner), p.ID))
	_, err = f.svc.GetProject(as(owner), p.ID)
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestInviteMember(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "owner@example.com")
	admin := f.user(t, "admin@example.com")
	editor := f.user(t, "editor@example.com")
	bob := f.user(t, "bob@example.com")
	stranger := f.user(t, "stranger@example.com")
	p := f.project(t, owner, "Team")
	f.member(t, owner, p.ID, admin, model.RoleAdmin)
	f.member(t, owner, p.ID, editor, model.RoleEditor)

	invite := func(u model.User, email, role string) (model.Membership, error) {
		return f.svc.InviteMember(as(u), p.ID, service.InviteInput{Email: email, Role: role, Permissions: []string{"export"}})
	}

	_, err := invite(admin, bob.Email, "owner")
	assert.Equal(t, []string{"role must be one of admin, editor, viewer"}, problems(t, err))
	_, err = invite(admin, "ghost@example.com", "viewer")
	assert.ErrorIs(t, err, service.ErrNotFound)
	_, err = invite(editor, bob.Email, "viewer")
	assert.ErrorIs(t, err, service.ErrAccessDenied)
	_, err = invite(stranger, bob.Email, "viewer")
	assert.ErrorIs(t, err, service.ErrNotFound)

	m, err := invite(admin, "  BOB@example.com", "Viewer")
	require.NoError(t, err)
	assert.Equal(t, model.RoleViewer, m.Role)
	assert.Equal(t, bob.ID, m.UserID)
	assert.Equal(t, []string{"export"}, m.Permissions)

	_, err = invite(admin, bob.Email, "editor")
	assert.ErrorIs(t, err, service.ErrConflict)
}

func TestRoleChangesCannotEscalate(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "owner@example.com")
	admin := f.user(t, "admin@example.com")
	editor := f.user(t, "editor@example.com")
	p := f.project(t, owner, "Team")
	adminRow := f.member(t, owner, p.ID, admin, model.RoleAdmin)
	editorRow := f.member(t, owner, p.ID, editor, model.RoleEditor)

	members, err := f.svc.ListMembers(as(owner), p.ID)
	require.NoError(t, err)
	ownerRow := members[0]
	require.Equal(t, model.RoleOwner, ownerRow.Role)

	_, err = f.svc.UpdateMemberRole(as(admin), p.ID, adminRow.ID, "viewer")
	assert.ErrorIs(t, err, service.ErrAccessDenied, "self")
	_, err = f.svc.UpdateMemberRole(as(admin), p.ID, ownerRow.ID, "admin")
	assert.ErrorIs(t, err, service.ErrAccessDenied, "owner row")
	_, err = f.svc.UpdateMemberRole(as(admin), p.ID, editorRow.ID, "owner")
	assert.Error(t, err, "owner is never granted")
	_, err = f.svc.UpdateMemberRole(as(editor), p.ID, editorRow.ID, "admin")
	assert.ErrorIs(t, err, service.ErrAccessDenied)
	_, err = f.svc.UpdateMemberRole(as(admin), p.ID, "missing", "viewer")
	assert.ErrorIs(t, err, service.ErrNotFound)

	updated, err := f.svc.UpdateMemberRole(as(admin), p.ID, editorRow.ID, "admin")
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, updated.Role)

	assert.ErrorIs(t, f.svc.RemoveMember(as(admin), p.ID, ownerRow.ID), service.ErrAccessDenied)
	assert.ErrorIs(t, f.svc.RemoveMember(as(owner), p.ID, ownerRow.ID), service.ErrAccessDenied)
	require.NoError(t, f.svc.RemoveMember(as(admin), p.ID, editorRow.ID))

	_, err = f.svc.GetProject(as(editor), p.ID)
	assert.ErrorIs(t, err, service.ErrNotFound)

	members, err = f.svc.ListMembers(as(owner), p.ID)
	require.NoError(t, err)
	owners := 0
	for _, m := range members {
		if m.Role == model.RoleOwner {
			owners++
		}
	}
	assert.Equal(t, 1, owners)
}
