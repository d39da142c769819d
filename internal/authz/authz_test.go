package authz

import (
	"testing"

	"github.com/go-test/deep"
	"github.com/stretchr/testify/assert"

	"github.com/nhle/tracker/internal/identity"
	"github.com/nhle/tracker/internal/model"
)

func principal(id string) identity.Principal {
	return identity.Authenticated(model.User{ID: id, Email: id + "@example.com"}, "")
}

var allRoles = []model.Role{model.RoleOwner, model.RoleAdmin, model.RoleEditor, model.RoleViewer}

// project returns a snapshot owned by owner with an owner-role row for
// owner plus one row per entry of members.
func project(id, owner string, members map[string]model.Role) ProjectSnapshot {
	snap := ProjectSnapshot{
		Project: model.Project{ID: id, OwnerID: owner, Name: id},
		Memberships: []model.Membership{
			{ID: id + "-" + owner, ProjectID: id, UserID: owner, Role: model.RoleOwner},
		},
	}
	for uid, role := range members {
		snap.Memberships = append(snap.Memberships, model.Membership{
			ID: id + "-" + uid, ProjectID: id, UserID: uid, Role: role,
		})
	}
	return snap
}

func TestActionSet(t *testing.T) {
	s := NewActionSet(ActionView, ActionDelete)
	assert.True(t, s.Has(ActionView))
	assert.False(t, s.Has(ActionEdit))
	assert.True(t, s.Has(ActionDelete))
	assert.False(t, s.Has(Action("bogus")))

	if diff := deep.Equal(s.List(), []Action{ActionView, ActionDelete}); diff != nil {
		t.Error(diff)
	}
	assert.Equal(t, "view,delete", s.String())
	assert.Equal(t, "none", ActionSet(0).String())

	text, err := s.With(ActionEdit, true).With(ActionManageMembers, false).MarshalText()
	assert.NoError(t, err)
	assert.Equal(t, "view,edit,delete", string(text))
}

func TestCanViewProjectIffOwnerOrMember(t *testing.T) {
	for _, role := range allRoles {
		p := project("p", "owner", map[string]model.Role{"member": role})
		assert.True(t, CanViewProject(principal("member"), p), "role %s", role)
		assert.True(t, CanViewProject(principal("owner"), p))
		assert.False(t, CanViewProject(principal("stranger"), p))
	}

	// Ownership alone grants view even without a materialized row.
	bare := ProjectSnapshot{Project: model.Project{ID: "p", OwnerID: "owner"}}
	assert.True(t, CanViewProject(principal("owner"), bare))
}

func TestCanDeleteProjectOnlyOwner(t *testing.T) {
	for _, role := range allRoles {
		p := project("p", "owner", map[string]model.Role{"member": role})
		assert.False(t, CanDeleteProject(principal("member"), p), "role %s", role)
	}
	p := project("p", "owner", nil)
	assert.True(t, CanDeleteProject(principal("owner"), p))
	assert.False(t, CanDeleteProject(principal("stranger"), p))
}

func TestProjectEditAndManage(t *testing.T) {
	tests := []struct {
		role   model.Role
		edit   bool
		manage bool
	}{
		{model.RoleOwner, true, true},
		{model.RoleAdmin, true, true},
		{model.RoleEditor, false, false},
		{model.RoleViewer, false, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			p := project("p", "owner", map[string]model.Role{"member": tt.role})
			assert.Equal(t, tt.edit, CanEditProject(principal("member"), p))
			assert.Equal(t, tt.manage, CanManageMembers(principal("member"), p))
		})
	}
}

func TestProjectActions(t *testing.T) {
	p := project("p", "owner", map[string]model.Role{"admin": model.RoleAdmin, "viewer": model.RoleViewer})

	assert.Equal(t, NewActionSet(ActionView, ActionEdit, ActionDelete, ActionManageMembers),
		ProjectActions(principal("owner"), p))
	assert.Equal(t, NewActionSet(ActionView, ActionEdit, ActionManageMembers),
		ProjectActions(principal("admin"), p))
	assert.Equal(t, NewActionSet(ActionView), ProjectActions(principal("viewer"), p))
	assert.Equal(t, ActionSet(0), ProjectActions(principal("stranger"), p))
}

func TestAnonymousDeniedEverything(t *testing.T) {
	anon := identity.Anonymous
	p := project("p", "owner", map[string]model.Role{"m": model.RoleViewer})
	todo := TodoSnapshot{Todo: model.Todo{ID: "t", CreatedBy: "owner"}, Projects: []ProjectSnapshot{p}}
	msg := MessageSnapshot{Message: model.ProjectMessage{ID: "m", ProjectID: "p", AuthorID: "owner"}, Project: p}

	assert.Equal(t, ActionSet(0), ProjectActions(anon, p))
	assert.Equal(t, ActionSet(0), TodoActions(anon, todo))
	assert.Equal(t, ActionSet(0), MessageActions(anon, msg))
	assert.False(t, CanLinkProjects(anon, nil, nil))
	assert.False(t, CanAddTimeLog(anon, todo))
	assert.False(t, CanAssignRole(anon, p, model.RoleViewer))
	assert.False(t, CanPostMessage(anon, p))
}

func TestCanViewTodo(t *testing.T) {
	assignee := "assignee"
	p1 := project("p1", "owner1", map[string]model.Role{"viewer": model.RoleViewer})
	p2 := project("p2", "owner2", nil)

	linked := TodoSnapshot{
		Todo:     model.Todo{ID: "t", CreatedBy: "creator", AssignedTo: &assignee},
		Projects: []ProjectSnapshot{p1, p2},
	}
	for _, uid := range []string{"creator", "assignee", "viewer", "owner1", "owner2"} {
		assert.True(t, CanViewTodo(principal(uid), linked), uid)
	}
	assert.False(t, CanViewTodo(principal("stranger"), linked))

	personal := TodoSnapshot{Todo: model.Todo{ID: "t", CreatedBy: "creator"}}
	assert.True(t, CanViewTodo(principal("creator"), personal))
	assert.False(t, CanViewTodo(principal("owner1"), personal))
	assert.False(t, CanViewTodo(principal("stranger"), personal))
}

func TestTodoEditAndDeleteByRole(t *testing.T) {
	tests := []struct {
		role   model.Role
		edit   bool
		delete bool
	}{
		{model.RoleOwner, true, true},
		{model.RoleAdmin, true, true},
		{model.RoleEditor, true, false},
		{model.RoleViewer, false, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			p := project("p", "owner", map[string]model.Role{"member": tt.role})
			todo := TodoSnapshot{Todo: model.Todo{ID: "t", CreatedBy: "creator"}, Projects: []ProjectSnapshot{p}}
			assert.True(t, CanViewTodo(principal("member"), todo))
			assert.Equal(t, tt.edit, CanEditTodo(principal("member"), todo))
			assert.Equal(t, tt.delete, CanDeleteTodo(principal("member"), todo))
		})
	}
}

func TestTodoAssigneeCanEditNotDelete(t *testing.T) {
	assignee := "assignee"
	todo := TodoSnapshot{Todo: model.Todo{ID: "t", CreatedBy: "creator", AssignedTo: &assignee}}

	assert.Equal(t, NewActionSet(ActionView, ActionEdit), TodoActions(principal("assignee"), todo))
	assert.Equal(t, NewActionSet(ActionView, ActionEdit, ActionDelete), TodoActions(principal("creator"), todo))
	assert.True(t, CanAddTimeLog(principal("assignee"), todo))
	assert.True(t, CanViewTimeLogs(principal("assignee"), todo))
	assert.False(t, CanAddTimeLog(principal("stranger"), todo))
}

// A owns P1 and is not on P2; B edits on P2; T is linked only to P2.
func TestCrossProjectScenario(t *testing.T) {
	p1 := project("p1", "a", nil)
	p2 := project("p2", "owner2", map[string]model.Role{"b": model.RoleEditor})
	todo := TodoSnapshot{Todo: model.Todo{ID: "t", CreatedBy: "owner2"}, Projects: []ProjectSnapshot{p2}}

	assert.False(t, CanEditTodo(principal("a"), todo))
	assert.False(t, CanViewTodo(principal("a"), todo))
	assert.True(t, CanEditTodo(principal("b"), todo))

	assert.False(t, CanLinkProjects(principal("b"), []string{"p1"}, []ProjectSnapshot{p1}))
	assert.True(t, CanLinkProjects(principal("b"), []string{"p2"}, []ProjectSnapshot{p2}))
}

func TestCanLinkProjectsAllOrNothing(t *testing.T) {
	p1 := project("p1", "owner", map[string]model.Role{"u": model.RoleViewer})
	p2 := project("p2", "u", nil)
	p3 := project("p3", "owner", nil)
	available := []ProjectSnapshot{p1, p2, p3}

	u := principal("u")
	assert.True(t, CanLinkProjects(u, nil, available))
	assert.True(t, CanLinkProjects(u, []string{"p1", "p2"}, available))
	assert.False(t, CanLinkProjects(u, []string{"p1", "p3"}, available))
	assert.False(t, CanLinkProjects(u, []string{"p1", "missing"}, available))
}

func TestMembershipEdits(t *testing.T) {
	p := project("p", "owner", map[string]model.Role{
		"admin":  model.RoleAdmin,
		"admin2": model.RoleAdmin,
		"editor": model.RoleEditor,
	})
	row := func(uid string) model.Membership {
		m, ok := p.MembershipOf(uid)
		if !ok {
			t.Fatalf("no membership for %s", uid)
		}
		return m
	}

	admin := principal("admin")
	assert.True(t, CanChangeRole(admin, p, row("editor"), model.RoleViewer))
	assert.True(t, CanChangeRole(admin, p, row("admin2"), model.RoleEditor))
	assert.False(t, CanChangeRole(admin, p, row("editor"), model.RoleOwner), "never grant owner")
	assert.False(t, CanChangeRole(admin, p, row("owner"), model.RoleAdmin), "never demote owner")
	assert.False(t, CanChangeRole(admin, p, row("admin"), model.RoleViewer), "never edit self")
	assert.False(t, CanChangeRole(principal("editor"), p, row("admin"), model.RoleViewer))

	assert.True(t, CanRemoveMembership(admin, p, row("editor")))
	assert.False(t, CanRemoveMembership(admin, p, row("owner")))
	assert.False(t, CanRemoveMembership(principal("owner"), p, row("owner")))
	assert.False(t, CanRemoveMembership(principal("editor"), p, row("admin")))

	foreign := model.Membership{ID: "x", ProjectID: "other", UserID: "editor", Role: model.RoleEditor}
	assert.False(t, CanRemoveMembership(principal("owner"), p, foreign))

	assert.True(t, CanAssignRole(admin, p, model.RoleAdmin))
	assert.False(t, CanAssignRole(admin, p, model.RoleOwner))
	assert.False(t, CanAssignRole(principal("editor"), p, model.RoleViewer))
}

// No sequence of role changes by non-owners yields a second owner or
// removes the existing one.
func TestRoleEscalationClosed(t *testing.T) {
	p := project("p", "owner", map[string]model.Role{
		"admin":  model.RoleAdmin,
		"editor": model.RoleEditor,
		"viewer": model.RoleViewer,
	})
	actors := []string{"admin", "editor", "viewer", "stranger"}

	for round := 0; round < 3; round++ {
		for _, actor := range actors {
			for i, target := range p.Memberships {
				for _, role := range allRoles {
					if CanChangeRole(principal(actor), p, target, role) {
						p.Memberships[i].Role = role
					}
				}
				if CanRemoveMembership(principal(actor), p, target) {
					assert.NotEqual(t, model.RoleOwner, target.Role)
				}
			}
		}
	}

	owners := 0
	for _, m := range p.Memberships {
		if m.Role == model.RoleOwner {
			owners++
			assert.Equal(t, "owner", m.UserID)
		}
	}
	assert.Equal(t, 1, owners)
}

func TestMessageDecisions(t *testing.T) {
	p := project("p", "owner", map[string]model.Role{
		"admin":  model.RoleAdmin,
		"author": model.RoleViewer,
		"viewer": model.RoleViewer,
	})
	msg := MessageSnapshot{
		Message: model.ProjectMessage{ID: "m", ProjectID: "p", AuthorID: "author"},
		Project: p,
	}

	assert.Equal(t, NewActionSet(ActionView, ActionEdit, ActionDelete), MessageActions(principal("author"), msg))
	assert.Equal(t, NewActionSet(ActionView, ActionEdit, ActionDelete), MessageActions(principal("admin"), msg))
	assert.Equal(t, NewActionSet(ActionView), MessageActions(principal("viewer"), msg))
	assert.Equal(t, ActionSet(0), MessageActions(principal("stranger"), msg))
	assert.True(t, CanPostMessage(principal("viewer"), p))

	// An author removed from the project loses the message too.
	gone := project("p", "owner", nil)
	assert.False(t, CanEditMessage(principal("author"), MessageSnapshot{Message: msg.Message, Project: gone}))

	mismatched := MessageSnapshot{Message: model.ProjectMessage{ID: "m", ProjectID: "other"}, Project: p}
	assert.False(t, CanViewMessage(principal("owner"), mismatched))
}

// Permissions never change a decision.
func TestPermissionsAreInert(t *testing.T) {
	p := project("p", "owner", map[string]model.Role{"viewer": model.RoleViewer})
	before := ProjectActions(principal("viewer"), p)

	for i := range p.Memberships {
		p.Memberships[i].Permissions = []string{"edit", "delete", "manage_members", "admin"}
	}
	assert.Equal(t, before, ProjectActions(principal("viewer"), p))
}
