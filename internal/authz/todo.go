package authz

import (
	"github.com/nhle/tracker/internal/identity"
	"github.com/nhle/tracker/internal/model"
)

// TodoSnapshot is a todo together with every project it is linked to.
// A todo with no linked projects is personal.
type TodoSnapshot struct {
	Todo     model.Todo
	Projects []ProjectSnapshot
}

func isCreator(uid string, t model.Todo) bool {
	return uid != "" && t.CreatedBy == uid
}

func isAssignee(uid string, t model.Todo) bool {
	return uid != "" && t.AssignedTo != nil && *t.AssignedTo == uid
}

// linkedRole reports whether uid is the owner of, or holds one of roles on,
// any linked project. An empty roles list matches any membership.
func (t TodoSnapshot) linkedRole(uid string, roles ...model.Role) bool {
	for _, p := range t.Projects {
		if len(roles) == 0 {
			if p.isMember(uid) {
				return true
			}
			continue
		}
		if p.isOwner(uid) || p.hasRole(uid, roles...) {
			return true
		}
	}
	return false
}

// CanViewTodo reports whether the caller may see the todo.
func CanViewTodo(caller identity.Principal, t TodoSnapshot) bool {
	if caller.IsAnonymous() {
		return false
	}
	uid := caller.UserID()
	return isCreator(uid, t.Todo) || isAssignee(uid, t.Todo) || t.linkedRole(uid)
}

// CanEditTodo reports whether the caller may change the todo.
func CanEditTodo(caller identity.Principal, t TodoSnapshot) bool {
	if caller.IsAnonymous() {
		return false
	}
	uid := caller.UserID()
	if isCreator(uid, t.Todo) || isAssignee(uid, t.Todo) {
		return true
	}
	return t.linkedRole(uid, model.RoleOwner, model.RoleAdmin, model.RoleEditor)
}

// CanDeleteTodo reports whether the caller may delete the todo. Assignees
// cannot delete unless they also qualify otherwise.
func CanDeleteTodo(caller identity.Principal, t TodoSnapshot) bool {
	if caller.IsAnonymous() {
		return false
	}
	uid := caller.UserID()
	if isCreator(uid, t.Todo) {
		return true
	}
	return t.linkedRole(uid, model.RoleOwner, model.RoleAdmin)
}

// TodoActions returns every action the caller holds on the todo.
func TodoActions(caller identity.Principal, t TodoSnapshot) ActionSet {
	var s ActionSet
	s = s.With(ActionView, CanViewTodo(caller, t))
	s = s.With(ActionEdit, CanEditTodo(caller, t))
	s = s.With(ActionDelete, CanDeleteTodo(caller, t))
	return s
}

// CanLinkProjects reports whether the caller may link a todo to every
// project in requested. available holds snapshots of the requested projects
// that exist; an id with no snapshot fails the check. The caller needs some
// membership, at any role, on each project. The decision is all or nothing.
func CanLinkProjects(caller identity.Principal, requested []string, available []ProjectSnapshot) bool {
	if caller.IsAnonymous() {
		return false
	}
	uid := caller.UserID()
	for _, id := range requested {
		found := false
		for _, p := range available {
			if p.Project.ID != id {
				continue
			}
			found = true
			if !p.isMember(uid) {
				return false
			}
			break
		}
		if !found {
			return false
		}
	}
	return true
}

// CanViewTimeLogs reports whether the caller may read a todo's time logs.
func CanViewTimeLogs(caller identity.Principal, t TodoSnapshot) bool {
	return CanViewTodo(caller, t)
}

// CanAddTimeLog reports whether the caller may log time against the todo.
// Time logs are never edited or deleted once written.
func CanAddTimeLog(caller identity.Principal, t TodoSnapshot) bool {
	return CanViewTodo(caller, t)
}
