// Package authz is the single authority for access decisions on projects,
// memberships, todos, time logs and project messages.
//
// Every function is pure: callers load an entity snapshot (the entity plus
// the memberships that scope it) and pass it in together with the resolved
// principal. Nothing here performs I/O, returns an error or panics, and every
// rule defaults to deny. The anonymous principal is denied everything.
//
// Decision table (first matching clause wins):
//
//	Project     view            owner, or any membership
//	            edit            owner, or role owner/admin
//	            delete          owner only
//	            manage_members  owner, or role owner/admin
//	Membership  edit role       manage_members, target not owner, target not caller
//	            remove          manage_members, target not the project owner
//	Todo        view            creator, assignee, or any membership on a linked project
//	            edit            creator, assignee, or role owner/admin/editor on a linked project
//	            delete          creator, or role owner/admin on a linked project
//	TimeLog     view, create    same as the parent todo's view
//	Message     view, post      same as the project's view
//	            edit, delete    author, or the project's edit
package authz

import "strings"

// Action is an operation that can be permitted on an entity.
type Action string

const (
	ActionView          Action = "view"
	ActionEdit          Action = "edit"
	ActionDelete        Action = "delete"
	ActionManageMembers Action = "manage_members"
)

// allActions fixes the bit order of ActionSet and the order of List.
var allActions = []Action{ActionView, ActionEdit, ActionDelete, ActionManageMembers}

// ActionSet is a set of permitted actions.
type ActionSet uint8

func bit(a Action) ActionSet {
	for i, known := range allActions {
		if known == a {
			return 1 << i
		}
	}
	return 0
}

// NewActionSet returns the set holding actions.
func NewActionSet(actions ...Action) ActionSet {
	var s ActionSet
	for _, a := range actions {
		s |= bit(a)
	}
	return s
}

// Has reports whether a is in the set.
func (s ActionSet) Has(a Action) bool {
	b := bit(a)
	return b != 0 && s&b == b
}

// With returns the set with a added when allowed is true.
func (s ActionSet) With(a Action, allowed bool) ActionSet {
	if allowed {
		return s | bit(a)
	}
	return s
}

// List returns the actions in a fixed order.
func (s ActionSet) List() []Action {
	out := make([]Action, 0, len(allActions))
	for _, a := range allActions {
		if s.Has(a) {
			out = append(out, a)
		}
	}
	return out
}

// String returns a comma-separated list, or "none".
func (s ActionSet) String() string {
	list := s.List()
	if len(list) == 0 {
		return "none"
	}
	names := make([]string, len(list))
	for i, a := range list {
		names[i] = string(a)
	}
	return strings.Join(names, ",")
}

// MarshalText encodes the set for JSON responses as its String form.
func (s ActionSet) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
