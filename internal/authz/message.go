package authz

import (
	"github.com/nhle/tracker/internal/identity"
	"github.com/nhle/tracker/internal/model"
)

// MessageSnapshot is a project message together with its project.
type MessageSnapshot struct {
	Message model.ProjectMessage
	Project ProjectSnapshot
}

// CanPostMessage reports whether the caller may post to the project.
func CanPostMessage(caller identity.Principal, p ProjectSnapshot) bool {
	return CanViewProject(caller, p)
}

// CanViewMessage reports whether the caller may read the message.
func CanViewMessage(caller identity.Principal, m MessageSnapshot) bool {
	if m.Message.ProjectID != m.Project.Project.ID {
		return false
	}
	return CanViewProject(caller, m.Project)
}

// CanEditMessage reports whether the caller may change the message.
func CanEditMessage(caller identity.Principal, m MessageSnapshot) bool {
	if !CanViewMessage(caller, m) {
		return false
	}
	if m.Message.AuthorID == caller.UserID() {
		return true
	}
	return CanEditProject(caller, m.Project)
}

// CanDeleteMessage reports whether the caller may delete the message.
func CanDeleteMessage(caller identity.Principal, m MessageSnapshot) bool {
	return CanEditMessage(caller, m)
}

// MessageActions returns every action the caller holds on the message.
func MessageActions(caller identity.Principal, m MessageSnapshot) ActionSet {
	var s ActionSet
	s = s.With(ActionView, CanViewMessage(caller, m))
	s = s.With(ActionEdit, CanEditMessage(caller, m))
	s = s.With(ActionDelete, CanDeleteMessage(caller, m))
	return s
}
