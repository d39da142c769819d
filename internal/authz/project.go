package authz

import (
	"github.com/nhle/tracker/internal/identity"
	"github.com/nhle/tracker/internal/model"
)

// ProjectSnapshot is a project together with its full membership list.
type ProjectSnapshot struct {
	Project     model.Project
	Memberships []model.Membership
}

// MembershipOf returns userID's membership on the project.
func (p ProjectSnapshot) MembershipOf(userID string) (model.Membership, bool) {
	if userID == "" {
		return model.Membership{}, false
	}
	for _, m := range p.Memberships {
		if m.UserID == userID && m.ProjectID == p.Project.ID {
			return m, true
		}
	}
	return model.Membership{}, false
}

// isOwner reports whether userID is the project's owner of record.
func (p ProjectSnapshot) isOwner(userID string) bool {
	return userID != "" && p.Project.OwnerID == userID
}

// hasRole reports whether userID holds one of roles on the project.
func (p ProjectSnapshot) hasRole(userID string, roles ...model.Role) bool {
	m, ok := p.MembershipOf(userID)
	if !ok {
		return false
	}
	for _, r := range roles {
		if m.Role == r {
			return true
		}
	}
	return false
}

// isMember reports whether userID owns the project or holds any membership.
func (p ProjectSnapshot) isMember(userID string) bool {
	if p.isOwner(userID) {
		return true
	}
	_, ok := p.MembershipOf(userID)
	return ok
}

// CanViewProject reports whether the caller may see the project.
func CanViewProject(caller identity.Principal, p ProjectSnapshot) bool {
	if caller.IsAnonymous() {
		return false
	}
	return p.isMember(caller.UserID())
}

// CanEditProject reports whether the caller may change the project's fields.
func CanEditProject(caller identity.Principal, p ProjectSnapshot) bool {
	if caller.IsAnonymous() {
		return false
	}
	uid := caller.UserID()
	return p.isOwner(uid) || p.hasRole(uid, model.RoleOwner, model.RoleAdmin)
}

// CanDeleteProject reports whether the caller may delete the project. Only
// the owner of record may, whatever roles others hold.
func CanDeleteProject(caller identity.Principal, p ProjectSnapshot) bool {
	if caller.IsAnonymous() {
		return false
	}
	return p.isOwner(caller.UserID())
}

// CanManageMembers reports whether the caller may invite, re-role or remove
// members.
func CanManageMembers(caller identity.Principal, p ProjectSnapshot) bool {
	return CanEditProject(caller, p)
}

// ProjectActions returns every action the caller holds on the project.
func ProjectActions(caller identity.Principal, p ProjectSnapshot) ActionSet {
	var s ActionSet
	s = s.With(ActionView, CanViewProject(caller, p))
	s = s.With(ActionEdit, CanEditProject(caller, p))
	s = s.With(ActionDelete, CanDeleteProject(caller, p))
	s = s.With(ActionManageMembers, CanManageMembers(caller, p))
	return s
}
