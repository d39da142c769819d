package authz

import (
	"github.com/nhle/tracker/internal/identity"
	"github.com/nhle/tracker/internal/model"
)

// protectedMember reports whether target may never be re-roled or removed
// through membership management: the owner of record and any owner-role row.
func protectedMember(p ProjectSnapshot, target model.Membership) bool {
	return target.Role == model.RoleOwner || p.isOwner(target.UserID)
}

// belongs reports whether target is a membership of p.
func belongs(p ProjectSnapshot, target model.Membership) bool {
	return target.ProjectID == p.Project.ID
}

// CanEditMembership reports whether the caller may change target's role.
// Callers may not edit their own membership, so nobody can escalate
// themselves.
func CanEditMembership(caller identity.Principal, p ProjectSnapshot, target model.Membership) bool {
	if !CanManageMembers(caller, p) || !belongs(p, target) {
		return false
	}
	if target.UserID == caller.UserID() {
		return false
	}
	return !protectedMember(p, target)
}

// CanChangeRole reports whether the caller may move target to newRole.
// Roles can only move between admin, editor and viewer; owner is never
// granted or taken away here.
func CanChangeRole(caller identity.Principal, p ProjectSnapshot, target model.Membership, newRole model.Role) bool {
	return newRole.Assignable() && CanEditMembership(caller, p, target)
}

// CanRemoveMembership reports whether the caller may remove target from the
// project. The project owner can never be removed.
func CanRemoveMembership(caller identity.Principal, p ProjectSnapshot, target model.Membership) bool {
	if !CanManageMembers(caller, p) || !belongs(p, target) {
		return false
	}
	return !protectedMember(p, target)
}

// CanAssignRole reports whether the caller may add a new member with role.
func CanAssignRole(caller identity.Principal, p ProjectSnapshot, role model.Role) bool {
	return role.Assignable() && CanManageMembers(caller, p)
}
