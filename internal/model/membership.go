package model

import "time"

// Role is a project membership role, ordered by decreasing privilege.
type Role string

const (
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RoleEditor Role = "editor"
	RoleViewer Role = "viewer"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleOwner, RoleAdmin, RoleEditor, RoleViewer:
		return true
	}
	return false
}

// Assignable reports whether r may be granted through invitation or a role
// change. The owner role is reserved for the project creator.
func (r Role) Assignable() bool {
	return r == RoleAdmin || r == RoleEditor || r == RoleViewer
}

// Membership grants a user a role on a project.
//
// Permissions is stored and returned for display but does not participate in
// access decisions; only Role does.
type Membership struct {
	ID          string    `json:"id" db:"id"`
	ProjectID   string    `json:"project_id" db:"project_id"`
	UserID      string    `json:"user_id" db:"user_id"`
	Role        Role      `json:"role" db:"role"`
	Permissions []string  `json:"permissions" db:"-"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`

	// UserEmail and UserName are populated by list queries that join users.
	UserEmail string `json:"user_email,omitempty" db:"-"`
	UserName  string `json:"user_name,omitempty" db:"-"`
}
