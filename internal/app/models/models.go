package models

// RoleKind classifies a resolved caller
type RoleKind string

const (
	RoleUnauthorized RoleKind = "UNAUTHORIZED"
	RoleAdmin        RoleKind = "ADMIN"
	RoleCoordinator  RoleKind = "COORDINATOR"
)

// Role is the outcome of role resolution. DepartmentID is only meaningful
// for coordinators.
type Role struct {
	Kind         RoleKind `json:"kind"`
	DepartmentID int64    `json:"departmentId,omitempty"`
}

// AdminRole returns the unscoped administrator role
func AdminRole() Role {
	return Role{Kind: RoleAdmin}
}

// CoordinatorRole returns a role scoped to one department
func CoordinatorRole(departmentID int64) Role {
	return Role{Kind: RoleCoordinator, DepartmentID: departmentID}
}

// UnauthorizedRole returns the role of a caller with no reviewer rights
func UnauthorizedRole() Role {
	return Role{Kind: RoleUnauthorized}
}

// IsAdmin reports whether the role is unscoped
func (r Role) IsAdmin() bool {
	return r.Kind == RoleAdmin
}

// IsAuthorized reports whether the role may review signup requests at all
func (r Role) IsAuthorized() bool {
	return r.Kind == RoleAdmin || (r.Kind == RoleCoordinator && r.DepartmentID > 0)
}

// CanAccessDepartment reports whether the role may read or resolve requests of a department
func (r Role) CanAccessDepartment(departmentID int64) bool {
	switch r.Kind {
	case RoleAdmin:
		return true
	case RoleCoordinator:
		return r.DepartmentID > 0 && r.DepartmentID == departmentID
	default:
		return false
	}
}
