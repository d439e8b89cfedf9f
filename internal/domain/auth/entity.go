package auth

// Role is the access role carried in the access token.
type Role string

const (
	RoleOwner    Role = "owner"    // Company owner - full access
	RoleManager  Role = "manager"  // Can run attendance processing
	RoleEmployee Role = "employee" // Read-only attendance access
)

// CanProcessAttendance reports whether role may trigger processing and reclassification.
func (r Role) CanProcessAttendance() bool {
	return r == RoleOwner || r == RoleManager
}
