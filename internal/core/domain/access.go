package domain

// Resource names a portal area guarded by CanAccess.
type Resource string

const (
	ResourceDashboard  Resource = "dashboard"
	ResourceAdminPanel Resource = "admin"
)

// CanAccess reports whether user may see resource. Anonymous callers see
// nothing guarded.
func CanAccess(user *User, resource Resource) bool {
	if user == nil {
		return false
	}
	switch resource {
	case ResourceDashboard:
		return user.Role == RoleUser || user.Role == RoleAdmin
	case ResourceAdminPanel:
		return user.Role == RoleAdmin
	}
	return false
}
