package rbac

// Role constants
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Permission constants
const (
	PermUseAI           = "use_ai"
	PermManageTemplates = "manage_templates"
	PermManageApps      = "manage_apps"
	PermModerate        = "moderate"
	PermManageSettings  = "manage_settings"
	PermViewAuditLog    = "view_audit_log"
)

// RolePermissions defines what each role can do.
var RolePermissions = map[string][]string{
	RoleUser: {
		PermUseAI, PermManageTemplates, PermManageApps,
	},
	RoleAdmin: {
		PermUseAI, PermManageTemplates, PermManageApps,
		PermModerate, PermManageSettings, PermViewAuditLog,
	},
}

// HasPermission checks if a role has a specific permission.
func HasPermission(role, permission string) bool {
	perms, ok := RolePermissions[role]
	if !ok {
		return false
	}
	for _, p := range perms {
		if p == permission {
			return true
		}
	}
	return false
}

// RoleFor returns the role of a wallet given the admin check.
func RoleFor(isAdmin bool) string {
	if isAdmin {
		return RoleAdmin
	}
	return RoleUser
}
