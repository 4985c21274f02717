package user

type Permission string

const (
	// Own hours
	PermissionHoursViewOwn     Permission = "hours.view_own"
	PermissionHoursSubmitExtra Permission = "hours.submit_extra"

	// Administration
	PermissionHoursViewAll   Permission = "hours.view_all"
	PermissionHoursApprove   Permission = "hours.approve"
	PermissionHoursRecompute Permission = "hours.recompute"

	// Notifications
	PermissionNotificationViewOwn Permission = "notification.view_own"
)

// RolePermissions maps roles to their permissions
var RolePermissions = map[Role][]Permission{
	RoleAdmin: {
		PermissionHoursViewOwn,
		PermissionHoursSubmitExtra,
		PermissionHoursViewAll,
		PermissionHoursApprove,
		PermissionHoursRecompute,
		PermissionNotificationViewOwn,
	},
	RoleTeacher: {
		PermissionHoursViewOwn,
		PermissionHoursSubmitExtra,
		PermissionNotificationViewOwn,
	},
	RoleTutor: {
		PermissionHoursViewOwn,
		PermissionHoursSubmitExtra,
		PermissionNotificationViewOwn,
	},
	RoleStudent: {
		PermissionNotificationViewOwn,
	},
}

// HasPermission checks if a role has a specific permission
func HasPermission(role Role, permission Permission) bool {
	permissions, exists := RolePermissions[role]
	if !exists {
		return false
	}

	for _, p := range permissions {
		if p == permission {
			return true
		}
	}

	return false
}
