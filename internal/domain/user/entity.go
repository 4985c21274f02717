package user

import "time"

type Role string

const (
	RoleAdmin   Role = "admin"   // School administrator - approves hours
	RoleTeacher Role = "teacher" // Teaching staff
	RoleTutor   Role = "tutor"   // Tutoring staff
	RoleStudent Role = "student" // No staff hours
)

// Actor is the authenticated caller of a service operation.
type Actor struct {
	UserID string
	Email  string
	Role   Role
}

// IsAdmin checks if the actor is a school administrator
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// IsStaff checks if the actor accrues staff hours
func (a Actor) IsStaff() bool {
	return a.Role == RoleTeacher || a.Role == RoleTutor || a.Role == RoleAdmin
}

// Can checks if the actor's role grants permission
func (a Actor) Can(permission Permission) bool {
	return HasPermission(a.Role, permission)
}

// Profile is the profiles row of a school member
type Profile struct {
	ID        string
	FullName  string
	Role      Role
	CreatedAt time.Time
	UpdatedAt time.Time
}
