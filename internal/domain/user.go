package domain

import "time"

// UserRole enumerates staff roles.
type UserRole string

const (
	RoleSuperAdmin UserRole = "SUPER_ADMIN"
	RoleManager    UserRole = "MANAGER"
	RoleAttendant  UserRole = "ATTENDANT"
	RoleViewer     UserRole = "VIEWER"
)

var userRoles = map[UserRole]string{
	RoleSuperAdmin: "Super Administrador",
	RoleManager:    "Gestor",
	RoleAttendant:  "Atendente",
	RoleViewer:     "Visualizador",
}

// Label returns the display label for the role.
func (r UserRole) Label() string {
	return userRoles[r]
}

// User is a staff member operating the system: attendants receive protocol
// assignments, managers run the catalog and bulk communications.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         UserRole
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
