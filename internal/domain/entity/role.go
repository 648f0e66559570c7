package entity

import "strings"

// RoleName nombre simbólico de un rol.
type RoleName string

// Roles del sistema.
const (
	RoleAdmin RoleName = "ROLE_ADMIN"
	RoleUser  RoleName = "ROLE_USER"
)

// AllRoles devuelve los roles existentes en orden estable.
func AllRoles() []RoleName {
	return []RoleName{RoleAdmin, RoleUser}
}

// ParseRoleName acepta "ROLE_ADMIN", "admin", "Role_User"...; ok=false si no es un rol conocido.
func ParseRoleName(s string) (RoleName, bool) {
	n := strings.ToUpper(strings.TrimSpace(s))
	if !strings.HasPrefix(n, "ROLE_") {
		n = "ROLE_" + n
	}
	switch RoleName(n) {
	case RoleAdmin, RoleUser:
		return RoleName(n), true
	}
	return "", false
}

// Role rol persistido con ID sustituto. Se crea una vez y no se borra en operación normal.
type Role struct {
	ID   int64
	Name RoleName
}
