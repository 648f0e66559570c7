package entity

// User representa un usuario del sistema.
type User struct {
	ID                 int64
	Username           string
	PasswordHash       string // bcrypt hash, nunca plano
	Email              string
	Active             bool
	MustChangePassword bool
	Roles              []Role
}

// HasRole informa si el usuario tiene el rol indicado.
func (u *User) HasRole(name RoleName) bool {
	for _, r := range u.Roles {
		if r.Name == name {
			return true
		}
	}
	return false
}

// RoleNames devuelve los nombres de los roles del usuario.
func (u *User) RoleNames() []string {
	out := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		out = append(out, string(r.Name))
	}
	return out
}
