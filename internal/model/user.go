package model

import "time"

// Role names as defined by the backend.
const (
	RoleOwner    = "OWNER"
	RoleAdmin    = "ADMIN"
	RoleVendedor = "VENDEDOR"
	RoleUsuario  = "USUARIO"
)

// Role is a named permission group assigned to a user.
type Role struct {
	ID          int64  `json:"id"`
	Name        string `json:"nombreRol"`
	Description string `json:"descripcion,omitempty"`
}

// User is the authenticated identity returned by /api/v1/users/me and the
// admin user-management endpoints. JSON tags follow the backend's field
// names verbatim.
type User struct {
	ID               int64     `json:"id"`
	Username         string    `json:"nombreUsuario"`
	Email            string    `json:"email"`
	Phone            string    `json:"celular,omitempty"`
	RegisteredAt     time.Time `json:"fechaRegistro"`
	Enabled          bool      `json:"enabled"`
	AccountNonLocked bool      `json:"accountNonLocked"`
	Roles            []Role    `json:"roles"`
}

// HasRole reports whether the user carries the named role.
func (u *User) HasRole(name string) bool {
	if u == nil {
		return false
	}
	for _, r := range u.Roles {
		if r.Name == name {
			return true
		}
	}
	return false
}

// HasAnyRole reports whether the user carries at least one of the named roles.
func (u *User) HasAnyRole(names ...string) bool {
	for _, n := range names {
		if u.HasRole(n) {
			return true
		}
	}
	return false
}
