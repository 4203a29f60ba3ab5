package api

import (
	"context"
	"fmt"

	"github.com/tkoh/bookstore-tui/internal/model"
)

// Me fetches the authenticated identity.
func (c *Client) Me(ctx context.Context) (*model.User, error) {
	var u model.User
	if err := c.Get(ctx, "/api/v1/users/me", &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// ChangeMyPassword updates the current user's password.
func (c *Client) ChangeMyPassword(ctx context.Context, current, next string) error {
	body := map[string]string{
		"passwordActual": current,
		"passwordNueva":  next,
	}
	return c.Put(ctx, "/api/v1/users/me/password", body, nil)
}

// UserCreate is the admin payload for creating an account with a role.
type UserCreate struct {
	Username string `json:"nombreUsuario"`
	Email    string `json:"email"`
	Phone    string `json:"celular,omitempty"`
	Password string `json:"password"`
}

// UserUpdate is the admin payload for editing an account.
type UserUpdate struct {
	Username string `json:"nombreUsuario"`
	Email    string `json:"email"`
	Phone    string `json:"celular,omitempty"`
	Enabled  bool   `json:"enabled"`
}

// ListUsers fetches a page of accounts (ADMIN/OWNER only).
func (c *Client) ListUsers(ctx context.Context, p Pageable) (model.Page[model.User], error) {
	var page model.Page[model.User]
	err := c.Get(ctx, "/api/v1/admin/users"+p.query(), &page)
	return page, err
}

// CreateUser creates an account under the given role. The backend exposes
// one creation endpoint per role (admin, owner, vendedor, usuario).
func (c *Client) CreateUser(ctx context.Context, role string, req UserCreate) (*model.User, error) {
	path := "/api/v1/admin/users"
	switch role {
	case model.RoleOwner:
		path += "/owner"
	case model.RoleAdmin:
		path += "/admin"
	case model.RoleVendedor:
		path += "/vendedor"
	case model.RoleUsuario:
		path += "/usuario"
	default:
		return nil, fmt.Errorf("unknown role %q", role)
	}

	var u model.User
	if err := c.Post(ctx, path, req, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// UpdateUser edits an account.
func (c *Client) UpdateUser(ctx context.Context, id int64, req UserUpdate) (*model.User, error) {
	var u model.User
	if err := c.Put(ctx, fmt.Sprintf("/api/v1/admin/users/%d", id), req, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// DeleteUser removes an account.
func (c *Client) DeleteUser(ctx context.Context, id int64) error {
	return c.Delete(ctx, fmt.Sprintf("/api/v1/admin/users/%d", id))
}

// SetUserRoles replaces an account's role assignments.
func (c *Client) SetUserRoles(ctx context.Context, id int64, roleIDs []int64) (*model.User, error) {
	body := map[string][]int64{"roleIds": roleIDs}
	var u model.User
	if err := c.Put(ctx, fmt.Sprintf("/api/v1/admin/users/%d/roles", id), body, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// SetUserPassword resets an account's password (admin action).
func (c *Client) SetUserPassword(ctx context.Context, id int64, password string) error {
	body := map[string]string{"password": password}
	return c.Put(ctx, fmt.Sprintf("/api/v1/admin/users/%d/password", id), body, nil)
}

// ListRoles fetches the role catalog.
func (c *Client) ListRoles(ctx context.Context) ([]model.Role, error) {
	var page model.Page[model.Role]
	p := Pageable{Page: 0, Size: 100, Sort: "id,asc"}
	if err := c.Get(ctx, "/api/v1/roles"+p.query(), &page); err != nil {
		return nil, err
	}
	return page.Content, nil
}
