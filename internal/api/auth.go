package api

import "context"

// LoginRequest carries the credentials for POST /api/v1/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the bearer token issued on successful login.
type LoginResponse struct {
	Token string `json:"token"`
}

// RegisterRequest carries the payload for POST /api/v1/auth/register.
type RegisterRequest struct {
	Username string `json:"nombreUsuario"`
	Email    string `json:"email"`
	Phone    string `json:"celular,omitempty"`
	Password string `json:"password"`
}

// ForgotPasswordRequest asks the server to send a reset code to the user
// identified by email or username.
type ForgotPasswordRequest struct {
	Identifier string `json:"identificador"`
}

// ResetPasswordRequest redeems a reset code for a new password.
type ResetPasswordRequest struct {
	Email       string `json:"email"`
	Code        string `json:"otp"`
	NewPassword string `json:"nuevaPassword"`
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, req LoginRequest) (LoginResponse, error) {
	var out LoginResponse
	err := c.Post(ctx, "/api/v1/auth/login", req, &out)
	return out, err
}

// Register creates a new account. The server response message is surfaced
// through the returned error (or nil on success).
func (c *Client) Register(ctx context.Context, req RegisterRequest) error {
	return c.Post(ctx, "/api/v1/auth/register", req, nil)
}

// ForgotPassword requests a one-time reset code.
func (c *Client) ForgotPassword(ctx context.Context, req ForgotPasswordRequest) error {
	return c.Post(ctx, "/api/v1/auth/forgot-password", req, nil)
}

// ResetPassword redeems a reset code.
func (c *Client) ResetPassword(ctx context.Context, req ResetPasswordRequest) error {
	return c.Post(ctx, "/api/v1/auth/reset-password", req, nil)
}
