package api

import (
	"context"
	"errors"
	"net/http"

	"appointment-booking-web/internal/model"
)

var ErrNoToken = errors.New("login answered without a token")

type Login struct {
	Token string     `json:"token"`
	User  model.User `json:"user"`
}

func (c *Client) Login(ctx context.Context, email, password string) (*Login, error) {
	in := map[string]string{"email": email, "password": password}
	var out Login
	if err := c.do(ctx, http.MethodPost, "/auth/login", "", nil, in, &out); err != nil {
		return nil, err
	}
	if out.Token == "" {
		return nil, ErrNoToken
	}
	return &out, nil
}

type Registration struct {
	Name     string `json:"full_name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register returns the backend's confirmation text.
func (c *Client) Register(ctx context.Context, r Registration) (string, error) {
	var out messageOnly
	err := c.do(ctx, http.MethodPost, "/auth/register", "", nil, r, &out)
	return out.Message, err
}

func (c *Client) ForgotPassword(ctx context.Context, email string) (string, error) {
	var out messageOnly
	err := c.do(ctx, http.MethodPost, "/auth/forgot-password", "", nil, map[string]string{"email": email}, &out)
	return out.Message, err
}

func (c *Client) ResetPassword(ctx context.Context, token, newPassword string) (string, error) {
	in := map[string]string{"token": token, "newPassword": newPassword}
	var out messageOnly
	err := c.do(ctx, http.MethodPost, "/auth/reset-password", "", nil, in, &out)
	return out.Message, err
}

func (c *Client) VerifyEmail(ctx context.Context, token string) (string, error) {
	var out messageOnly
	err := c.do(ctx, http.MethodPost, "/auth/verify", "", nil, map[string]string{"token": token}, &out)
	return out.Message, err
}
