package api

import (
	"context"
	"net/http"

	"github.com/stemsi/examtester/internal/model"
)

// Signup registers a new account and returns its identity and token.
func (c *Client) Signup(ctx context.Context, req model.SignupRequest) (*model.AuthResponse, error) {
	var out model.AuthResponse
	if err := c.sendJSON(ctx, http.MethodPost, "/auth/signup", req, "Signup failed", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Login exchanges credentials for an identity and token.
func (c *Client) Login(ctx context.Context, req model.LoginRequest) (*model.AuthResponse, error) {
	var out model.AuthResponse
	if err := c.sendJSON(ctx, http.MethodPost, "/auth/login", req, "Login failed", &out); err != nil {
		return nil, err
	}
	return &out, nil
}
