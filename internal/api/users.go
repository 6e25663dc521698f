package api

import (
	"context"

	"github.com/stemsi/examtester/internal/model"
)

// ListStudents returns all student accounts (admin only).
func (c *Client) ListStudents(ctx context.Context) ([]model.User, error) {
	var out struct {
		Students []model.User `json:"students"`
	}
	if err := c.getJSON(ctx, "/users/students", "Failed to load students", &out); err != nil {
		return nil, err
	}
	return out.Students, nil
}

// ListTeachers returns all teacher accounts (admin only).
func (c *Client) ListTeachers(ctx context.Context) ([]model.User, error) {
	var out struct {
		Teachers []model.User `json:"teachers"`
	}
	if err := c.getJSON(ctx, "/users/teachers", "Failed to load teachers", &out); err != nil {
		return nil, err
	}
	return out.Teachers, nil
}
