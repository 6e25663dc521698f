package service

import (
	"context"

	"github.com/stemsi/examtester/internal/model"
	"github.com/stemsi/examtester/internal/response"
)

// AdminGateway is the part of the API client the admin view uses.
type AdminGateway interface {
	ListAllSubmissions(ctx context.Context) ([]model.Submission, error)
	ListStudents(ctx context.Context) ([]model.User, error)
	ListTeachers(ctx context.Context) ([]model.User, error)
}

// AdminService drives the read-only admin dashboard.
type AdminService struct {
	gw AdminGateway
}

// NewAdminService creates a new AdminService.
func NewAdminService(gw AdminGateway) *AdminService {
	return &AdminService{gw: gw}
}

// Submissions lists every submission in the system.
func (s *AdminService) Submissions(ctx context.Context) ([]model.Submission, error) {
	subs, err := s.gw.ListAllSubmissions(ctx)
	if err != nil {
		return nil, response.Prefixed("Failed to load data", err)
	}
	return subs, nil
}

func (s *AdminService) Students(ctx context.Context) ([]model.User, error) {
	users, err := s.gw.ListStudents(ctx)
	if err != nil {
		return nil, response.Wrap(err, "Failed to load students")
	}
	return users, nil
}

func (s *AdminService) Teachers(ctx context.Context) ([]model.User, error) {
	users, err := s.gw.ListTeachers(ctx)
	if err != nil {
		return nil, response.Wrap(err, "Failed to load teachers")
	}
	return users, nil
}
