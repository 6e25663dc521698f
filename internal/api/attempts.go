package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/stemsi/examtester/internal/model"
)

type attemptEnvelope struct {
	Attempt model.Attempt `json:"attempt"`
}

// StartAttempt opens (or resumes) the caller's attempt at an exam. A 404
// means the exam was cancelled.
func (c *Client) StartAttempt(ctx context.Context, examID string) (*model.Attempt, error) {
	var out attemptEnvelope
	req := model.StartAttemptRequest{ExamID: examID}
	if err := c.sendJSON(ctx, http.MethodPost, "/exam-attempts/start", req, "Failed to start exam attempt", &out); err != nil {
		return nil, err
	}
	return &out.Attempt, nil
}

// GetAttempt returns the caller's attempt for an exam.
func (c *Client) GetAttempt(ctx context.Context, examID string) (*model.Attempt, error) {
	var out attemptEnvelope
	if err := c.getJSON(ctx, "/exam-attempts/"+url.PathEscape(examID), "Failed to fetch exam attempt", &out); err != nil {
		return nil, err
	}
	return &out.Attempt, nil
}

// UpdateAttemptTime records the remaining seconds of a running attempt.
func (c *Client) UpdateAttemptTime(ctx context.Context, attemptID string, remaining int) error {
	req := model.UpdateTimeRequest{TimeRemaining: remaining}
	path := "/exam-attempts/" + url.PathEscape(attemptID) + "/time"
	return c.sendJSON(ctx, http.MethodPut, path, req, "Failed to update server time", nil)
}

// CompleteAttempt marks an attempt as finished.
func (c *Client) CompleteAttempt(ctx context.Context, attemptID string) error {
	path := "/exam-attempts/" + url.PathEscape(attemptID) + "/complete"
	return c.sendJSON(ctx, http.MethodPut, path, nil, "Failed to complete exam attempt", nil)
}
