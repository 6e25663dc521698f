package api

import (
	"context"
	"net/url"

	"github.com/stemsi/examtester/internal/model"
)

type submissionEnvelope struct {
	Submission model.Submission `json:"submission"`
}

type submissionsEnvelope struct {
	Submissions []model.Submission `json:"submissions"`
}

// SubmitAnswer uploads one answer file for an exam.
func (c *Client) SubmitAnswer(ctx context.Context, examID, filePath string) (*model.Submission, error) {
	var out submissionEnvelope
	err := c.sendMultipart(ctx, "/submissions",
		[]formField{{Name: "examId", Value: examID}},
		formFile{Field: "answerFile", Path: filePath},
		"Submission failed", &out)
	if err != nil {
		return nil, err
	}
	return &out.Submission, nil
}

// ListSubmissionsForExam returns every submission for one exam.
func (c *Client) ListSubmissionsForExam(ctx context.Context, examID string) ([]model.Submission, error) {
	return c.listSubmissions(ctx, "/submissions/"+url.PathEscape(examID))
}

// ListAllSubmissions returns the submissions visible to the current session:
// a student's own, or everything for teachers and admins.
func (c *Client) ListAllSubmissions(ctx context.Context) ([]model.Submission, error) {
	return c.listSubmissions(ctx, "/submissions")
}

func (c *Client) listSubmissions(ctx context.Context, path string) ([]model.Submission, error) {
	var out submissionsEnvelope
	if err := c.getJSON(ctx, path, "Failed to fetch submissions", &out); err != nil {
		return nil, err
	}
	if out.Submissions == nil {
		out.Submissions = []model.Submission{}
	}
	return out.Submissions, nil
}
