package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/stemsi/examtester/internal/model"
)

type examEnvelope struct {
	Exam model.Exam `json:"exam"`
}

type examsEnvelope struct {
	Exams []model.Exam `json:"exams"`
}

// CreateExam uploads an exam paper with its title and duration.
func (c *Client) CreateExam(ctx context.Context, req model.CreateExamRequest) (*model.Exam, error) {
	var out examEnvelope
	err := c.sendMultipart(ctx, "/exams",
		[]formField{
			{Name: "title", Value: req.Title},
			{Name: "duration", Value: strconv.Itoa(req.DurationMinutes)},
		},
		formFile{Field: "examPdf", Path: req.ExamFile},
		"Upload failed", &out)
	if err != nil {
		return nil, err
	}
	return &out.Exam, nil
}

// ListExams returns the exams visible to the current session.
func (c *Client) ListExams(ctx context.Context) ([]model.Exam, error) {
	var out examsEnvelope
	if err := c.getJSON(ctx, "/exams", "Failed to fetch exams", &out); err != nil {
		return nil, err
	}
	if out.Exams == nil {
		out.Exams = []model.Exam{}
	}
	return out.Exams, nil
}

// GetExam fetches a single exam.
func (c *Client) GetExam(ctx context.Context, id string) (*model.Exam, error) {
	var out examEnvelope
	if err := c.getJSON(ctx, "/exams/"+url.PathEscape(id), "Failed to fetch exam", &out); err != nil {
		return nil, err
	}
	return &out.Exam, nil
}

// CancelExam hides an exam from students.
func (c *Client) CancelExam(ctx context.Context, id string) (*model.Exam, error) {
	return c.putExam(ctx, id, "cancel", "Failed to cancel exam")
}

// ActivateExam makes a cancelled exam available again.
func (c *Client) ActivateExam(ctx context.Context, id string) (*model.Exam, error) {
	return c.putExam(ctx, id, "activate", "Failed to activate exam")
}

func (c *Client) putExam(ctx context.Context, id, action, fallback string) (*model.Exam, error) {
	var out examEnvelope
	path := "/exams/" + url.PathEscape(id) + "/" + action
	if err := c.sendJSON(ctx, http.MethodPut, path, nil, fallback, &out); err != nil {
		return nil, err
	}
	return &out.Exam, nil
}

// PaperURL is where the exam paper with the given file id can be fetched.
func (c *Client) PaperURL(fileID string) string {
	origin := strings.TrimSuffix(c.baseURL, "/api")
	return origin + "/api/exams/file/" + url.PathEscape(fileID)
}
