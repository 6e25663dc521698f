package service

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/examtester/internal/config"
	"github.com/stemsi/examtester/internal/model"
	"github.com/stemsi/examtester/internal/response"
	"github.com/stemsi/examtester/internal/storage"
	"github.com/stemsi/examtester/internal/validator"
)

// ClearedFor is how long the dashboard keeps submissions hidden after a clear.
const ClearedFor = 24 * time.Hour

// TeacherGateway is the part of the API client the teacher views use.
type TeacherGateway interface {
	CreateExam(ctx context.Context, req model.CreateExamRequest) (*model.Exam, error)
	ListExams(ctx context.Context) ([]model.Exam, error)
	CancelExam(ctx context.Context, id string) (*model.Exam, error)
	ActivateExam(ctx context.Context, id string) (*model.Exam, error)
	ListAllSubmissions(ctx context.Context) ([]model.Submission, error)
	ListSubmissionsForExam(ctx context.Context, examID string) ([]model.Submission, error)
}

// ExamSubmissions groups one exam with the submissions made for it.
type ExamSubmissions struct {
	Exam        model.Exam
	Submissions []model.Submission
}

// TeacherDashboard is the teacher's landing view. Submissions is empty and
// SubmissionsHidden true while a dashboard clear is in effect.
type TeacherDashboard struct {
	Exams             []model.Exam
	Submissions       []model.Submission
	SubmissionsHidden bool
}

// ActiveExams counts exams still visible to students.
func (d *TeacherDashboard) ActiveExams() int {
	n := 0
	for _, e := range d.Exams {
		if e.IsActive {
			n++
		}
	}
	return n
}

// CountFor returns how many loaded submissions belong to examID.
func (d *TeacherDashboard) CountFor(examID string) int {
	n := 0
	for _, s := range d.Submissions {
		if s.ExamID() == examID {
			n++
		}
	}
	return n
}

// TeacherService drives the teacher dashboard.
type TeacherService struct {
	gw  TeacherGateway
	kv  storage.KV
	now func() time.Time
	log zerolog.Logger
}

// NewTeacherService creates a new TeacherService.
func NewTeacherService(gw TeacherGateway, kv storage.KV, log zerolog.Logger) *TeacherService {
	return &TeacherService{
		gw:  gw,
		kv:  kv,
		now: time.Now,
		log: log.With().Str("component", "teacher_service").Logger(),
	}
}

// UploadExam validates the form and uploads the paper. The file, a
// non-blank title and a positive duration are checked before any network
// call.
func (s *TeacherService) UploadExam(ctx context.Context, req model.CreateExamRequest) (*model.Exam, error) {
	if strings.TrimSpace(req.ExamFile) == "" {
		return nil, response.Validation("Please select an exam file", map[string]string{"examPdf": "examPdf is a required field"})
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return nil, response.Validation("Please enter an exam title", map[string]string{"title": "title is a required field"})
	}
	if err := validator.Struct(req); err != nil {
		return nil, err
	}
	if info, err := os.Stat(req.ExamFile); err != nil || info.IsDir() {
		return nil, response.Validation("Please select an exam file", map[string]string{"examPdf": "file not found"})
	}

	exam, err := s.gw.CreateExam(ctx, req)
	if err != nil {
		if response.IsUnauthorized(err) {
			return nil, err
		}
		return nil, response.Prefixed("Upload failed", err)
	}
	s.log.Info().Str("exam_id", exam.ID).Str("title", exam.Title).Msg("Exam uploaded")
	return exam, nil
}

// Dashboard loads exams and, unless cleared, submissions.
func (s *TeacherService) Dashboard(ctx context.Context) (*TeacherDashboard, error) {
	exams, err := s.Exams(ctx)
	if err != nil {
		return nil, err
	}

	d := &TeacherDashboard{Exams: exams, Submissions: []model.Submission{}}
	if s.SubmissionsCleared(ctx) {
		d.SubmissionsHidden = true
		return d, nil
	}

	subs, err := s.gw.ListAllSubmissions(ctx)
	if err != nil {
		if response.IsUnauthorized(err) {
			return nil, err
		}
		s.log.Warn().Err(err).Msg("Failed to load submissions")
		return d, nil
	}
	d.Submissions = subs
	return d, nil
}

// Exams lists every exam the teacher can see, cancelled ones included.
func (s *TeacherService) Exams(ctx context.Context) ([]model.Exam, error) {
	exams, err := s.gw.ListExams(ctx)
	if err != nil {
		return nil, response.Wrap(err, "Failed to fetch exams")
	}
	return exams, nil
}

// CancelExam hides an exam from students and returns the confirmation.
func (s *TeacherService) CancelExam(ctx context.Context, examID string) (string, error) {
	exam, err := s.gw.CancelExam(ctx, examID)
	if err != nil {
		if response.IsUnauthorized(err) {
			return "", err
		}
		return "", response.Prefixed("Failed to cancel exam", err)
	}
	return fmt.Sprintf("Exam %q has been cancelled successfully! It's now hidden from students.", exam.Title), nil
}

// ActivateExam makes an exam visible to students again.
func (s *TeacherService) ActivateExam(ctx context.Context, examID string) (string, error) {
	exam, err := s.gw.ActivateExam(ctx, examID)
	if err != nil {
		if response.IsUnauthorized(err) {
			return "", err
		}
		return "", response.Prefixed("Failed to activate exam", err)
	}
	return fmt.Sprintf("Exam %q has been reactivated successfully! Students can now see it again.", exam.Title), nil
}

// SubmissionsForExam loads one exam's submissions.
func (s *TeacherService) SubmissionsForExam(ctx context.Context, examID string) ([]model.Submission, error) {
	subs, err := s.gw.ListSubmissionsForExam(ctx, examID)
	if err != nil {
		return nil, response.Wrap(err, "Failed to fetch submissions")
	}
	return subs, nil
}

// SubmissionsByExam groups every submission under its exam, in exam order.
// Submissions for exams not in the list are dropped.
func (s *TeacherService) SubmissionsByExam(ctx context.Context) ([]ExamSubmissions, error) {
	exams, err := s.Exams(ctx)
	if err != nil {
		return nil, err
	}
	subs, err := s.gw.ListAllSubmissions(ctx)
	if err != nil {
		return nil, response.Wrap(err, "Failed to fetch submissions")
	}

	byExam := make(map[string][]model.Submission, len(exams))
	for _, sub := range subs {
		byExam[sub.ExamID()] = append(byExam[sub.ExamID()], sub)
	}
	out := make([]ExamSubmissions, 0, len(exams))
	for _, e := range exams {
		group := byExam[e.ID]
		if group == nil {
			group = []model.Submission{}
		}
		out = append(out, ExamSubmissions{Exam: e, Submissions: group})
	}
	return out, nil
}

// ─── Dashboard clear ───────────────────────────────────────────────────
// Local to this client only: other sessions and devices keep their own
// view, and the service is never told.

// ClearSubmissions hides submissions from the dashboard for ClearedFor.
func (s *TeacherService) ClearSubmissions(ctx context.Context) (string, error) {
	stamp := s.now().UTC().Format(time.RFC3339)
	if err := s.kv.Set(ctx, config.StorageKey.SubmissionsCleared, stamp); err != nil {
		return "", response.Wrap(fmt.Errorf("store cleared marker: %w", err), "Failed to clear submissions")
	}
	return "Submissions cleared from dashboard! They will reappear after 24 hours.", nil
}

// SubmissionsCleared reports whether a clear is in effect. A marker older
// than ClearedFor, or one that cannot be parsed, is removed.
func (s *TeacherService) SubmissionsCleared(ctx context.Context) bool {
	raw, ok, err := s.kv.Get(ctx, config.StorageKey.SubmissionsCleared)
	if err != nil {
		s.log.Warn().Err(err).Msg("Failed to read cleared marker")
		return false
	}
	if !ok {
		return false
	}

	at, err := time.Parse(time.RFC3339, raw)
	if err == nil && s.now().Sub(at) < ClearedFor {
		return true
	}
	if err := s.kv.Remove(ctx, config.StorageKey.SubmissionsCleared); err != nil {
		s.log.Warn().Err(err).Msg("Failed to remove cleared marker")
	}
	return false
}

// RestoreSubmissions shows submissions on the dashboard again.
func (s *TeacherService) RestoreSubmissions(ctx context.Context) error {
	if err := s.kv.Remove(ctx, config.StorageKey.SubmissionsCleared); err != nil {
		return response.Wrap(fmt.Errorf("remove cleared marker: %w", err), "Failed to restore submissions")
	}
	return nil
}
