package service

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/stemsi/examtester/internal/model"
	"github.com/stemsi/examtester/internal/response"
	"github.com/stemsi/examtester/internal/validator"
)

// Student-facing messages.
const (
	MsgAlreadyAttempted = "You have already attempted this exam. You cannot attempt it twice."
	MsgExamCancelled    = "This exam has been cancelled by the teacher and is no longer available."
	MsgSubmitted        = "Answers submitted successfully!"
)

// AnswerExtensions are the file types accepted as answers.
var AnswerExtensions = []string{".pdf", ".jpg", ".jpeg", ".png"}

// StudentGateway is the part of the API client the student views use.
type StudentGateway interface {
	ListExams(ctx context.Context) ([]model.Exam, error)
	GetExam(ctx context.Context, id string) (*model.Exam, error)
	ListAllSubmissions(ctx context.Context) ([]model.Submission, error)
	StartAttempt(ctx context.Context, examID string) (*model.Attempt, error)
	CompleteAttempt(ctx context.Context, attemptID string) error
	SubmitAnswer(ctx context.Context, examID, filePath string) (*model.Submission, error)
	PaperURL(fileID string) string
}

// DashboardExam is an exam as listed on the student dashboard.
type DashboardExam struct {
	model.Exam
	AlreadyAttempted bool `json:"already_attempted"`
}

// StudentDashboard is the student's landing view.
type StudentDashboard struct {
	Exams       []DashboardExam
	Submissions []model.Submission
}

// CancelledError reports an exam withdrawn by its teacher. Exams is the
// dashboard list reloaded after the failure, without the withdrawn exam.
type CancelledError struct {
	Err   *response.Error
	Exams []DashboardExam
}

func (e *CancelledError) Error() string { return e.Err.Error() }

func (e *CancelledError) Unwrap() error { return e.Err }

// ActiveAttempt is everything the attempt view needs to run the countdown.
type ActiveAttempt struct {
	Attempt  model.Attempt
	Exam     model.Exam
	PaperURL string
}

// StudentService drives the student dashboard and submission views.
type StudentService struct {
	gw       StudentGateway
	maxBytes int64
	log      zerolog.Logger
}

// NewStudentService creates a new StudentService. maxUploadBytes <= 0
// disables the answer size check.
func NewStudentService(gw StudentGateway, maxUploadBytes int64, log zerolog.Logger) *StudentService {
	return &StudentService{
		gw:       gw,
		maxBytes: maxUploadBytes,
		log:      log.With().Str("component", "student_service").Logger(),
	}
}

// Dashboard lists the visible exams, marking those the student already
// submitted for.
func (s *StudentService) Dashboard(ctx context.Context) (*StudentDashboard, error) {
	exams, err := s.gw.ListExams(ctx)
	if err != nil {
		return nil, response.Wrap(err, "Failed to fetch exams")
	}

	// A missing submission list only loses the annotation.
	subs, err := s.gw.ListAllSubmissions(ctx)
	if err != nil {
		if response.IsUnauthorized(err) {
			return nil, err
		}
		s.log.Warn().Err(err).Msg("Failed to load own submissions")
		subs = []model.Submission{}
	}

	return &StudentDashboard{
		Exams:       annotate(exams, submittedExams(subs)),
		Submissions: subs,
	}, nil
}

func annotate(exams []model.Exam, attempted map[string]bool) []DashboardExam {
	out := make([]DashboardExam, 0, len(exams))
	for _, e := range exams {
		out = append(out, DashboardExam{Exam: e, AlreadyAttempted: attempted[e.ID]})
	}
	return out
}

func submittedExams(subs []model.Submission) map[string]bool {
	m := make(map[string]bool, len(subs))
	for _, sub := range subs {
		if id := sub.ExamID(); id != "" {
			m[id] = true
		}
	}
	return m
}

// AttemptExam starts (or resumes) an attempt. A student who already
// submitted for the exam is stopped before any start call. The check is
// advisory: when submissions cannot be loaded the attempt goes ahead.
// A withdrawn exam fails with a *CancelledError.
func (s *StudentService) AttemptExam(ctx context.Context, examID string) (*ActiveAttempt, error) {
	if strings.TrimSpace(examID) == "" {
		return nil, response.Validation("No exam found", map[string]string{"examId": "examId is a required field"})
	}

	subs, err := s.gw.ListAllSubmissions(ctx)
	if err != nil {
		if response.IsUnauthorized(err) {
			return nil, err
		}
		s.log.Warn().Err(err).Str("exam_id", examID).Msg("Failed to load own submissions, skipping duplicate check")
		subs = nil
	}
	attempted := submittedExams(subs)
	if attempted[examID] {
		return nil, response.Validation(MsgAlreadyAttempted, nil)
	}

	attempt, err := s.gw.StartAttempt(ctx, examID)
	if err != nil {
		if response.IsNotFound(err) {
			return nil, &CancelledError{
				Err:   &response.Error{Kind: response.KindNotFound, Status: http.StatusNotFound, Message: MsgExamCancelled, Err: err},
				Exams: s.refreshExams(ctx, attempted),
			}
		}
		if response.IsUnauthorized(err) {
			return nil, err
		}
		return nil, response.Prefixed("Failed to start exam", err)
	}

	exam, err := s.gw.GetExam(ctx, examID)
	if err != nil {
		return nil, response.Wrap(err, "Failed to fetch exam")
	}

	s.log.Info().Str("exam_id", examID).Str("attempt_id", attempt.ID).Msg("Attempt started")
	return &ActiveAttempt{
		Attempt:  *attempt,
		Exam:     *exam,
		PaperURL: s.gw.PaperURL(exam.ExamFileID),
	}, nil
}

// refreshExams reloads the dashboard list after a cancellation so the
// withdrawn exam drops out. A failed reload yields nil.
func (s *StudentService) refreshExams(ctx context.Context, attempted map[string]bool) []DashboardExam {
	exams, err := s.gw.ListExams(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("Failed to refresh exams")
		return nil
	}
	return annotate(exams, attempted)
}

// CompleteAttempt marks the attempt finished.
func (s *StudentService) CompleteAttempt(ctx context.Context, attemptID string) error {
	if err := s.gw.CompleteAttempt(ctx, attemptID); err != nil {
		return response.Wrap(err, "Failed to complete exam attempt")
	}
	return nil
}

// SubmitAnswers validates the chosen files and uploads the first one.
func (s *StudentService) SubmitAnswers(ctx context.Context, examID string, files []string) (*model.Submission, error) {
	if len(files) == 0 {
		return nil, response.Validation("Please select at least one file to submit", nil)
	}
	if strings.TrimSpace(examID) == "" {
		return nil, response.Validation("No exam found", nil)
	}
	if err := validator.Struct(model.SubmitAnswerRequest{ExamID: examID, AnswerFiles: files}); err != nil {
		return nil, err
	}
	for _, f := range files {
		if err := s.checkAnswerFile(f); err != nil {
			return nil, err
		}
	}

	sub, err := s.gw.SubmitAnswer(ctx, examID, files[0])
	if err != nil {
		if response.IsUnauthorized(err) {
			return nil, err
		}
		return nil, response.Prefixed("Submission failed", err)
	}
	if len(files) > 1 {
		s.log.Warn().Int("ignored", len(files)-1).Msg("Only the first answer file was submitted")
	}
	return sub, nil
}

func (s *StudentService) checkAnswerFile(path string) error {
	ext := strings.ToLower(filepath.Ext(path))
	allowed := false
	for _, a := range AnswerExtensions {
		if ext == a {
			allowed = true
			break
		}
	}
	if !allowed {
		return response.Validation(
			fmt.Sprintf("%s: unsupported file type, use %s", filepath.Base(path), strings.Join(AnswerExtensions, ", ")),
			map[string]string{"answerFile": "unsupported file type"})
	}

	info, err := os.Stat(path)
	if err != nil {
		return response.Validation(fmt.Sprintf("%s: file not found", filepath.Base(path)), map[string]string{"answerFile": "file not found"})
	}
	if info.IsDir() {
		return response.Validation(fmt.Sprintf("%s: is a directory", filepath.Base(path)), map[string]string{"answerFile": "not a file"})
	}
	if s.maxBytes > 0 && info.Size() > s.maxBytes {
		return response.Validation(
			fmt.Sprintf("%s: file exceeds %s", filepath.Base(path), formatSize(s.maxBytes)),
			map[string]string{"answerFile": "file too large"})
	}
	return nil
}

func formatSize(n int64) string {
	if n >= 1<<20 {
		return fmt.Sprintf("%d MB", n>>20)
	}
	return fmt.Sprintf("%d KB", n>>10)
}
