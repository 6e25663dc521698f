package service

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/examtester/internal/config"
	"github.com/stemsi/examtester/internal/model"
	"github.com/stemsi/examtester/internal/response"
	"github.com/stemsi/examtester/internal/storage"
	"github.com/stemsi/examtester/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTeacherService(t *testing.T) (*TeacherService, *testutil.FakeService, *storage.Memory) {
	t.Helper()
	fake := testutil.NewFakeService(t)
	c, kv := clientAs(t, fake, teacher)
	return NewTeacherService(c, kv, zerolog.Nop()), fake, kv
}

func TestUploadExamValidatesBeforeNetwork(t *testing.T) {
	svc, fake, _ := newTeacherService(t)
	paper := writeFile(t, "paper.pdf", 10)

	tests := []struct {
		name    string
		req     model.CreateExamRequest
		message string
	}{
		{"no file", model.CreateExamRequest{Title: "Algebra", DurationMinutes: 30}, "Please select an exam file"},
		{"blank title", model.CreateExamRequest{Title: "   ", DurationMinutes: 30, ExamFile: paper}, "Please enter an exam title"},
		{"zero duration", model.CreateExamRequest{Title: "Algebra", ExamFile: paper}, "duration is a required field"},
		{"negative duration", model.CreateExamRequest{Title: "Algebra", DurationMinutes: -5, ExamFile: paper}, "duration must be 1 or greater"},
		{"missing file", model.CreateExamRequest{Title: "Algebra", DurationMinutes: 30, ExamFile: "/nope/paper.pdf"}, "Please select an exam file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.UploadExam(context.Background(), tt.req)
			require.Error(t, err)
			assert.True(t, response.IsValidation(err))
			assert.Equal(t, tt.message, err.Error())
		})
	}
	assert.Empty(t, fake.Calls())
}

func TestUploadExam(t *testing.T) {
	svc, fake, _ := newTeacherService(t)

	exam, err := svc.UploadExam(context.Background(), model.CreateExamRequest{
		Title:           "  Algebra  ",
		DurationMinutes: 45,
		ExamFile:        writeFile(t, "paper.pdf", 10),
	})
	require.NoError(t, err)
	assert.Equal(t, "Algebra", exam.Title)
	assert.Equal(t, teacher.Name, exam.CreatedBy.Name)
	assert.Len(t, fake.Uploads(), 1)

	exams, err := svc.Exams(context.Background())
	require.NoError(t, err)
	assert.Len(t, exams, 1)
}

func TestUploadExamFailureIsPrefixed(t *testing.T) {
	svc, fake, _ := newTeacherService(t)
	fake.Fail(http.MethodPost, "/exams", http.StatusRequestEntityTooLarge, "File too large")

	_, err := svc.UploadExam(context.Background(), model.CreateExamRequest{
		Title: "Algebra", DurationMinutes: 45, ExamFile: writeFile(t, "paper.pdf", 10),
	})
	require.Error(t, err)
	assert.Equal(t, "Upload failed: File too large", err.Error())
}

func TestCancelAndActivateMessages(t *testing.T) {
	svc, fake, _ := newTeacherService(t)
	exam := fake.AddExam(model.Exam{Title: "Algebra", DurationMinutes: 30, IsActive: true})
	ctx := context.Background()

	msg, err := svc.CancelExam(ctx, exam.ID)
	require.NoError(t, err)
	assert.Equal(t, `Exam "Algebra" has been cancelled successfully! It's now hidden from students.`, msg)
	stored, _ := fake.Exam(exam.ID)
	assert.False(t, stored.IsActive)

	msg, err = svc.ActivateExam(ctx, exam.ID)
	require.NoError(t, err)
	assert.Equal(t, `Exam "Algebra" has been reactivated successfully! Students can now see it again.`, msg)

	_, err = svc.CancelExam(ctx, "missing")
	require.Error(t, err)
	assert.Equal(t, "Failed to cancel exam: Exam not found", err.Error())
	assert.True(t, response.IsNotFound(err))
}

func TestDashboardCountsSubmissionsPerExam(t *testing.T) {
	svc, fake, _ := newTeacherService(t)
	a := fake.AddExam(model.Exam{Title: "Algebra", DurationMinutes: 30, IsActive: true})
	b := fake.AddExam(model.Exam{Title: "Biology", DurationMinutes: 30, IsActive: false})
	fake.AddSubmission(model.Submission{Exam: &model.ExamRef{ID: a.ID}})
	fake.AddSubmission(model.Submission{ExamIDField: a.ID})
	fake.AddSubmission(model.Submission{Exam: &model.ExamRef{ID: b.ID}})

	d, err := svc.Dashboard(context.Background())
	require.NoError(t, err)
	assert.Len(t, d.Exams, 2)
	assert.Equal(t, 1, d.ActiveExams())
	assert.Equal(t, 2, d.CountFor(a.ID))
	assert.Equal(t, 1, d.CountFor(b.ID))
	assert.False(t, d.SubmissionsHidden)

	forA, err := svc.SubmissionsForExam(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Len(t, forA, 2)

	grouped, err := svc.SubmissionsByExam(context.Background())
	require.NoError(t, err)
	require.Len(t, grouped, 2)
	assert.Equal(t, a.ID, grouped[0].Exam.ID)
	assert.Len(t, grouped[0].Submissions, 2)
	assert.Len(t, grouped[1].Submissions, 1)
}

func TestClearSubmissionsHidesForADay(t *testing.T) {
	svc, fake, kv := newTeacherService(t)
	a := fake.AddExam(model.Exam{Title: "Algebra", DurationMinutes: 30, IsActive: true})
	fake.AddSubmission(model.Submission{Exam: &model.ExamRef{ID: a.ID}})
	ctx := context.Background()

	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	msg, err := svc.ClearSubmissions(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Submissions cleared from dashboard! They will reappear after 24 hours.", msg)
	raw, ok, _ := kv.Get(ctx, config.StorageKey.SubmissionsCleared)
	require.True(t, ok)
	assert.Equal(t, "2024-03-01T09:00:00Z", raw)

	d, err := svc.Dashboard(ctx)
	require.NoError(t, err)
	assert.True(t, d.SubmissionsHidden)
	assert.Empty(t, d.Submissions)
	assert.Zero(t, fake.CallCount(http.MethodGet, "/submissions"))

	now = now.Add(23 * time.Hour)
	assert.True(t, svc.SubmissionsCleared(ctx))

	now = now.Add(time.Hour)
	assert.False(t, svc.SubmissionsCleared(ctx))
	_, ok, _ = kv.Get(ctx, config.StorageKey.SubmissionsCleared)
	assert.False(t, ok)
}

func TestRestoreSubmissions(t *testing.T) {
	svc, _, kv := newTeacherService(t)
	ctx := context.Background()

	_, err := svc.ClearSubmissions(ctx)
	require.NoError(t, err)
	assert.True(t, svc.SubmissionsCleared(ctx))

	require.NoError(t, svc.RestoreSubmissions(ctx))
	assert.False(t, svc.SubmissionsCleared(ctx))
	require.NoError(t, svc.RestoreSubmissions(ctx))

	require.NoError(t, kv.Set(ctx, config.StorageKey.SubmissionsCleared, "yesterday-ish"))
	assert.False(t, svc.SubmissionsCleared(ctx))
	_, ok, _ := kv.Get(ctx, config.StorageKey.SubmissionsCleared)
	assert.False(t, ok)
}
