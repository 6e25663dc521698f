package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/stemsi/examtester/internal/model"
	"github.com/stemsi/examtester/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminService(t *testing.T) {
	fake := testutil.NewFakeService(t)
	fake.AddUser(student, "secret1")
	fake.AddUser(teacher, "secret1")
	fake.AddSubmission(model.Submission{ExamIDField: "e1"})
	c, _ := clientAs(t, fake, admin)
	svc := NewAdminService(c)
	ctx := context.Background()

	subs, err := svc.Submissions(ctx)
	require.NoError(t, err)
	assert.Len(t, subs, 1)
	assert.Equal(t, "Unknown Student", subs[0].StudentName())

	students, err := svc.Students(ctx)
	require.NoError(t, err)
	assert.Equal(t, []model.User{student}, students)

	teachers, err := svc.Teachers(ctx)
	require.NoError(t, err)
	assert.Equal(t, []model.User{teacher}, teachers)
}

func TestAdminServiceFailure(t *testing.T) {
	fake := testutil.NewFakeService(t)
	fake.Fail(http.MethodGet, "/submissions", http.StatusInternalServerError, "")
	c, _ := clientAs(t, fake, admin)

	_, err := NewAdminService(c).Submissions(context.Background())
	require.Error(t, err)
	assert.Equal(t, "Failed to load data: Failed to fetch submissions", err.Error())
}
