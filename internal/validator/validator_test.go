package validator

import (
	"testing"

	"github.com/stemsi/examtester/internal/model"
	"github.com/stemsi/examtester/internal/response"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStruct_Valid(t *testing.T) {
	req := model.LoginRequest{Email: "ada@example.com", Password: "secret", Role: model.RoleStudent}
	assert.NoError(t, Struct(&req))
}

func TestStruct_FieldErrorsUseJSONNames(t *testing.T) {
	req := model.LoginRequest{Email: "not-an-email", Role: "janitor"}

	err := Struct(&req)
	require.Error(t, err)
	require.True(t, response.IsValidation(err))

	var re *response.Error
	require.ErrorAs(t, err, &re)
	assert.Contains(t, re.Fields, "email")
	assert.Contains(t, re.Fields, "password")
	assert.Contains(t, re.Fields, "role")
	assert.NotEmpty(t, re.Message)
}

func TestStruct_SkipsDashJSONFieldsByGoName(t *testing.T) {
	req := model.CreateExamRequest{Title: "Algebra", DurationMinutes: 50}

	err := Struct(&req)
	var re *response.Error
	require.ErrorAs(t, err, &re)
	assert.Contains(t, re.Fields, "ExamFile")
}

func TestStruct_DurationBounds(t *testing.T) {
	req := model.CreateExamRequest{Title: "Algebra", DurationMinutes: 0, ExamFile: "exam.pdf"}
	err := Struct(&req)
	var re *response.Error
	require.ErrorAs(t, err, &re)
	assert.Contains(t, re.Fields, "duration")
}

func TestTranslateErrors_NonValidation(t *testing.T) {
	fields := TranslateErrors(assert.AnError)
	assert.Equal(t, assert.AnError.Error(), fields["detail"])
}
