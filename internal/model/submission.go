package model

import "time"

// ExamRef is the exam reference nested inside a submission.
type ExamRef struct {
	ID    string `json:"id"`
	Title string `json:"title,omitempty"`
}

// Submission links a student to the answer file stored for one exam.
type Submission struct {
	ID          string    `json:"id"`
	Student     *Person   `json:"student,omitempty"`
	Exam        *ExamRef  `json:"exam,omitempty"`
	ExamIDField string    `json:"examId,omitempty"`
	SubmittedAt time.Time `json:"submittedAt"`
	AnswerURL   string    `json:"answerUrl,omitempty"`
}

// ExamID returns the id of the exam this submission belongs to, whichever
// shape the service used to report it.
func (s Submission) ExamID() string {
	if s.Exam != nil && s.Exam.ID != "" {
		return s.Exam.ID
	}
	return s.ExamIDField
}

// StudentName falls back to a placeholder when the student was not expanded.
func (s Submission) StudentName() string {
	if s.Student == nil || s.Student.Name == "" {
		return "Unknown Student"
	}
	return s.Student.Name
}

// StudentEmail falls back to a placeholder when the student was not expanded.
func (s Submission) StudentEmail() string {
	if s.Student == nil || s.Student.Email == "" {
		return "Unknown Email"
	}
	return s.Student.Email
}

// SubmitAnswerRequest is the student's answer upload. Only the first file is
// sent; the service accepts a single answerFile part.
type SubmitAnswerRequest struct {
	ExamID      string   `json:"examId" binding:"required"`
	AnswerFiles []string `json:"-" binding:"required,min=1,dive,required"`
}
