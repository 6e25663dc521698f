package model

import "time"

// Exam is an uploaded exam paper as reported by the exam service.
type Exam struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	DurationMinutes int       `json:"duration"`
	ExamFileID      string    `json:"examFileId,omitempty"`
	ExamPDFURL      string    `json:"examPdfUrl,omitempty"`
	CreatedBy       Person    `json:"createdBy"`
	CreatedAt       time.Time `json:"createdAt"`
	IsActive        bool      `json:"isActive"`
}

// CreateExamRequest is the teacher's upload form. ExamFile is a local path
// sent as the examPdf multipart part.
type CreateExamRequest struct {
	Title           string `json:"title" binding:"required,min=1,max=255"`
	DurationMinutes int    `json:"duration" binding:"required,min=1,max=480"`
	ExamFile        string `json:"-" binding:"required"`
}
