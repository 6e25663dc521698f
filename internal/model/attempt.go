package model

import "time"

// AttemptStatus enumerates exam attempt states.
type AttemptStatus string

const (
	AttemptStatusInProgress AttemptStatus = "in-progress"
	AttemptStatusCompleted  AttemptStatus = "completed"
)

// Attempt represents a student's time-boxed attempt at one exam.
// TimeRemaining is nil for a fresh attempt and set when the service
// resumes one that was already running.
type Attempt struct {
	ID            string        `json:"id"`
	ExamID        string        `json:"examId"`
	StartedAt     *time.Time    `json:"startedAt,omitempty"`
	TimeRemaining *int          `json:"timeRemaining,omitempty"`
	Status        AttemptStatus `json:"status,omitempty"`
}

// StartAttemptRequest is the payload for POST /exam-attempts/start.
type StartAttemptRequest struct {
	ExamID string `json:"examId" binding:"required"`
}

// UpdateTimeRequest is the payload for PUT /exam-attempts/{id}/time.
type UpdateTimeRequest struct {
	TimeRemaining int `json:"timeRemaining" binding:"min=0"`
}
