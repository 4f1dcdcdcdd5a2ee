package model

import (
	"time"

	"github.com/google/uuid"
)

// SubmissionStatus enumerates test submission states.
type SubmissionStatus string

const (
	SubmissionStatusInProgress SubmissionStatus = "in_progress"
	SubmissionStatusCompleted  SubmissionStatus = "completed"
	SubmissionStatusTimedOut   SubmissionStatus = "timed_out"
)

// TestSubmission represents a student's attempt at a test.
// At most one submission exists per (test, student) pair.
type TestSubmission struct {
	ID          uuid.UUID        `json:"id"`
	TestID      uuid.UUID        `json:"test_id"`
	StudentID   int              `json:"student_id"`
	StartedAt   time.Time        `json:"started_at"`
	CompletedAt *time.Time       `json:"completed_at,omitempty"`
	Status      SubmissionStatus `json:"status"`
	Score       *float64         `json:"score,omitempty"`
	Answers     []Answer         `json:"answers,omitempty"`
}

// Answer represents a student's response to one question within a submission.
// IsCorrect stays nil for text-type questions, which are not auto-gradable.
type Answer struct {
	ID                uuid.UUID   `json:"id"`
	SubmissionID      uuid.UUID   `json:"submission_id"`
	QuestionID        uuid.UUID   `json:"question_id"`
	SelectedChoiceIDs []uuid.UUID `json:"selected_choice_ids,omitempty"`
	TextAnswer        string      `json:"text_answer,omitempty"`
	IsCorrect         *bool       `json:"is_correct"`
	PointsEarned      float64     `json:"points_earned"`
}

// SubmitTestRequest is the payload for submitting a completed test.
type SubmitTestRequest struct {
	TestID  uuid.UUID             `json:"test_id" binding:"required"`
	Answers []SubmitAnswerRequest `json:"answers" binding:"required,min=1,dive"`
}

// SubmitAnswerRequest is one answer within a test submission payload.
type SubmitAnswerRequest struct {
	QuestionID        uuid.UUID   `json:"question_id" binding:"required"`
	SelectedChoiceIDs []uuid.UUID `json:"selected_choice_ids" binding:"omitempty"`
	TextAnswer        string      `json:"text_answer" binding:"omitempty,max=10000"`
}
