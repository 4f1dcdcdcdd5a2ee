package model

import (
	"time"

	"github.com/google/uuid"
)

// Test represents an exam definition owned by a teacher.
type Test struct {
	ID               uuid.UUID `json:"id"`
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	Subject          string    `json:"subject"`
	CreatedBy        int       `json:"created_by"`
	TimeLimitMinutes int       `json:"time_limit_minutes"`
	IsActive         bool      `json:"is_active"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// CreateTestRequest is the payload for creating a new test.
type CreateTestRequest struct {
	Title            string `json:"title" binding:"required,min=3,max=255"`
	Description      string `json:"description" binding:"max=5000"`
	Subject          string `json:"subject" binding:"required,min=2,max=100"`
	TimeLimitMinutes int    `json:"time_limit_minutes" binding:"required,min=1,max=480"`
}

// UpdateTestRequest is the payload for updating an existing test.
// Ownership never changes; only the listed fields may be modified.
type UpdateTestRequest struct {
	Title            string  `json:"title" binding:"omitempty,min=3,max=255"`
	Description      *string `json:"description" binding:"omitempty,max=5000"`
	Subject          string  `json:"subject" binding:"omitempty,min=2,max=100"`
	TimeLimitMinutes int     `json:"time_limit_minutes" binding:"omitempty,min=1,max=480"`
	IsActive         *bool   `json:"is_active" binding:"omitempty"`
}

// TestPaper is the Redis-cached student-facing view of a test.
// Choices carry no correctness flags.
type TestPaper struct {
	TestID           uuid.UUID       `json:"test_id"`
	Title            string          `json:"title"`
	Description      string          `json:"description"`
	Subject          string          `json:"subject"`
	TimeLimitMinutes int             `json:"time_limit_minutes"`
	Questions        []PaperQuestion `json:"questions"`
}

// PaperQuestion is a question as shown to a student taking the test.
type PaperQuestion struct {
	ID           uuid.UUID     `json:"id"`
	QuestionText string        `json:"question_text"`
	QuestionType QuestionType  `json:"question_type"`
	Points       int           `json:"points"`
	OrderNum     int           `json:"order_num"`
	Choices      []PaperChoice `json:"choices"`
}

// PaperChoice is a selectable option without its correctness flag.
type PaperChoice struct {
	ID         uuid.UUID `json:"id"`
	ChoiceText string    `json:"choice_text"`
}
