package model

import (
	"github.com/google/uuid"
)

// QuestionType enumerates the supported question kinds.
type QuestionType string

const (
	QuestionTypeSingleChoice   QuestionType = "single_choice"
	QuestionTypeMultipleChoice QuestionType = "multiple_choice"
	QuestionTypeText           QuestionType = "text"
)

// Question represents a gradable unit within a test.
type Question struct {
	ID           uuid.UUID    `json:"id"`
	TestID       uuid.UUID    `json:"test_id"`
	QuestionText string       `json:"question_text"`
	QuestionType QuestionType `json:"question_type"`
	Points       int          `json:"points"`
	OrderNum     int          `json:"order_num"`
	Choices      []Choice     `json:"choices,omitempty"`
}

// Choice is a selectable option for a choice-type question.
type Choice struct {
	ID         uuid.UUID `json:"id"`
	QuestionID uuid.UUID `json:"question_id"`
	ChoiceText string    `json:"choice_text"`
	IsCorrect  bool      `json:"is_correct"`
}

// CreateQuestionRequest is the payload for adding a question to a test.
type CreateQuestionRequest struct {
	QuestionText string                `json:"question_text" binding:"required,min=1,max=2000"`
	QuestionType QuestionType          `json:"question_type" binding:"required,oneof=single_choice multiple_choice text"`
	Points       int                   `json:"points" binding:"required,min=1,max=100"`
	OrderNum     int                   `json:"order_num" binding:"min=0"`
	Choices      []CreateChoiceRequest `json:"choices" binding:"omitempty,dive"`
}

// CreateChoiceRequest is the payload for a single choice of a new question.
type CreateChoiceRequest struct {
	ChoiceText string `json:"choice_text" binding:"required,min=1,max=255"`
	IsCorrect  bool   `json:"is_correct"`
}

// UpdateQuestionRequest is the payload for replacing a question's content.
type UpdateQuestionRequest struct {
	QuestionText string                `json:"question_text" binding:"required,min=1,max=2000"`
	QuestionType QuestionType          `json:"question_type" binding:"required,oneof=single_choice multiple_choice text"`
	Points       int                   `json:"points" binding:"required,min=1,max=100"`
	OrderNum     int                   `json:"order_num" binding:"min=0"`
	Choices      []CreateChoiceRequest `json:"choices" binding:"omitempty,dive"`
}
