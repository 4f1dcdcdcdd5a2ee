package model

import (
	"time"

	"github.com/google/uuid"
)

// TestStats summarizes completed submissions for one test.
type TestStats struct {
	TestID          uuid.UUID       `json:"test_id"`
	TestTitle       string          `json:"test_title"`
	SubmissionCount int             `json:"submission_count"`
	AvgScore        float64         `json:"avg_score"`
	MinScore        float64         `json:"min_score"`
	MaxScore        float64         `json:"max_score"`
	QuestionStats   []QuestionStats `json:"question_stats"`
}

// QuestionStats holds per-question correctness rates for one test.
type QuestionStats struct {
	QuestionID        uuid.UUID `json:"question_id"`
	QuestionText      string    `json:"question_text"`
	CorrectCount      int       `json:"correct_count"`
	IncorrectCount    int       `json:"incorrect_count"`
	CorrectPercentage float64   `json:"correct_percentage"`
}

// StudentStats summarizes a student's completed submissions.
type StudentStats struct {
	StudentID   int                 `json:"student_id"`
	TestsTaken  int                 `json:"tests_taken"`
	AvgScore    float64             `json:"avg_score"`
	TestResults []StudentTestResult `json:"test_results"`
}

// StudentTestResult is one (test, score) entry in a student's history.
type StudentTestResult struct {
	TestID      uuid.UUID  `json:"test_id"`
	TestTitle   string     `json:"test_title"`
	Score       *float64   `json:"score"`
	CompletedAt *time.Time `json:"completed_at"`
}
