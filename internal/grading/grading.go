package grading

import (
	"github.com/google/uuid"
	"github.com/schoolware/testhub-backend/internal/model"
	"github.com/shopspring/decimal"
)

// Result is the outcome of grading a single answer.
// IsCorrect is nil for text-type questions, which are not auto-gradable.
type Result struct {
	IsCorrect    *bool
	PointsEarned decimal.Decimal
}

// Score grades a student's answer against a question's correct-choice set.
// It is pure and deterministic; the caller persists the result.
//
// Input shape (one choice for single_choice, at least one for multiple_choice,
// non-empty text for text) must already be validated by the caller.
//
//   - text: never auto-graded. IsCorrect nil, 0 points. The question still
//     counts toward the possible-points denominator.
//   - single_choice: full points if the one selected choice is correct.
//   - multiple_choice: any incorrect selection zeroes the answer; selecting
//     exactly the correct set earns full points; a strict subset of correct
//     choices earns points × selectedCorrect/correctTotal.
func Score(q *model.Question, selectedChoiceIDs []uuid.UUID, textAnswer string) Result {
	points := decimal.NewFromInt(int64(q.Points))

	switch q.QuestionType {
	case model.QuestionTypeText:
		return Result{IsCorrect: nil, PointsEarned: decimal.Zero}

	case model.QuestionTypeSingleChoice:
		correct := len(selectedChoiceIDs) == 1 && isCorrectChoice(q, selectedChoiceIDs[0])
		if correct {
			return Result{IsCorrect: boolPtr(true), PointsEarned: points}
		}
		return Result{IsCorrect: boolPtr(false), PointsEarned: decimal.Zero}

	case model.QuestionTypeMultipleChoice:
		return scoreMultipleChoice(q, selectedChoiceIDs, points)
	}

	// Unknown type behaves like text: not auto-gradable.
	return Result{IsCorrect: nil, PointsEarned: decimal.Zero}
}

func scoreMultipleChoice(q *model.Question, selected []uuid.UUID, points decimal.Decimal) Result {
	correctSet := make(map[uuid.UUID]bool, len(q.Choices))
	correctTotal := 0
	for _, c := range q.Choices {
		if c.IsCorrect {
			correctSet[c.ID] = true
			correctTotal++
		}
	}

	selectedCorrect := 0
	selectedIncorrect := 0
	for _, id := range selected {
		if correctSet[id] {
			selectedCorrect++
		} else {
			selectedIncorrect++
		}
	}

	// Any incorrect selection zeroes the answer, even if every correct
	// choice was also selected.
	if selectedIncorrect > 0 {
		return Result{IsCorrect: boolPtr(false), PointsEarned: decimal.Zero}
	}

	if selectedCorrect == correctTotal {
		return Result{IsCorrect: boolPtr(true), PointsEarned: points}
	}

	// Strict subset of the correct set: partial credit.
	if correctTotal == 0 {
		return Result{IsCorrect: boolPtr(false), PointsEarned: decimal.Zero}
	}
	ratio := decimal.NewFromInt(int64(selectedCorrect)).
		Div(decimal.NewFromInt(int64(correctTotal)))
	return Result{
		IsCorrect:    boolPtr(false),
		PointsEarned: points.Mul(ratio).Round(2),
	}
}

// AggregateScore converts earned/possible points into a percentage in [0, 100],
// rounded to two decimal places. A zero denominator (e.g. an all-text test)
// resolves to 0 rather than failing.
func AggregateScore(totalEarned, totalPossible decimal.Decimal) decimal.Decimal {
	if totalPossible.IsZero() {
		return decimal.Zero
	}
	hundred := decimal.NewFromInt(100)
	return totalEarned.Div(totalPossible).Mul(hundred).Round(2)
}

func isCorrectChoice(q *model.Question, choiceID uuid.UUID) bool {
	for _, c := range q.Choices {
		if c.ID == choiceID {
			return c.IsCorrect
		}
	}
	return false
}

func boolPtr(b bool) *bool {
	return &b
}
