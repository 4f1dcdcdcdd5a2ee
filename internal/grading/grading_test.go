package grading

import (
	"testing"

	"github.com/google/uuid"
	"github.com/schoolware/testhub-backend/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newChoiceQuestion builds a question whose choices are flagged correct
// according to the given mask.
func newChoiceQuestion(qt model.QuestionType, points int, correctMask []bool) *model.Question {
	q := &model.Question{
		ID:           uuid.New(),
		QuestionType: qt,
		Points:       points,
	}
	for _, correct := range correctMask {
		q.Choices = append(q.Choices, model.Choice{
			ID:         uuid.New(),
			QuestionID: q.ID,
			IsCorrect:  correct,
		})
	}
	return q
}

func choiceIDs(q *model.Question, idxs ...int) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(idxs))
	for _, i := range idxs {
		ids = append(ids, q.Choices[i].ID)
	}
	return ids
}

func TestScore_Text(t *testing.T) {
	q := &model.Question{ID: uuid.New(), QuestionType: model.QuestionTypeText, Points: 5}

	got := Score(q, nil, "free text essay answer")

	assert.Nil(t, got.IsCorrect)
	assert.True(t, got.PointsEarned.IsZero())
}

func TestScore_SingleChoice(t *testing.T) {
	// Choice 1 is the correct one.
	q := newChoiceQuestion(model.QuestionTypeSingleChoice, 5, []bool{false, true, false})

	tests := []struct {
		name        string
		selectedIdx int
		wantCorrect bool
		wantPoints  int64
	}{
		{name: "correct choice earns full points", selectedIdx: 1, wantCorrect: true, wantPoints: 5},
		{name: "wrong choice earns zero", selectedIdx: 0, wantCorrect: false, wantPoints: 0},
		{name: "other wrong choice earns zero", selectedIdx: 2, wantCorrect: false, wantPoints: 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Score(q, choiceIDs(q, tc.selectedIdx), "")

			require.NotNil(t, got.IsCorrect)
			assert.Equal(t, tc.wantCorrect, *got.IsCorrect)
			assert.True(t, got.PointsEarned.Equal(decimal.NewFromInt(tc.wantPoints)),
				"points = %s", got.PointsEarned)
		})
	}
}

func TestScore_SingleChoice_ForeignChoiceID(t *testing.T) {
	q := newChoiceQuestion(model.QuestionTypeSingleChoice, 5, []bool{true, false})

	// A choice ID that does not belong to the question never matches.
	got := Score(q, []uuid.UUID{uuid.New()}, "")

	require.NotNil(t, got.IsCorrect)
	assert.False(t, *got.IsCorrect)
	assert.True(t, got.PointsEarned.IsZero())
}

func TestScore_MultipleChoice(t *testing.T) {
	// Choices 0 and 2 are correct out of four ({A, C} of {A, B, C, D}).
	q := newChoiceQuestion(model.QuestionTypeMultipleChoice, 10, []bool{true, false, true, false})

	tests := []struct {
		name        string
		selected    []int
		wantCorrect bool
		wantPoints  string
	}{
		{name: "exact correct set earns full points", selected: []int{0, 2}, wantCorrect: true, wantPoints: "10"},
		{name: "order does not matter", selected: []int{2, 0}, wantCorrect: true, wantPoints: "10"},
		{name: "strict subset earns partial credit", selected: []int{0}, wantCorrect: false, wantPoints: "5"},
		{name: "any incorrect selection zeroes the answer", selected: []int{0, 1}, wantCorrect: false, wantPoints: "0"},
		{name: "incorrect plus full correct set still zero", selected: []int{0, 1, 2}, wantCorrect: false, wantPoints: "0"},
		{name: "only incorrect selections earn zero", selected: []int{1, 3}, wantCorrect: false, wantPoints: "0"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Score(q, choiceIDs(q, tc.selected...), "")

			require.NotNil(t, got.IsCorrect)
			assert.Equal(t, tc.wantCorrect, *got.IsCorrect)
			want, err := decimal.NewFromString(tc.wantPoints)
			require.NoError(t, err)
			assert.True(t, got.PointsEarned.Equal(want),
				"points = %s, want %s", got.PointsEarned, want)
		})
	}
}

func TestScore_MultipleChoice_PartialCreditRounding(t *testing.T) {
	// 1 of 3 correct selected: 10 × 1/3 = 3.33 after 2-dp rounding.
	q := newChoiceQuestion(model.QuestionTypeMultipleChoice, 10, []bool{true, true, true, false})

	got := Score(q, choiceIDs(q, 0), "")

	require.NotNil(t, got.IsCorrect)
	assert.False(t, *got.IsCorrect)
	assert.Equal(t, "3.33", got.PointsEarned.StringFixed(2))
}

func TestScore_MultipleChoice_NoCorrectChoices(t *testing.T) {
	// Authoring left no choice flagged correct. Selecting nothing incorrect
	// with correctTotal == 0 means selectedCorrect == correctTotal (0 == 0),
	// which counts as a full match.
	q := newChoiceQuestion(model.QuestionTypeMultipleChoice, 10, []bool{false, false})

	got := Score(q, choiceIDs(q, 0), "")

	require.NotNil(t, got.IsCorrect)
	assert.False(t, *got.IsCorrect)
	assert.True(t, got.PointsEarned.IsZero())
}

func TestAggregateScore(t *testing.T) {
	tests := []struct {
		name     string
		earned   string
		possible string
		want     string
	}{
		{name: "full marks", earned: "15", possible: "15", want: "100"},
		{name: "partial", earned: "5", possible: "15", want: "33.33"},
		{name: "zero earned", earned: "0", possible: "20", want: "0"},
		{name: "zero possible resolves to zero", earned: "0", possible: "0", want: "0"},
		{name: "fractional earned", earned: "7.5", possible: "10", want: "75"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			earned, err := decimal.NewFromString(tc.earned)
			require.NoError(t, err)
			possible, err := decimal.NewFromString(tc.possible)
			require.NoError(t, err)
			want, err := decimal.NewFromString(tc.want)
			require.NoError(t, err)

			got := AggregateScore(earned, possible)
			assert.True(t, got.Equal(want), "score = %s, want %s", got, want)
		})
	}
}

// TestScore_TwoQuestionScenarios walks the reference scenarios: a 5-point
// single-choice question with correct option B, and a 10-point
// multiple-choice question with correct options {A, C} of {A, B, C, D}.
func TestScore_TwoQuestionScenarios(t *testing.T) {
	single := newChoiceQuestion(model.QuestionTypeSingleChoice, 5, []bool{false, true, false, false})
	multi := newChoiceQuestion(model.QuestionTypeMultipleChoice, 10, []bool{true, false, true, false})
	possible := decimal.NewFromInt(15)

	t.Run("all correct scores 100", func(t *testing.T) {
		r1 := Score(single, choiceIDs(single, 1), "")
		r2 := Score(multi, choiceIDs(multi, 0, 2), "")

		earned := r1.PointsEarned.Add(r2.PointsEarned)
		assert.Equal(t, "100", AggregateScore(earned, possible).String())
	})

	t.Run("wrong single and partial multi score 33.33", func(t *testing.T) {
		r1 := Score(single, choiceIDs(single, 0), "")
		r2 := Score(multi, choiceIDs(multi, 0), "")

		require.True(t, r1.PointsEarned.IsZero())
		assert.Equal(t, "5", r2.PointsEarned.String())

		earned := r1.PointsEarned.Add(r2.PointsEarned)
		assert.Equal(t, "33.33", AggregateScore(earned, possible).StringFixed(2))
	})

	t.Run("correct single and spoiled multi score 33.33", func(t *testing.T) {
		r1 := Score(single, choiceIDs(single, 1), "")
		r2 := Score(multi, choiceIDs(multi, 0, 1), "")

		assert.Equal(t, "5", r1.PointsEarned.String())
		require.True(t, r2.PointsEarned.IsZero())

		earned := r1.PointsEarned.Add(r2.PointsEarned)
		assert.Equal(t, "33.33", AggregateScore(earned, possible).StringFixed(2))
	})
}
