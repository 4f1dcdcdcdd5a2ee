package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"github.com/schoolware/testhub-backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ────────────────────────────────────────────────────────────────────────────
// Fakes
// ────────────────────────────────────────────────────────────────────────────

type fakeTestStore struct {
	tests map[uuid.UUID]*model.Test
}

func (f *fakeTestStore) GetByID(_ context.Context, id uuid.UUID) (*model.Test, error) {
	if t, ok := f.tests[id]; ok {
		return t, nil
	}
	return nil, pgx.ErrNoRows
}

type fakeQuestionStore struct {
	questions map[uuid.UUID][]model.Question
}

func (f *fakeQuestionStore) ListByTest(_ context.Context, testID uuid.UUID) ([]model.Question, error) {
	return f.questions[testID], nil
}

type fakeSubmissionStore struct {
	existing       map[string]*model.TestSubmission
	created        *model.TestSubmission
	createdAnswers []model.Answer
	uniqueConflict bool
}

func subKey(testID uuid.UUID, studentID int) string {
	return fmt.Sprintf("%s/%d", testID, studentID)
}

func (f *fakeSubmissionStore) GetByTestAndStudent(_ context.Context, testID uuid.UUID, studentID int) (*model.TestSubmission, error) {
	if s, ok := f.existing[subKey(testID, studentID)]; ok {
		return s, nil
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeSubmissionStore) CreateGraded(_ context.Context, s *model.TestSubmission, answers []model.Answer) error {
	if f.uniqueConflict {
		return fmt.Errorf("insert submission: %w", &pgconn.PgError{Code: pgUniqueViolation})
	}
	s.ID = uuid.New()
	f.created = s
	f.createdAnswers = answers
	return nil
}

func (f *fakeSubmissionStore) GetByID(_ context.Context, id uuid.UUID) (*model.TestSubmission, error) {
	for _, s := range f.existing {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeSubmissionStore) ListByStudent(_ context.Context, studentID int) ([]model.TestSubmission, error) {
	var out []model.TestSubmission
	for _, s := range f.existing {
		if s.StudentID == studentID {
			out = append(out, *s)
		}
	}
	return out, nil
}

type fakeSubmissionCache struct {
	startTimes  map[string]time.Time
	invalidated []uuid.UUID
}

func (f *fakeSubmissionCache) StartTime(_ context.Context, testID uuid.UUID, studentID int) (time.Time, bool, error) {
	if at, ok := f.startTimes[subKey(testID, studentID)]; ok {
		return at, true, nil
	}
	return time.Time{}, false, nil
}

func (f *fakeSubmissionCache) InvalidateTestStats(_ context.Context, testID uuid.UUID) error {
	f.invalidated = append(f.invalidated, testID)
	return nil
}

// ────────────────────────────────────────────────────────────────────────────
// Fixture: a 2-question test. Question 1 is a 5-point single-choice with
// correct option B; question 2 is a 10-point multiple-choice with correct
// options {A, C} out of {A, B, C, D}.
// ────────────────────────────────────────────────────────────────────────────

type fixture struct {
	svc    *SubmissionService
	subs   *fakeSubmissionStore
	cache  *fakeSubmissionCache
	test   *model.Test
	single model.Question
	multi  model.Question
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	test := &model.Test{
		ID:               uuid.New(),
		Title:            "Algebra Basics",
		TimeLimitMinutes: 60,
		IsActive:         true,
	}

	single := model.Question{
		ID:           uuid.New(),
		TestID:       test.ID,
		QuestionType: model.QuestionTypeSingleChoice,
		Points:       5,
	}
	for i, correct := range []bool{false, true, false, false} {
		single.Choices = append(single.Choices, model.Choice{
			ID: uuid.New(), QuestionID: single.ID, ChoiceText: string(rune('A' + i)), IsCorrect: correct,
		})
	}

	multi := model.Question{
		ID:           uuid.New(),
		TestID:       test.ID,
		QuestionType: model.QuestionTypeMultipleChoice,
		Points:       10,
	}
	for i, correct := range []bool{true, false, true, false} {
		multi.Choices = append(multi.Choices, model.Choice{
			ID: uuid.New(), QuestionID: multi.ID, ChoiceText: string(rune('A' + i)), IsCorrect: correct,
		})
	}

	subs := &fakeSubmissionStore{existing: map[string]*model.TestSubmission{}}
	cache := &fakeSubmissionCache{startTimes: map[string]time.Time{}}

	svc := NewSubmissionService(
		&fakeTestStore{tests: map[uuid.UUID]*model.Test{test.ID: test}},
		&fakeQuestionStore{questions: map[uuid.UUID][]model.Question{test.ID: {single, multi}}},
		subs,
		cache,
		30*time.Second,
		zerolog.Nop(),
	)

	return &fixture{svc: svc, subs: subs, cache: cache, test: test, single: single, multi: multi}
}

func (f *fixture) answer(q *model.Question, letters ...rune) model.SubmitAnswerRequest {
	ar := model.SubmitAnswerRequest{QuestionID: q.ID}
	for _, l := range letters {
		ar.SelectedChoiceIDs = append(ar.SelectedChoiceIDs, q.Choices[l-'A'].ID)
	}
	return ar
}

// ────────────────────────────────────────────────────────────────────────────
// Submit
// ────────────────────────────────────────────────────────────────────────────

func TestSubmit_AllCorrectScores100(t *testing.T) {
	f := newFixture(t)

	sub, err := f.svc.Submit(context.Background(), 7, &model.SubmitTestRequest{
		TestID: f.test.ID,
		Answers: []model.SubmitAnswerRequest{
			f.answer(&f.single, 'B'),
			f.answer(&f.multi, 'A', 'C'),
		},
	})
	require.NoError(t, err)

	require.NotNil(t, sub.Score)
	assert.InDelta(t, 100, *sub.Score, 0.001)
	assert.Equal(t, model.SubmissionStatusCompleted, sub.Status)
	require.NotNil(t, sub.CompletedAt)

	require.Len(t, f.subs.createdAnswers, 2)
	for _, a := range f.subs.createdAnswers {
		require.NotNil(t, a.IsCorrect)
		assert.True(t, *a.IsCorrect)
	}
	assert.Equal(t, []uuid.UUID{f.test.ID}, f.cache.invalidated)
}

func TestSubmit_WrongSingleAndPartialMulti(t *testing.T) {
	f := newFixture(t)

	// Single answered A (wrong, 0/5); multi answered {A} only
	// (1 of 2 correct, none incorrect → 10 × 1/2 = 5).
	sub, err := f.svc.Submit(context.Background(), 7, &model.SubmitTestRequest{
		TestID: f.test.ID,
		Answers: []model.SubmitAnswerRequest{
			f.answer(&f.single, 'A'),
			f.answer(&f.multi, 'A'),
		},
	})
	require.NoError(t, err)

	require.NotNil(t, sub.Score)
	assert.InDelta(t, 33.33, *sub.Score, 0.01)

	assert.InDelta(t, 0, f.subs.createdAnswers[0].PointsEarned, 0.001)
	assert.InDelta(t, 5, f.subs.createdAnswers[1].PointsEarned, 0.001)
}

func TestSubmit_IncorrectChoiceZeroesMulti(t *testing.T) {
	f := newFixture(t)

	// Single correct (5/5); multi answered {A, B} — B is incorrect, so the
	// whole multi answer earns 0 despite A being correct.
	sub, err := f.svc.Submit(context.Background(), 7, &model.SubmitTestRequest{
		TestID: f.test.ID,
		Answers: []model.SubmitAnswerRequest{
			f.answer(&f.single, 'B'),
			f.answer(&f.multi, 'A', 'B'),
		},
	})
	require.NoError(t, err)

	require.NotNil(t, sub.Score)
	assert.InDelta(t, 33.33, *sub.Score, 0.01)
	assert.InDelta(t, 0, f.subs.createdAnswers[1].PointsEarned, 0.001)
}

func TestSubmit_TextOnlyTestScoresZero(t *testing.T) {
	f := newFixture(t)

	textQ := model.Question{
		ID:           uuid.New(),
		TestID:       f.test.ID,
		QuestionType: model.QuestionTypeText,
		Points:       10,
	}
	f.svc.questionStore = &fakeQuestionStore{
		questions: map[uuid.UUID][]model.Question{f.test.ID: {textQ}},
	}

	sub, err := f.svc.Submit(context.Background(), 7, &model.SubmitTestRequest{
		TestID: f.test.ID,
		Answers: []model.SubmitAnswerRequest{
			{QuestionID: textQ.ID, TextAnswer: "the mitochondria is the powerhouse of the cell"},
		},
	})
	require.NoError(t, err)

	require.NotNil(t, sub.Score)
	assert.InDelta(t, 0, *sub.Score, 0.001)
	require.Len(t, f.subs.createdAnswers, 1)
	assert.Nil(t, f.subs.createdAnswers[0].IsCorrect)
}

func TestSubmit_DuplicateRejected(t *testing.T) {
	f := newFixture(t)

	score := 80.0
	f.subs.existing[subKey(f.test.ID, 7)] = &model.TestSubmission{
		ID:        uuid.New(),
		TestID:    f.test.ID,
		StudentID: 7,
		Status:    model.SubmissionStatusCompleted,
		Score:     &score,
	}

	_, err := f.svc.Submit(context.Background(), 7, &model.SubmitTestRequest{
		TestID:  f.test.ID,
		Answers: []model.SubmitAnswerRequest{f.answer(&f.single, 'B')},
	})

	assert.ErrorIs(t, err, ErrDuplicateSubmission)
	assert.Nil(t, f.subs.created, "no new row may be created")
	assert.Empty(t, f.cache.invalidated)
}

func TestSubmit_ConcurrentDuplicateLosesRace(t *testing.T) {
	f := newFixture(t)
	f.subs.uniqueConflict = true

	_, err := f.svc.Submit(context.Background(), 7, &model.SubmitTestRequest{
		TestID: f.test.ID,
		Answers: []model.SubmitAnswerRequest{
			f.answer(&f.single, 'B'),
			f.answer(&f.multi, 'A', 'C'),
		},
	})

	assert.ErrorIs(t, err, ErrDuplicateSubmission)
}

func TestSubmit_TestNotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Submit(context.Background(), 7, &model.SubmitTestRequest{
		TestID:  uuid.New(),
		Answers: []model.SubmitAnswerRequest{f.answer(&f.single, 'B')},
	})

	assert.ErrorIs(t, err, ErrTestNotFound)
}

func TestSubmit_InactiveTestRejected(t *testing.T) {
	f := newFixture(t)
	f.test.IsActive = false

	_, err := f.svc.Submit(context.Background(), 7, &model.SubmitTestRequest{
		TestID:  f.test.ID,
		Answers: []model.SubmitAnswerRequest{f.answer(&f.single, 'B')},
	})

	assert.ErrorIs(t, err, ErrTestInactive)
	assert.Nil(t, f.subs.created)
}

func TestSubmit_ValidationRejectsWholeBatch(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name      string
		answers   []model.SubmitAnswerRequest
		wantField string
	}{
		{
			name: "unknown question",
			answers: []model.SubmitAnswerRequest{
				{QuestionID: uuid.New(), SelectedChoiceIDs: []uuid.UUID{uuid.New()}},
			},
			wantField: "answers[0].question_id",
		},
		{
			name: "multiple choices on single_choice",
			answers: []model.SubmitAnswerRequest{
				f.answer(&f.single, 'A', 'B'),
			},
			wantField: "answers[0].selected_choice_ids",
		},
		{
			name: "zero choices on single_choice",
			answers: []model.SubmitAnswerRequest{
				{QuestionID: f.single.ID},
			},
			wantField: "answers[0].selected_choice_ids",
		},
		{
			name: "zero choices on multiple_choice",
			answers: []model.SubmitAnswerRequest{
				f.answer(&f.single, 'B'),
				{QuestionID: f.multi.ID},
			},
			wantField: "answers[1].selected_choice_ids",
		},
		{
			name: "foreign choice id",
			answers: []model.SubmitAnswerRequest{
				{QuestionID: f.single.ID, SelectedChoiceIDs: []uuid.UUID{f.multi.Choices[0].ID}},
			},
			wantField: "answers[0].selected_choice_ids",
		},
		{
			name: "duplicate answers for one question",
			answers: []model.SubmitAnswerRequest{
				f.answer(&f.single, 'B'),
				f.answer(&f.single, 'A'),
			},
			wantField: "answers[1].question_id",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f.subs.created = nil

			_, err := f.svc.Submit(context.Background(), 7, &model.SubmitTestRequest{
				TestID:  f.test.ID,
				Answers: tc.answers,
			})

			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Contains(t, ve.Fields, tc.wantField)
			assert.Nil(t, f.subs.created, "validation failure must persist nothing")
		})
	}
}

func TestSubmit_TextAnswerRequired(t *testing.T) {
	f := newFixture(t)

	textQ := model.Question{
		ID:           uuid.New(),
		TestID:       f.test.ID,
		QuestionType: model.QuestionTypeText,
		Points:       3,
	}
	f.svc.questionStore = &fakeQuestionStore{
		questions: map[uuid.UUID][]model.Question{f.test.ID: {textQ}},
	}

	_, err := f.svc.Submit(context.Background(), 7, &model.SubmitTestRequest{
		TestID:  f.test.ID,
		Answers: []model.SubmitAnswerRequest{{QuestionID: textQ.ID}},
	})

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "answers[0].text_answer")
}

func TestSubmit_PastDeadlineMarksTimedOut(t *testing.T) {
	f := newFixture(t)

	startedAt := time.Now().Add(-2 * time.Hour) // 60-minute limit long gone
	f.cache.startTimes[subKey(f.test.ID, 7)] = startedAt

	sub, err := f.svc.Submit(context.Background(), 7, &model.SubmitTestRequest{
		TestID: f.test.ID,
		Answers: []model.SubmitAnswerRequest{
			f.answer(&f.single, 'B'),
			f.answer(&f.multi, 'A', 'C'),
		},
	})
	require.NoError(t, err)

	assert.Equal(t, model.SubmissionStatusTimedOut, sub.Status)
	assert.Equal(t, startedAt.Unix(), sub.StartedAt.Unix())
	// Late submissions are still graded.
	require.NotNil(t, sub.Score)
	assert.InDelta(t, 100, *sub.Score, 0.001)
}

func TestSubmit_WithinDeadlineStaysCompleted(t *testing.T) {
	f := newFixture(t)

	f.cache.startTimes[subKey(f.test.ID, 7)] = time.Now().Add(-10 * time.Minute)

	sub, err := f.svc.Submit(context.Background(), 7, &model.SubmitTestRequest{
		TestID: f.test.ID,
		Answers: []model.SubmitAnswerRequest{
			f.answer(&f.single, 'B'),
			f.answer(&f.multi, 'A', 'C'),
		},
	})
	require.NoError(t, err)

	assert.Equal(t, model.SubmissionStatusCompleted, sub.Status)
}

// ────────────────────────────────────────────────────────────────────────────
// Get / ListMine
// ────────────────────────────────────────────────────────────────────────────

func TestGet_OtherStudentsSubmissionNotFound(t *testing.T) {
	f := newFixture(t)

	sub := &model.TestSubmission{
		ID:        uuid.New(),
		TestID:    f.test.ID,
		StudentID: 7,
		Status:    model.SubmissionStatusCompleted,
	}
	f.subs.existing[subKey(f.test.ID, 7)] = sub

	got, err := f.svc.Get(context.Background(), 7, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, sub.ID, got.ID)

	_, err = f.svc.Get(context.Background(), 8, sub.ID)
	assert.ErrorIs(t, err, ErrSubmissionNotFound)
}

func TestListMine_EmptyIsNotNil(t *testing.T) {
	f := newFixture(t)

	got, err := f.svc.ListMine(context.Background(), 7)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}
