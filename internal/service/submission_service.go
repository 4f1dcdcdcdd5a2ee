package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"github.com/schoolware/testhub-backend/internal/grading"
	"github.com/schoolware/testhub-backend/internal/model"
	"github.com/shopspring/decimal"
)

// Common submission errors.
var (
	ErrDuplicateSubmission = errors.New("test already submitted by this student")
	ErrQuestionNotFound    = errors.New("question not found")
	ErrSubmissionNotFound  = errors.New("submission not found")
)

// pgUniqueViolation is the PostgreSQL error code for unique constraint
// violations. The (test_id, student_id) constraint is the authoritative guard
// against concurrent duplicate submits.
const pgUniqueViolation = "23505"

// ValidationError reports per-answer shape violations, keyed by the offending
// field, e.g. "answers[2].selected_choice_ids".
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return "submission validation failed"
}

// TestStore is the subset of the test repository the lifecycle needs.
type TestStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Test, error)
}

// QuestionStore loads a test's questions with their choices.
type QuestionStore interface {
	ListByTest(ctx context.Context, testID uuid.UUID) ([]model.Question, error)
}

// SubmissionStore persists and retrieves submissions.
type SubmissionStore interface {
	GetByTestAndStudent(ctx context.Context, testID uuid.UUID, studentID int) (*model.TestSubmission, error)
	CreateGraded(ctx context.Context, s *model.TestSubmission, answers []model.Answer) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.TestSubmission, error)
	ListByStudent(ctx context.Context, studentID int) ([]model.TestSubmission, error)
}

// SubmissionCache is the cache surface the lifecycle needs: the student's
// start time for the deadline check and stats invalidation after a submit.
type SubmissionCache interface {
	StartTime(ctx context.Context, testID uuid.UUID, studentID int) (time.Time, bool, error)
	InvalidateTestStats(ctx context.Context, testID uuid.UUID) error
}

// SubmissionService orchestrates the submission lifecycle: it enforces the
// one-submission-per-(test, student) rule, validates and grades every answer,
// aggregates the percentage score, and persists everything atomically.
type SubmissionService struct {
	testStore       TestStore
	questionStore   QuestionStore
	submissionStore SubmissionStore
	cache           SubmissionCache
	submitGrace     time.Duration
	log             zerolog.Logger
	now             func() time.Time
}

// NewSubmissionService creates a new SubmissionService.
func NewSubmissionService(
	testStore TestStore,
	questionStore QuestionStore,
	submissionStore SubmissionStore,
	cache SubmissionCache,
	submitGrace time.Duration,
	log zerolog.Logger,
) *SubmissionService {
	return &SubmissionService{
		testStore:       testStore,
		questionStore:   questionStore,
		submissionStore: submissionStore,
		cache:           cache,
		submitGrace:     submitGrace,
		log:             log.With().Str("component", "submission_service").Logger(),
		now:             time.Now,
	}
}

// Submit validates, grades, and persists a student's answers as one completed
// submission. All validation happens before any write; on any error nothing
// is persisted.
func (s *SubmissionService) Submit(ctx context.Context, studentID int, req *model.SubmitTestRequest) (*model.TestSubmission, error) {
	test, err := s.testStore.GetByID(ctx, req.TestID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTestNotFound
		}
		return nil, fmt.Errorf("get test: %w", err)
	}
	if !test.IsActive {
		return nil, ErrTestInactive
	}

	// Fail fast on an existing submission. Submissions are only ever written
	// in a terminal state, so any row means the student already finished.
	// The unique constraint below remains the authoritative guard.
	_, err = s.submissionStore.GetByTestAndStudent(ctx, req.TestID, studentID)
	if err == nil {
		return nil, ErrDuplicateSubmission
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("check existing submission: %w", err)
	}

	questions, err := s.questionStore.ListByTest(ctx, req.TestID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	questionsByID := make(map[uuid.UUID]*model.Question, len(questions))
	for i := range questions {
		questionsByID[questions[i].ID] = &questions[i]
	}

	if err := validateAnswers(req.Answers, questionsByID); err != nil {
		return nil, err
	}

	// Grade every answer and accumulate totals. Text questions contribute
	// their points to the possible total but earn 0 until manually graded.
	answers := make([]model.Answer, 0, len(req.Answers))
	totalEarned := decimal.Zero
	totalPossible := decimal.Zero

	for _, ar := range req.Answers {
		question := questionsByID[ar.QuestionID]
		result := grading.Score(question, ar.SelectedChoiceIDs, ar.TextAnswer)

		totalEarned = totalEarned.Add(result.PointsEarned)
		totalPossible = totalPossible.Add(decimal.NewFromInt(int64(question.Points)))

		answers = append(answers, model.Answer{
			QuestionID:        ar.QuestionID,
			SelectedChoiceIDs: ar.SelectedChoiceIDs,
			TextAnswer:        ar.TextAnswer,
			IsCorrect:         result.IsCorrect,
			PointsEarned:      result.PointsEarned.InexactFloat64(),
		})
	}

	score := grading.AggregateScore(totalEarned, totalPossible).InexactFloat64()
	now := s.now()

	submission := &model.TestSubmission{
		TestID:      req.TestID,
		StudentID:   studentID,
		StartedAt:   now,
		CompletedAt: &now,
		Status:      model.SubmissionStatusCompleted,
		Score:       &score,
	}

	// A student who opened the paper and submitted past the time limit still
	// gets graded, but the submission is marked timed_out.
	if startedAt, ok, err := s.cache.StartTime(ctx, req.TestID, studentID); err != nil {
		s.log.Warn().Err(err).Str("test_id", req.TestID.String()).Msg("Start time lookup failed")
	} else if ok {
		submission.StartedAt = startedAt
		deadline := startedAt.Add(time.Duration(test.TimeLimitMinutes)*time.Minute + s.submitGrace)
		if now.After(deadline) {
			submission.Status = model.SubmissionStatusTimedOut
		}
	}

	if err := s.submissionStore.CreateGraded(ctx, submission, answers); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			// Concurrent submit lost the race; the first one stands.
			return nil, ErrDuplicateSubmission
		}
		return nil, fmt.Errorf("persist submission: %w", err)
	}

	if err := s.cache.InvalidateTestStats(ctx, req.TestID); err != nil {
		s.log.Warn().Err(err).Str("test_id", req.TestID.String()).Msg("Stats invalidation failed")
	}

	s.log.Info().
		Str("test_id", req.TestID.String()).
		Int("student_id", studentID).
		Float64("score", score).
		Str("status", string(submission.Status)).
		Msg("Submission graded")

	return submission, nil
}

// Get retrieves one of the student's own submissions with its answers.
// A submission belonging to another student is reported as not found.
func (s *SubmissionService) Get(ctx context.Context, studentID int, id uuid.UUID) (*model.TestSubmission, error) {
	submission, err := s.submissionStore.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSubmissionNotFound
		}
		return nil, fmt.Errorf("get submission: %w", err)
	}
	if submission.StudentID != studentID {
		return nil, ErrSubmissionNotFound
	}
	return submission, nil
}

// ListMine retrieves all of the student's submissions, newest first.
func (s *SubmissionService) ListMine(ctx context.Context, studentID int) ([]model.TestSubmission, error) {
	submissions, err := s.submissionStore.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if submissions == nil {
		submissions = []model.TestSubmission{}
	}
	return submissions, nil
}

// validateAnswers checks every answer's shape against its question before any
// state is persisted. The whole submission is rejected on the first pass
// collecting all violations; no partial credit for valid answers within an
// invalid batch.
func validateAnswers(answers []model.SubmitAnswerRequest, questionsByID map[uuid.UUID]*model.Question) error {
	fields := make(map[string]string)
	seen := make(map[uuid.UUID]bool, len(answers))

	for i, ar := range answers {
		prefix := fmt.Sprintf("answers[%d]", i)

		question, ok := questionsByID[ar.QuestionID]
		if !ok {
			fields[prefix+".question_id"] = "question does not belong to this test"
			continue
		}
		if seen[ar.QuestionID] {
			fields[prefix+".question_id"] = "duplicate answer for this question"
			continue
		}
		seen[ar.QuestionID] = true

		switch question.QuestionType {
		case model.QuestionTypeText:
			if ar.TextAnswer == "" {
				fields[prefix+".text_answer"] = "text answer is required for this question type"
			}
			if len(ar.SelectedChoiceIDs) > 0 {
				fields[prefix+".selected_choice_ids"] = "choices cannot be selected for a text question"
			}

		case model.QuestionTypeSingleChoice:
			if len(ar.SelectedChoiceIDs) != 1 {
				fields[prefix+".selected_choice_ids"] = "exactly one choice must be selected"
				continue
			}
			validateChoiceMembership(fields, prefix, question, ar.SelectedChoiceIDs)

		case model.QuestionTypeMultipleChoice:
			if len(ar.SelectedChoiceIDs) == 0 {
				fields[prefix+".selected_choice_ids"] = "at least one choice must be selected"
				continue
			}
			validateChoiceMembership(fields, prefix, question, ar.SelectedChoiceIDs)
		}
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func validateChoiceMembership(fields map[string]string, prefix string, question *model.Question, selected []uuid.UUID) {
	known := make(map[uuid.UUID]bool, len(question.Choices))
	for _, c := range question.Choices {
		known[c.ID] = true
	}
	for _, id := range selected {
		if !known[id] {
			fields[prefix+".selected_choice_ids"] = "selected choice does not belong to the question"
			return
		}
	}
}
