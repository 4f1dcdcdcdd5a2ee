package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/schoolware/testhub-backend/internal/model"
)

// SubmissionRepository handles test submission and answer data access.
type SubmissionRepository struct {
	pool *pgxpool.Pool
}

// NewSubmissionRepository creates a new SubmissionRepository.
func NewSubmissionRepository(pool *pgxpool.Pool) *SubmissionRepository {
	return &SubmissionRepository{pool: pool}
}

// GetByTestAndStudent retrieves the submission for a (test, student) pair.
func (r *SubmissionRepository) GetByTestAndStudent(ctx context.Context, testID uuid.UUID, studentID int) (*model.TestSubmission, error) {
	s := &model.TestSubmission{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, test_id, student_id, started_at, completed_at, status, score
		 FROM test_submissions
		 WHERE test_id = $1 AND student_id = $2`, testID, studentID,
	).Scan(&s.ID, &s.TestID, &s.StudentID, &s.StartedAt, &s.CompletedAt, &s.Status, &s.Score)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// CreateGraded persists a fully graded submission with all of its answers and
// selected choices in a single transaction. Nothing is written unless every
// insert succeeds; a duplicate (test, student) pair surfaces the unique
// violation from the submission insert and rolls everything back.
func (r *SubmissionRepository) CreateGraded(ctx context.Context, s *model.TestSubmission, answers []model.Answer) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`INSERT INTO test_submissions (test_id, student_id, started_at, completed_at, status, score)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 RETURNING id`,
			s.TestID, s.StudentID, s.StartedAt, s.CompletedAt, s.Status, s.Score,
		).Scan(&s.ID)
		if err != nil {
			return fmt.Errorf("insert submission: %w", err)
		}

		for i := range answers {
			answers[i].SubmissionID = s.ID
			err := tx.QueryRow(ctx,
				`INSERT INTO answers (submission_id, question_id, text_answer, is_correct, points_earned)
				 VALUES ($1, $2, $3, $4, $5)
				 RETURNING id`,
				s.ID, answers[i].QuestionID, answers[i].TextAnswer, answers[i].IsCorrect, answers[i].PointsEarned,
			).Scan(&answers[i].ID)
			if err != nil {
				return fmt.Errorf("insert answer: %w", err)
			}

			for _, choiceID := range answers[i].SelectedChoiceIDs {
				if _, err := tx.Exec(ctx,
					`INSERT INTO answer_choices (answer_id, choice_id) VALUES ($1, $2)`,
					answers[i].ID, choiceID,
				); err != nil {
					return fmt.Errorf("insert answer choice: %w", err)
				}
			}
		}

		s.Answers = answers
		return nil
	})
}

// GetByID retrieves a submission with its answers and selected choice IDs.
func (r *SubmissionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.TestSubmission, error) {
	s := &model.TestSubmission{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, test_id, student_id, started_at, completed_at, status, score
		 FROM test_submissions WHERE id = $1`, id,
	).Scan(&s.ID, &s.TestID, &s.StudentID, &s.StartedAt, &s.CompletedAt, &s.Status, &s.Score)
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT a.id, a.submission_id, a.question_id, a.text_answer, a.is_correct, a.points_earned,
		        COALESCE(ARRAY_AGG(ac.choice_id) FILTER (WHERE ac.choice_id IS NOT NULL), '{}')
		 FROM answers a
		 LEFT JOIN answer_choices ac ON ac.answer_id = a.id
		 WHERE a.submission_id = $1
		 GROUP BY a.id
		 ORDER BY a.id`, id,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var a model.Answer
		if err := rows.Scan(&a.ID, &a.SubmissionID, &a.QuestionID, &a.TextAnswer, &a.IsCorrect, &a.PointsEarned, &a.SelectedChoiceIDs); err != nil {
			return nil, err
		}
		s.Answers = append(s.Answers, a)
	}
	return s, rows.Err()
}

// ListByStudent retrieves all submissions for a student, newest first.
func (r *SubmissionRepository) ListByStudent(ctx context.Context, studentID int) ([]model.TestSubmission, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, test_id, student_id, started_at, completed_at, status, score
		 FROM test_submissions
		 WHERE student_id = $1
		 ORDER BY started_at DESC`, studentID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var submissions []model.TestSubmission
	for rows.Next() {
		var s model.TestSubmission
		if err := rows.Scan(&s.ID, &s.TestID, &s.StudentID, &s.StartedAt, &s.CompletedAt, &s.Status, &s.Score); err != nil {
			return nil, err
		}
		submissions = append(submissions, s)
	}
	return submissions, rows.Err()
}
