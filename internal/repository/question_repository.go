package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/schoolware/testhub-backend/internal/model"
)

// QuestionRepository handles question and choice data access.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

// ListByTest retrieves all questions for a test, with their choices,
// ordered by order_num.
func (r *QuestionRepository) ListByTest(ctx context.Context, testID uuid.UUID) ([]model.Question, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, test_id, question_text, question_type, points, order_num
		 FROM questions WHERE test_id = $1
		 ORDER BY order_num, id`, testID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []model.Question
	for rows.Next() {
		var q model.Question
		if err := rows.Scan(&q.ID, &q.TestID, &q.QuestionText, &q.QuestionType, &q.Points, &q.OrderNum); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := r.attachChoices(ctx, testID, questions); err != nil {
		return nil, err
	}
	return questions, nil
}

// attachChoices loads all choices for the test in one query and distributes
// them onto their questions.
func (r *QuestionRepository) attachChoices(ctx context.Context, testID uuid.UUID, questions []model.Question) error {
	rows, err := r.pool.Query(ctx,
		`SELECT c.id, c.question_id, c.choice_text, c.is_correct
		 FROM choices c
		 JOIN questions q ON c.question_id = q.id
		 WHERE q.test_id = $1
		 ORDER BY c.id`, testID,
	)
	if err != nil {
		return err
	}
	defer rows.Close()

	byQuestion := make(map[uuid.UUID][]model.Choice)
	for rows.Next() {
		var c model.Choice
		if err := rows.Scan(&c.ID, &c.QuestionID, &c.ChoiceText, &c.IsCorrect); err != nil {
			return err
		}
		byQuestion[c.QuestionID] = append(byQuestion[c.QuestionID], c)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for i := range questions {
		questions[i].Choices = byQuestion[questions[i].ID]
	}
	return nil
}

// GetByID retrieves a single question with its choices.
func (r *QuestionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Question, error) {
	q := &model.Question{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, test_id, question_text, question_type, points, order_num
		 FROM questions WHERE id = $1`, id,
	).Scan(&q.ID, &q.TestID, &q.QuestionText, &q.QuestionType, &q.Points, &q.OrderNum)
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, question_id, choice_text, is_correct
		 FROM choices WHERE question_id = $1
		 ORDER BY id`, id,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var c model.Choice
		if err := rows.Scan(&c.ID, &c.QuestionID, &c.ChoiceText, &c.IsCorrect); err != nil {
			return nil, err
		}
		q.Choices = append(q.Choices, c)
	}
	return q, rows.Err()
}

// Create inserts a question and its choices in one transaction.
func (r *QuestionRepository) Create(ctx context.Context, q *model.Question) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`INSERT INTO questions (test_id, question_text, question_type, points, order_num)
			 VALUES ($1, $2, $3, $4, $5)
			 RETURNING id`,
			q.TestID, q.QuestionText, q.QuestionType, q.Points, q.OrderNum,
		).Scan(&q.ID)
		if err != nil {
			return fmt.Errorf("insert question: %w", err)
		}

		for i := range q.Choices {
			q.Choices[i].QuestionID = q.ID
			err := tx.QueryRow(ctx,
				`INSERT INTO choices (question_id, choice_text, is_correct)
				 VALUES ($1, $2, $3)
				 RETURNING id`,
				q.ID, q.Choices[i].ChoiceText, q.Choices[i].IsCorrect,
			).Scan(&q.Choices[i].ID)
			if err != nil {
				return fmt.Errorf("insert choice: %w", err)
			}
		}
		return nil
	})
}

// Update replaces a question's content and choices in one transaction.
// Old choices are dropped; answers referencing them cascade at the DB level.
func (r *QuestionRepository) Update(ctx context.Context, q *model.Question) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE questions
			 SET question_text = $1, question_type = $2, points = $3, order_num = $4
			 WHERE id = $5`,
			q.QuestionText, q.QuestionType, q.Points, q.OrderNum, q.ID)
		if err != nil {
			return fmt.Errorf("update question: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return pgx.ErrNoRows
		}

		if _, err := tx.Exec(ctx, `DELETE FROM choices WHERE question_id = $1`, q.ID); err != nil {
			return fmt.Errorf("delete old choices: %w", err)
		}

		for i := range q.Choices {
			q.Choices[i].QuestionID = q.ID
			err := tx.QueryRow(ctx,
				`INSERT INTO choices (question_id, choice_text, is_correct)
				 VALUES ($1, $2, $3)
				 RETURNING id`,
				q.ID, q.Choices[i].ChoiceText, q.Choices[i].IsCorrect,
			).Scan(&q.Choices[i].ID)
			if err != nil {
				return fmt.Errorf("insert choice: %w", err)
			}
		}
		return nil
	})
}

// Delete removes a question. Its choices cascade.
func (r *QuestionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM questions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
