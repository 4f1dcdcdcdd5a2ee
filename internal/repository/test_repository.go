package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/schoolware/testhub-backend/internal/model"
)

// TestRepository handles test data access.
type TestRepository struct {
	pool *pgxpool.Pool
}

// NewTestRepository creates a new TestRepository.
func NewTestRepository(pool *pgxpool.Pool) *TestRepository {
	return &TestRepository{pool: pool}
}

// GetByID retrieves a test by ID.
func (r *TestRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Test, error) {
	t := &model.Test{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, title, description, subject, created_by, time_limit_minutes, is_active, created_at, updated_at
		 FROM tests WHERE id = $1`, id,
	).Scan(&t.ID, &t.Title, &t.Description, &t.Subject, &t.CreatedBy, &t.TimeLimitMinutes, &t.IsActive, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// Create inserts a new test.
func (r *TestRepository) Create(ctx context.Context, t *model.Test) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO tests (title, description, subject, created_by, time_limit_minutes, is_active)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at, updated_at`,
		t.Title, t.Description, t.Subject, t.CreatedBy, t.TimeLimitMinutes, t.IsActive,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
}

// Update modifies an existing test. Ownership (created_by) never changes.
func (r *TestRepository) Update(ctx context.Context, t *model.Test) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE tests
		 SET title = $1, description = $2, subject = $3, time_limit_minutes = $4, is_active = $5, updated_at = $6
		 WHERE id = $7`,
		t.Title, t.Description, t.Subject, t.TimeLimitMinutes, t.IsActive, time.Now(), t.ID)
	return err
}

// Delete removes a test. Questions, choices, and submissions cascade.
func (r *TestRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM tests WHERE id = $1`, id)
	return err
}

// ListByOwner retrieves tests created by a given teacher, newest first.
func (r *TestRepository) ListByOwner(ctx context.Context, ownerID, limit, offset int) ([]model.Test, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM tests WHERE created_by = $1`, ownerID,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, title, description, subject, created_by, time_limit_minutes, is_active, created_at, updated_at
		 FROM tests
		 WHERE created_by = $1
		 ORDER BY created_at DESC
		 LIMIT $2 OFFSET $3`, ownerID, limit, offset,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	tests, err := scanTests(rows)
	if err != nil {
		return nil, 0, err
	}
	return tests, total, nil
}

// ListActive retrieves all active tests, newest first. Used for the student
// test catalog.
func (r *TestRepository) ListActive(ctx context.Context) ([]model.Test, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, title, description, subject, created_by, time_limit_minutes, is_active, created_at, updated_at
		 FROM tests
		 WHERE is_active = TRUE
		 ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanTests(rows)
}

func scanTests(rows pgx.Rows) ([]model.Test, error) {
	var tests []model.Test
	for rows.Next() {
		var t model.Test
		if err := rows.Scan(&t.ID, &t.Title, &t.Description, &t.Subject, &t.CreatedBy, &t.TimeLimitMinutes, &t.IsActive, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		tests = append(tests, t)
	}
	return tests, rows.Err()
}
