package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/schoolware/testhub-backend/internal/model"
)

// finishedStatuses selects submissions that count toward statistics.
// Timed-out submissions were still graded, so they are included.
const finishedStatuses = `('completed', 'timed_out')`

// StatsRepository computes read-only aggregate projections over persisted
// submissions and answers.
type StatsRepository struct {
	pool *pgxpool.Pool
}

// NewStatsRepository creates a new StatsRepository.
func NewStatsRepository(pool *pgxpool.Pool) *StatsRepository {
	return &StatsRepository{pool: pool}
}

// GetTestStats aggregates submission count, score spread, and per-question
// correctness rates for one test. With zero submissions every aggregate is
// zero; no division by zero can occur.
func (r *StatsRepository) GetTestStats(ctx context.Context, testID uuid.UUID) (*model.TestStats, error) {
	stats := &model.TestStats{TestID: testID}

	err := r.pool.QueryRow(ctx,
		`SELECT t.title,
		        COUNT(s.id),
		        COALESCE(AVG(s.score), 0),
		        COALESCE(MIN(s.score), 0),
		        COALESCE(MAX(s.score), 0)
		 FROM tests t
		 LEFT JOIN test_submissions s
		        ON s.test_id = t.id AND s.status IN `+finishedStatuses+`
		 WHERE t.id = $1
		 GROUP BY t.id`, testID,
	).Scan(&stats.TestTitle, &stats.SubmissionCount, &stats.AvgScore, &stats.MinScore, &stats.MaxScore)
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT q.id, q.question_text,
		        COUNT(a.id) FILTER (WHERE a.is_correct IS TRUE),
		        COUNT(a.id) FILTER (WHERE a.is_correct IS FALSE),
		        COUNT(a.id) FILTER (WHERE a.is_correct IS NOT NULL)
		 FROM questions q
		 LEFT JOIN answers a ON a.question_id = q.id
		 LEFT JOIN test_submissions s
		        ON s.id = a.submission_id AND s.status IN `+finishedStatuses+`
		 WHERE q.test_id = $1
		 GROUP BY q.id
		 ORDER BY q.order_num, q.id`, testID,
	)
	if err != nil {
		return nil, fmt.Errorf("question stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var qs model.QuestionStats
		var graded int
		if err := rows.Scan(&qs.QuestionID, &qs.QuestionText, &qs.CorrectCount, &qs.IncorrectCount, &graded); err != nil {
			return nil, err
		}
		if graded > 0 {
			qs.CorrectPercentage = float64(qs.CorrectCount) / float64(graded) * 100
		}
		stats.QuestionStats = append(stats.QuestionStats, qs)
	}
	return stats, rows.Err()
}

// GetStudentStats aggregates a student's finished submissions into a summary
// with per-test results, newest first.
func (r *StatsRepository) GetStudentStats(ctx context.Context, studentID int) (*model.StudentStats, error) {
	stats := &model.StudentStats{StudentID: studentID}

	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(id), COALESCE(AVG(score), 0)
		 FROM test_submissions
		 WHERE student_id = $1 AND status IN `+finishedStatuses, studentID,
	).Scan(&stats.TestsTaken, &stats.AvgScore)
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT s.test_id, t.title, s.score, s.completed_at
		 FROM test_submissions s
		 JOIN tests t ON t.id = s.test_id
		 WHERE s.student_id = $1 AND s.status IN `+finishedStatuses+`
		 ORDER BY s.completed_at DESC NULLS LAST`, studentID,
	)
	if err != nil {
		return nil, fmt.Errorf("test results: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var tr model.StudentTestResult
		if err := rows.Scan(&tr.TestID, &tr.TestTitle, &tr.Score, &tr.CompletedAt); err != nil {
			return nil, err
		}
		stats.TestResults = append(stats.TestResults, tr)
	}
	return stats, rows.Err()
}
