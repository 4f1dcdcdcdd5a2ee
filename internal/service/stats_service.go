package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/schoolware/testhub-backend/internal/model"
)

// StatsStore computes aggregate projections over persisted submissions.
type StatsStore interface {
	GetTestStats(ctx context.Context, testID uuid.UUID) (*model.TestStats, error)
	GetStudentStats(ctx context.Context, studentID int) (*model.StudentStats, error)
}

// StatsCache caches the per-test projection, which is the expensive one.
type StatsCache interface {
	GetTestStats(ctx context.Context, testID uuid.UUID) (*model.TestStats, bool, error)
	SetTestStats(ctx context.Context, stats *model.TestStats) error
}

// StatsService serves read-only statistics. Results may lag a just-completed
// submission by the cache TTL; submissions invalidate the cache to keep that
// window small.
type StatsService struct {
	store StatsStore
	cache StatsCache
	log   zerolog.Logger
}

// NewStatsService creates a new StatsService.
func NewStatsService(store StatsStore, cache StatsCache, log zerolog.Logger) *StatsService {
	return &StatsService{
		store: store,
		cache: cache,
		log:   log.With().Str("component", "stats_service").Logger(),
	}
}

// GetTestStats returns aggregate statistics for one test. A test with no
// submissions yields a zeroed summary.
func (s *StatsService) GetTestStats(ctx context.Context, testID uuid.UUID) (*model.TestStats, error) {
	if cached, hit, err := s.cache.GetTestStats(ctx, testID); err != nil {
		s.log.Warn().Err(err).Str("test_id", testID.String()).Msg("Stats cache read failed")
	} else if hit {
		return cached, nil
	}

	stats, err := s.store.GetTestStats(ctx, testID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTestNotFound
		}
		return nil, fmt.Errorf("test stats: %w", err)
	}

	if err := s.cache.SetTestStats(ctx, stats); err != nil {
		s.log.Warn().Err(err).Str("test_id", testID.String()).Msg("Stats cache write failed")
	}
	return stats, nil
}

// GetStudentStats returns a student's submission history summary.
func (s *StatsService) GetStudentStats(ctx context.Context, studentID int) (*model.StudentStats, error) {
	stats, err := s.store.GetStudentStats(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("student stats: %w", err)
	}
	if stats.TestResults == nil {
		stats.TestResults = []model.StudentTestResult{}
	}
	return stats, nil
}
