package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/schoolware/testhub-backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStatsStore struct {
	testStats    map[uuid.UUID]*model.TestStats
	studentStats map[int]*model.StudentStats
	calls        int
}

func (f *fakeStatsStore) GetTestStats(_ context.Context, testID uuid.UUID) (*model.TestStats, error) {
	f.calls++
	if s, ok := f.testStats[testID]; ok {
		return s, nil
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeStatsStore) GetStudentStats(_ context.Context, studentID int) (*model.StudentStats, error) {
	if s, ok := f.studentStats[studentID]; ok {
		return s, nil
	}
	return &model.StudentStats{StudentID: studentID}, nil
}

type fakeStatsCache struct {
	stats   map[uuid.UUID]*model.TestStats
	readErr error
}

func (f *fakeStatsCache) GetTestStats(_ context.Context, testID uuid.UUID) (*model.TestStats, bool, error) {
	if f.readErr != nil {
		return nil, false, f.readErr
	}
	if s, ok := f.stats[testID]; ok {
		return s, true, nil
	}
	return nil, false, nil
}

func (f *fakeStatsCache) SetTestStats(_ context.Context, stats *model.TestStats) error {
	f.stats[stats.TestID] = stats
	return nil
}

func TestGetTestStats_MissLoadsAndCaches(t *testing.T) {
	testID := uuid.New()
	store := &fakeStatsStore{testStats: map[uuid.UUID]*model.TestStats{
		testID: {TestID: testID, SubmissionCount: 3, AvgScore: 72.5},
	}}
	cache := &fakeStatsCache{stats: map[uuid.UUID]*model.TestStats{}}
	svc := NewStatsService(store, cache, zerolog.Nop())

	got, err := svc.GetTestStats(context.Background(), testID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.SubmissionCount)
	assert.Contains(t, cache.stats, testID)

	// Second read is served from the cache.
	_, err = svc.GetTestStats(context.Background(), testID)
	require.NoError(t, err)
	assert.Equal(t, 1, store.calls)
}

func TestGetTestStats_CacheFailureFallsThrough(t *testing.T) {
	testID := uuid.New()
	store := &fakeStatsStore{testStats: map[uuid.UUID]*model.TestStats{
		testID: {TestID: testID, SubmissionCount: 1},
	}}
	cache := &fakeStatsCache{stats: map[uuid.UUID]*model.TestStats{}, readErr: errors.New("redis down")}
	svc := NewStatsService(store, cache, zerolog.Nop())

	got, err := svc.GetTestStats(context.Background(), testID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.SubmissionCount)
}

func TestGetTestStats_UnknownTest(t *testing.T) {
	store := &fakeStatsStore{testStats: map[uuid.UUID]*model.TestStats{}}
	cache := &fakeStatsCache{stats: map[uuid.UUID]*model.TestStats{}}
	svc := NewStatsService(store, cache, zerolog.Nop())

	_, err := svc.GetTestStats(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrTestNotFound)
}

func TestGetStudentStats_EmptyHistory(t *testing.T) {
	store := &fakeStatsStore{studentStats: map[int]*model.StudentStats{}}
	cache := &fakeStatsCache{stats: map[uuid.UUID]*model.TestStats{}}
	svc := NewStatsService(store, cache, zerolog.Nop())

	got, err := svc.GetStudentStats(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, 42, got.StudentID)
	assert.NotNil(t, got.TestResults)
	assert.Empty(t, got.TestResults)
}
