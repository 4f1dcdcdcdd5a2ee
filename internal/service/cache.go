package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/schoolware/testhub-backend/internal/config"
	"github.com/schoolware/testhub-backend/internal/model"
)

// Cache is the Redis-backed cache shared by the test, question, submission,
// and stats services. It stores student-facing test papers, per-student test
// start timestamps, and aggregate statistics projections.
type Cache struct {
	rdb      *redis.Client
	statsTTL time.Duration
}

// NewCache creates a new Cache.
func NewCache(rdb *redis.Client, statsTTL time.Duration) *Cache {
	return &Cache{rdb: rdb, statsTTL: statsTTL}
}

// ────────────────────────────────────────────────────────────────────────────
// Test papers
// ────────────────────────────────────────────────────────────────────────────

// GetTestPaper retrieves a cached student-facing paper. The second return
// value reports whether the paper was present.
func (c *Cache) GetTestPaper(ctx context.Context, testID uuid.UUID) (*model.TestPaper, bool, error) {
	data, err := c.rdb.Get(ctx, config.CacheKey.TestPaperKey(testID.String())).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get paper: %w", err)
	}

	var paper model.TestPaper
	if err := json.Unmarshal(data, &paper); err != nil {
		return nil, false, fmt.Errorf("unmarshal paper: %w", err)
	}
	return &paper, true, nil
}

// SetTestPaper caches a student-facing paper. Papers have no TTL; they are
// invalidated explicitly when the test or its questions change.
func (c *Cache) SetTestPaper(ctx context.Context, paper *model.TestPaper) error {
	data, err := json.Marshal(paper)
	if err != nil {
		return fmt.Errorf("marshal paper: %w", err)
	}
	return c.rdb.Set(ctx, config.CacheKey.TestPaperKey(paper.TestID.String()), data, 0).Err()
}

// InvalidateTestPaper drops the cached paper for a test.
func (c *Cache) InvalidateTestPaper(ctx context.Context, testID uuid.UUID) error {
	return c.rdb.Del(ctx, config.CacheKey.TestPaperKey(testID.String())).Err()
}

// ────────────────────────────────────────────────────────────────────────────
// Start timestamps
// ────────────────────────────────────────────────────────────────────────────

// MarkStarted records when a student first opened a test paper. SetNX keeps
// the original timestamp if the student re-opens the paper.
func (c *Cache) MarkStarted(ctx context.Context, testID uuid.UUID, studentID int, at time.Time) error {
	key := config.CacheKey.StudentTestStartKey(testID.String(), studentID)
	return c.rdb.SetNX(ctx, key, at.Unix(), 0).Err()
}

// StartTime returns when the student first opened the test paper. The second
// return value reports whether a start was ever recorded.
func (c *Cache) StartTime(ctx context.Context, testID uuid.UUID, studentID int) (time.Time, bool, error) {
	key := config.CacheKey.StudentTestStartKey(testID.String(), studentID)
	val, err := c.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("get start time: %w", err)
	}

	unix, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("invalid start time format in cache: %w", err)
	}
	return time.Unix(unix, 0), true, nil
}

// ────────────────────────────────────────────────────────────────────────────
// Statistics
// ────────────────────────────────────────────────────────────────────────────

// GetTestStats retrieves cached statistics for a test.
func (c *Cache) GetTestStats(ctx context.Context, testID uuid.UUID) (*model.TestStats, bool, error) {
	data, err := c.rdb.Get(ctx, config.CacheKey.TestStatsKey(testID.String())).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get stats: %w", err)
	}

	var stats model.TestStats
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil, false, fmt.Errorf("unmarshal stats: %w", err)
	}
	return &stats, true, nil
}

// SetTestStats caches statistics for a test with the configured TTL.
func (c *Cache) SetTestStats(ctx context.Context, stats *model.TestStats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("marshal stats: %w", err)
	}
	return c.rdb.Set(ctx, config.CacheKey.TestStatsKey(stats.TestID.String()), data, c.statsTTL).Err()
}

// InvalidateTestStats drops cached statistics after a new submission lands.
func (c *Cache) InvalidateTestStats(ctx context.Context, testID uuid.UUID) error {
	return c.rdb.Del(ctx, config.CacheKey.TestStatsKey(testID.String())).Err()
}
