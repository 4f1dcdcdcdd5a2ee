package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// UserSessionKey returns the cache key for a user's login session.
func (r *CacheKeyStruct) UserSessionKey(userID int) string {
	return fmt.Sprintf("login:%d", userID)
}

// TestPaperKey returns the cache key for a test's student-facing paper
// (questions and choices without correctness flags).
func (r *CacheKeyStruct) TestPaperKey(testID string) string {
	return fmt.Sprintf("test:%s:paper", testID)
}

// StudentTestStartKey returns the cache key recording when a student first
// opened a test paper. Read back at submission for the time-limit check.
func (r *CacheKeyStruct) StudentTestStartKey(testID string, studentID int) string {
	return fmt.Sprintf("student:%d:test:%s:started_at", studentID, testID)
}

// TestStatsKey returns the cache key for a test's aggregate statistics.
func (r *CacheKeyStruct) TestStatsKey(testID string) string {
	return fmt.Sprintf("test:%s:stats", testID)
}

var CacheKey = NewCacheKeyStruct()
