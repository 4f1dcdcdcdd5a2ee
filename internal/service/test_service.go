package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/schoolware/testhub-backend/internal/model"
	"github.com/schoolware/testhub-backend/internal/repository"
	"github.com/schoolware/testhub-backend/internal/response"
)

// Common test errors.
var (
	ErrTestNotFound = errors.New("test not found")
	ErrTestInactive = errors.New("test is not active")
	ErrNotTestOwner = errors.New("not the owner of this test")
	ErrNoQuestions  = errors.New("test has no questions")
)

// TestService handles test authoring and the student-facing paper.
type TestService struct {
	testRepo     *repository.TestRepository
	questionRepo *repository.QuestionRepository
	cache        *Cache
	log          zerolog.Logger
}

// NewTestService creates a new TestService.
func NewTestService(
	testRepo *repository.TestRepository,
	questionRepo *repository.QuestionRepository,
	cache *Cache,
	log zerolog.Logger,
) *TestService {
	return &TestService{
		testRepo:     testRepo,
		questionRepo: questionRepo,
		cache:        cache,
		log:          log.With().Str("component", "test_service").Logger(),
	}
}

// Create stores a new test owned by the given teacher.
func (s *TestService) Create(ctx context.Context, ownerID int, req *model.CreateTestRequest) (*model.Test, error) {
	test := &model.Test{
		Title:            req.Title,
		Description:      req.Description,
		Subject:          req.Subject,
		CreatedBy:        ownerID,
		TimeLimitMinutes: req.TimeLimitMinutes,
		IsActive:         true,
	}
	if err := s.testRepo.Create(ctx, test); err != nil {
		return nil, fmt.Errorf("create test: %w", err)
	}
	return test, nil
}

// Get retrieves a test by ID.
func (s *TestService) Get(ctx context.Context, id uuid.UUID) (*model.Test, error) {
	return s.testRepo.GetByID(ctx, id)
}

// Update modifies a test. Only the owner may update it; admins pass ownerID 0
// to bypass the check.
func (s *TestService) Update(ctx context.Context, ownerID int, testID uuid.UUID, req *model.UpdateTestRequest) (*model.Test, error) {
	test, err := s.testRepo.GetByID(ctx, testID)
	if err != nil {
		return nil, err
	}
	if ownerID != 0 && test.CreatedBy != ownerID {
		return nil, ErrNotTestOwner
	}

	if req.Title != "" {
		test.Title = req.Title
	}
	if req.Description != nil {
		test.Description = *req.Description
	}
	if req.Subject != "" {
		test.Subject = req.Subject
	}
	if req.TimeLimitMinutes != 0 {
		test.TimeLimitMinutes = req.TimeLimitMinutes
	}
	if req.IsActive != nil {
		test.IsActive = *req.IsActive
	}

	if err := s.testRepo.Update(ctx, test); err != nil {
		return nil, fmt.Errorf("update test: %w", err)
	}

	// The cached paper may now carry stale metadata.
	if err := s.cache.InvalidateTestPaper(ctx, testID); err != nil {
		s.log.Warn().Err(err).Str("test_id", testID.String()).Msg("Paper invalidation failed")
	}
	return test, nil
}

// Delete removes a test and everything under it. Only the owner may delete;
// admins pass ownerID 0.
func (s *TestService) Delete(ctx context.Context, ownerID int, testID uuid.UUID) error {
	test, err := s.testRepo.GetByID(ctx, testID)
	if err != nil {
		return err
	}
	if ownerID != 0 && test.CreatedBy != ownerID {
		return ErrNotTestOwner
	}

	if err := s.testRepo.Delete(ctx, testID); err != nil {
		return fmt.Errorf("delete test: %w", err)
	}
	if err := s.cache.InvalidateTestPaper(ctx, testID); err != nil {
		s.log.Warn().Err(err).Str("test_id", testID.String()).Msg("Paper invalidation failed")
	}
	return nil
}

// ListMine retrieves a teacher's tests with pagination.
func (s *TestService) ListMine(ctx context.Context, ownerID, page, perPage int) ([]model.Test, *response.Pagination, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}
	if perPage > 100 {
		perPage = 100
	}

	tests, total, err := s.testRepo.ListByOwner(ctx, ownerID, perPage, (page-1)*perPage)
	if err != nil {
		return nil, nil, err
	}
	if tests == nil {
		tests = []model.Test{}
	}

	pagination := &response.Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalItems: total,
		TotalPages: (total + perPage - 1) / perPage,
	}
	return tests, pagination, nil
}

// ListActive retrieves the catalog of tests a student may take.
func (s *TestService) ListActive(ctx context.Context) ([]model.Test, error) {
	tests, err := s.testRepo.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	if tests == nil {
		tests = []model.Test{}
	}
	return tests, nil
}

// ListQuestions retrieves a test's questions (with correctness flags) for its
// owner. Admins pass ownerID 0.
func (s *TestService) ListQuestions(ctx context.Context, ownerID int, testID uuid.UUID) ([]model.Question, error) {
	test, err := s.testRepo.GetByID(ctx, testID)
	if err != nil {
		return nil, err
	}
	if ownerID != 0 && test.CreatedBy != ownerID {
		return nil, ErrNotTestOwner
	}
	return s.questionRepo.ListByTest(ctx, testID)
}

// StartTest returns the student-facing paper for an active test and records
// the student's start time for the submission deadline check. The paper never
// contains correctness flags.
func (s *TestService) StartTest(ctx context.Context, testID uuid.UUID, studentID int) (*model.TestPaper, error) {
	test, err := s.testRepo.GetByID(ctx, testID)
	if err != nil {
		return nil, err
	}
	if !test.IsActive {
		return nil, ErrTestInactive
	}

	paper, hit, err := s.cache.GetTestPaper(ctx, testID)
	if err != nil {
		s.log.Warn().Err(err).Str("test_id", testID.String()).Msg("Paper cache read failed")
	}
	if !hit {
		paper, err = s.buildPaper(ctx, test)
		if err != nil {
			return nil, err
		}
		if err := s.cache.SetTestPaper(ctx, paper); err != nil {
			s.log.Warn().Err(err).Str("test_id", testID.String()).Msg("Paper cache write failed")
		}
	}

	// First open wins; re-opening the paper keeps the original deadline.
	if err := s.cache.MarkStarted(ctx, testID, studentID, time.Now()); err != nil {
		s.log.Warn().Err(err).Str("test_id", testID.String()).Int("student_id", studentID).
			Msg("Failed to record start time")
	}

	return paper, nil
}

func (s *TestService) buildPaper(ctx context.Context, test *model.Test) (*model.TestPaper, error) {
	questions, err := s.questionRepo.ListByTest(ctx, test.ID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	if len(questions) == 0 {
		return nil, ErrNoQuestions
	}

	paper := &model.TestPaper{
		TestID:           test.ID,
		Title:            test.Title,
		Description:      test.Description,
		Subject:          test.Subject,
		TimeLimitMinutes: test.TimeLimitMinutes,
	}
	for _, q := range questions {
		pq := model.PaperQuestion{
			ID:           q.ID,
			QuestionText: q.QuestionText,
			QuestionType: q.QuestionType,
			Points:       q.Points,
			OrderNum:     q.OrderNum,
		}
		for _, c := range q.Choices {
			pq.Choices = append(pq.Choices, model.PaperChoice{
				ID:         c.ID,
				ChoiceText: c.ChoiceText,
			})
		}
		paper.Questions = append(paper.Questions, pq)
	}
	return paper, nil
}
