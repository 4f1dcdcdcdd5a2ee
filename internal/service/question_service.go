package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/schoolware/testhub-backend/internal/model"
	"github.com/schoolware/testhub-backend/internal/repository"
)

// QuestionService handles question authoring under a test.
type QuestionService struct {
	testRepo     *repository.TestRepository
	questionRepo *repository.QuestionRepository
	cache        *Cache
	log          zerolog.Logger
}

// NewQuestionService creates a new QuestionService.
func NewQuestionService(
	testRepo *repository.TestRepository,
	questionRepo *repository.QuestionRepository,
	cache *Cache,
	log zerolog.Logger,
) *QuestionService {
	return &QuestionService{
		testRepo:     testRepo,
		questionRepo: questionRepo,
		cache:        cache,
		log:          log.With().Str("component", "question_service").Logger(),
	}
}

// Create adds a question (and its choices) to a test owned by the caller.
// Admins pass ownerID 0.
//
// Correct-flag counts are not enforced at authoring time; grading behaves
// according to whatever flags exist.
func (s *QuestionService) Create(ctx context.Context, ownerID int, testID uuid.UUID, req *model.CreateQuestionRequest) (*model.Question, error) {
	if err := s.checkOwnership(ctx, ownerID, testID); err != nil {
		return nil, err
	}

	q := &model.Question{
		TestID:       testID,
		QuestionText: req.QuestionText,
		QuestionType: req.QuestionType,
		Points:       req.Points,
		OrderNum:     req.OrderNum,
		Choices:      buildChoices(req.Choices),
	}
	if err := s.questionRepo.Create(ctx, q); err != nil {
		return nil, fmt.Errorf("create question: %w", err)
	}

	s.invalidatePaper(ctx, testID)
	return q, nil
}

// Update replaces a question's content and choices.
func (s *QuestionService) Update(ctx context.Context, ownerID int, testID, questionID uuid.UUID, req *model.UpdateQuestionRequest) (*model.Question, error) {
	if err := s.checkOwnership(ctx, ownerID, testID); err != nil {
		return nil, err
	}

	q := &model.Question{
		ID:           questionID,
		TestID:       testID,
		QuestionText: req.QuestionText,
		QuestionType: req.QuestionType,
		Points:       req.Points,
		OrderNum:     req.OrderNum,
		Choices:      buildChoices(req.Choices),
	}
	if err := s.questionRepo.Update(ctx, q); err != nil {
		return nil, err
	}

	s.invalidatePaper(ctx, testID)
	return q, nil
}

// Delete removes a question from a test owned by the caller.
func (s *QuestionService) Delete(ctx context.Context, ownerID int, testID, questionID uuid.UUID) error {
	if err := s.checkOwnership(ctx, ownerID, testID); err != nil {
		return err
	}

	if err := s.questionRepo.Delete(ctx, questionID); err != nil {
		return err
	}

	s.invalidatePaper(ctx, testID)
	return nil
}

func (s *QuestionService) checkOwnership(ctx context.Context, ownerID int, testID uuid.UUID) error {
	test, err := s.testRepo.GetByID(ctx, testID)
	if err != nil {
		return err
	}
	if ownerID != 0 && test.CreatedBy != ownerID {
		return ErrNotTestOwner
	}
	return nil
}

func (s *QuestionService) invalidatePaper(ctx context.Context, testID uuid.UUID) {
	if err := s.cache.InvalidateTestPaper(ctx, testID); err != nil {
		s.log.Warn().Err(err).Str("test_id", testID.String()).Msg("Paper invalidation failed")
	}
}

func buildChoices(reqs []model.CreateChoiceRequest) []model.Choice {
	choices := make([]model.Choice, 0, len(reqs))
	for _, c := range reqs {
		choices = append(choices, model.Choice{
			ChoiceText: c.ChoiceText,
			IsCorrect:  c.IsCorrect,
		})
	}
	return choices
}
