package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/schoolware/testhub-backend/internal/middleware"
	"github.com/schoolware/testhub-backend/internal/model"
	"github.com/schoolware/testhub-backend/internal/response"
	"github.com/schoolware/testhub-backend/internal/service"
	"github.com/schoolware/testhub-backend/internal/validator"
)

// TestHandler handles test authoring and the student-facing catalog.
type TestHandler struct {
	testService *service.TestService
}

// NewTestHandler creates a new TestHandler.
func NewTestHandler(testService *service.TestService) *TestHandler {
	return &TestHandler{testService: testService}
}

// ownerID resolves the effective owner for ownership checks. Admins operate
// on any test, which the services express as owner 0.
func ownerID(c *gin.Context) int {
	claims := middleware.GetClaims(c)
	if claims == nil {
		return -1
	}
	if claims.Role == model.RoleAdmin {
		return 0
	}
	return claims.UserID
}

// Create godoc
// POST /api/v1/teacher/tests
func (h *TestHandler) Create(c *gin.Context) {
	claims := middleware.GetClaims(c)

	var req model.CreateTestRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	test, err := h.testService.Create(c.Request.Context(), claims.UserID, &req)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"test": test})
}

// List godoc
// GET /api/v1/teacher/tests?page=1&per_page=10
func (h *TestHandler) List(c *gin.Context) {
	claims := middleware.GetClaims(c)

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "10"))

	tests, pagination, err := h.testService.ListMine(c.Request.Context(), claims.UserID, page, perPage)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"tests": tests}, pagination)
}

// Get godoc
// GET /api/v1/teacher/tests/:id
// Returns the test with its questions, correctness flags included.
func (h *TestHandler) Get(c *gin.Context) {
	testID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	test, err := h.testService.Get(c.Request.Context(), testID)
	if err != nil {
		failTestError(c, err)
		return
	}

	questions, err := h.testService.ListQuestions(c.Request.Context(), ownerID(c), testID)
	if err != nil {
		failTestError(c, err)
		return
	}
	if questions == nil {
		questions = []model.Question{}
	}

	response.Success(c, http.StatusOK, gin.H{"test": test, "questions": questions})
}

// Update godoc
// PUT /api/v1/teacher/tests/:id
func (h *TestHandler) Update(c *gin.Context) {
	testID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.UpdateTestRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	test, err := h.testService.Update(c.Request.Context(), ownerID(c), testID, &req)
	if err != nil {
		failTestError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"test": test})
}

// Delete godoc
// DELETE /api/v1/teacher/tests/:id
func (h *TestHandler) Delete(c *gin.Context) {
	testID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.testService.Delete(c.Request.Context(), ownerID(c), testID); err != nil {
		failTestError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "test deleted successfully"})
}

// ListActive godoc
// GET /api/v1/student/tests
// Returns the catalog of tests a student may take.
func (h *TestHandler) ListActive(c *gin.Context) {
	tests, err := h.testService.ListActive(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"tests": tests})
}

// Start godoc
// POST /api/v1/student/tests/:id/start
// Returns the test paper (no correctness flags) and records the student's
// start time for the submission deadline.
func (h *TestHandler) Start(c *gin.Context) {
	claims := middleware.GetClaims(c)

	testID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	paper, err := h.testService.StartTest(c.Request.Context(), testID, claims.UserID)
	if err != nil {
		failTestError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"paper": paper})
}

// failTestError maps test service errors onto API error codes.
func failTestError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, pgx.ErrNoRows), errors.Is(err, service.ErrTestNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	case errors.Is(err, service.ErrTestInactive):
		response.Fail(c, http.StatusBadRequest, response.ErrTestInactive)
	case errors.Is(err, service.ErrNotTestOwner):
		response.Fail(c, http.StatusForbidden, response.ErrNotTestOwner)
	case errors.Is(err, service.ErrNoQuestions):
		response.Fail(c, http.StatusBadRequest, response.ErrNoQuestions)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
