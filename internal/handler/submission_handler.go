package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/schoolware/testhub-backend/internal/middleware"
	"github.com/schoolware/testhub-backend/internal/model"
	"github.com/schoolware/testhub-backend/internal/response"
	"github.com/schoolware/testhub-backend/internal/service"
	"github.com/schoolware/testhub-backend/internal/validator"
)

// SubmissionHandler handles the student submission lifecycle.
type SubmissionHandler struct {
	submissionService *service.SubmissionService
}

// NewSubmissionHandler creates a new SubmissionHandler.
func NewSubmissionHandler(submissionService *service.SubmissionService) *SubmissionHandler {
	return &SubmissionHandler{submissionService: submissionService}
}

// Submit godoc
// POST /api/v1/student/submissions
// Validates, grades, and stores the student's answers as one final submission.
func (h *SubmissionHandler) Submit(c *gin.Context) {
	claims := middleware.GetClaims(c)

	var req model.SubmitTestRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	submission, err := h.submissionService.Submit(c.Request.Context(), claims.UserID, &req)
	if err != nil {
		var ve *service.ValidationError
		switch {
		case errors.As(err, &ve):
			response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, ve.Fields)
		case errors.Is(err, service.ErrDuplicateSubmission):
			response.Fail(c, http.StatusConflict, response.ErrDuplicateSubmission)
		case errors.Is(err, service.ErrTestNotFound):
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		case errors.Is(err, service.ErrTestInactive):
			response.Fail(c, http.StatusBadRequest, response.ErrTestInactive)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"submission": submission})
}

// List godoc
// GET /api/v1/student/submissions
// Returns the student's own submissions, newest first.
func (h *SubmissionHandler) List(c *gin.Context) {
	claims := middleware.GetClaims(c)

	submissions, err := h.submissionService.ListMine(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"submissions": submissions})
}

// Get godoc
// GET /api/v1/student/submissions/:id
// Returns one of the student's own submissions with its graded answers.
func (h *SubmissionHandler) Get(c *gin.Context) {
	claims := middleware.GetClaims(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	submission, err := h.submissionService.Get(c.Request.Context(), claims.UserID, id)
	if err != nil {
		if errors.Is(err, service.ErrSubmissionNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"submission": submission})
}
