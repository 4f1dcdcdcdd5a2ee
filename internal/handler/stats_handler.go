package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/schoolware/testhub-backend/internal/middleware"
	"github.com/schoolware/testhub-backend/internal/response"
	"github.com/schoolware/testhub-backend/internal/service"
)

// StatsHandler serves read-only statistics projections.
type StatsHandler struct {
	statsService *service.StatsService
	testService  *service.TestService
}

// NewStatsHandler creates a new StatsHandler.
func NewStatsHandler(statsService *service.StatsService, testService *service.TestService) *StatsHandler {
	return &StatsHandler{statsService: statsService, testService: testService}
}

// TestStats godoc
// GET /api/v1/teacher/tests/:id/stats
// Aggregate statistics for one test, restricted to its owner.
func (h *StatsHandler) TestStats(c *gin.Context) {
	testID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	// Ownership gate before exposing any numbers.
	if owner := ownerID(c); owner != 0 {
		test, err := h.testService.Get(c.Request.Context(), testID)
		if err != nil {
			failTestError(c, err)
			return
		}
		if test.CreatedBy != owner {
			response.Fail(c, http.StatusForbidden, response.ErrNotTestOwner)
			return
		}
	}

	stats, err := h.statsService.GetTestStats(c.Request.Context(), testID)
	if err != nil {
		if errors.Is(err, service.ErrTestNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"stats": stats})
}

// MyStats godoc
// GET /api/v1/student/stats
// The authenticated student's submission history summary.
func (h *StatsHandler) MyStats(c *gin.Context) {
	claims := middleware.GetClaims(c)

	stats, err := h.statsService.GetStudentStats(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"stats": stats})
}
