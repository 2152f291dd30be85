package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/unisphere/exam-gateway/internal/middleware"
	"github.com/unisphere/exam-gateway/internal/model"
	"github.com/unisphere/exam-gateway/internal/response"
	"github.com/unisphere/exam-gateway/internal/upstream"
)

// PortalHandler serves the student's exam listing and result views.
type PortalHandler struct {
	client *upstream.Client
}

// NewPortalHandler creates a new PortalHandler.
func NewPortalHandler(client *upstream.Client) *PortalHandler {
	return &PortalHandler{client: client}
}

// ListExams godoc
// GET /api/v1/student/exams
// Returns the exams currently available to the student.
func (h *PortalHandler) ListExams(c *gin.Context) {
	scope, ok := middleware.GetScope(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	exams, err := h.client.ListExams(c.Request.Context(), scope.Token())
	if err != nil {
		failUpstream(c, err)
		return
	}
	if exams == nil {
		exams = []model.ExamSummary{}
	}

	response.Success(c, http.StatusOK, gin.H{"exams": exams})
}

// GetExamResults godoc
// GET /api/v1/student/exams/:exam_id/results
func (h *PortalHandler) GetExamResults(c *gin.Context) {
	scope, ok := middleware.GetScope(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	examID := c.Param("exam_id")
	if examID == "" {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	result, err := h.client.ExamResults(c.Request.Context(), scope.Token(), examID)
	if err != nil {
		failUpstream(c, err)
		return
	}

	response.Success(c, http.StatusOK, result)
}

// GetAllResults godoc
// GET /api/v1/student/results
// Returns the student's full result history.
func (h *PortalHandler) GetAllResults(c *gin.Context) {
	scope, ok := middleware.GetScope(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	results, err := h.client.AllResults(c.Request.Context(), scope.Token())
	if err != nil {
		failUpstream(c, err)
		return
	}
	if results == nil {
		results = []model.ResultSummary{}
	}

	response.Success(c, http.StatusOK, gin.H{"results": results})
}
