package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/unisphere/exam-gateway/internal/middleware"
	"github.com/unisphere/exam-gateway/internal/model"
	"github.com/unisphere/exam-gateway/internal/response"
	"github.com/unisphere/exam-gateway/internal/upstream"
	"github.com/unisphere/exam-gateway/internal/validator"
)

// AdminHandler proxies exam authoring, result review, user management and
// image upload to the upstream. Validation happens here so malformed
// payloads never leave the gateway; authorization happens upstream.
type AdminHandler struct {
	client *upstream.Client
	cache  *upstream.CachedExamProvider
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(client *upstream.Client, cache *upstream.CachedExamProvider) *AdminHandler {
	return &AdminHandler{client: client, cache: cache}
}

func adminScope(c *gin.Context) (string, bool) {
	scope, ok := middleware.GetScope(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return "", false
	}
	return scope.Token(), true
}

// ListExams godoc
// GET /api/v1/admin/exams
func (h *AdminHandler) ListExams(c *gin.Context) {
	token, ok := adminScope(c)
	if !ok {
		return
	}

	exams, err := h.client.ListAdminExams(c.Request.Context(), token)
	if err != nil {
		failUpstream(c, err)
		return
	}
	if exams == nil {
		exams = []model.AdminExam{}
	}

	response.Success(c, http.StatusOK, gin.H{"exams": exams})
}

// CreateExam godoc
// POST /api/v1/admin/exams
func (h *AdminHandler) CreateExam(c *gin.Context) {
	token, ok := adminScope(c)
	if !ok {
		return
	}

	var req model.CreateExamRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	exam, err := h.client.CreateExam(c.Request.Context(), token, req)
	if err != nil {
		failUpstream(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"exam": exam})
}

// GetExamDetails godoc
// GET /api/v1/admin/exams/:exam_id
func (h *AdminHandler) GetExamDetails(c *gin.Context) {
	token, ok := adminScope(c)
	if !ok {
		return
	}

	exam, err := h.client.GetExamDetails(c.Request.Context(), token, c.Param("exam_id"))
	if err != nil {
		failUpstream(c, err)
		return
	}

	response.Success(c, http.StatusOK, exam)
}

// DeleteExam godoc
// DELETE /api/v1/admin/exams/:exam_id
// Also drops the cached snapshot so new attempts never see a deleted exam.
func (h *AdminHandler) DeleteExam(c *gin.Context) {
	token, ok := adminScope(c)
	if !ok {
		return
	}

	examID := c.Param("exam_id")
	if err := h.client.DeleteExam(c.Request.Context(), token, examID); err != nil {
		failUpstream(c, err)
		return
	}
	_ = h.cache.Invalidate(c.Request.Context(), examID)

	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

// GetExamResults godoc
// GET /api/v1/admin/exams/:exam_id/results
func (h *AdminHandler) GetExamResults(c *gin.Context) {
	token, ok := adminScope(c)
	if !ok {
		return
	}

	results, err := h.client.AdminExamResults(c.Request.Context(), token, c.Param("exam_id"))
	if err != nil {
		failUpstream(c, err)
		return
	}
	if results == nil {
		results = []model.AdminExamResult{}
	}

	response.Success(c, http.StatusOK, gin.H{"results": results})
}

// GetStudentResult godoc
// GET /api/v1/admin/exams/:exam_id/results/:user_id
func (h *AdminHandler) GetStudentResult(c *gin.Context) {
	token, ok := adminScope(c)
	if !ok {
		return
	}

	result, err := h.client.StudentExamResult(c.Request.Context(), token, c.Param("exam_id"), c.Param("user_id"))
	if err != nil {
		failUpstream(c, err)
		return
	}

	response.Success(c, http.StatusOK, result)
}

// ListUsers godoc
// GET /api/v1/admin/users
func (h *AdminHandler) ListUsers(c *gin.Context) {
	token, ok := adminScope(c)
	if !ok {
		return
	}

	users, err := h.client.ListUsers(c.Request.Context(), token)
	if err != nil {
		failUpstream(c, err)
		return
	}
	if users == nil {
		users = []model.User{}
	}

	response.Success(c, http.StatusOK, gin.H{"users": users})
}

// BulkCreateUsers godoc
// POST /api/v1/admin/users/bulk
func (h *AdminHandler) BulkCreateUsers(c *gin.Context) {
	token, ok := adminScope(c)
	if !ok {
		return
	}

	var req model.BulkCreateUsersRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	result, err := h.client.BulkCreateUsers(c.Request.Context(), token, req)
	if err != nil {
		failUpstream(c, err)
		return
	}

	response.Success(c, http.StatusOK, result)
}

// UploadImage godoc
// POST /api/v1/admin/upload-image
// Streams the multipart file straight through to upstream storage.
func (h *AdminHandler) UploadImage(c *gin.Context) {
	token, ok := adminScope(c)
	if !ok {
		return
	}

	file, header, err := c.Request.FormFile("image")
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrFileRequired)
		return
	}
	defer file.Close()

	uploaded, err := h.client.UploadImage(
		c.Request.Context(),
		token,
		header.Filename,
		header.Header.Get("Content-Type"),
		file,
	)
	if err != nil {
		failUpstream(c, err)
		return
	}

	response.Success(c, http.StatusCreated, uploaded)
}
