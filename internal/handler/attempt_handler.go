package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/unisphere/exam-gateway/internal/auth"
	"github.com/unisphere/exam-gateway/internal/middleware"
	"github.com/unisphere/exam-gateway/internal/model"
	"github.com/unisphere/exam-gateway/internal/response"
	"github.com/unisphere/exam-gateway/internal/session"
	"github.com/unisphere/exam-gateway/internal/upstream"
	"github.com/unisphere/exam-gateway/internal/validator"
)

// AttemptHandler drives exam attempts: start, answer, navigate, submit,
// abandon. All mutation goes through the session controller, which owns the
// clock and the exactly-once submission guarantee.
type AttemptHandler struct {
	registry *session.Registry
	issuer   *auth.AttemptTokenIssuer
}

// NewAttemptHandler creates a new AttemptHandler.
func NewAttemptHandler(registry *session.Registry, issuer *auth.AttemptTokenIssuer) *AttemptHandler {
	return &AttemptHandler{registry: registry, issuer: issuer}
}

// StartAttempt godoc
// POST /api/v1/student/exams/:exam_id/attempt
// Opens an attempt (idempotent per student+exam) and returns the attempt
// token, the sanitized exam content and the initial snapshot.
func (h *AttemptHandler) StartAttempt(c *gin.Context) {
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

	ctrl, err := h.registry.Start(c.Request.Context(), scope.Token(), examID)
	if err != nil {
		switch {
		case errors.Is(err, upstream.ErrNotFound):
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		case errors.Is(err, upstream.ErrUnauthorized):
			response.Fail(c, http.StatusUnauthorized, response.ErrTokenInvalid)
		case errors.Is(err, session.ErrInvalidExam), errors.Is(err, upstream.ErrMalformedPayload):
			response.Fail(c, http.StatusBadGateway, response.ErrExamUnavailable)
		default:
			failUpstream(c, err)
		}
		return
	}

	token, err := h.issuer.Issue(ctrl.ID(), examID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{
		"attempt_token": token,
		"exam":          ctrl.Exam(),
		"snapshot":      ctrl.Snapshot(),
	})
}

// GetSnapshot godoc
// GET /api/v1/student/attempts/:attempt_id
func (h *AttemptHandler) GetSnapshot(c *gin.Context) {
	ctrl := middleware.GetAttempt(c)
	if ctrl == nil {
		response.Fail(c, http.StatusNotFound, response.ErrAttemptNotFound)
		return
	}
	response.Success(c, http.StatusOK, ctrl.Snapshot())
}

// SelectAnswer godoc
// PUT /api/v1/student/attempts/:attempt_id/answer
// Records a single-select answer, overwriting any previous choice.
func (h *AttemptHandler) SelectAnswer(c *gin.Context) {
	ctrl := middleware.GetAttempt(c)
	if ctrl == nil {
		response.Fail(c, http.StatusNotFound, response.ErrAttemptNotFound)
		return
	}

	var req model.SelectAnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := ctrl.SelectOption(req.QuestionID, req.OptionID); err != nil {
		failSession(c, err)
		return
	}

	response.Success(c, http.StatusOK, ctrl.Snapshot())
}

// MoveCursor godoc
// PUT /api/v1/student/attempts/:attempt_id/cursor
// Navigates with next/previous (bounded) or jump (index, range-checked).
func (h *AttemptHandler) MoveCursor(c *gin.Context) {
	ctrl := middleware.GetAttempt(c)
	if ctrl == nil {
		response.Fail(c, http.StatusNotFound, response.ErrAttemptNotFound)
		return
	}

	var req model.MoveCursorRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	switch req.Action {
	case "next":
		ctrl.Next()
	case "previous":
		ctrl.Previous()
	case "jump":
		if req.Index == nil {
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
			return
		}
		ctrl.MoveTo(*req.Index)
	}

	response.Success(c, http.StatusOK, ctrl.Snapshot())
}

// SubmitAttempt godoc
// POST /api/v1/student/attempts/:attempt_id/submit
// Manual submission. Shares the exactly-once guard with the forced path;
// the failure branch leaves the attempt READY so the student can retry.
func (h *AttemptHandler) SubmitAttempt(c *gin.Context) {
	ctrl := middleware.GetAttempt(c)
	if ctrl == nil {
		response.Fail(c, http.StatusNotFound, response.ErrAttemptNotFound)
		return
	}

	if err := ctrl.Submit(c.Request.Context()); err != nil {
		switch {
		case errors.Is(err, session.ErrSubmitInFlight):
			response.Fail(c, http.StatusConflict, response.ErrSubmitInFlight)
		case errors.Is(err, session.ErrAlreadyDone):
			response.Fail(c, http.StatusConflict, response.ErrAttemptFinished)
		case errors.Is(err, upstream.ErrRejected):
			response.Fail(c, http.StatusBadRequest, response.ErrSubmissionRejected)
		case upstream.IsTransient(err):
			response.Fail(c, http.StatusBadGateway, response.ErrSubmissionFailed)
		default:
			failUpstream(c, err)
		}
		return
	}

	response.Success(c, http.StatusOK, ctrl.Snapshot())
}

// AbandonAttempt godoc
// DELETE /api/v1/student/attempts/:attempt_id
// Tears the attempt down without submitting. The answer set is discarded.
func (h *AttemptHandler) AbandonAttempt(c *gin.Context) {
	ctrl := middleware.GetAttempt(c)
	if ctrl == nil {
		response.Fail(c, http.StatusNotFound, response.ErrAttemptNotFound)
		return
	}

	h.registry.Abandon(ctrl.ID())
	response.Success(c, http.StatusOK, gin.H{"abandoned": true})
}

// failSession maps controller errors onto the response taxonomy.
func failSession(c *gin.Context, err error) {
	switch {
	case errors.Is(err, session.ErrUnknownQuestion):
		response.Fail(c, http.StatusBadRequest, response.ErrUnknownQuestion)
	case errors.Is(err, session.ErrUnknownOption):
		response.Fail(c, http.StatusBadRequest, response.ErrUnknownOption)
	case errors.Is(err, session.ErrNotReady), errors.Is(err, session.ErrAlreadyDone):
		response.Fail(c, http.StatusConflict, response.ErrAttemptFinished)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
