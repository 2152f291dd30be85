package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/unisphere/exam-gateway/internal/response"
	"github.com/unisphere/exam-gateway/internal/upstream"
)

// failUpstream maps an upstream error onto the response taxonomy. The
// upstream's own 4xx semantics are preserved where they matter to clients.
func failUpstream(c *gin.Context, err error) {
	switch {
	case errors.Is(err, upstream.ErrUnauthorized):
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenInvalid)
	case errors.Is(err, upstream.ErrNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	case errors.Is(err, upstream.ErrUnavailable):
		response.Fail(c, http.StatusBadGateway, response.ErrUpstreamUnavailable)
	case errors.Is(err, upstream.ErrMalformedPayload):
		response.Fail(c, http.StatusBadGateway, response.ErrUpstreamUnavailable)
	case errors.Is(err, upstream.ErrRejected):
		response.Fail(c, http.StatusBadRequest, response.ErrSubmissionRejected)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
