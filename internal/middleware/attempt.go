package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/unisphere/exam-gateway/internal/auth"
	"github.com/unisphere/exam-gateway/internal/response"
	"github.com/unisphere/exam-gateway/internal/session"
)

const (
	// ContextKeyAttempt is the Gin context key for the resolved controller.
	ContextKeyAttempt = "attempt"
)

// RequireAttempt validates the attempt token from the X-Attempt-Token header
// (or ?attempt_token for WebSocket upgrades), checks it names the attempt in
// the URL, and loads the live controller into the context.
func RequireAttempt(issuer *auth.AttemptTokenIssuer, registry *session.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := c.GetHeader("X-Attempt-Token")
		if tokenStr == "" {
			tokenStr = c.Query("attempt_token")
		}
		if tokenStr == "" {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}

		attemptID, err := issuer.Validate(tokenStr)
		if err != nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenInvalid)
			return
		}

		if attemptID != c.Param("attempt_id") {
			response.AbortFail(c, http.StatusForbidden, response.ErrForbidden)
			return
		}

		ctrl, ok := registry.Get(attemptID)
		if !ok {
			response.AbortFail(c, http.StatusNotFound, response.ErrAttemptNotFound)
			return
		}

		c.Set(ContextKeyAttempt, ctrl)
		c.Next()
	}
}

// GetAttempt retrieves the controller installed by RequireAttempt.
func GetAttempt(c *gin.Context) *session.Controller {
	val, exists := c.Get(ContextKeyAttempt)
	if !exists {
		return nil
	}
	ctrl, ok := val.(*session.Controller)
	if !ok {
		return nil
	}
	return ctrl
}
