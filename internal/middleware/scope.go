package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/unisphere/exam-gateway/internal/auth"
	"github.com/unisphere/exam-gateway/internal/response"
)

const (
	// ContextKeyScope is the Gin context key for the request's auth scope.
	ContextKeyScope = "auth_scope"
)

// RequireStudentScope extracts the student bearer token into a StudentScope.
// The token is opaque to the gateway — the upstream is the authority on its
// validity, so only presence is checked here.
func RequireStudentScope() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}
		c.Set(ContextKeyScope, auth.NewStudentScope(token))
		c.Next()
	}
}

// RequireAdminScope extracts the admin bearer token into an AdminScope.
func RequireAdminScope() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}
		c.Set(ContextKeyScope, auth.NewAdminScope(token))
		c.Next()
	}
}

// GetScope retrieves the auth scope installed by the middleware above.
func GetScope(c *gin.Context) (auth.Scope, bool) {
	val, exists := c.Get(ContextKeyScope)
	if !exists {
		return auth.Scope{}, false
	}
	scope, ok := val.(auth.Scope)
	return scope, ok && scope.Valid()
}

// bearerToken pulls the token out of the Authorization header, falling back
// to the ?token query param for WebSocket upgrades which cannot set headers.
func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return parts[1]
		}
	}
	return c.Query("token")
}
