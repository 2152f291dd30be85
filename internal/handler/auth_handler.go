package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/unisphere/exam-gateway/internal/middleware"
	"github.com/unisphere/exam-gateway/internal/model"
	"github.com/unisphere/exam-gateway/internal/response"
	"github.com/unisphere/exam-gateway/internal/upstream"
	"github.com/unisphere/exam-gateway/internal/validator"
)

// AuthHandler proxies authentication to the upstream portal API. The gateway
// never stores credentials or verifies passwords — it forwards them and
// relays the opaque token the upstream issues.
type AuthHandler struct {
	client *upstream.Client
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(client *upstream.Client) *AuthHandler {
	return &AuthHandler{client: client}
}

// StudentLogin godoc
// POST /api/v1/auth/login
func (h *AuthHandler) StudentLogin(c *gin.Context) {
	var req model.LoginRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	res, err := h.client.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, upstream.ErrUnauthorized) || errors.Is(err, upstream.ErrRejected) {
			response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials)
			return
		}
		failUpstream(c, err)
		return
	}

	response.Success(c, http.StatusOK, res)
}

// StudentRegister godoc
// POST /api/v1/auth/register
func (h *AuthHandler) StudentRegister(c *gin.Context) {
	var req model.RegisterRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	res, err := h.client.Register(c.Request.Context(), req)
	if err != nil {
		failUpstream(c, err)
		return
	}

	response.Success(c, http.StatusCreated, res)
}

// StudentLogout godoc
// POST /api/v1/auth/logout
func (h *AuthHandler) StudentLogout(c *gin.Context) {
	scope, ok := middleware.GetScope(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	if err := h.client.Logout(c.Request.Context(), scope.Token()); err != nil {
		failUpstream(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"logged_out": true})
}

// GetCurrentUser godoc
// GET /api/v1/auth/me
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	scope, ok := middleware.GetScope(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	user, err := h.client.CurrentUser(c.Request.Context(), scope.Token())
	if err != nil {
		failUpstream(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"user": user})
}

// AdminLogin godoc
// POST /api/v1/auth/admin/login
func (h *AuthHandler) AdminLogin(c *gin.Context) {
	var req model.AdminLoginRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	res, err := h.client.AdminLogin(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, upstream.ErrUnauthorized) || errors.Is(err, upstream.ErrRejected) {
			response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials)
			return
		}
		failUpstream(c, err)
		return
	}

	response.Success(c, http.StatusOK, res)
}
