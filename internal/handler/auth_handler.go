package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stemsi/riskwatch-backend/internal/middleware"
	"github.com/stemsi/riskwatch-backend/internal/model"
	"github.com/stemsi/riskwatch-backend/internal/response"
	"github.com/stemsi/riskwatch-backend/internal/service"
	"github.com/stemsi/riskwatch-backend/internal/validator"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	authService    *service.AuthService
	advisorService *service.AdvisorService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *service.AuthService, advisorService *service.AdvisorService) *AuthHandler {
	return &AuthHandler{
		authService:    authService,
		advisorService: advisorService,
	}
}

// Login godoc
// POST /api/v1/auth/advisor/login
// Validates email + password and returns a JWT. Any older session of the
// same advisor stops working.
func (h *AuthHandler) Login(c *gin.Context) {
	var req model.AdvisorLoginRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	token, advisor, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"token":   token,
		"advisor": advisor,
	})
}

// Logout godoc
// POST /api/v1/auth/advisor/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	if err := h.authService.ResetSession(c.Request.Context(), claims.AdvisorID); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}

// Me godoc
// GET /api/v1/auth/advisor/me
// Returns the profile and roster of the authenticated advisor.
func (h *AuthHandler) Me(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	advisor, err := h.advisorService.GetByID(c.Request.Context(), claims.AdvisorID)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"advisor": advisor})
}
