package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/stemsi/riskwatch-backend/internal/middleware"
	"github.com/stemsi/riskwatch-backend/internal/model"
	"github.com/stemsi/riskwatch-backend/internal/response"
	"github.com/stemsi/riskwatch-backend/internal/service"
	"github.com/stemsi/riskwatch-backend/internal/validator"
)

// AdvisorHandler handles admin management of advisor accounts and rosters.
type AdvisorHandler struct {
	advisorService *service.AdvisorService
	alertService   *service.AlertService
	log            zerolog.Logger
}

// NewAdvisorHandler creates a new AdvisorHandler.
func NewAdvisorHandler(advisorService *service.AdvisorService, alertService *service.AlertService, log zerolog.Logger) *AdvisorHandler {
	return &AdvisorHandler{
		advisorService: advisorService,
		alertService:   alertService,
		log:            log.With().Str("component", "advisor_handler").Logger(),
	}
}

// failAdvisor maps advisor service errors onto responses.
func (h *AdvisorHandler) failAdvisor(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrAdvisorNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	case errors.Is(err, service.ErrDuplicateEmail):
		response.Fail(c, http.StatusConflict, response.ErrDuplicateEmail)
	case errors.Is(err, service.ErrSelfDelete):
		response.Fail(c, http.StatusForbidden, response.ErrActionForbidden)
	case errors.Is(err, service.ErrNotInRoster):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	default:
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("Advisor request failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}

// ListAdvisors godoc
// GET /api/v1/admin/advisors
func (h *AdvisorHandler) ListAdvisors(c *gin.Context) {
	advisors, err := h.advisorService.List(c.Request.Context())
	if err != nil {
		h.failAdvisor(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"advisors": advisors})
}

// GetAdvisor godoc
// GET /api/v1/admin/advisors/:id
func (h *AdvisorHandler) GetAdvisor(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	advisor, err := h.advisorService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.failAdvisor(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"advisor": advisor})
}

// CreateAdvisor godoc
// POST /api/v1/admin/advisors
func (h *AdvisorHandler) CreateAdvisor(c *gin.Context) {
	var req model.CreateAdvisorRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	advisor, err := h.advisorService.Create(c.Request.Context(), req)
	if err != nil {
		h.failAdvisor(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"advisor": advisor})
}

// UpdateAdvisor godoc
// PUT /api/v1/admin/advisors/:id
// A new password or role forces the advisor to log in again.
func (h *AdvisorHandler) UpdateAdvisor(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.UpdateAdvisorRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	advisor, err := h.advisorService.Update(c.Request.Context(), id, req)
	if err != nil {
		h.failAdvisor(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"advisor": advisor})
}

// DeleteAdvisor godoc
// DELETE /api/v1/admin/advisors/:id
func (h *AdvisorHandler) DeleteAdvisor(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	if err := h.advisorService.Delete(c.Request.Context(), claims.AdvisorID, id); err != nil {
		h.failAdvisor(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "advisor deleted successfully"})
}

// GetRoster godoc
// GET /api/v1/admin/advisors/:id/students
func (h *AdvisorHandler) GetRoster(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	roster, err := h.advisorService.GetRoster(c.Request.Context(), id)
	if err != nil {
		h.failAdvisor(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"studentIds": roster})
}

// ReplaceRoster godoc
// PUT /api/v1/admin/advisors/:id/students
func (h *AdvisorHandler) ReplaceRoster(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.ReplaceRosterRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	roster, err := h.advisorService.ReplaceRoster(c.Request.Context(), id, req.StudentIDs)
	if err != nil {
		h.failAdvisor(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"studentIds": roster})
}

// AddToRoster godoc
// POST /api/v1/admin/advisors/:id/students/:student_id
func (h *AdvisorHandler) AddToRoster(c *gin.Context) {
	id, ok := intParam(c, "id")
	studentID, ok2 := intParam(c, "student_id")
	if !ok || !ok2 {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.advisorService.AddToRoster(c.Request.Context(), id, studentID); err != nil {
		h.failAdvisor(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "student assigned"})
}

// RemoveFromRoster godoc
// DELETE /api/v1/admin/advisors/:id/students/:student_id
func (h *AdvisorHandler) RemoveFromRoster(c *gin.Context) {
	id, ok := intParam(c, "id")
	studentID, ok2 := intParam(c, "student_id")
	if !ok || !ok2 {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.advisorService.RemoveFromRoster(c.Request.Context(), id, studentID); err != nil {
		h.failAdvisor(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "student unassigned"})
}

// ListAdvisorAlerts godoc
// GET /api/v1/admin/advisors/:id/alerts?page=&per_page=
func (h *AdvisorHandler) ListAdvisorAlerts(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	page, perPage := pageParams(c)
	alerts, total, err := h.alertService.List(c.Request.Context(), id, page, perPage)
	if err != nil {
		h.failAdvisor(c, err)
		return
	}
	response.SuccessWithPagination(c, http.StatusOK, gin.H{"alerts": alerts}, response.NewPagination(page, perPage, total))
}
