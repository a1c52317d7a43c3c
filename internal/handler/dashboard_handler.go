package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stemsi/riskwatch-backend/internal/middleware"
	"github.com/stemsi/riskwatch-backend/internal/response"
	"github.com/stemsi/riskwatch-backend/internal/service"
)

// DashboardHandler handles the advisor dashboard endpoint.
type DashboardHandler struct {
	dashboardService *service.DashboardService
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(dashboardService *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService}
}

// GetDashboard godoc
// GET /api/v1/advisor/dashboard
// Returns tier and source counts over the combined view plus the high-risk students.
func (h *DashboardHandler) GetDashboard(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	data, err := h.dashboardService.Get(c.Request.Context(), claims.AdvisorID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, data)
}
