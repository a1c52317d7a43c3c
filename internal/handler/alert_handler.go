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

// AlertHandler queues alert emails and lists their history.
type AlertHandler struct {
	alertService *service.AlertService
	log          zerolog.Logger
}

// NewAlertHandler creates a new AlertHandler.
func NewAlertHandler(alertService *service.AlertService, log zerolog.Logger) *AlertHandler {
	return &AlertHandler{
		alertService: alertService,
		log:          log.With().Str("component", "alert_handler").Logger(),
	}
}

// SendAlert godoc
// POST /api/v1/advisor/alerts
// Queues an email about a student in the advisor's view. Delivery happens
// in the background; the response only confirms the job was accepted.
func (h *AlertHandler) SendAlert(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.SendAlertRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	job, err := h.alertService.Send(c.Request.Context(), claims.AdvisorID, req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrStudentNotInView):
			response.Fail(c, http.StatusNotFound, response.ErrStudentNotInView)
		case errors.Is(err, service.ErrNoRecipient):
			response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, map[string]string{
				"recipient": "student has no email on file, a recipient is required",
			})
		case errors.Is(err, service.ErrAlertAlreadyQueued):
			response.Fail(c, http.StatusConflict, response.ErrAlertAlreadyQueued)
		default:
			h.log.Error().Err(err).Int("student_id", req.StudentID).Msg("Failed to queue alert")
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusAccepted, gin.H{"alert": job})
}

// ListAlerts godoc
// GET /api/v1/advisor/alerts?page=&per_page=
func (h *AlertHandler) ListAlerts(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	page, perPage := pageParams(c)
	alerts, total, err := h.alertService.List(c.Request.Context(), claims.AdvisorID, page, perPage)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"alerts": alerts}, response.NewPagination(page, perPage, total))
}
