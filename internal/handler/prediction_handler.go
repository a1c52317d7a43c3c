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

// PredictionHandler runs students through the ML predictor.
type PredictionHandler struct {
	predictionService *service.PredictionService
}

// NewPredictionHandler creates a new PredictionHandler.
func NewPredictionHandler(predictionService *service.PredictionService) *PredictionHandler {
	return &PredictionHandler{predictionService: predictionService}
}

// Predict godoc
// POST /api/v1/advisor/predictions
// Scores each submitted student and stores the results in the advisor's
// predicted view.
func (h *PredictionHandler) Predict(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.PredictRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	students, err := h.predictionService.Predict(c.Request.Context(), claims.AdvisorID, req.Students)
	if err != nil {
		if errors.Is(err, service.ErrPredictorUnavailable) {
			response.Fail(c, http.StatusBadGateway, response.ErrPredictorUnavailable)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"students": students})
}

// Clear godoc
// DELETE /api/v1/advisor/predictions
func (h *PredictionHandler) Clear(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	n, err := h.predictionService.Clear(c.Request.Context(), claims.AdvisorID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"deleted": n})
}
