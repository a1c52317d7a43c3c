package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/stemsi/riskwatch-backend/internal/middleware"
	"github.com/stemsi/riskwatch-backend/internal/model"
	"github.com/stemsi/riskwatch-backend/internal/response"
	"github.com/stemsi/riskwatch-backend/internal/service"
	"github.com/stemsi/riskwatch-backend/internal/source"
	"github.com/stemsi/riskwatch-backend/internal/validator"
)

// StudentHandler serves the advisor's reconciled student views.
type StudentHandler struct {
	viewService *service.StudentViewService
	log         zerolog.Logger
}

// NewStudentHandler creates a new StudentHandler.
func NewStudentHandler(viewService *service.StudentViewService, log zerolog.Logger) *StudentHandler {
	return &StudentHandler{
		viewService: viewService,
		log:         log.With().Str("component", "student_handler").Logger(),
	}
}

// ListStudents godoc
// GET /api/v1/advisor/students?view=assigned|predicted|all&tier=&sort=&order=
func (h *StudentHandler) ListStudents(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var q model.StudentViewQuery
	if fields := validator.BindQuery(c, &q); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	students, err := h.viewService.View(c.Request.Context(), claims.AdvisorID, q)
	if err != nil {
		failView(c, h.log, q, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"students": students,
		"count":    len(students),
	})
}

// StudentsByIDs godoc
// POST /api/v1/advisor/students/by-ids
// Returns the requested students joined with their risk flags.
func (h *StudentHandler) StudentsByIDs(c *gin.Context) {
	var req model.StudentsByIDsRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	students, err := h.viewService.StudentsByIDs(c.Request.Context(), req.StudentIDs)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load students by IDs")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"message":  fmt.Sprintf("Found %d of %d requested students", len(students), len(req.StudentIDs)),
		"students": students,
	})
}

// ExportStudents godoc
// GET /api/v1/advisor/students/export
// Same query as ListStudents, rendered as a CSV attachment.
func (h *StudentHandler) ExportStudents(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var q model.StudentViewQuery
	if fields := validator.BindQuery(c, &q); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	students, err := h.viewService.View(c.Request.Context(), claims.AdvisorID, q)
	if err != nil {
		failView(c, h.log, q, err)
		return
	}

	view := q.View
	if view == "" {
		view = service.ViewAssigned
	}
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="students-%s.csv"`, view))
	c.Status(http.StatusOK)
	if err := source.WriteReconciledCSV(c.Writer, students); err != nil {
		h.log.Error().Err(err).Msg("Failed to write CSV export")
	}
}

// failView maps projection errors onto responses.
func failView(c *gin.Context, log zerolog.Logger, q model.StudentViewQuery, err error) {
	if errors.Is(err, service.ErrUnknownSortField) {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrUnknownField, map[string]string{
			"sort": fmt.Sprintf("unknown field %q", q.Sort),
		})
		return
	}
	log.Error().Err(err).Msg("Failed to build student view")
	response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
}
