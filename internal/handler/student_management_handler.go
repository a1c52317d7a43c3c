package handler

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/stemsi/riskwatch-backend/internal/model"
	"github.com/stemsi/riskwatch-backend/internal/response"
	"github.com/stemsi/riskwatch-backend/internal/service"
	"github.com/stemsi/riskwatch-backend/internal/source"
	"github.com/stemsi/riskwatch-backend/internal/validator"
)

// StudentManagementHandler handles admin-facing student data: listing,
// single-record edits and CSV imports.
type StudentManagementHandler struct {
	viewService   *service.StudentViewService
	importService *service.ImportService
	maxUpload     int64
	log           zerolog.Logger
}

// NewStudentManagementHandler creates a new StudentManagementHandler.
func NewStudentManagementHandler(
	viewService *service.StudentViewService,
	importService *service.ImportService,
	maxUpload int64,
	log zerolog.Logger,
) *StudentManagementHandler {
	return &StudentManagementHandler{
		viewService:   viewService,
		importService: importService,
		maxUpload:     maxUpload,
		log:           log.With().Str("component", "student_management_handler").Logger(),
	}
}

// ListStudents godoc
// GET /api/v1/admin/students?tier=&sort=&order=
// Lists every student reconciled with its risk flags.
func (h *StudentManagementHandler) ListStudents(c *gin.Context) {
	var q model.StudentViewQuery
	if fields := validator.BindQuery(c, &q); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	students, err := h.viewService.AllStudents(c.Request.Context(), q)
	if err != nil {
		failView(c, h.log, q, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"students": students,
		"count":    len(students),
	})
}

// UpsertStudent godoc
// PUT /api/v1/admin/students/:student_id
// Creates or replaces a student record.
func (h *StudentManagementHandler) UpsertStudent(c *gin.Context) {
	id, ok := intParam(c, "student_id")
	if !ok {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.StudentInput
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	if req.StudentID != id {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, map[string]string{
			"StudentID": "must match the student_id in the path",
		})
		return
	}

	student, err := h.importService.UpsertStudent(c.Request.Context(), req)
	if err != nil {
		h.log.Error().Err(err).Int("student_id", id).Msg("Failed to upsert student")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"student": student})
}

// DeleteStudent godoc
// DELETE /api/v1/admin/students/:student_id
// Removes a student together with its risk flags and roster entries.
func (h *StudentManagementHandler) DeleteStudent(c *gin.Context) {
	id, ok := intParam(c, "student_id")
	if !ok {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.importService.DeleteStudent(c.Request.Context(), id); err != nil {
		if errors.Is(err, service.ErrStudentNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "student deleted successfully"})
}

// SetRisk godoc
// PUT /api/v1/admin/risks/:student_id
// Sets both risk flags of an existing student.
func (h *StudentManagementHandler) SetRisk(c *gin.Context) {
	id, ok := intParam(c, "student_id")
	if !ok {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.SetRiskRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	flags := model.RiskFlags{
		StudentID:        id,
		DropoutRisk:      *req.DropoutRisk,
		UnderperformRisk: *req.UnderperformRisk,
	}
	if err := h.importService.SetRisk(c.Request.Context(), flags); err != nil {
		if errors.Is(err, service.ErrStudentNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"risk": flags})
}

// ImportStudents godoc
// POST /api/v1/admin/import/students (multipart, field "file")
func (h *StudentManagementHandler) ImportStudents(c *gin.Context) {
	h.importCSV(c, h.importService.ImportStudents)
}

// ImportRisks godoc
// POST /api/v1/admin/import/risks (multipart, field "file")
func (h *StudentManagementHandler) ImportRisks(c *gin.Context) {
	h.importCSV(c, h.importService.ImportRisks)
}

type importFunc func(ctx context.Context, r io.Reader) (service.ImportResult, error)

func (h *StudentManagementHandler) importCSV(c *gin.Context, run importFunc) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload)

	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Fail(c, http.StatusRequestEntityTooLarge, response.ErrFileTooLarge)
			return
		}
		response.Fail(c, http.StatusBadRequest, response.ErrFileRequired)
		return
	}

	f, err := fh.Open()
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrFileRequired)
		return
	}
	defer f.Close()

	result, err := run(c.Request.Context(), f)
	if err != nil {
		if fields, ok := csvErrorFields(err); ok {
			response.FailWithFields(c, http.StatusBadRequest, response.ErrMalformedCSV, fields)
			return
		}
		h.log.Error().Err(err).Str("file", fh.Filename).Msg("CSV import failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"import": result})
}

// csvErrorFields describes a parse error of an uploaded CSV.
func csvErrorFields(err error) (map[string]string, bool) {
	var rowErr *source.RowError
	if errors.As(err, &rowErr) {
		return map[string]string{
			"line":   strconv.Itoa(rowErr.Line),
			"column": rowErr.Column,
			"value":  rowErr.Value,
		}, true
	}
	var colErr *source.MissingColumnError
	if errors.As(err, &colErr) {
		return map[string]string{"column": colErr.Column + " is required"}, true
	}
	if errors.Is(err, source.ErrEmptyCSV) {
		return map[string]string{"file": "no header row"}, true
	}
	var parseErr *csv.ParseError
	if errors.As(err, &parseErr) {
		return map[string]string{
			"line":   strconv.Itoa(parseErr.Line),
			"detail": parseErr.Err.Error(),
		}, true
	}
	return nil, false
}
