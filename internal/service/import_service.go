package service

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/stemsi/riskwatch-backend/internal/model"
	"github.com/stemsi/riskwatch-backend/internal/repository"
	"github.com/stemsi/riskwatch-backend/internal/source"
)

// ErrStudentNotFound is returned when a student does not exist.
var ErrStudentNotFound = errors.New("student not found")

// ImportResult reports the outcome of a CSV import.
type ImportResult struct {
	Rows     int `json:"rows"`
	Upserted int `json:"upserted"`
}

// ImportService loads student and risk data into the relational store.
type ImportService struct {
	students StudentStore
	risks    RiskStore
	log      zerolog.Logger
}

// NewImportService creates a new ImportService.
func NewImportService(students StudentStore, risks RiskStore, log zerolog.Logger) *ImportService {
	return &ImportService{
		students: students,
		risks:    risks,
		log:      log.With().Str("component", "import_service").Logger(),
	}
}

// ImportStudents parses a student CSV and upserts every row. Nothing is
// written when any row is malformed.
func (s *ImportService) ImportStudents(ctx context.Context, r io.Reader) (ImportResult, error) {
	students, err := source.ParseStudentsCSV(r)
	if err != nil {
		return ImportResult{}, err
	}
	n, err := s.students.BulkUpsert(ctx, students)
	if err != nil {
		return ImportResult{}, fmt.Errorf("upsert students: %w", err)
	}

	s.log.Info().Int("rows", len(students)).Int("upserted", n).Msg("Students imported")
	return ImportResult{Rows: len(students), Upserted: n}, nil
}

// ImportRisks parses a risk CSV and upserts every row.
func (s *ImportService) ImportRisks(ctx context.Context, r io.Reader) (ImportResult, error) {
	risks, err := source.ParseRisksCSV(r)
	if err != nil {
		return ImportResult{}, err
	}
	n, err := s.risks.BulkUpsert(ctx, risks)
	if err != nil {
		return ImportResult{}, fmt.Errorf("upsert risks: %w", err)
	}

	s.log.Info().Int("rows", len(risks)).Int("upserted", n).Msg("Risks imported")
	return ImportResult{Rows: len(risks), Upserted: n}, nil
}

// UpsertStudent writes one student record.
func (s *ImportService) UpsertStudent(ctx context.Context, in model.StudentInput) (model.StudentRecord, error) {
	rec := in.Record()
	if err := s.students.Upsert(ctx, rec); err != nil {
		return rec, fmt.Errorf("upsert student: %w", err)
	}
	return rec, nil
}

// DeleteStudent removes a student and its risk flags.
func (s *ImportService) DeleteStudent(ctx context.Context, id int) error {
	err := s.students.Delete(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrStudentNotFound
	}
	return err
}

// SetRisk writes the risk flags of an existing student.
func (s *ImportService) SetRisk(ctx context.Context, f model.RiskFlags) error {
	if _, err := s.students.GetByID(ctx, f.StudentID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrStudentNotFound
		}
		return err
	}
	return s.risks.Upsert(ctx, model.RiskFlags{
		StudentID:        f.StudentID,
		DropoutRisk:      f.DropoutRisk,
		UnderperformRisk: f.UnderperformRisk,
	})
}
