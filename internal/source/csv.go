// Package source normalizes external student and risk data (CSV snapshots,
// legacy document-store advisors) into the canonical model types.
package source

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/stemsi/riskwatch-backend/internal/model"
)

// Column names of the student snapshot.
const (
	ColStudentID                 = "StudentID"
	ColName                      = "Name"
	ColGender                    = "Gender"
	ColAttendanceRate            = "AttendanceRate"
	ColStudyHoursPerWeek         = "StudyHoursPerWeek"
	ColPreviousGrade             = "PreviousGrade"
	ColExtracurricularActivities = "ExtracurricularActivities"
	ColParentalSupport           = "ParentalSupport"
	ColFinalGrade                = "FinalGrade"
	ColEmail                     = "Email"
	ColDropoutRisk               = "DropoutRisk"
	ColUnderperformRisk          = "UnderperformRisk"
)

var studentColumns = []string{
	ColStudentID, ColName, ColGender, ColAttendanceRate, ColStudyHoursPerWeek,
	ColPreviousGrade, ColExtracurricularActivities, ColParentalSupport, ColFinalGrade,
}

var riskColumns = []string{ColStudentID, ColDropoutRisk, ColUnderperformRisk}

// aliases maps legacy header names onto canonical ones.
var aliases = map[string]string{
	"Underperform": ColUnderperformRisk,
	"Student_ID":   ColStudentID,
}

// Field limits mirror the students table.
const (
	maxNameLen  = 100
	maxEmailLen = 255
)

var (
	genders  = []model.Gender{model.GenderMale, model.GenderFemale}
	supports = []model.ParentalSupport{
		model.ParentalSupportLow, model.ParentalSupportMedium, model.ParentalSupportHigh,
	}
)

// ErrEmptyCSV is returned when the input has no header row.
var ErrEmptyCSV = errors.New("csv has no header row")

// MissingColumnError reports a required header that is absent.
type MissingColumnError struct {
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("missing column %q", e.Column)
}

// RowError reports a malformed value. Line is 1-based and counts the header.
type RowError struct {
	Line   int
	Column string
	Value  string
	Err    error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("line %d, column %s: invalid value %q: %v", e.Line, e.Column, e.Value, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

// table is a header-indexed view over CSV records.
type table struct {
	r      *csv.Reader
	header map[string]int
	line   int
}

func newTable(r io.Reader, required []string) (*table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	head, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyCSV
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	t := &table{r: cr, header: make(map[string]int, len(head)), line: 1}
	for i, h := range head {
		// Spreadsheet exports often prefix a BOM.
		h = strings.TrimPrefix(strings.TrimSpace(h), "\ufeff")
		t.header[h] = i
	}
	for alias, col := range aliases {
		if i, ok := t.header[alias]; ok {
			if _, exists := t.header[col]; !exists {
				t.header[col] = i
			}
		}
	}
	for _, col := range required {
		if _, ok := t.header[col]; !ok {
			return nil, &MissingColumnError{Column: col}
		}
	}
	return t, nil
}

// next returns the next non-blank record, or io.EOF.
func (t *table) next() ([]string, error) {
	for {
		rec, err := t.r.Read()
		if err != nil {
			return nil, err
		}
		t.line, _ = t.r.FieldPos(0)
		if blank(rec) {
			continue
		}
		return rec, nil
	}
}

func (t *table) get(rec []string, col string) string {
	i, ok := t.header[col]
	if !ok || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

func (t *table) intAt(rec []string, col string) (int, error) {
	v := t.get(rec, col)
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, &RowError{Line: t.line, Column: col, Value: v, Err: err}
	}
	return n, nil
}

func (t *table) idAt(rec []string, col string) (int, error) {
	n, err := t.intAt(rec, col)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, &RowError{Line: t.line, Column: col, Value: t.get(rec, col), Err: errors.New("must be a positive integer")}
	}
	return n, nil
}

func (t *table) textAt(rec []string, col string, required bool, max int) (string, error) {
	v := t.get(rec, col)
	switch {
	case required && v == "":
		return "", &RowError{Line: t.line, Column: col, Value: v, Err: errors.New("required")}
	case utf8.RuneCountInString(v) > max:
		return "", &RowError{Line: t.line, Column: col, Value: v, Err: fmt.Errorf("longer than %d characters", max)}
	}
	return v, nil
}

// enumAt matches a value case-insensitively and returns its canonical spelling.
func enumAt[E ~string](t *table, rec []string, col string, allowed []E) (E, error) {
	v := t.get(rec, col)
	for _, a := range allowed {
		if strings.EqualFold(v, string(a)) {
			return a, nil
		}
	}
	names := make([]string, len(allowed))
	for i, a := range allowed {
		names[i] = string(a)
	}
	return "", &RowError{Line: t.line, Column: col, Value: v, Err: fmt.Errorf("expected one of %s", strings.Join(names, ", "))}
}

func (t *table) floatAt(rec []string, col string) (float64, error) {
	v := t.get(rec, col)
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, &RowError{Line: t.line, Column: col, Value: v, Err: err}
	}
	return f, nil
}

func (t *table) flagAt(rec []string, col string) (bool, error) {
	v := t.get(rec, col)
	switch strings.ToLower(v) {
	case "1", "true", "yes", strings.ToLower(model.LabelAtRisk):
		return true, nil
	case "0", "false", "no", "", strings.ToLower(model.LabelNoRisk):
		return false, nil
	}
	return false, &RowError{Line: t.line, Column: col, Value: v, Err: errors.New("expected 0 or 1")}
}

// ParseStudentsCSV reads a student snapshot. Columns are located by header
// name, so extra or reordered columns are accepted.
func ParseStudentsCSV(r io.Reader) ([]model.StudentRecord, error) {
	t, err := newTable(r, studentColumns)
	if err != nil {
		return nil, err
	}

	students := []model.StudentRecord{}
	for {
		rec, err := t.next()
		if errors.Is(err, io.EOF) {
			return students, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read line %d: %w", t.line+1, err)
		}

		s, err := t.student(rec)
		if err != nil {
			return nil, err
		}
		students = append(students, s)
	}
}

func (t *table) student(rec []string) (model.StudentRecord, error) {
	var (
		s   model.StudentRecord
		err error
	)
	if s.StudentID, err = t.idAt(rec, ColStudentID); err != nil {
		return s, err
	}
	if s.Name, err = t.textAt(rec, ColName, true, maxNameLen); err != nil {
		return s, err
	}
	if s.Gender, err = enumAt(t, rec, ColGender, genders); err != nil {
		return s, err
	}
	if s.ParentalSupport, err = enumAt(t, rec, ColParentalSupport, supports); err != nil {
		return s, err
	}
	if s.Email, err = t.textAt(rec, ColEmail, false, maxEmailLen); err != nil {
		return s, err
	}

	numeric := []struct {
		col string
		dst *float64
	}{
		{ColAttendanceRate, &s.AttendanceRate},
		{ColStudyHoursPerWeek, &s.StudyHoursPerWeek},
		{ColPreviousGrade, &s.PreviousGrade},
		{ColExtracurricularActivities, &s.ExtracurricularActivities},
		{ColFinalGrade, &s.FinalGrade},
	}
	for _, n := range numeric {
		if *n.dst, err = t.floatAt(rec, n.col); err != nil {
			return s, err
		}
	}
	return s, nil
}

// ParseRisksCSV reads a risk snapshot (StudentID, DropoutRisk, UnderperformRisk).
// Duplicate StudentIDs are kept in file order; the reconciler lets the last one win.
func ParseRisksCSV(r io.Reader) ([]model.RiskFlags, error) {
	t, err := newTable(r, riskColumns)
	if err != nil {
		return nil, err
	}

	risks := []model.RiskFlags{}
	for {
		rec, err := t.next()
		if errors.Is(err, io.EOF) {
			return risks, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read line %d: %w", t.line+1, err)
		}

		var f model.RiskFlags
		if f.StudentID, err = t.idAt(rec, ColStudentID); err != nil {
			return nil, err
		}
		if f.DropoutRisk, err = t.flagAt(rec, ColDropoutRisk); err != nil {
			return nil, err
		}
		if f.UnderperformRisk, err = t.flagAt(rec, ColUnderperformRisk); err != nil {
			return nil, err
		}
		risks = append(risks, f)
	}
}

func blank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
