package source

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/stemsi/riskwatch-backend/internal/model"
)

var exportHeader = []string{
	ColStudentID, ColName, ColGender, ColAttendanceRate, ColStudyHoursPerWeek,
	ColPreviousGrade, ColExtracurricularActivities, ColParentalSupport, ColFinalGrade,
	ColEmail, ColDropoutRisk, "Underperform", "riskClass", "source",
	"DropoutProbability", "UnderperformProbability",
}

// WriteReconciledCSV writes a reconciled view with the same column names the
// JSON API uses.
func WriteReconciledCSV(w io.Writer, xs []model.ReconciledStudent) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return err
	}
	for _, x := range xs {
		row := []string{
			strconv.Itoa(x.StudentID),
			x.Name,
			string(x.Gender),
			num(x.AttendanceRate),
			num(x.StudyHoursPerWeek),
			num(x.PreviousGrade),
			num(x.ExtracurricularActivities),
			string(x.ParentalSupport),
			num(x.FinalGrade),
			x.Email,
			x.DropoutRisk,
			x.Underperform,
			string(x.RiskClass),
			string(x.Source),
			prob(x.DropoutProbability),
			prob(x.UnderperformProbability),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func num(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func prob(p *float64) string {
	if p == nil {
		return ""
	}
	return num(*p)
}
