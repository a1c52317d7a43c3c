package risk

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/stemsi/riskwatch-backend/internal/model"
)

// TierAll is the filter value that keeps every tier.
const TierAll = "all"

// Order is a sort direction.
type Order string

const (
	Asc  Order = "asc"
	Desc Order = "desc"
)

// ErrUnknownField is returned by Sort for a field it cannot project.
var ErrUnknownField = errors.New("unknown sort field")

// ValidTier reports whether v is a tier name or TierAll.
func ValidTier(v string) bool {
	switch model.RiskTier(v) {
	case model.TierNoRisk, model.TierMediumRisk, model.TierHighRisk:
		return true
	}
	return v == TierAll
}

// Filter returns the entries whose tier equals tier. An empty value or
// TierAll keeps everything. The input slice is left untouched.
func Filter(xs []model.ReconciledStudent, tier string) []model.ReconciledStudent {
	out := make([]model.ReconciledStudent, 0, len(xs))
	if tier == "" || tier == TierAll {
		return append(out, xs...)
	}
	for _, x := range xs {
		if string(x.RiskClass) == tier {
			out = append(out, x)
		}
	}
	return out
}

type fieldFunc func(model.ReconciledStudent) string

var fields = map[string]fieldFunc{
	"studentid":                 func(s model.ReconciledStudent) string { return strconv.Itoa(s.StudentID) },
	"name":                      func(s model.ReconciledStudent) string { return s.Name },
	"gender":                    func(s model.ReconciledStudent) string { return string(s.Gender) },
	"attendancerate":            func(s model.ReconciledStudent) string { return formatFloat(s.AttendanceRate) },
	"studyhoursperweek":         func(s model.ReconciledStudent) string { return formatFloat(s.StudyHoursPerWeek) },
	"previousgrade":             func(s model.ReconciledStudent) string { return formatFloat(s.PreviousGrade) },
	"extracurricularactivities": func(s model.ReconciledStudent) string { return formatFloat(s.ExtracurricularActivities) },
	"parentalsupport":           func(s model.ReconciledStudent) string { return string(s.ParentalSupport) },
	"finalgrade":                func(s model.ReconciledStudent) string { return formatFloat(s.FinalGrade) },
	"email":                     func(s model.ReconciledStudent) string { return s.Email },
	"dropoutrisk":               func(s model.ReconciledStudent) string { return s.DropoutRisk },
	"underperform":              func(s model.ReconciledStudent) string { return s.Underperform },
	"riskclass":                 func(s model.ReconciledStudent) string { return string(s.RiskClass) },
	"source":                    func(s model.ReconciledStudent) string { return string(s.Source) },
	"dropoutprobability":        func(s model.ReconciledStudent) string { return formatProb(s.DropoutProbability) },
	"underperformprobability":   func(s model.ReconciledStudent) string { return formatProb(s.UnderperformProbability) },
}

// KnownField reports whether Sort accepts field.
func KnownField(field string) bool {
	_, ok := fields[strings.ToLower(field)]
	return ok
}

// Sort returns a reordered copy of xs. Field names are the JSON names of
// ReconciledStudent, matched case-insensitively. Values compare as numbers
// when every value parses as one, otherwise as strings. Equal keys keep
// ascending StudentID order regardless of direction.
func Sort(xs []model.ReconciledStudent, field string, order Order) ([]model.ReconciledStudent, error) {
	get, ok := fields[strings.ToLower(field)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownField, field)
	}

	type keyed struct {
		s   model.ReconciledStudent
		str string
		num float64
	}

	items := make([]keyed, len(xs))
	numeric := true
	for i, x := range xs {
		items[i] = keyed{s: x, str: get(x)}
		if numeric {
			n, err := strconv.ParseFloat(items[i].str, 64)
			if err != nil {
				numeric = false
				continue
			}
			items[i].num = n
		}
	}

	desc := order == Desc
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		var c int
		if numeric {
			c = compareFloat(a.num, b.num)
		} else {
			c = strings.Compare(a.str, b.str)
		}
		if c == 0 {
			return a.s.StudentID < b.s.StudentID
		}
		if desc {
			return c > 0
		}
		return c < 0
	})

	out := make([]model.ReconciledStudent, len(items))
	for i := range items {
		out[i] = items[i].s
	}
	return out, nil
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func formatProb(p *float64) string {
	if p == nil {
		return ""
	}
	return formatFloat(*p)
}
