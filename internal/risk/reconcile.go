// Package risk joins student records with their risk flags and derives the
// risk tier shown to advisors. It is the only place in the codebase where a
// tier is computed; every view, metric, export and alert goes through it.
//
// The package performs no I/O and holds no state.
package risk

import "github.com/stemsi/riskwatch-backend/internal/model"

// Roster restricts reconciliation to a set of student IDs.
// A nil Roster means no restriction; an empty non-nil Roster admits nobody.
type Roster map[int]struct{}

// NewRoster builds a Roster from a list of student IDs. Duplicates collapse.
func NewRoster(ids ...int) Roster {
	r := make(Roster, len(ids))
	for _, id := range ids {
		r[id] = struct{}{}
	}
	return r
}

// Contains reports whether id is admitted by the roster.
func (r Roster) Contains(id int) bool {
	if r == nil {
		return true
	}
	_, ok := r[id]
	return ok
}

// IDs returns the roster members in no particular order.
func (r Roster) IDs() []int {
	ids := make([]int, 0, len(r))
	for id := range r {
		ids = append(ids, id)
	}
	return ids
}

// TierOf maps the two risk flags onto a tier by counting the raised ones.
func TierOf(dropout, underperform bool) model.RiskTier {
	switch count(dropout) + count(underperform) {
	case 0:
		return model.TierNoRisk
	case 1:
		return model.TierMediumRisk
	default:
		return model.TierHighRisk
	}
}

// Label renders a flag as shown in the dashboard tables.
func Label(flag bool) string {
	if flag {
		return model.LabelAtRisk
	}
	return model.LabelNoRisk
}

// Index builds a StudentID lookup over risks. When the same StudentID
// appears more than once the last entry wins.
func Index(risks []model.RiskFlags) map[int]model.RiskFlags {
	idx := make(map[int]model.RiskFlags, len(risks))
	for _, r := range risks {
		idx[r.StudentID] = r
	}
	return idx
}

// Reconcile joins students with their risk flags and tags each result with
// source. Students without flags are treated as carrying no risk. Output
// follows the order of students and contains one entry per admitted student.
func Reconcile(students []model.StudentRecord, risks []model.RiskFlags, roster Roster, source model.Provenance) []model.ReconciledStudent {
	idx := Index(risks)

	out := make([]model.ReconciledStudent, 0, len(students))
	for _, s := range students {
		if !roster.Contains(s.StudentID) {
			continue
		}
		flags, ok := idx[s.StudentID]
		if !ok {
			flags = model.RiskFlags{StudentID: s.StudentID}
		}
		out = append(out, Classify(s, flags, source))
	}
	return out
}

// Classify builds the reconciled view of a single student.
func Classify(s model.StudentRecord, flags model.RiskFlags, source model.Provenance) model.ReconciledStudent {
	return model.ReconciledStudent{
		StudentRecord:           s,
		DropoutRisk:             Label(flags.DropoutRisk),
		Underperform:            Label(flags.UnderperformRisk),
		RiskClass:               TierOf(flags.DropoutRisk, flags.UnderperformRisk),
		Source:                  source,
		DropoutProbability:      flags.DropoutProbability,
		UnderperformProbability: flags.UnderperformProbability,
	}
}

// MergeSources concatenates assigned and predicted entries into one display
// set. A student present in both lists appears twice, once per provenance.
func MergeSources(assigned, predicted []model.ReconciledStudent) []model.ReconciledStudent {
	out := make([]model.ReconciledStudent, 0, len(assigned)+len(predicted))
	out = append(out, assigned...)
	return append(out, predicted...)
}

// Find returns the first entry for studentID, preferring the assigned
// provenance when a student appears under both.
func Find(xs []model.ReconciledStudent, studentID int) (model.ReconciledStudent, bool) {
	var (
		found model.ReconciledStudent
		ok    bool
	)
	for _, x := range xs {
		if x.StudentID != studentID {
			continue
		}
		if x.Source == model.ProvenanceAssigned {
			return x, true
		}
		if !ok {
			found, ok = x, true
		}
	}
	return found, ok
}

func count(b bool) int {
	if b {
		return 1
	}
	return 0
}
