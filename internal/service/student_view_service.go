package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/stemsi/riskwatch-backend/internal/model"
	"github.com/stemsi/riskwatch-backend/internal/risk"
)

// Views selectable by advisors.
const (
	ViewAssigned  = "assigned"
	ViewPredicted = "predicted"
	ViewAll       = "all"
)

// ErrUnknownSortField is returned for sort fields the projection does not know.
var ErrUnknownSortField = errors.New("unknown sort field")

// StudentViewService assembles reconciled student views from the stores.
type StudentViewService struct {
	students    StudentStore
	risks       RiskStore
	advisors    AdvisorStore
	predictions PredictionStore
}

// NewStudentViewService creates a new StudentViewService.
func NewStudentViewService(students StudentStore, risks RiskStore, advisors AdvisorStore, predictions PredictionStore) *StudentViewService {
	return &StudentViewService{students: students, risks: risks, advisors: advisors, predictions: predictions}
}

// AssignedView reconciles the advisor's roster against the persisted risks.
func (s *StudentViewService) AssignedView(ctx context.Context, advisorID int) ([]model.ReconciledStudent, error) {
	roster, err := s.advisors.GetRoster(ctx, advisorID)
	if err != nil {
		return nil, fmt.Errorf("get roster: %w", err)
	}
	if len(roster) == 0 {
		return []model.ReconciledStudent{}, nil
	}

	students, err := s.students.GetByIDs(ctx, roster)
	if err != nil {
		return nil, fmt.Errorf("get students: %w", err)
	}
	risks, err := s.risks.GetByStudentIDs(ctx, roster)
	if err != nil {
		return nil, fmt.Errorf("get risks: %w", err)
	}

	return risk.Reconcile(students, risks, risk.NewRoster(roster...), model.ProvenanceAssigned), nil
}

// PredictedView reconciles the students produced by the advisor's prediction runs.
func (s *StudentViewService) PredictedView(ctx context.Context, advisorID int) ([]model.ReconciledStudent, error) {
	preds, err := s.predictions.ListByAdvisor(ctx, advisorID)
	if err != nil {
		return nil, fmt.Errorf("list predictions: %w", err)
	}
	students, flags := latestPredictions(preds)
	return risk.Reconcile(students, flags, nil, model.ProvenancePredicted), nil
}

// CombinedView returns the assigned entries followed by the predicted ones.
func (s *StudentViewService) CombinedView(ctx context.Context, advisorID int) ([]model.ReconciledStudent, error) {
	assigned, err := s.AssignedView(ctx, advisorID)
	if err != nil {
		return nil, err
	}
	predicted, err := s.PredictedView(ctx, advisorID)
	if err != nil {
		return nil, err
	}
	return risk.MergeSources(assigned, predicted), nil
}

// View returns the view named by q.View (assigned by default), filtered and
// sorted as requested.
func (s *StudentViewService) View(ctx context.Context, advisorID int, q model.StudentViewQuery) ([]model.ReconciledStudent, error) {
	var (
		xs  []model.ReconciledStudent
		err error
	)
	switch q.View {
	case ViewPredicted:
		xs, err = s.PredictedView(ctx, advisorID)
	case ViewAll:
		xs, err = s.CombinedView(ctx, advisorID)
	default:
		xs, err = s.AssignedView(ctx, advisorID)
	}
	if err != nil {
		return nil, err
	}
	return Project(xs, q)
}

// StudentsByIDs reconciles an arbitrary set of stored students. IDs that
// match no student are absent from the result. Students on no roster carry
// no source tag.
func (s *StudentViewService) StudentsByIDs(ctx context.Context, ids []int) ([]model.ReconciledStudent, error) {
	students, err := s.students.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("get students: %w", err)
	}
	risks, err := s.risks.GetByStudentIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("get risks: %w", err)
	}
	return s.markRostered(ctx, risk.Reconcile(students, risks, nil, model.ProvenanceAssigned))
}

// AllStudents reconciles every stored student.
func (s *StudentViewService) AllStudents(ctx context.Context, q model.StudentViewQuery) ([]model.ReconciledStudent, error) {
	students, err := s.students.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	risks, err := s.risks.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list risks: %w", err)
	}
	view, err := s.markRostered(ctx, risk.Reconcile(students, risks, nil, model.ProvenanceAssigned))
	if err != nil {
		return nil, err
	}
	return Project(view, q)
}

// markRostered keeps the assigned tag only on students that appear on at
// least one advisor's roster and clears it on the rest.
func (s *StudentViewService) markRostered(ctx context.Context, xs []model.ReconciledStudent) ([]model.ReconciledStudent, error) {
	advisors, err := s.advisors.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list advisors: %w", err)
	}
	var ids []int
	for _, a := range advisors {
		ids = append(ids, a.Students...)
	}
	rostered := risk.NewRoster(ids...)
	for i := range xs {
		if !rostered.Contains(xs[i].StudentID) {
			xs[i].Source = ""
		}
	}
	return xs, nil
}

// Project applies the tier filter and then the sort from q.
func Project(xs []model.ReconciledStudent, q model.StudentViewQuery) ([]model.ReconciledStudent, error) {
	out := risk.Filter(xs, q.Tier)
	if q.Sort == "" {
		return out, nil
	}

	order := risk.Order(strings.ToLower(q.Order))
	if order == "" {
		order = risk.Asc
	}
	sorted, err := risk.Sort(out, q.Sort, order)
	if errors.Is(err, risk.ErrUnknownField) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSortField, q.Sort)
	}
	return sorted, err
}

// latestPredictions keeps one prediction per student. A student predicted
// more than once keeps its first position and takes its latest result.
func latestPredictions(preds []model.PredictedStudent) ([]model.StudentRecord, []model.RiskFlags) {
	pos := make(map[int]int, len(preds))
	students := make([]model.StudentRecord, 0, len(preds))
	flags := make([]model.RiskFlags, 0, len(preds))

	for _, p := range preds {
		f := p.Flags
		f.StudentID = p.Student.StudentID
		if i, ok := pos[p.Student.StudentID]; ok {
			students[i] = p.Student
			flags[i] = f
			continue
		}
		pos[p.Student.StudentID] = len(students)
		students = append(students, p.Student)
		flags = append(flags, f)
	}
	return students, flags
}
