package service

import (
	"context"

	"github.com/stemsi/riskwatch-backend/internal/model"
	"github.com/stemsi/riskwatch-backend/internal/risk"
)

// Dashboard is the advisor landing page payload.
type Dashboard struct {
	Summary  risk.Summary              `json:"summary"`
	HighRisk []model.ReconciledStudent `json:"high_risk"`
}

// DashboardService computes dashboard metrics over the combined view.
type DashboardService struct {
	views *StudentViewService
}

// NewDashboardService creates a new DashboardService.
func NewDashboardService(views *StudentViewService) *DashboardService {
	return &DashboardService{views: views}
}

// Get summarizes the advisor's combined view and lists its high-risk
// students, lowest final grade first.
func (s *DashboardService) Get(ctx context.Context, advisorID int) (Dashboard, error) {
	view, err := s.views.CombinedView(ctx, advisorID)
	if err != nil {
		return Dashboard{}, err
	}

	high, err := risk.Sort(risk.Filter(view, string(model.TierHighRisk)), "FinalGrade", risk.Asc)
	if err != nil {
		return Dashboard{}, err
	}

	return Dashboard{Summary: risk.Summarize(view), HighRisk: high}, nil
}
