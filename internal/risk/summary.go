package risk

import "github.com/stemsi/riskwatch-backend/internal/model"

// Summary holds aggregate metrics over a reconciled view.
type Summary struct {
	Total        int                      `json:"total"`
	ByTier       map[model.RiskTier]int   `json:"by_tier"`
	BySource     map[model.Provenance]int `json:"by_source"`
	Dropout      int                      `json:"dropout_at_risk"`
	Underperform int                      `json:"underperform_at_risk"`
}

// Summarize counts tiers, provenances and raised flags. Every tier key is
// present in ByTier even when its count is zero.
func Summarize(xs []model.ReconciledStudent) Summary {
	s := Summary{
		Total: len(xs),
		ByTier: map[model.RiskTier]int{
			model.TierNoRisk:     0,
			model.TierMediumRisk: 0,
			model.TierHighRisk:   0,
		},
		BySource: map[model.Provenance]int{
			model.ProvenanceAssigned:  0,
			model.ProvenancePredicted: 0,
		},
	}
	for _, x := range xs {
		s.ByTier[x.RiskClass]++
		if x.Source != "" {
			s.BySource[x.Source]++
		}
		if model.AtRisk(x.DropoutRisk) {
			s.Dropout++
		}
		if model.AtRisk(x.Underperform) {
			s.Underperform++
		}
	}
	return s
}
