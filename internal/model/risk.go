package model

import "time"

// RiskTier is the three-level classification derived from a student's risk flags.
type RiskTier string

const (
	TierNoRisk     RiskTier = "no-risk"
	TierMediumRisk RiskTier = "medium-risk"
	TierHighRisk   RiskTier = "high-risk"
)

// Provenance marks where a reconciled student came from.
type Provenance string

const (
	// ProvenanceAssigned means the student is on the advisor's roster.
	ProvenanceAssigned Provenance = "assigned"
	// ProvenancePredicted means the student was produced by an ML prediction pass.
	ProvenancePredicted Provenance = "predicted"
)

// Risk labels used by the dashboard tables.
const (
	LabelAtRisk = "At Risk"
	LabelNoRisk = "No Risk"
)

// RiskFlags is the per-student pair of risk booleans.
// Probabilities are only present when the flags come from the prediction service.
type RiskFlags struct {
	StudentID               int      `json:"StudentID"`
	DropoutRisk             bool     `json:"DropoutRisk"`
	UnderperformRisk        bool     `json:"UnderperformRisk"`
	DropoutProbability      *float64 `json:"DropoutProbability,omitempty"`
	UnderperformProbability *float64 `json:"UnderperformProbability,omitempty"`
}

// ReconciledStudent is a StudentRecord joined with its risk flags and derived tier.
type ReconciledStudent struct {
	StudentRecord
	DropoutRisk             string     `json:"DropoutRisk"`
	Underperform            string     `json:"Underperform"`
	RiskClass               RiskTier   `json:"riskClass"`
	Source                  Provenance `json:"source,omitempty"`
	DropoutProbability      *float64   `json:"DropoutProbability,omitempty"`
	UnderperformProbability *float64   `json:"UnderperformProbability,omitempty"`
}

// AtRisk reports whether the label denotes a raised flag.
func AtRisk(label string) bool {
	return label == LabelAtRisk
}

// PredictedStudent is a row of the predicted_students table.
type PredictedStudent struct {
	ID        int           `json:"id"`
	AdvisorID int           `json:"advisor_id"`
	Student   StudentRecord `json:"student"`
	Flags     RiskFlags     `json:"flags"`
	CreatedAt time.Time     `json:"created_at"`
}

// SetRiskRequest is the payload for setting a student's risk flags by hand.
type SetRiskRequest struct {
	DropoutRisk      *bool `json:"DropoutRisk" binding:"required"`
	UnderperformRisk *bool `json:"UnderperformRisk" binding:"required"`
}
