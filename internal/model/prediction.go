package model

// PredictRequest is the payload for running the ML prediction over a batch of students.
type PredictRequest struct {
	Students []StudentInput `json:"students" binding:"required,min=1,max=200,dive"`
}

// PredictionResult is the response of the external prediction service for one student.
type PredictionResult struct {
	DropoutRisk             bool    `json:"dropout_risk"`
	DropoutProbability      float64 `json:"dropout_probability"`
	UnderperformRisk        bool    `json:"underperform_risk"`
	UnderperformProbability float64 `json:"underperform_probability"`
}

// Flags converts a prediction into RiskFlags for the given student.
func (p PredictionResult) Flags(studentID int) RiskFlags {
	dp, up := p.DropoutProbability, p.UnderperformProbability
	return RiskFlags{
		StudentID:               studentID,
		DropoutRisk:             p.DropoutRisk,
		UnderperformRisk:        p.UnderperformRisk,
		DropoutProbability:      &dp,
		UnderperformProbability: &up,
	}
}
