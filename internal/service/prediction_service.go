package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/stemsi/riskwatch-backend/internal/model"
	"github.com/stemsi/riskwatch-backend/internal/risk"
)

// ErrPredictorUnavailable wraps failures of the prediction service.
var ErrPredictorUnavailable = errors.New("prediction service unavailable")

// PredictionService runs students through the ML predictor and keeps the results.
type PredictionService struct {
	predictor   Predictor
	predictions PredictionStore
	notifier    Notifier
	log         zerolog.Logger
}

// NewPredictionService creates a new PredictionService.
func NewPredictionService(predictor Predictor, predictions PredictionStore, notifier Notifier, log zerolog.Logger) *PredictionService {
	return &PredictionService{
		predictor:   predictor,
		predictions: predictions,
		notifier:    notifier,
		log:         log.With().Str("component", "prediction_service").Logger(),
	}
}

// Predict scores each student in order, persists the results for advisorID
// and returns them reconciled. Students scored before a predictor failure
// stay persisted.
func (s *PredictionService) Predict(ctx context.Context, advisorID int, inputs []model.StudentInput) ([]model.ReconciledStudent, error) {
	stored := make([]model.PredictedStudent, 0, len(inputs))

	for _, in := range inputs {
		rec := in.Record()

		result, err := s.predictor.Predict(ctx, rec)
		if err != nil {
			s.log.Error().Err(err).Int("advisor_id", advisorID).Int("student_id", rec.StudentID).Msg("Prediction failed")
			return nil, fmt.Errorf("%w: %v", ErrPredictorUnavailable, err)
		}

		p := model.PredictedStudent{
			AdvisorID: advisorID,
			Student:   rec,
			Flags:     result.Flags(rec.StudentID),
		}
		if err := s.predictions.Create(ctx, &p); err != nil {
			return nil, fmt.Errorf("store prediction: %w", err)
		}
		stored = append(stored, p)
	}

	students, flags := latestPredictions(stored)
	view := risk.Reconcile(students, flags, nil, model.ProvenancePredicted)

	for _, x := range risk.Filter(view, string(model.TierHighRisk)) {
		s.notifyHighRisk(ctx, advisorID, x)
	}

	s.log.Info().Int("advisor_id", advisorID).Int("students", len(view)).Msg("Prediction run completed")
	return view, nil
}

// Clear removes every predicted student of an advisor.
func (s *PredictionService) Clear(ctx context.Context, advisorID int) (int, error) {
	return s.predictions.DeleteByAdvisor(ctx, advisorID)
}

func (s *PredictionService) notifyHighRisk(ctx context.Context, advisorID int, x model.ReconciledStudent) {
	n := model.Notification{
		Kind:      model.NotificationHighRisk,
		Student:   model.StudentRef{StudentID: x.StudentID, Name: x.Name},
		Tier:      x.RiskClass,
		Message:   fmt.Sprintf("%s was predicted at high risk of dropout and underperformance.", x.Name),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.notifier.Publish(ctx, advisorID, n); err != nil {
		s.log.Warn().Err(err).Int("student_id", x.StudentID).Msg("Failed to publish notification")
	}
}
