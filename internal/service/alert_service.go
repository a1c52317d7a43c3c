package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/stemsi/riskwatch-backend/internal/model"
	"github.com/stemsi/riskwatch-backend/internal/risk"
)

// Alert errors.
var (
	ErrStudentNotInView   = errors.New("student is not in the advisor's view")
	ErrNoRecipient        = errors.New("no recipient address for alert")
	ErrAlertAlreadyQueued = errors.New("alert for this student was sent recently")
)

// AlertDedupWindow is how long a second alert about the same student is refused.
const AlertDedupWindow = 10 * time.Minute

// AlertService validates alert requests and queues them for delivery.
type AlertService struct {
	views    *StudentViewService
	advisors AdvisorStore
	alerts   AlertStore
	queue    AlertEnqueuer
	log      zerolog.Logger
}

// NewAlertService creates a new AlertService.
func NewAlertService(views *StudentViewService, advisors AdvisorStore, alerts AlertStore, queue AlertEnqueuer, log zerolog.Logger) *AlertService {
	return &AlertService{
		views:    views,
		advisors: advisors,
		alerts:   alerts,
		queue:    queue,
		log:      log.With().Str("component", "alert_service").Logger(),
	}
}

// Send queues an alert email about a student in the advisor's combined view.
// The tier is taken from the reconciled entry.
func (s *AlertService) Send(ctx context.Context, advisorID int, req model.SendAlertRequest) (model.AlertJob, error) {
	view, err := s.views.CombinedView(ctx, advisorID)
	if err != nil {
		return model.AlertJob{}, err
	}
	entry, ok := risk.Find(view, req.StudentID)
	if !ok {
		return model.AlertJob{}, ErrStudentNotInView
	}

	recipient := req.Recipient
	if recipient == "" {
		recipient = entry.Email
	}
	if recipient == "" {
		return model.AlertJob{}, ErrNoRecipient
	}

	advisor, err := s.advisors.GetByID(ctx, advisorID)
	if err != nil {
		return model.AlertJob{}, fmt.Errorf("get advisor: %w", err)
	}

	reserved, err := s.queue.Reserve(ctx, advisorID, entry.StudentID, AlertDedupWindow)
	if err != nil {
		return model.AlertJob{}, fmt.Errorf("reserve alert: %w", err)
	}
	if !reserved {
		return model.AlertJob{}, ErrAlertAlreadyQueued
	}

	job := model.AlertJob{
		ID:          uuid.New().String(),
		AdvisorID:   advisorID,
		AdvisorName: advisor.Name,
		Recipient:   recipient,
		Student:     model.StudentRef{StudentID: entry.StudentID, Name: entry.Name},
		Tier:        entry.RiskClass,
		Dropout:     model.AtRisk(entry.DropoutRisk),
		Underperf:   model.AtRisk(entry.Underperform),
		Note:        req.Note,
		QueuedAt:    time.Now().UTC(),
	}

	logEntry := &model.AlertLog{
		ID:        job.ID,
		AdvisorID: advisorID,
		StudentID: entry.StudentID,
		Tier:      job.Tier,
		Recipient: recipient,
		Status:    model.AlertStatusQueued,
	}
	if err := s.alerts.Create(ctx, logEntry); err != nil {
		s.release(ctx, advisorID, entry.StudentID)
		return model.AlertJob{}, fmt.Errorf("log alert: %w", err)
	}

	if err := s.queue.Enqueue(ctx, job); err != nil {
		s.release(ctx, advisorID, entry.StudentID)
		return model.AlertJob{}, fmt.Errorf("enqueue alert: %w", err)
	}

	s.log.Info().
		Str("alert_id", job.ID).
		Int("advisor_id", advisorID).
		Int("student_id", entry.StudentID).
		Str("tier", string(job.Tier)).
		Msg("Alert queued")
	return job, nil
}

// List retrieves an advisor's alert history.
func (s *AlertService) List(ctx context.Context, advisorID, page, perPage int) ([]model.AlertLog, int, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	return s.alerts.ListByAdvisor(ctx, advisorID, perPage, (page-1)*perPage)
}

func (s *AlertService) release(ctx context.Context, advisorID, studentID int) {
	if err := s.queue.Release(ctx, advisorID, studentID); err != nil {
		s.log.Warn().Err(err).Int("student_id", studentID).Msg("Failed to release alert reservation")
	}
}
