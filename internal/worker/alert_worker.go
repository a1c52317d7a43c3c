package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/stemsi/riskwatch-backend/internal/model"
	"github.com/stemsi/riskwatch-backend/internal/notify"
	"github.com/stemsi/riskwatch-backend/internal/repository"
)

const (
	AlertPollTimeout = 1 * time.Second // Must be >= 1s to satisfy Redis
	MaxAlertAttempts = 3
)

// JobQueue is the queue the worker consumes.
type JobQueue interface {
	Pop(ctx context.Context, timeout time.Duration) (model.AlertJob, []byte, error)
	Enqueue(ctx context.Context, job model.AlertJob) error
	DeadLetter(ctx context.Context, raw []byte) error
}

// AlertLogWriter persists delivery outcomes.
type AlertLogWriter interface {
	Create(ctx context.Context, l *model.AlertLog) error
}

// Publisher pushes events to an advisor's notification stream.
type Publisher interface {
	Publish(ctx context.Context, advisorID int, n model.Notification) error
}

// AlertWorker consumes alert_email_queue and delivers each job by email.
type AlertWorker struct {
	queue     JobQueue
	mailer    notify.Mailer
	alerts    AlertLogWriter
	publisher Publisher
	log       zerolog.Logger

	retryDelay time.Duration
}

// NewAlertWorker creates a new AlertWorker.
func NewAlertWorker(queue JobQueue, mailer notify.Mailer, alerts AlertLogWriter, publisher Publisher, log zerolog.Logger) *AlertWorker {
	return &AlertWorker{
		queue:      queue,
		mailer:     mailer,
		alerts:     alerts,
		publisher:  publisher,
		log:        log.With().Str("component", "alert_worker").Logger(),
		retryDelay: 2 * time.Second,
	}
}

// Start begins the infinite worker loop. Call in a goroutine.
func (w *AlertWorker) Start(ctx context.Context) {
	w.log.Info().Msg("AlertWorker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopping...")
			w.drain(context.Background())
			w.log.Info().Msg("Worker stopped")
			return
		default:
			w.processNext(ctx)
		}
	}
}

// processNext handles at most one job. It reports whether a job was taken
// off the queue.
func (w *AlertWorker) processNext(ctx context.Context) bool {
	job, raw, err := w.queue.Pop(ctx, AlertPollTimeout)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrQueueEmpty):
		case raw != nil:
			// Malformed JSON can never succeed.
			w.log.Error().Err(err).Str("data", string(raw)).Msg("Dead-lettering malformed payload")
			if err := w.queue.DeadLetter(ctx, raw); err != nil {
				w.log.Error().Err(err).Msg("Dead-letter push failed")
			}
			return true
		case ctx.Err() == nil:
			w.log.Error().Err(err).Msg("Redis connection error, sleeping 3s")
			sleep(ctx, 3*time.Second)
		}
		return false
	}

	if retry := w.deliver(ctx, job); retry {
		sleep(ctx, w.retryDelay)
	}
	return true
}

// deliver sends one job and records the outcome. It reports whether the job
// went back on the queue for another attempt.
func (w *AlertWorker) deliver(ctx context.Context, job model.AlertJob) bool {
	msg, err := notify.AlertMessage(job)
	if err == nil {
		err = w.mailer.Send(ctx, msg)
	}
	if err == nil {
		w.record(ctx, job, model.AlertStatusSent, "")
		w.publish(ctx, job, model.NotificationAlertSent,
			fmt.Sprintf("Alert about %s was sent to %s.", job.Student.Name, job.Recipient))
		w.log.Info().Str("alert_id", job.ID).Int("student_id", job.Student.StudentID).Msg("Alert sent")
		return false
	}

	job.Attempts++
	if !notify.Permanent(err) && job.Attempts < MaxAlertAttempts {
		w.log.Warn().Err(err).Str("alert_id", job.ID).Int("attempts", job.Attempts).Msg("Alert delivery failed, requeueing")
		qerr := w.queue.Enqueue(ctx, job)
		if qerr == nil {
			return true
		}
		w.log.Error().Err(qerr).Str("alert_id", job.ID).Msg("Requeue failed")
	}

	w.log.Error().Err(err).Str("alert_id", job.ID).Int("attempts", job.Attempts).Msg("Alert delivery failed")
	w.record(ctx, job, model.AlertStatusFailed, err.Error())
	w.publish(ctx, job, model.NotificationAlertError,
		fmt.Sprintf("Alert about %s could not be delivered.", job.Student.Name))
	return false
}

func (w *AlertWorker) record(ctx context.Context, job model.AlertJob, status model.AlertStatus, reason string) {
	err := w.alerts.Create(ctx, &model.AlertLog{
		ID:        job.ID,
		AdvisorID: job.AdvisorID,
		StudentID: job.Student.StudentID,
		Tier:      job.Tier,
		Recipient: job.Recipient,
		Status:    status,
		Error:     reason,
	})
	if err != nil {
		w.log.Error().Err(err).Str("alert_id", job.ID).Msg("Failed to update alert log")
	}
}

func (w *AlertWorker) publish(ctx context.Context, job model.AlertJob, kind model.NotificationKind, message string) {
	err := w.publisher.Publish(ctx, job.AdvisorID, model.Notification{
		Kind:      kind,
		Student:   job.Student,
		Tier:      job.Tier,
		Message:   message,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		w.log.Warn().Err(err).Str("alert_id", job.ID).Msg("Failed to publish notification")
	}
}

// drain delivers whatever is still queued before shutdown. A job that needs
// a retry stays queued for the next start.
func (w *AlertWorker) drain(ctx context.Context) {
	drained := 0
	for {
		job, raw, err := w.queue.Pop(ctx, AlertPollTimeout)
		if err != nil {
			if raw != nil {
				_ = w.queue.DeadLetter(ctx, raw)
				continue
			}
			break
		}
		if retry := w.deliver(ctx, job); retry {
			break
		}
		drained++
	}

	if drained > 0 {
		w.log.Info().Int("count", drained).Msg("Drained remaining items")
	}
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
