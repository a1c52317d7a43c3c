package service

import (
	"context"
	"time"

	"github.com/stemsi/riskwatch-backend/internal/model"
)

// The store interfaces below are satisfied by the types in internal/repository.

// StudentStore reads and writes canonical student records.
type StudentStore interface {
	GetByID(ctx context.Context, id int) (model.StudentRecord, error)
	GetByIDs(ctx context.Context, ids []int) ([]model.StudentRecord, error)
	ListAll(ctx context.Context) ([]model.StudentRecord, error)
	Upsert(ctx context.Context, s model.StudentRecord) error
	BulkUpsert(ctx context.Context, students []model.StudentRecord) (int, error)
	Delete(ctx context.Context, id int) error
}

// RiskStore reads and writes persisted risk flags.
type RiskStore interface {
	GetByStudentIDs(ctx context.Context, ids []int) ([]model.RiskFlags, error)
	ListAll(ctx context.Context) ([]model.RiskFlags, error)
	Upsert(ctx context.Context, f model.RiskFlags) error
	BulkUpsert(ctx context.Context, risks []model.RiskFlags) (int, error)
}

// AdvisorStore manages advisor accounts and rosters.
type AdvisorStore interface {
	List(ctx context.Context) ([]model.Advisor, error)
	GetByID(ctx context.Context, id int) (*model.Advisor, error)
	GetByEmail(ctx context.Context, email string) (*model.Advisor, error)
	Create(ctx context.Context, a *model.Advisor) error
	Update(ctx context.Context, a *model.Advisor) error
	Delete(ctx context.Context, id int) error
	GetRoster(ctx context.Context, advisorID int) ([]int, error)
	ReplaceRoster(ctx context.Context, advisorID int, ids []int) error
	AddToRoster(ctx context.Context, advisorID, studentID int) error
	RemoveFromRoster(ctx context.Context, advisorID, studentID int) error
}

// PredictionStore keeps students produced by prediction runs.
type PredictionStore interface {
	Create(ctx context.Context, p *model.PredictedStudent) error
	ListByAdvisor(ctx context.Context, advisorID int) ([]model.PredictedStudent, error)
	DeleteByAdvisor(ctx context.Context, advisorID int) (int, error)
}

// AlertStore keeps alert delivery logs.
type AlertStore interface {
	Create(ctx context.Context, l *model.AlertLog) error
	ListByAdvisor(ctx context.Context, advisorID, limit, offset int) ([]model.AlertLog, int, error)
}

// SessionStore tracks the single active session of each advisor.
type SessionStore interface {
	Save(ctx context.Context, advisorID int, jti string, ttl time.Duration) error
	Get(ctx context.Context, advisorID int) (string, error)
	Delete(ctx context.Context, advisorID int) error
}

// AlertEnqueuer hands alert jobs to the background worker.
type AlertEnqueuer interface {
	Enqueue(ctx context.Context, job model.AlertJob) error
	Reserve(ctx context.Context, advisorID, studentID int, window time.Duration) (bool, error)
	Release(ctx context.Context, advisorID, studentID int) error
}

// Predictor scores a student with the external ML service.
type Predictor interface {
	Predict(ctx context.Context, s model.StudentRecord) (model.PredictionResult, error)
}

// Notifier pushes events to an advisor's notification stream.
type Notifier interface {
	Publish(ctx context.Context, advisorID int, n model.Notification) error
}
