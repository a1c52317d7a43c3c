package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stemsi/riskwatch-backend/internal/model"
)

// AlertRepository persists alert delivery logs.
type AlertRepository struct {
	pool *pgxpool.Pool
}

// NewAlertRepository creates a new AlertRepository.
func NewAlertRepository(pool *pgxpool.Pool) *AlertRepository {
	return &AlertRepository{pool: pool}
}

// Create inserts an alert log. A missing ID is generated.
func (r *AlertRepository) Create(ctx context.Context, l *model.AlertLog) error {
	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	id, err := uuid.Parse(l.ID)
	if err != nil {
		return err
	}
	err = r.pool.QueryRow(ctx,
		`INSERT INTO alert_logs (id, advisor_id, student_id, tier, recipient, status, error)
		 VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''))
		 ON CONFLICT (id) DO UPDATE SET status = EXCLUDED.status, error = EXCLUDED.error
		 RETURNING created_at`,
		id, l.AdvisorID, l.StudentID, l.Tier, l.Recipient, l.Status, l.Error,
	).Scan(&l.CreatedAt)
	return mapErr(err)
}

// ListByAdvisor retrieves an advisor's alert logs, newest first, with the total count.
func (r *AlertRepository) ListByAdvisor(ctx context.Context, advisorID, limit, offset int) ([]model.AlertLog, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM alert_logs WHERE advisor_id = $1`, advisorID,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, advisor_id, student_id, tier, recipient, status, COALESCE(error, ''), created_at
		 FROM alert_logs WHERE advisor_id = $1
		 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		advisorID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	logs := []model.AlertLog{}
	for rows.Next() {
		var (
			l  model.AlertLog
			id uuid.UUID
		)
		if err := rows.Scan(&id, &l.AdvisorID, &l.StudentID, &l.Tier, &l.Recipient, &l.Status, &l.Error, &l.CreatedAt); err != nil {
			return nil, 0, err
		}
		l.ID = id.String()
		logs = append(logs, l)
	}
	return logs, total, rows.Err()
}
