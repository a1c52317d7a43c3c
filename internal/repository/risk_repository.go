package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stemsi/riskwatch-backend/internal/model"
)

// RiskRepository handles the persisted 0/1 risk flags.
type RiskRepository struct {
	pool *pgxpool.Pool
}

// NewRiskRepository creates a new RiskRepository.
func NewRiskRepository(pool *pgxpool.Pool) *RiskRepository {
	return &RiskRepository{pool: pool}
}

func collectRisks(rows pgx.Rows) ([]model.RiskFlags, error) {
	defer rows.Close()
	risks := []model.RiskFlags{}
	for rows.Next() {
		var f model.RiskFlags
		if err := rows.Scan(&f.StudentID, &f.DropoutRisk, &f.UnderperformRisk); err != nil {
			return nil, err
		}
		risks = append(risks, f)
	}
	return risks, rows.Err()
}

// GetByStudentIDs retrieves risk flags for the given students.
func (r *RiskRepository) GetByStudentIDs(ctx context.Context, ids []int) ([]model.RiskFlags, error) {
	if len(ids) == 0 {
		return []model.RiskFlags{}, nil
	}
	rows, err := r.pool.Query(ctx,
		`SELECT student_id, dropout_risk = 1, underperform_risk = 1
		 FROM risks WHERE student_id = ANY($1) ORDER BY student_id`, ids)
	if err != nil {
		return nil, err
	}
	return collectRisks(rows)
}

// ListAll retrieves every risk row.
func (r *RiskRepository) ListAll(ctx context.Context) ([]model.RiskFlags, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT student_id, dropout_risk = 1, underperform_risk = 1 FROM risks ORDER BY student_id`)
	if err != nil {
		return nil, err
	}
	return collectRisks(rows)
}

// Upsert inserts or replaces the flags of one student.
func (r *RiskRepository) Upsert(ctx context.Context, f model.RiskFlags) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO risks (student_id, dropout_risk, underperform_risk)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (student_id) DO UPDATE SET
		     dropout_risk = EXCLUDED.dropout_risk,
		     underperform_risk = EXCLUDED.underperform_risk,
		     updated_at = CURRENT_TIMESTAMP`,
		f.StudentID, bit(f.DropoutRisk), bit(f.UnderperformRisk),
	)
	return err
}

// BulkUpsert merges a risk snapshot. Duplicate IDs resolve to the last row,
// matching the reconciler.
func (r *RiskRepository) BulkUpsert(ctx context.Context, risks []model.RiskFlags) (int, error) {
	if len(risks) == 0 {
		return 0, nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`CREATE TEMP TABLE staging_risks (seq INTEGER, student_id INTEGER, dropout_risk SMALLINT, underperform_risk SMALLINT) ON COMMIT DROP`,
	); err != nil {
		return 0, fmt.Errorf("create staging: %w", err)
	}

	_, err = tx.CopyFrom(ctx,
		pgx.Identifier{"staging_risks"},
		[]string{"seq", "student_id", "dropout_risk", "underperform_risk"},
		pgx.CopyFromSlice(len(risks), func(i int) ([]interface{}, error) {
			f := risks[i]
			return []interface{}{i, f.StudentID, bit(f.DropoutRisk), bit(f.UnderperformRisk)}, nil
		}),
	)
	if err != nil {
		return 0, fmt.Errorf("copy risks: %w", err)
	}

	tag, err := tx.Exec(ctx,
		`INSERT INTO risks (student_id, dropout_risk, underperform_risk)
		 SELECT DISTINCT ON (student_id) student_id, dropout_risk, underperform_risk
		 FROM staging_risks
		 ORDER BY student_id, seq DESC
		 ON CONFLICT (student_id) DO UPDATE SET
		     dropout_risk = EXCLUDED.dropout_risk,
		     underperform_risk = EXCLUDED.underperform_risk,
		     updated_at = CURRENT_TIMESTAMP`,
	)
	if err != nil {
		return 0, fmt.Errorf("merge risks: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func bit(v bool) int16 {
	if v {
		return 1
	}
	return 0
}
