package repository

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stemsi/riskwatch-backend/internal/model"
)

// advisorSelect returns advisors with their roster aggregated into an array.
const advisorSelect = `
	SELECT a.id, a.email, a.advisor_name, a.password_hash, a.role, a.created_at, a.updated_at,
	       COALESCE(array_agg(s.student_id ORDER BY s.student_id) FILTER (WHERE s.student_id IS NOT NULL), '{}')
	FROM advisors a
	LEFT JOIN advisor_students s ON s.advisor_id = a.id`

// AdvisorRepository handles advisor and roster data access.
type AdvisorRepository struct {
	pool *pgxpool.Pool
}

// NewAdvisorRepository creates a new AdvisorRepository.
func NewAdvisorRepository(pool *pgxpool.Pool) *AdvisorRepository {
	return &AdvisorRepository{pool: pool}
}

func scanAdvisor(row pgx.Row) (*model.Advisor, error) {
	a := &model.Advisor{}
	err := row.Scan(&a.ID, &a.Email, &a.Name, &a.PasswordHash, &a.Role, &a.CreatedAt, &a.UpdatedAt, &a.Students)
	if err != nil {
		return nil, mapErr(err)
	}
	return a, nil
}

// List retrieves all advisors ordered by ID.
func (r *AdvisorRepository) List(ctx context.Context) ([]model.Advisor, error) {
	rows, err := r.pool.Query(ctx, advisorSelect+` GROUP BY a.id ORDER BY a.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	advisors := []model.Advisor{}
	for rows.Next() {
		a, err := scanAdvisor(rows)
		if err != nil {
			return nil, err
		}
		advisors = append(advisors, *a)
	}
	return advisors, rows.Err()
}

// GetByID retrieves an advisor by ID.
func (r *AdvisorRepository) GetByID(ctx context.Context, id int) (*model.Advisor, error) {
	return scanAdvisor(r.pool.QueryRow(ctx, advisorSelect+` WHERE a.id = $1 GROUP BY a.id`, id))
}

// GetByEmail retrieves an advisor by email, case-insensitively.
func (r *AdvisorRepository) GetByEmail(ctx context.Context, email string) (*model.Advisor, error) {
	return scanAdvisor(r.pool.QueryRow(ctx,
		advisorSelect+` WHERE a.email = $1 GROUP BY a.id`, strings.ToLower(strings.TrimSpace(email))))
}

// Create inserts a new advisor together with its initial roster.
func (r *AdvisorRepository) Create(ctx context.Context, a *model.Advisor) error {
	a.Email = strings.ToLower(strings.TrimSpace(a.Email))

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO advisors (email, advisor_name, password_hash, role)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at, updated_at`,
		a.Email, a.Name, a.PasswordHash, a.Role,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return mapErr(err)
	}

	if err := insertRoster(ctx, tx, a.ID, a.Students); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Update modifies an advisor's profile. An empty PasswordHash keeps the
// stored one.
func (r *AdvisorRepository) Update(ctx context.Context, a *model.Advisor) error {
	a.Email = strings.ToLower(strings.TrimSpace(a.Email))

	err := r.pool.QueryRow(ctx,
		`UPDATE advisors
		 SET email = $1, advisor_name = $2, role = $3,
		     password_hash = COALESCE(NULLIF($4, ''), password_hash),
		     updated_at = CURRENT_TIMESTAMP
		 WHERE id = $5
		 RETURNING created_at, updated_at`,
		a.Email, a.Name, a.Role, a.PasswordHash, a.ID,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
	return mapErr(err)
}

// Delete removes an advisor. The roster and predictions cascade.
func (r *AdvisorRepository) Delete(ctx context.Context, id int) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM advisors WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GetRoster returns the StudentIDs assigned to an advisor.
func (r *AdvisorRepository) GetRoster(ctx context.Context, advisorID int) ([]int, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT student_id FROM advisor_students WHERE advisor_id = $1 ORDER BY student_id`, advisorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []int{}
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ReplaceRoster swaps an advisor's roster for ids in one transaction.
func (r *AdvisorRepository) ReplaceRoster(ctx context.Context, advisorID int, ids []int) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var locked int
	if err := tx.QueryRow(ctx,
		`SELECT id FROM advisors WHERE id = $1 FOR UPDATE`, advisorID,
	).Scan(&locked); err != nil {
		return mapErr(err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM advisor_students WHERE advisor_id = $1`, advisorID); err != nil {
		return err
	}
	if err := insertRoster(ctx, tx, advisorID, ids); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// AddToRoster assigns one student to an advisor. Adding an existing entry is a no-op.
func (r *AdvisorRepository) AddToRoster(ctx context.Context, advisorID, studentID int) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO advisor_students (advisor_id, student_id) VALUES ($1, $2)
		 ON CONFLICT DO NOTHING`, advisorID, studentID)
	return mapErr(err)
}

// RemoveFromRoster unassigns one student from an advisor.
func (r *AdvisorRepository) RemoveFromRoster(ctx context.Context, advisorID, studentID int) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM advisor_students WHERE advisor_id = $1 AND student_id = $2`, advisorID, studentID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func insertRoster(ctx context.Context, tx pgx.Tx, advisorID int, ids []int) error {
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return nil
	}
	_, err := tx.CopyFrom(ctx,
		pgx.Identifier{"advisor_students"},
		[]string{"advisor_id", "student_id"},
		pgx.CopyFromSlice(len(ids), func(i int) ([]interface{}, error) {
			return []interface{}{advisorID, ids[i]}, nil
		}),
	)
	return mapErr(err)
}

func uniqueIDs(ids []int) []int {
	seen := make(map[int]struct{}, len(ids))
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
