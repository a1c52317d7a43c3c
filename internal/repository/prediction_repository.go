package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stemsi/riskwatch-backend/internal/model"
)

// PredictionRepository stores students produced by prediction runs.
type PredictionRepository struct {
	pool *pgxpool.Pool
}

// NewPredictionRepository creates a new PredictionRepository.
func NewPredictionRepository(pool *pgxpool.Pool) *PredictionRepository {
	return &PredictionRepository{pool: pool}
}

// Create inserts a predicted student.
func (r *PredictionRepository) Create(ctx context.Context, p *model.PredictedStudent) error {
	s, f := p.Student, p.Flags
	err := r.pool.QueryRow(ctx,
		`INSERT INTO predicted_students (advisor_id, student_id, name, gender, attendance_rate, study_hours_per_week,
		                                 previous_grade, extracurricular_activities, parental_support, final_grade,
		                                 email, dropout_risk, underperform_risk, dropout_probability, underperform_probability)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NULLIF($11, ''), $12, $13, $14, $15)
		 RETURNING id, created_at`,
		p.AdvisorID, s.StudentID, s.Name, s.Gender, s.AttendanceRate, s.StudyHoursPerWeek,
		s.PreviousGrade, s.ExtracurricularActivities, s.ParentalSupport, s.FinalGrade,
		s.Email, f.DropoutRisk, f.UnderperformRisk, f.DropoutProbability, f.UnderperformProbability,
	).Scan(&p.ID, &p.CreatedAt)
	return mapErr(err)
}

// ListByAdvisor retrieves an advisor's predicted students in insertion order.
func (r *PredictionRepository) ListByAdvisor(ctx context.Context, advisorID int) ([]model.PredictedStudent, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, advisor_id, student_id, name, gender, attendance_rate, study_hours_per_week, previous_grade,
		        extracurricular_activities, parental_support, final_grade, COALESCE(email, ''),
		        dropout_risk, underperform_risk, dropout_probability, underperform_probability, created_at
		 FROM predicted_students WHERE advisor_id = $1 ORDER BY id`, advisorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.PredictedStudent{}
	for rows.Next() {
		var p model.PredictedStudent
		s := &p.Student
		if err := rows.Scan(&p.ID, &p.AdvisorID, &s.StudentID, &s.Name, &s.Gender, &s.AttendanceRate,
			&s.StudyHoursPerWeek, &s.PreviousGrade, &s.ExtracurricularActivities, &s.ParentalSupport,
			&s.FinalGrade, &s.Email, &p.Flags.DropoutRisk, &p.Flags.UnderperformRisk,
			&p.Flags.DropoutProbability, &p.Flags.UnderperformProbability, &p.CreatedAt); err != nil {
			return nil, err
		}
		p.Flags.StudentID = s.StudentID
		out = append(out, p)
	}
	return out, rows.Err()
}

// DeleteByAdvisor clears an advisor's predicted students.
func (r *PredictionRepository) DeleteByAdvisor(ctx context.Context, advisorID int) (int, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM predicted_students WHERE advisor_id = $1`, advisorID)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}
