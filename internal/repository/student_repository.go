package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stemsi/riskwatch-backend/internal/model"
)

const studentColumns = `student_id, name, gender, attendance_rate, study_hours_per_week, previous_grade,
	extracurricular_activities, parental_support, final_grade, COALESCE(email, '')`

// StudentRepository handles student data access.
type StudentRepository struct {
	pool *pgxpool.Pool
}

// NewStudentRepository creates a new StudentRepository.
func NewStudentRepository(pool *pgxpool.Pool) *StudentRepository {
	return &StudentRepository{pool: pool}
}

func scanStudent(row pgx.Row) (model.StudentRecord, error) {
	var s model.StudentRecord
	err := row.Scan(&s.StudentID, &s.Name, &s.Gender, &s.AttendanceRate, &s.StudyHoursPerWeek,
		&s.PreviousGrade, &s.ExtracurricularActivities, &s.ParentalSupport, &s.FinalGrade, &s.Email)
	return s, err
}

func collectStudents(rows pgx.Rows) ([]model.StudentRecord, error) {
	defer rows.Close()
	students := []model.StudentRecord{}
	for rows.Next() {
		s, err := scanStudent(rows)
		if err != nil {
			return nil, err
		}
		students = append(students, s)
	}
	return students, rows.Err()
}

// GetByID retrieves a student by StudentID.
func (r *StudentRepository) GetByID(ctx context.Context, id int) (model.StudentRecord, error) {
	s, err := scanStudent(r.pool.QueryRow(ctx,
		`SELECT `+studentColumns+` FROM students WHERE student_id = $1`, id))
	return s, mapErr(err)
}

// GetByIDs retrieves the students whose IDs are in ids, ordered by StudentID.
// Unknown IDs are silently absent from the result.
func (r *StudentRepository) GetByIDs(ctx context.Context, ids []int) ([]model.StudentRecord, error) {
	if len(ids) == 0 {
		return []model.StudentRecord{}, nil
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+studentColumns+` FROM students WHERE student_id = ANY($1) ORDER BY student_id`, ids)
	if err != nil {
		return nil, err
	}
	return collectStudents(rows)
}

// ListAll retrieves every student ordered by StudentID.
func (r *StudentRepository) ListAll(ctx context.Context) ([]model.StudentRecord, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+studentColumns+` FROM students ORDER BY student_id`)
	if err != nil {
		return nil, err
	}
	return collectStudents(rows)
}

// Upsert inserts or replaces a single student.
func (r *StudentRepository) Upsert(ctx context.Context, s model.StudentRecord) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO students (student_id, name, gender, attendance_rate, study_hours_per_week, previous_grade,
		                       extracurricular_activities, parental_support, final_grade, email)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NULLIF($10, ''))
		 ON CONFLICT (student_id) DO UPDATE SET
		     name = EXCLUDED.name, gender = EXCLUDED.gender, attendance_rate = EXCLUDED.attendance_rate,
		     study_hours_per_week = EXCLUDED.study_hours_per_week, previous_grade = EXCLUDED.previous_grade,
		     extracurricular_activities = EXCLUDED.extracurricular_activities,
		     parental_support = EXCLUDED.parental_support, final_grade = EXCLUDED.final_grade,
		     email = EXCLUDED.email, updated_at = CURRENT_TIMESTAMP`,
		s.StudentID, s.Name, s.Gender, s.AttendanceRate, s.StudyHoursPerWeek, s.PreviousGrade,
		s.ExtracurricularActivities, s.ParentalSupport, s.FinalGrade, s.Email,
	)
	return err
}

// BulkUpsert loads students through COPY into a staging table and merges them
// in one transaction. When an ID repeats, the later row wins.
func (r *StudentRepository) BulkUpsert(ctx context.Context, students []model.StudentRecord) (int, error) {
	if len(students) == 0 {
		return 0, nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`CREATE TEMP TABLE staging_students (LIKE students INCLUDING DEFAULTS, seq INTEGER) ON COMMIT DROP`,
	); err != nil {
		return 0, fmt.Errorf("create staging: %w", err)
	}

	_, err = tx.CopyFrom(ctx,
		pgx.Identifier{"staging_students"},
		[]string{"seq", "student_id", "name", "gender", "attendance_rate", "study_hours_per_week",
			"previous_grade", "extracurricular_activities", "parental_support", "final_grade", "email"},
		pgx.CopyFromSlice(len(students), func(i int) ([]interface{}, error) {
			s := students[i]
			var email interface{}
			if s.Email != "" {
				email = s.Email
			}
			return []interface{}{i, s.StudentID, s.Name, string(s.Gender), s.AttendanceRate, s.StudyHoursPerWeek,
				s.PreviousGrade, s.ExtracurricularActivities, string(s.ParentalSupport), s.FinalGrade, email}, nil
		}),
	)
	if err != nil {
		return 0, fmt.Errorf("copy students: %w", err)
	}

	tag, err := tx.Exec(ctx,
		`INSERT INTO students (student_id, name, gender, attendance_rate, study_hours_per_week, previous_grade,
		                       extracurricular_activities, parental_support, final_grade, email)
		 SELECT DISTINCT ON (student_id) student_id, name, gender, attendance_rate, study_hours_per_week,
		        previous_grade, extracurricular_activities, parental_support, final_grade, email
		 FROM staging_students
		 ORDER BY student_id, seq DESC
		 ON CONFLICT (student_id) DO UPDATE SET
		     name = EXCLUDED.name, gender = EXCLUDED.gender, attendance_rate = EXCLUDED.attendance_rate,
		     study_hours_per_week = EXCLUDED.study_hours_per_week, previous_grade = EXCLUDED.previous_grade,
		     extracurricular_activities = EXCLUDED.extracurricular_activities,
		     parental_support = EXCLUDED.parental_support, final_grade = EXCLUDED.final_grade,
		     email = EXCLUDED.email, updated_at = CURRENT_TIMESTAMP`,
	)
	if err != nil {
		return 0, fmt.Errorf("merge students: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

// Delete removes a student and its risk row.
func (r *StudentRepository) Delete(ctx context.Context, id int) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `DELETE FROM students WHERE student_id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	if _, err := tx.Exec(ctx, `DELETE FROM risks WHERE student_id = $1`, id); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
