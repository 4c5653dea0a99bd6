package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/limpopochefs/academy-api/internal/models"
)

// StudentRepository handles student persistence.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository creates a new student repository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

const studentColumns = `s.id, s.student_number, s.email, s.password_hash, s.first_name, s.last_name,
        s.active, s.campus_id, s.intake_group_id, s.created_at, s.updated_at`

// FindByID returns a single student.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	query := fmt.Sprintf(`SELECT %s FROM students s WHERE s.id = $1`, studentColumns)
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("find student: %w", err)
	}
	return &student, nil
}

// FindByEmail returns a single student by login email.
func (r *StudentRepository) FindByEmail(ctx context.Context, email string) (*models.Student, error) {
	query := fmt.Sprintf(`SELECT %s FROM students s WHERE LOWER(s.email) = LOWER($1)`, studentColumns)
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, email); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("find student by email: %w", err)
	}
	return &student, nil
}

// ListByIntakeGroup returns the students of one campus intake group.
func (r *StudentRepository) ListByIntakeGroup(ctx context.Context, campusID, intakeGroupID string) ([]models.Student, error) {
	query := fmt.Sprintf(`SELECT %s FROM students s
        WHERE s.campus_id = $1 AND s.intake_group_id = $2
        ORDER BY s.last_name, s.first_name`, studentColumns)
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, campusID, intakeGroupID); err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	return students, nil
}
