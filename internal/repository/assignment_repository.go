package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/limpopochefs/academy-api/internal/models"
)

// AssignmentFilter narrows staff assignment listings.
type AssignmentFilter struct {
	CampusID      string
	IntakeGroupID string
	OutcomeID     string
	Type          string
	Page          int
	PageSize      int
}

// AssignmentRepository handles assignment persistence.
type AssignmentRepository struct {
	db *sqlx.DB
}

// NewAssignmentRepository creates a new assignment repository.
func NewAssignmentRepository(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

const assignmentColumns = `a.id, a.title, a.lecturer_id, a.type, a.password, a.available_from,
        a.duration_minutes, a.outcome_id, a.campus_id, a.intake_group_id, a.created_at, a.updated_at`

// FindByID returns a single assignment.
func (r *AssignmentRepository) FindByID(ctx context.Context, id string) (*models.Assignment, error) {
	query := fmt.Sprintf(`SELECT %s FROM assignments a WHERE a.id = $1`, assignmentColumns)
	var assignment models.Assignment
	if err := r.db.GetContext(ctx, &assignment, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("find assignment: %w", err)
	}
	return &assignment, nil
}

// ListForStudent returns assignments visible to a student's campus and intake
// group, with the student's own attempt status joined in.
func (r *AssignmentRepository) ListForStudent(ctx context.Context, studentID, campusID, intakeGroupID string) ([]models.AssignmentSummary, error) {
	const query = `SELECT a.id, a.title, a.lecturer_id, a.outcome_id, a.type, a.available_from, a.duration_minutes,
            ar.status AS attempt_status
        FROM assignments a
        LEFT JOIN assignment_results ar ON ar.assignment_id = a.id AND ar.student_id = $1
        WHERE a.campus_id = $2 AND a.intake_group_id = $3
        ORDER BY a.available_from DESC`
	var summaries []models.AssignmentSummary
	if err := r.db.SelectContext(ctx, &summaries, query, studentID, campusID, intakeGroupID); err != nil {
		return nil, fmt.Errorf("list assignments for student: %w", err)
	}
	for i := range summaries {
		summaries[i].AvailableUntil = summaries[i].AvailableFrom.Add(time.Duration(summaries[i].Duration) * time.Minute)
	}
	return summaries, nil
}

// List returns assignments matching the filter for staff screens.
func (r *AssignmentRepository) List(ctx context.Context, filter AssignmentFilter) ([]models.Assignment, int, error) {
	where := " WHERE 1=1"
	var args []interface{}
	if filter.CampusID != "" {
		where += fmt.Sprintf(" AND a.campus_id = $%d", len(args)+1)
		args = append(args, filter.CampusID)
	}
	if filter.IntakeGroupID != "" {
		where += fmt.Sprintf(" AND a.intake_group_id = $%d", len(args)+1)
		args = append(args, filter.IntakeGroupID)
	}
	if filter.OutcomeID != "" {
		where += fmt.Sprintf(" AND a.outcome_id = $%d", len(args)+1)
		args = append(args, filter.OutcomeID)
	}
	if filter.Type != "" {
		where += fmt.Sprintf(" AND a.type = $%d", len(args)+1)
		args = append(args, filter.Type)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM assignments a"+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count assignments: %w", err)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	query := fmt.Sprintf(`SELECT %s FROM assignments a%s ORDER BY a.available_from DESC LIMIT %d OFFSET %d`,
		assignmentColumns, where, size, (page-1)*size)
	var assignments []models.Assignment
	if err := r.db.SelectContext(ctx, &assignments, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list assignments: %w", err)
	}
	return assignments, total, nil
}

// Create inserts an assignment.
func (r *AssignmentRepository) Create(ctx context.Context, assignment *models.Assignment) error {
	if assignment.ID == "" {
		assignment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	assignment.CreatedAt = now
	assignment.UpdatedAt = now
	const query = `INSERT INTO assignments (id, title, lecturer_id, type, password, available_from,
            duration_minutes, outcome_id, campus_id, intake_group_id, created_at, updated_at)
        VALUES (:id, :title, :lecturer_id, :type, :password, :available_from,
            :duration_minutes, :outcome_id, :campus_id, :intake_group_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, assignment); err != nil {
		return fmt.Errorf("create assignment: %w", err)
	}
	return nil
}

// Update rewrites assignment metadata.
func (r *AssignmentRepository) Update(ctx context.Context, assignment *models.Assignment) error {
	assignment.UpdatedAt = time.Now().UTC()
	const query = `UPDATE assignments
        SET title = :title, lecturer_id = :lecturer_id, type = :type, password = :password,
            available_from = :available_from, duration_minutes = :duration_minutes,
            outcome_id = :outcome_id, campus_id = :campus_id, intake_group_id = :intake_group_id,
            updated_at = :updated_at
        WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, assignment)
	if err != nil {
		return fmt.Errorf("update assignment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update assignment: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes an assignment and its questions.
func (r *AssignmentRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM questions WHERE assignment_id = $1`, id); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("delete assignment questions: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM assignments WHERE id = $1`, id); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("delete assignment: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit assignment delete: %w", err)
	}
	return nil
}
