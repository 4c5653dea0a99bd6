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

// ErrStatusConflict reports a conditional status update that matched no row:
// either the attempt is missing or its status already moved on.
var ErrStatusConflict = fmt.Errorf("attempt status changed concurrently")

// AttemptRepository handles assignment result (attempt) persistence.
type AttemptRepository struct {
	db *sqlx.DB
}

// NewAttemptRepository creates a new attempt repository.
func NewAttemptRepository(db *sqlx.DB) *AttemptRepository {
	return &AttemptRepository{db: db}
}

// BeginTxx starts a transaction for callers coordinating multi-table writes.
func (r *AttemptRepository) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return r.db.BeginTxx(ctx, opts)
}

const attemptColumns = `ar.id, ar.assignment_id, ar.student_id, ar.date_taken, ar.scores, ar.percent,
        ar.moderated_scores, ar.status, ar.marked_by, ar.feedback, ar.outcome_id, ar.campus_id, ar.intake_group_id`

// FindByID returns a single attempt.
func (r *AttemptRepository) FindByID(ctx context.Context, id string) (*models.AssignmentResult, error) {
	query := fmt.Sprintf(`SELECT %s FROM assignment_results ar WHERE ar.id = $1`, attemptColumns)
	var result models.AssignmentResult
	if err := r.db.GetContext(ctx, &result, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("find attempt: %w", err)
	}
	return &result, nil
}

// FindByStudentAssignment returns the attempt for one (student, assignment)
// pair, or nil when the student has not started.
func (r *AttemptRepository) FindByStudentAssignment(ctx context.Context, studentID, assignmentID string) (*models.AssignmentResult, error) {
	query := fmt.Sprintf(`SELECT %s FROM assignment_results ar
        WHERE ar.student_id = $1 AND ar.assignment_id = $2`, attemptColumns)
	var result models.AssignmentResult
	if err := r.db.GetContext(ctx, &result, query, studentID, assignmentID); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("find attempt: %w", err)
	}
	return &result, nil
}

// ListByAssignment returns all attempts against an assignment for marking
// screens, oldest submissions first.
func (r *AttemptRepository) ListByAssignment(ctx context.Context, assignmentID string) ([]models.AssignmentResult, error) {
	query := fmt.Sprintf(`SELECT %s FROM assignment_results ar
        WHERE ar.assignment_id = $1 ORDER BY ar.date_taken`, attemptColumns)
	var results []models.AssignmentResult
	if err := r.db.SelectContext(ctx, &results, query, assignmentID); err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	return results, nil
}

// CreateWithTx inserts a fresh attempt in Starting, inside the caller's
// transaction. The unique (student, assignment) index makes a concurrent
// duplicate Start fail rather than fork the attempt.
func (r *AttemptRepository) CreateWithTx(ctx context.Context, tx *sqlx.Tx, result *models.AssignmentResult) error {
	if result.ID == "" {
		result.ID = uuid.NewString()
	}
	result.DateTaken = time.Now().UTC()
	result.Status = models.StatusStarting
	if result.Feedback == nil {
		result.Feedback = models.StringList{}
	}
	const query = `INSERT INTO assignment_results (id, assignment_id, student_id, date_taken, status,
            feedback, outcome_id, campus_id, intake_group_id)
        VALUES (:id, :assignment_id, :student_id, :date_taken, :status,
            :feedback, :outcome_id, :campus_id, :intake_group_id)`
	if _, err := tx.NamedExecContext(ctx, query, result); err != nil {
		return fmt.Errorf("create attempt: %w", err)
	}
	return nil
}

// TransitionStatus moves an attempt from an expected status to the next one
// in a single conditional update. Returns ErrStatusConflict when the attempt
// is not currently in the expected status.
func (r *AttemptRepository) TransitionStatus(ctx context.Context, id string, from, to models.AttemptStatus) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE assignment_results SET status = $3 WHERE id = $1 AND status = $2`, id, from, to)
	if err != nil {
		return fmt.Errorf("transition attempt status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("transition attempt status: %w", err)
	}
	if affected == 0 {
		return ErrStatusConflict
	}
	return nil
}

// ConcludeWithTx records a final submission: total score and the
// post-submission status (Pending or Terminated). Conditional on the current
// status so two racing submissions cannot both win.
func (r *AttemptRepository) ConcludeWithTx(ctx context.Context, tx *sqlx.Tx, id string, total float64, from []models.AttemptStatus, to models.AttemptStatus) error {
	query, args, err := sqlx.In(
		`UPDATE assignment_results SET scores = ?, status = ? WHERE id = ? AND status IN (?)`,
		total, to, id, from)
	if err != nil {
		return fmt.Errorf("build conclude query: %w", err)
	}
	res, err := tx.ExecContext(ctx, tx.Rebind(query), args...)
	if err != nil {
		return fmt.Errorf("conclude attempt: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("conclude attempt: %w", err)
	}
	if affected == 0 {
		return ErrStatusConflict
	}
	return nil
}

// MarkWithTx confirms marks on a Pending attempt.
func (r *AttemptRepository) MarkWithTx(ctx context.Context, tx *sqlx.Tx, id string, total float64, percent int, markedBy string) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE assignment_results SET scores = $2, percent = $3, marked_by = $4, status = $5
         WHERE id = $1 AND status = $6`,
		id, total, percent, markedBy, models.StatusMarked, models.StatusPending)
	if err != nil {
		return fmt.Errorf("mark attempt: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark attempt: %w", err)
	}
	if affected == 0 {
		return ErrStatusConflict
	}
	return nil
}

// ModerateWithTx records moderated totals on a Marked attempt. The marked
// percent is left untouched; the moderated percentage lives on the ledger.
func (r *AttemptRepository) ModerateWithTx(ctx context.Context, tx *sqlx.Tx, id string, moderatedTotal float64) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE assignment_results SET moderated_scores = $2, status = $3
         WHERE id = $1 AND status = $4`,
		id, moderatedTotal, models.StatusModerated, models.StatusMarked)
	if err != nil {
		return fmt.Errorf("moderate attempt: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("moderate attempt: %w", err)
	}
	if affected == 0 {
		return ErrStatusConflict
	}
	return nil
}

// AppendFeedback adds a staff feedback comment to an attempt.
func (r *AttemptRepository) AppendFeedback(ctx context.Context, id, comment string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE assignment_results SET feedback = feedback || to_jsonb($2::text) WHERE id = $1`,
		id, comment)
	if err != nil {
		return fmt.Errorf("append feedback: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("append feedback: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// MarkingProgress counts concluded attempts against total attempts per
// (campus, outcome) for staff dashboards.
func (r *AttemptRepository) MarkingProgress(ctx context.Context, campusID string) ([]models.MarkingProgress, error) {
	const query = `SELECT ar.campus_id, ar.outcome_id,
            COUNT(*) FILTER (WHERE ar.status IN ('Marked', 'Moderated', 'Terminated')) AS marked,
            COUNT(*) AS total
        FROM assignment_results ar
        WHERE ar.campus_id = $1
        GROUP BY ar.campus_id, ar.outcome_id
        ORDER BY ar.outcome_id`
	var progress []models.MarkingProgress
	if err := r.db.SelectContext(ctx, &progress, query, campusID); err != nil {
		return nil, fmt.Errorf("marking progress: %w", err)
	}
	return progress, nil
}
