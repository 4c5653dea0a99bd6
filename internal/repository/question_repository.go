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

// QuestionRepository handles question persistence.
type QuestionRepository struct {
	db *sqlx.DB
}

// NewQuestionRepository creates a new question repository.
func NewQuestionRepository(db *sqlx.DB) *QuestionRepository {
	return &QuestionRepository{db: db}
}

const questionColumns = `q.id, q.assignment_id, q.text, q.mark, q.type, q.options, q.correct_answer, q.created_at, q.updated_at`

// ListByAssignment returns the questions of an assignment in creation order.
func (r *QuestionRepository) ListByAssignment(ctx context.Context, assignmentID string) ([]models.Question, error) {
	query := fmt.Sprintf(`SELECT %s FROM questions q WHERE q.assignment_id = $1 ORDER BY q.created_at, q.id`, questionColumns)
	var questions []models.Question
	if err := r.db.SelectContext(ctx, &questions, query, assignmentID); err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	return questions, nil
}

// FindByID returns a single question.
func (r *QuestionRepository) FindByID(ctx context.Context, id string) (*models.Question, error) {
	query := fmt.Sprintf(`SELECT %s FROM questions q WHERE q.id = $1`, questionColumns)
	var question models.Question
	if err := r.db.GetContext(ctx, &question, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("find question: %w", err)
	}
	return &question, nil
}

// FindByIDs returns questions keyed by id.
func (r *QuestionRepository) FindByIDs(ctx context.Context, ids []string) (map[string]models.Question, error) {
	if len(ids) == 0 {
		return map[string]models.Question{}, nil
	}
	query, args, err := sqlx.In(fmt.Sprintf(`SELECT %s FROM questions q WHERE q.id IN (?)`, questionColumns), ids)
	if err != nil {
		return nil, fmt.Errorf("build question query: %w", err)
	}
	query = r.db.Rebind(query)
	rows, err := r.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("fetch questions: %w", err)
	}
	defer rows.Close()
	result := make(map[string]models.Question, len(ids))
	for rows.Next() {
		var question models.Question
		if err := rows.StructScan(&question); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		result[question.ID] = question
	}
	return result, rows.Err()
}

// Create inserts a question under an assignment.
func (r *QuestionRepository) Create(ctx context.Context, assignmentID string, question *models.Question) error {
	if question.ID == "" {
		question.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	question.CreatedAt = now
	question.UpdatedAt = now
	const query = `INSERT INTO questions (id, assignment_id, text, mark, type, options, correct_answer, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	if _, err := r.db.ExecContext(ctx, query,
		question.ID, assignmentID, question.Text, question.Mark, question.Type,
		question.Options, question.CorrectAnswer, question.CreatedAt, question.UpdatedAt); err != nil {
		return fmt.Errorf("create question: %w", err)
	}
	return nil
}

// Update rewrites a question's content.
func (r *QuestionRepository) Update(ctx context.Context, question *models.Question) error {
	question.UpdatedAt = time.Now().UTC()
	const query = `UPDATE questions
        SET text = $2, mark = $3, type = $4, options = $5, correct_answer = $6, updated_at = $7
        WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query,
		question.ID, question.Text, question.Mark, question.Type,
		question.Options, question.CorrectAnswer, question.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update question: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update question: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a question.
func (r *QuestionRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM questions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete question: %w", err)
	}
	return nil
}

// CountAttempts reports how many attempts exist against the question's
// assignment. Used to guard edits after students have started.
func (r *QuestionRepository) CountAttempts(ctx context.Context, questionID string) (int, error) {
	const query = `SELECT COUNT(*) FROM assignment_results ar
        JOIN questions q ON q.assignment_id = ar.assignment_id
        WHERE q.id = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, questionID); err != nil {
		return 0, fmt.Errorf("count attempts: %w", err)
	}
	return count, nil
}
