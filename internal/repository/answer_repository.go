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

// AnswerRepository handles answer persistence.
type AnswerRepository struct {
	db *sqlx.DB
}

// NewAnswerRepository creates a new answer repository.
func NewAnswerRepository(db *sqlx.DB) *AnswerRepository {
	return &AnswerRepository{db: db}
}

const answerColumns = `an.id, an.student_id, an.assignment_id, an.question_id, an.answer,
        an.match_answers, an.scores, an.moderated_scores, an.answered_at`

// ListByAttempt returns the answers of one (student, assignment) pair in
// question order.
func (r *AnswerRepository) ListByAttempt(ctx context.Context, studentID, assignmentID string) ([]models.Answer, error) {
	query := fmt.Sprintf(`SELECT %s FROM answers an
        JOIN questions q ON q.id = an.question_id
        WHERE an.student_id = $1 AND an.assignment_id = $2
        ORDER BY q.created_at, q.id`, answerColumns)
	var answers []models.Answer
	if err := r.db.SelectContext(ctx, &answers, query, studentID, assignmentID); err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}
	return answers, nil
}

// FindByID returns a single answer.
func (r *AnswerRepository) FindByID(ctx context.Context, id string) (*models.Answer, error) {
	query := fmt.Sprintf(`SELECT %s FROM answers an WHERE an.id = $1`, answerColumns)
	var answer models.Answer
	if err := r.db.GetContext(ctx, &answer, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("find answer: %w", err)
	}
	return &answer, nil
}

// CreateEmptyWithTx inserts one empty answer per question for a fresh
// attempt, inside the caller's transaction.
func (r *AnswerRepository) CreateEmptyWithTx(ctx context.Context, tx *sqlx.Tx, studentID, assignmentID string, questionIDs []string) ([]string, error) {
	const query = `INSERT INTO answers (id, student_id, assignment_id, question_id, answer, match_answers, answered_at)
        VALUES ($1, $2, $3, $4, 'null'::jsonb, '[]'::jsonb, $5)
        ON CONFLICT (student_id, assignment_id, question_id) DO NOTHING`
	now := time.Now().UTC()
	ids := make([]string, 0, len(questionIDs))
	for _, questionID := range questionIDs {
		id := uuid.NewString()
		if _, err := tx.ExecContext(ctx, query, id, studentID, assignmentID, questionID, now); err != nil {
			return nil, fmt.Errorf("create empty answer: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Upsert saves a student's answer for one question. Scores are never written
// here; grading owns them.
func (r *AnswerRepository) Upsert(ctx context.Context, answer *models.Answer) error {
	if answer.ID == "" {
		answer.ID = uuid.NewString()
	}
	answer.AnsweredAt = time.Now().UTC()
	const query = `INSERT INTO answers (id, student_id, assignment_id, question_id, answer, match_answers, answered_at)
        VALUES (:id, :student_id, :assignment_id, :question_id, :answer, :match_answers, :answered_at)
        ON CONFLICT (student_id, assignment_id, question_id)
        DO UPDATE SET answer = EXCLUDED.answer, match_answers = EXCLUDED.match_answers, answered_at = EXCLUDED.answered_at`
	if _, err := r.db.NamedExecContext(ctx, query, answer); err != nil {
		return fmt.Errorf("upsert answer: %w", err)
	}
	return nil
}

// UpsertScoredWithTx saves an answer together with its auto-graded score as
// part of a final submission transaction. A nil score leaves the column null
// (free-text types awaiting manual marks).
func (r *AnswerRepository) UpsertScoredWithTx(ctx context.Context, tx *sqlx.Tx, answer *models.Answer) error {
	if answer.ID == "" {
		answer.ID = uuid.NewString()
	}
	answer.AnsweredAt = time.Now().UTC()
	const query = `INSERT INTO answers (id, student_id, assignment_id, question_id, answer, match_answers, scores, answered_at)
        VALUES (:id, :student_id, :assignment_id, :question_id, :answer, :match_answers, :scores, :answered_at)
        ON CONFLICT (student_id, assignment_id, question_id)
        DO UPDATE SET answer = EXCLUDED.answer, match_answers = EXCLUDED.match_answers,
            scores = EXCLUDED.scores, answered_at = EXCLUDED.answered_at`
	if _, err := tx.NamedExecContext(ctx, query, answer); err != nil {
		return fmt.Errorf("upsert scored answer: %w", err)
	}
	return nil
}

// UpdateScoreWithTx sets the marker-confirmed score on one answer.
func (r *AnswerRepository) UpdateScoreWithTx(ctx context.Context, tx *sqlx.Tx, answerID string, score float64) error {
	res, err := tx.ExecContext(ctx, `UPDATE answers SET scores = $2 WHERE id = $1`, answerID, score)
	if err != nil {
		return fmt.Errorf("update answer score: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update answer score: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// UpdateModeratedScoreWithTx sets the moderated score on one answer.
func (r *AnswerRepository) UpdateModeratedScoreWithTx(ctx context.Context, tx *sqlx.Tx, answerID string, score float64) error {
	res, err := tx.ExecContext(ctx, `UPDATE answers SET moderated_scores = $2 WHERE id = $1`, answerID, score)
	if err != nil {
		return fmt.Errorf("update moderated score: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update moderated score: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
