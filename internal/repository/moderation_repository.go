package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/limpopochefs/academy-api/internal/models"
)

// ModerationRepository stores moderation audit records.
type ModerationRepository struct {
	db *sqlx.DB
}

// NewModerationRepository creates a new moderation repository.
func NewModerationRepository(db *sqlx.DB) *ModerationRepository {
	return &ModerationRepository{db: db}
}

// CreateWithTx writes a moderation record and its per-answer entries inside
// the caller's moderation transaction.
func (r *ModerationRepository) CreateWithTx(ctx context.Context, tx *sqlx.Tx, moderation *models.AssignmentModeration) error {
	if moderation.ID == "" {
		moderation.ID = uuid.NewString()
	}
	moderation.CreatedAt = time.Now().UTC()
	const headQuery = `INSERT INTO assignment_moderations (id, assignment_id, assignment_result_id, moderated_by, created_at)
        VALUES (:id, :assignment_id, :assignment_result_id, :moderated_by, :created_at)`
	if _, err := tx.NamedExecContext(ctx, headQuery, moderation); err != nil {
		return fmt.Errorf("create moderation: %w", err)
	}

	const entryQuery = `INSERT INTO moderation_entries (id, moderation_id, lecturer_id, question_id, answer_id, moderated_mark, date)
        VALUES (:id, :moderation_id, :lecturer_id, :question_id, :answer_id, :moderated_mark, :date)`
	for i := range moderation.Entries {
		if moderation.Entries[i].ID == "" {
			moderation.Entries[i].ID = uuid.NewString()
		}
		moderation.Entries[i].ModerationID = moderation.ID
		if moderation.Entries[i].Date.IsZero() {
			moderation.Entries[i].Date = moderation.CreatedAt
		}
		if _, err := tx.NamedExecContext(ctx, entryQuery, moderation.Entries[i]); err != nil {
			return fmt.Errorf("create moderation entry: %w", err)
		}
	}
	return nil
}

// ListByAssignment returns moderation records for an assignment with entries
// loaded, newest first.
func (r *ModerationRepository) ListByAssignment(ctx context.Context, assignmentID string) ([]models.AssignmentModeration, error) {
	const query = `SELECT m.id, m.assignment_id, m.assignment_result_id, m.moderated_by, m.created_at
        FROM assignment_moderations m
        WHERE m.assignment_id = $1 ORDER BY m.created_at DESC`
	var moderations []models.AssignmentModeration
	if err := r.db.SelectContext(ctx, &moderations, query, assignmentID); err != nil {
		return nil, fmt.Errorf("list moderations: %w", err)
	}
	for i := range moderations {
		const entriesQuery = `SELECT e.id, e.moderation_id, e.lecturer_id, e.question_id, e.answer_id, e.moderated_mark, e.date
            FROM moderation_entries e WHERE e.moderation_id = $1 ORDER BY e.date`
		if err := r.db.SelectContext(ctx, &moderations[i].Entries, entriesQuery, moderations[i].ID); err != nil {
			return nil, fmt.Errorf("load moderation entries: %w", err)
		}
	}
	return moderations, nil
}
