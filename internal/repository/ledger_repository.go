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

// LedgerRepository maintains the result ledgers: one head row per
// (campus, intake group, outcome) with one entry row per student.
type LedgerRepository struct {
	db *sqlx.DB
}

// NewLedgerRepository creates a new ledger repository.
func NewLedgerRepository(db *sqlx.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// RecordScoreWithTx folds one student's confirmed percentage into the ledger
// for their (campus, intakeGroup, outcome), inside the caller's marking
// transaction. Both upserts are single conditional statements, so concurrent
// markings of different students against the same ledger interleave safely.
func (r *LedgerRepository) RecordScoreWithTx(ctx context.Context, tx *sqlx.Tx, score models.LedgerScore) error {
	now := time.Now().UTC()

	const headQuery = `INSERT INTO results (id, title, conducted_on, result_type, outcome_id, campus_id, intake_group_id, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
        ON CONFLICT (campus_id, intake_group_id, outcome_id)
        DO UPDATE SET updated_at = EXCLUDED.updated_at
        RETURNING id`
	var resultID string
	if err := tx.GetContext(ctx, &resultID, headQuery,
		uuid.NewString(), score.Title, now, models.ResultExamsWell,
		score.OutcomeID, score.CampusID, score.IntakeGroupID, now); err != nil {
		return fmt.Errorf("upsert ledger head: %w", err)
	}

	scoreColumn := "task_score"
	if score.AssignmentType == models.AssignmentTest {
		scoreColumn = "test_score"
	}
	entryQuery := fmt.Sprintf(`INSERT INTO result_entries (id, result_id, student_id, %s, score, percentage, overall_outcome, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $4, $4, $5, $6, $6)
        ON CONFLICT (result_id, student_id)
        DO UPDATE SET %s = EXCLUDED.%s, score = EXCLUDED.score, percentage = EXCLUDED.percentage, updated_at = EXCLUDED.updated_at`,
		scoreColumn, scoreColumn, scoreColumn)
	if _, err := tx.ExecContext(ctx, entryQuery,
		uuid.NewString(), resultID, score.StudentID, score.Percentage, models.OutcomeNotCompetent, now); err != nil {
		return fmt.Errorf("upsert ledger entry: %w", err)
	}
	return nil
}

// FindByKey returns the ledger for one (campus, intakeGroup, outcome), with
// entries and participants loaded. Nil when no score has been recorded yet.
func (r *LedgerRepository) FindByKey(ctx context.Context, campusID, intakeGroupID, outcomeID string) (*models.Result, error) {
	const query = `SELECT r.id, r.title, r.conducted_on, r.details, r.result_type, r.outcome_id,
            r.campus_id, r.intake_group_id, r.observer
        FROM results r
        WHERE r.campus_id = $1 AND r.intake_group_id = $2 AND r.outcome_id = $3`
	var result models.Result
	if err := r.db.GetContext(ctx, &result, query, campusID, intakeGroupID, outcomeID); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("find ledger: %w", err)
	}
	if err := r.loadEntries(ctx, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// FindByID returns one ledger document with entries loaded.
func (r *LedgerRepository) FindByID(ctx context.Context, id string) (*models.Result, error) {
	const query = `SELECT r.id, r.title, r.conducted_on, r.details, r.result_type, r.outcome_id,
            r.campus_id, r.intake_group_id, r.observer
        FROM results r WHERE r.id = $1`
	var result models.Result
	if err := r.db.GetContext(ctx, &result, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("find ledger: %w", err)
	}
	if err := r.loadEntries(ctx, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ListByCampus returns ledger heads for a campus without entries.
func (r *LedgerRepository) ListByCampus(ctx context.Context, campusID string) ([]models.Result, error) {
	const query = `SELECT r.id, r.title, r.conducted_on, r.details, r.result_type, r.outcome_id,
            r.campus_id, r.intake_group_id, r.observer
        FROM results r WHERE r.campus_id = $1 ORDER BY r.conducted_on DESC`
	var results []models.Result
	if err := r.db.SelectContext(ctx, &results, query, campusID); err != nil {
		return nil, fmt.Errorf("list ledgers: %w", err)
	}
	return results, nil
}

// UpdateEntryOutcome sets the competency verdict and notes on one student's
// ledger row.
func (r *LedgerRepository) UpdateEntryOutcome(ctx context.Context, resultID, studentID string, outcome models.OverallOutcome, notes string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE result_entries SET overall_outcome = $3, notes = $4, updated_at = $5
         WHERE result_id = $1 AND student_id = $2`,
		resultID, studentID, outcome, notes, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update ledger entry: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update ledger entry: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *LedgerRepository) loadEntries(ctx context.Context, result *models.Result) error {
	const query = `SELECT e.id, e.result_id, e.student_id, e.score, e.test_score, e.task_score,
            e.percentage, e.notes, e.overall_outcome
        FROM result_entries e WHERE e.result_id = $1 ORDER BY e.student_id`
	if err := r.db.SelectContext(ctx, &result.Results, query, result.ID); err != nil {
		return fmt.Errorf("load ledger entries: %w", err)
	}
	result.Participants = make([]string, 0, len(result.Results))
	for _, entry := range result.Results {
		result.Participants = append(result.Participants, entry.StudentID)
	}
	return nil
}
