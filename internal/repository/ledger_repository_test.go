package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/limpopochefs/academy-api/internal/models"
)

func TestLedgerRepositoryRecordScoreTest(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewLedgerRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO results .+ ON CONFLICT \(campus_id, intake_group_id, outcome_id\)`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("led-1"))
	mock.ExpectExec(`INSERT INTO result_entries \(id, result_id, student_id, test_score, score, percentage, overall_outcome, created_at, updated_at\)`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := db.BeginTxx(context.Background(), nil)
	require.NoError(t, err)
	err = repo.RecordScoreWithTx(context.Background(), tx, models.LedgerScore{
		CampusID:       "cam-1",
		IntakeGroupID:  "ig-1",
		OutcomeID:      "out-1",
		StudentID:      "stu-1",
		AssignmentType: models.AssignmentTest,
		Percentage:     75,
	})
	require.NoError(t, err)
	require.NoError(t, tx.Commit())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerRepositoryRecordScoreTaskColumn(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewLedgerRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO results`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("led-1"))
	mock.ExpectExec(`INSERT INTO result_entries \(id, result_id, student_id, task_score, score, percentage, overall_outcome, created_at, updated_at\)`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := db.BeginTxx(context.Background(), nil)
	require.NoError(t, err)
	err = repo.RecordScoreWithTx(context.Background(), tx, models.LedgerScore{
		CampusID:       "cam-1",
		IntakeGroupID:  "ig-1",
		OutcomeID:      "out-1",
		StudentID:      "stu-1",
		AssignmentType: models.AssignmentTask,
		Percentage:     60,
	})
	require.NoError(t, err)
	require.NoError(t, tx.Commit())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerRepositoryFindByKeyLoadsParticipants(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewLedgerRepository(db)

	head := sqlmock.NewRows([]string{
		"id", "title", "conducted_on", "details", "result_type", "outcome_id", "campus_id", "intake_group_id", "observer",
	}).AddRow("led-1", "Knife Skills", time.Now(), "", models.ResultExamsWell, "out-1", "cam-1", "ig-1", "")
	mock.ExpectQuery(`SELECT .+ FROM results r\s+WHERE r\.campus_id = \$1`).
		WithArgs("cam-1", "ig-1", "out-1").
		WillReturnRows(head)

	entries := sqlmock.NewRows([]string{
		"id", "result_id", "student_id", "score", "test_score", "task_score", "percentage", "notes", "overall_outcome",
	}).
		AddRow("ent-1", "led-1", "stu-1", 0, 75, 0, 75, "", models.OutcomeNotCompetent).
		AddRow("ent-2", "led-1", "stu-2", 0, 80, 0, 80, "", models.OutcomeCompetent)
	mock.ExpectQuery(`SELECT .+ FROM result_entries e WHERE e\.result_id = \$1`).
		WithArgs("led-1").
		WillReturnRows(entries)

	result, err := repo.FindByKey(context.Background(), "cam-1", "ig-1", "out-1")
	require.NoError(t, err)
	require.NotNil(t, result)
	require.Len(t, result.Results, 2)
	require.Equal(t, []string{"stu-1", "stu-2"}, result.Participants)
	require.NoError(t, mock.ExpectationsWereMet())
}
