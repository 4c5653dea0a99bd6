package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/limpopochefs/academy-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestAttemptRepositoryFindByStudentAssignment(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttemptRepository(db)

	rows := sqlmock.NewRows([]string{
		"id", "assignment_id", "student_id", "date_taken", "scores", "percent",
		"moderated_scores", "status", "marked_by", "feedback", "outcome_id", "campus_id", "intake_group_id",
	}).AddRow("res-1", "asg-1", "stu-1", time.Now(), nil, nil, nil, models.StatusStarting, nil, []byte("[]"), "out-1", "cam-1", "ig-1")
	mock.ExpectQuery(`SELECT .+ FROM assignment_results ar\s+WHERE ar\.student_id = \$1 AND ar\.assignment_id = \$2`).
		WithArgs("stu-1", "asg-1").
		WillReturnRows(rows)

	result, err := repo.FindByStudentAssignment(context.Background(), "stu-1", "asg-1")
	require.NoError(t, err)
	require.NotNil(t, result)
	require.Equal(t, models.StatusStarting, result.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAttemptRepositoryFindByStudentAssignmentMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttemptRepository(db)

	mock.ExpectQuery(`SELECT .+ FROM assignment_results ar`).
		WithArgs("stu-1", "asg-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	result, err := repo.FindByStudentAssignment(context.Background(), "stu-1", "asg-1")
	require.NoError(t, err)
	require.Nil(t, result)
}

func TestAttemptRepositoryTransitionStatus(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttemptRepository(db)

	mock.ExpectExec(`UPDATE assignment_results SET status = \$3 WHERE id = \$1 AND status = \$2`).
		WithArgs("res-1", models.StatusStarting, models.StatusWriting).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.TransitionStatus(context.Background(), "res-1", models.StatusStarting, models.StatusWriting)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAttemptRepositoryTransitionStatusConflict(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttemptRepository(db)

	mock.ExpectExec(`UPDATE assignment_results SET status = \$3`).
		WithArgs("res-1", models.StatusStarting, models.StatusWriting).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.TransitionStatus(context.Background(), "res-1", models.StatusStarting, models.StatusWriting)
	require.ErrorIs(t, err, ErrStatusConflict)
}

func TestAttemptRepositoryMarkWithTxConflict(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttemptRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE assignment_results SET scores = \$2, percent = \$3, marked_by = \$4, status = \$5`).
		WithArgs("res-1", 75.0, 75, "staff-1", models.StatusMarked, models.StatusPending).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	tx, err := repo.BeginTxx(context.Background(), nil)
	require.NoError(t, err)
	err = repo.MarkWithTx(context.Background(), tx, "res-1", 75.0, 75, "staff-1")
	require.ErrorIs(t, err, ErrStatusConflict)
	require.NoError(t, tx.Rollback())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAttemptRepositoryModerateWithTxKeepsPercent(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttemptRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE assignment_results SET moderated_scores = \$2, status = \$3\s+WHERE id = \$1 AND status = \$4`).
		WithArgs("res-1", 80.0, models.StatusModerated, models.StatusMarked).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := repo.BeginTxx(context.Background(), nil)
	require.NoError(t, err)
	err = repo.ModerateWithTx(context.Background(), tx, "res-1", 80.0)
	require.NoError(t, err)
	require.NoError(t, tx.Commit())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAttemptRepositoryMarkingProgress(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttemptRepository(db)

	rows := sqlmock.NewRows([]string{"campus_id", "outcome_id", "marked", "total"}).
		AddRow("cam-1", "out-1", 3, 5).
		AddRow("cam-1", "out-2", 1, 1)
	mock.ExpectQuery(`SELECT ar\.campus_id, ar\.outcome_id`).
		WithArgs("cam-1").
		WillReturnRows(rows)

	progress, err := repo.MarkingProgress(context.Background(), "cam-1")
	require.NoError(t, err)
	require.Len(t, progress, 2)
	require.Equal(t, 3, progress[0].Marked)
	require.Equal(t, 5, progress[0].Total)
}
