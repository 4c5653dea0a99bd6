package service

import (
	"context"
	"database/sql"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/limpopochefs/academy-api/internal/models"
	"github.com/limpopochefs/academy-api/internal/repository"
	appErrors "github.com/limpopochefs/academy-api/pkg/errors"
)

type mockMarkingAttemptRepo struct {
	db       *sqlx.DB
	attempt  *models.AssignmentResult
	marked   struct {
		total   float64
		percent int
		by      string
	}
	moderated struct {
		total float64
	}
	markErr     error
	moderateErr error
	feedback    []string
}

func (m *mockMarkingAttemptRepo) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return m.db.BeginTxx(ctx, opts)
}

func (m *mockMarkingAttemptRepo) FindByID(ctx context.Context, id string) (*models.AssignmentResult, error) {
	if m.attempt != nil && m.attempt.ID == id {
		return m.attempt, nil
	}
	return nil, nil
}

func (m *mockMarkingAttemptRepo) ListByAssignment(ctx context.Context, assignmentID string) ([]models.AssignmentResult, error) {
	if m.attempt == nil {
		return nil, nil
	}
	return []models.AssignmentResult{*m.attempt}, nil
}

func (m *mockMarkingAttemptRepo) MarkWithTx(ctx context.Context, tx *sqlx.Tx, id string, total float64, percent int, markedBy string) error {
	if m.markErr != nil {
		return m.markErr
	}
	m.marked.total = total
	m.marked.percent = percent
	m.marked.by = markedBy
	m.attempt.Status = models.StatusMarked
	return nil
}

func (m *mockMarkingAttemptRepo) ModerateWithTx(ctx context.Context, tx *sqlx.Tx, id string, moderatedTotal float64) error {
	if m.moderateErr != nil {
		return m.moderateErr
	}
	m.moderated.total = moderatedTotal
	m.attempt.Status = models.StatusModerated
	return nil
}

func (m *mockMarkingAttemptRepo) AppendFeedback(ctx context.Context, id, comment string) error {
	m.feedback = append(m.feedback, comment)
	return nil
}

type mockMarkingAnswerRepo struct {
	answers         []models.Answer
	scores          map[string]float64
	moderatedScores map[string]float64
}

func (m *mockMarkingAnswerRepo) ListByAttempt(ctx context.Context, studentID, assignmentID string) ([]models.Answer, error) {
	return m.answers, nil
}

func (m *mockMarkingAnswerRepo) UpdateScoreWithTx(ctx context.Context, tx *sqlx.Tx, answerID string, score float64) error {
	if m.scores == nil {
		m.scores = make(map[string]float64)
	}
	m.scores[answerID] = score
	return nil
}

func (m *mockMarkingAnswerRepo) UpdateModeratedScoreWithTx(ctx context.Context, tx *sqlx.Tx, answerID string, score float64) error {
	if m.moderatedScores == nil {
		m.moderatedScores = make(map[string]float64)
	}
	m.moderatedScores[answerID] = score
	return nil
}

type mockLedgerRepo struct {
	recorded []models.LedgerScore
}

func (m *mockLedgerRepo) RecordScoreWithTx(ctx context.Context, tx *sqlx.Tx, score models.LedgerScore) error {
	m.recorded = append(m.recorded, score)
	return nil
}

type mockModerationRepo struct {
	created *models.AssignmentModeration
}

func (m *mockModerationRepo) CreateWithTx(ctx context.Context, tx *sqlx.Tx, moderation *models.AssignmentModeration) error {
	m.created = moderation
	return nil
}

func (m *mockModerationRepo) ListByAssignment(ctx context.Context, assignmentID string) ([]models.AssignmentModeration, error) {
	if m.created == nil {
		return nil, nil
	}
	return []models.AssignmentModeration{*m.created}, nil
}

type mockNotifier struct {
	marked    int
	moderated int
}

func (m *mockNotifier) ResultMarked(studentID, assignmentID, assignmentTitle string, percent int) {
	m.marked++
}

func (m *mockNotifier) ResultModerated(studentID, assignmentID, assignmentTitle string, percent int) {
	m.moderated++
}

type mockProgressCache struct {
	deleted []string
}

func (m *mockProgressCache) DeleteByPattern(ctx context.Context, pattern string) error {
	m.deleted = append(m.deleted, pattern)
	return nil
}

func newMarkingFixture(t *testing.T) (*MarkingService, *mockMarkingAttemptRepo, *mockMarkingAnswerRepo, *mockLedgerRepo, *mockModerationRepo, *mockNotifier, sqlmock.Sqlmock, func()) {
	rawDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	db := sqlx.NewDb(rawDB, "sqlmock")

	attempts := &mockMarkingAttemptRepo{db: db, attempt: &models.AssignmentResult{
		ID:            "res-1",
		AssignmentID:  "asg-1",
		StudentID:     "stu-1",
		Status:        models.StatusPending,
		OutcomeID:     "out-1",
		CampusID:      "cam-1",
		IntakeGroupID: "ig-1",
	}}
	answers := &mockMarkingAnswerRepo{answers: []models.Answer{
		{ID: "ans-1", QuestionID: "q1", StudentID: "stu-1", AssignmentID: "asg-1"},
		{ID: "ans-2", QuestionID: "q2", StudentID: "stu-1", AssignmentID: "asg-1"},
	}}
	questions := &mockQuestionRepo{questions: []models.Question{
		{ID: "q1", Mark: "60", Type: models.QuestionLong},
		{ID: "q2", Mark: "40", Type: models.QuestionShort},
	}}
	assignments := &mockAssignmentRepo{assignment: &models.Assignment{
		ID: "asg-1", Title: "Knife Skills Test", Type: models.AssignmentTest,
	}}
	ledger := &mockLedgerRepo{}
	moderations := &mockModerationRepo{}
	notifier := &mockNotifier{}
	cache := &mockProgressCache{}

	svc := NewMarkingService(attempts, answers, questions, assignments, ledger, moderations, notifier, cache, nil, nil, zap.NewNop())
	return svc, attempts, answers, ledger, moderations, notifier, mock, func() { rawDB.Close() }
}

func TestMarkComputesPercentAndLedger(t *testing.T) {
	svc, attempts, answers, ledger, _, notifier, mock, cleanup := newMarkingFixture(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectCommit()

	result, err := svc.Mark(context.Background(), "res-1", MarkRequest{Entries: []MarkEntry{
		{AnswerID: "ans-1", Score: 45},
		{AnswerID: "ans-2", Score: 30},
	}}, "staff-1")
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, 75.0, attempts.marked.total)
	assert.Equal(t, 75, attempts.marked.percent)
	assert.Equal(t, "staff-1", attempts.marked.by)
	assert.Equal(t, 45.0, answers.scores["ans-1"])

	require.Len(t, ledger.recorded, 1)
	assert.Equal(t, 75, ledger.recorded[0].Percentage)
	assert.Equal(t, models.AssignmentTest, ledger.recorded[0].AssignmentType)
	assert.Equal(t, "stu-1", ledger.recorded[0].StudentID)
	assert.Equal(t, 1, notifier.marked)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkZeroPossibleAborts(t *testing.T) {
	svc, attempts, _, ledger, _, notifier, _, cleanup := newMarkingFixture(t)
	defer cleanup()

	// Unparseable marks weigh zero, so the possible total collapses.
	svc.questions = &mockQuestionRepo{questions: []models.Question{
		{ID: "q1", Mark: "not-a-number", Type: models.QuestionLong},
		{ID: "q2", Mark: "zero", Type: models.QuestionShort},
	}}

	_, err := svc.Mark(context.Background(), "res-1", MarkRequest{Entries: []MarkEntry{
		{AnswerID: "ans-1", Score: 10},
	}}, "staff-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrComputation.Code, appErrors.FromError(err).Code)
	assert.Equal(t, models.StatusPending, attempts.attempt.Status)
	assert.Empty(t, ledger.recorded)
	assert.Zero(t, notifier.marked)
}

func TestMarkStatusConflict(t *testing.T) {
	svc, attempts, _, _, _, notifier, mock, cleanup := newMarkingFixture(t)
	defer cleanup()

	attempts.markErr = repository.ErrStatusConflict
	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := svc.Mark(context.Background(), "res-1", MarkRequest{Entries: []MarkEntry{
		{AnswerID: "ans-1", Score: 10},
	}}, "staff-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
	assert.Zero(t, notifier.marked)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkUnknownAnswer(t *testing.T) {
	svc, _, _, _, _, _, _, cleanup := newMarkingFixture(t)
	defer cleanup()

	_, err := svc.Mark(context.Background(), "res-1", MarkRequest{Entries: []MarkEntry{
		{AnswerID: "ans-missing", Score: 10},
	}}, "staff-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func intPtr(v int) *int { return &v }

func TestModerateRecordsAuditEntries(t *testing.T) {
	svc, attempts, answers, ledger, moderations, notifier, mock, cleanup := newMarkingFixture(t)
	defer cleanup()

	attempts.attempt.Status = models.StatusMarked
	attempts.attempt.Percent = intPtr(90)
	mock.ExpectBegin()
	mock.ExpectCommit()

	result, err := svc.Moderate(context.Background(), "res-1", ModerateRequest{Entries: []ModerateEntry{
		{AnswerID: "ans-1", ModeratedScore: 50},
		{AnswerID: "ans-2", ModeratedScore: 30},
	}}, "staff-2")
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, 80.0, attempts.moderated.total)
	assert.Equal(t, 50.0, answers.moderatedScores["ans-1"])
	// The marked percent survives moderation; 80 reaches only the ledger.
	require.NotNil(t, attempts.attempt.Percent)
	assert.Equal(t, 90, *attempts.attempt.Percent)

	require.NotNil(t, moderations.created)
	assert.Equal(t, "staff-2", moderations.created.ModeratedBy)
	require.Len(t, moderations.created.Entries, 2)
	assert.Equal(t, "q1", moderations.created.Entries[0].QuestionID)
	assert.Equal(t, "ans-1", moderations.created.Entries[0].AnswerID)

	require.Len(t, ledger.recorded, 1)
	assert.Equal(t, 80, ledger.recorded[0].Percentage)
	assert.Equal(t, 1, notifier.moderated)
	require.NoError(t, mock.ExpectationsWereMet())
}
