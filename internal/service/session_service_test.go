package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/limpopochefs/academy-api/internal/models"
	appErrors "github.com/limpopochefs/academy-api/pkg/errors"
)

type mockAssignmentRepo struct {
	assignment *models.Assignment
	summaries  []models.AssignmentSummary
}

func (m *mockAssignmentRepo) FindByID(ctx context.Context, id string) (*models.Assignment, error) {
	if m.assignment != nil && m.assignment.ID == id {
		return m.assignment, nil
	}
	return nil, nil
}

func (m *mockAssignmentRepo) ListForStudent(ctx context.Context, studentID, campusID, intakeGroupID string) ([]models.AssignmentSummary, error) {
	return m.summaries, nil
}

type mockQuestionRepo struct {
	questions []models.Question
}

func (m *mockQuestionRepo) ListByAssignment(ctx context.Context, assignmentID string) ([]models.Question, error) {
	return m.questions, nil
}

func (m *mockQuestionRepo) FindByIDs(ctx context.Context, ids []string) (map[string]models.Question, error) {
	result := make(map[string]models.Question)
	for _, q := range m.questions {
		for _, id := range ids {
			if q.ID == id {
				result[id] = q
			}
		}
	}
	return result, nil
}

type mockAnswerRepo struct {
	saved        map[string]models.Answer
	emptyCreated []string
}

func (m *mockAnswerRepo) ListByAttempt(ctx context.Context, studentID, assignmentID string) ([]models.Answer, error) {
	var answers []models.Answer
	for _, answer := range m.saved {
		answers = append(answers, answer)
	}
	return answers, nil
}

func (m *mockAnswerRepo) CreateEmptyWithTx(ctx context.Context, tx *sqlx.Tx, studentID, assignmentID string, questionIDs []string) ([]string, error) {
	m.emptyCreated = append(m.emptyCreated, questionIDs...)
	return questionIDs, nil
}

func (m *mockAnswerRepo) Upsert(ctx context.Context, answer *models.Answer) error {
	if m.saved == nil {
		m.saved = make(map[string]models.Answer)
	}
	m.saved[answer.QuestionID] = *answer
	return nil
}

func (m *mockAnswerRepo) UpsertScoredWithTx(ctx context.Context, tx *sqlx.Tx, answer *models.Answer) error {
	return m.Upsert(ctx, answer)
}

type mockAttemptRepo struct {
	db        *sqlx.DB
	attempt   *models.AssignmentResult
	created   *models.AssignmentResult
	concluded struct {
		total  float64
		status models.AttemptStatus
	}
	transitionErr error
}

func (m *mockAttemptRepo) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return m.db.BeginTxx(ctx, opts)
}

func (m *mockAttemptRepo) FindByStudentAssignment(ctx context.Context, studentID, assignmentID string) (*models.AssignmentResult, error) {
	return m.attempt, nil
}

func (m *mockAttemptRepo) FindByID(ctx context.Context, id string) (*models.AssignmentResult, error) {
	if m.attempt != nil && m.attempt.ID == id {
		return m.attempt, nil
	}
	return nil, nil
}

func (m *mockAttemptRepo) CreateWithTx(ctx context.Context, tx *sqlx.Tx, result *models.AssignmentResult) error {
	result.ID = "res-new"
	m.created = result
	return nil
}

func (m *mockAttemptRepo) TransitionStatus(ctx context.Context, id string, from, to models.AttemptStatus) error {
	if m.transitionErr != nil {
		return m.transitionErr
	}
	m.attempt.Status = to
	return nil
}

func (m *mockAttemptRepo) ConcludeWithTx(ctx context.Context, tx *sqlx.Tx, id string, total float64, from []models.AttemptStatus, to models.AttemptStatus) error {
	m.concluded.total = total
	m.concluded.status = to
	if m.attempt != nil {
		m.attempt.Status = to
	}
	return nil
}

type mockStudentRepo struct {
	student *models.Student
}

func (m *mockStudentRepo) FindByID(ctx context.Context, id string) (*models.Student, error) {
	return m.student, nil
}

func newSessionFixture(t *testing.T) (*SessionService, *mockAssignmentRepo, *mockQuestionRepo, *mockAnswerRepo, *mockAttemptRepo, sqlmock.Sqlmock, func()) {
	rawDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	db := sqlx.NewDb(rawDB, "sqlmock")

	assignments := &mockAssignmentRepo{assignment: &models.Assignment{
		ID:              "asg-1",
		Title:           "Knife Skills Test",
		Type:            models.AssignmentTest,
		Password:        "s3cret",
		AvailableFrom:   time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC),
		DurationMinutes: 60,
		OutcomeID:       "out-1",
		CampusID:        "cam-1",
		IntakeGroupID:   "ig-1",
	}}
	questions := &mockQuestionRepo{questions: []models.Question{
		{ID: "q1", Mark: "5", Type: models.QuestionSingleWord, CorrectAnswer: models.JSONValue(`"paris"`)},
		{ID: "q2", Mark: "5", Type: models.QuestionTrueFalse, CorrectAnswer: models.JSONValue(`"True"`)},
	}}
	answers := &mockAnswerRepo{}
	attempts := &mockAttemptRepo{db: db}
	students := &mockStudentRepo{student: &models.Student{
		ID: "stu-1", CampusID: "cam-1", IntakeGroupID: "ig-1", Active: true,
	}}

	svc := NewSessionService(assignments, questions, answers, attempts, students, nil, nil, nil, nil, zap.NewNop())
	svc.now = func() time.Time { return time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC) }

	return svc, assignments, questions, answers, attempts, mock, func() { rawDB.Close() }
}

func TestSessionStartCreatesAttempt(t *testing.T) {
	svc, _, _, answers, attempts, mock, cleanup := newSessionFixture(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectCommit()

	resp, err := svc.Start(context.Background(), "stu-1", "asg-1", "s3cret")
	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, "res-new", resp.AssignmentResultID)
	assert.Equal(t, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), resp.Assignment.AvailableUntil)

	require.NotNil(t, attempts.created)
	assert.Equal(t, "cam-1", attempts.created.CampusID)
	assert.Equal(t, "ig-1", attempts.created.IntakeGroupID)
	assert.Equal(t, "out-1", attempts.created.OutcomeID)
	assert.Equal(t, models.StatusStarting, attempts.created.Status)
	assert.Equal(t, []string{"q1", "q2"}, answers.emptyCreated)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionStartOutsideWindow(t *testing.T) {
	svc, _, _, _, _, _, cleanup := newSessionFixture(t)
	defer cleanup()
	svc.now = func() time.Time { return time.Date(2024, 5, 1, 11, 0, 0, 0, time.UTC) }

	_, err := svc.Start(context.Background(), "stu-1", "asg-1", "s3cret")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotAvailable.Code, appErrors.FromError(err).Code)
}

func TestSessionStartWrongPassword(t *testing.T) {
	svc, _, _, _, _, _, cleanup := newSessionFixture(t)
	defer cleanup()

	_, err := svc.Start(context.Background(), "stu-1", "asg-1", "nope")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrWrongPassword.Code, appErrors.FromError(err).Code)
}

func TestSessionStartReentry(t *testing.T) {
	svc, assignments, _, _, attempts, _, cleanup := newSessionFixture(t)
	defer cleanup()

	// A test still in Starting may be re-entered.
	attempts.attempt = &models.AssignmentResult{ID: "res-1", Status: models.StatusStarting}
	resp, err := svc.Start(context.Background(), "stu-1", "asg-1", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "res-1", resp.AssignmentResultID)

	// Once writing began, a test is locked.
	attempts.attempt.Status = models.StatusWriting
	_, err = svc.Start(context.Background(), "stu-1", "asg-1", "s3cret")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrAlreadyStarted.Code, appErrors.FromError(err).Code)

	// Tasks are always re-enterable.
	assignments.assignment.Type = models.AssignmentTask
	resp, err = svc.Start(context.Background(), "stu-1", "asg-1", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "res-1", resp.AssignmentResultID)
}

func TestSessionStartWritingStripsCorrectAnswers(t *testing.T) {
	svc, _, _, answers, attempts, _, cleanup := newSessionFixture(t)
	defer cleanup()

	attempts.attempt = &models.AssignmentResult{ID: "res-1", Status: models.StatusStarting}
	answers.saved = map[string]models.Answer{
		"q1": {QuestionID: "q1", Answer: models.JSONValue(`"draft"`)},
	}

	resp, err := svc.StartWriting(context.Background(), "stu-1", "asg-1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusWriting, attempts.attempt.Status)
	require.Len(t, resp.Questions, 2)

	for _, question := range resp.Questions {
		if question.ID == "q1" {
			assert.Equal(t, models.JSONValue(`"draft"`), question.Answer)
		}
	}
}

func TestSessionSubmitGradesAndConcludes(t *testing.T) {
	svc, _, _, _, attempts, mock, cleanup := newSessionFixture(t)
	defer cleanup()

	attempts.attempt = &models.AssignmentResult{ID: "res-1", Status: models.StatusWriting}
	mock.ExpectBegin()
	mock.ExpectCommit()

	resp, err := svc.Submit(context.Background(), "stu-1", "asg-1", []models.SubmittedAnswer{
		{QuestionID: "q1", Answer: models.JSONValue(`"Paris"`)},
		{QuestionID: "q2", Answer: models.JSONValue(`"False"`)},
	})
	require.NoError(t, err)
	assert.Equal(t, 5.0, resp.TotalScore)
	assert.Equal(t, models.StatusPending, attempts.concluded.status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionSubmitSkipsUnknownQuestion(t *testing.T) {
	svc, _, _, answers, attempts, mock, cleanup := newSessionFixture(t)
	defer cleanup()

	attempts.attempt = &models.AssignmentResult{ID: "res-1", Status: models.StatusWriting}
	mock.ExpectBegin()
	mock.ExpectCommit()

	resp, err := svc.Submit(context.Background(), "stu-1", "asg-1", []models.SubmittedAnswer{
		{QuestionID: "q1", Answer: models.JSONValue(`"paris"`)},
		{QuestionID: "q-gone", Answer: models.JSONValue(`"x"`)},
	})
	require.NoError(t, err)
	assert.Equal(t, 5.0, resp.TotalScore)
	_, savedUnknown := answers.saved["q-gone"]
	assert.False(t, savedUnknown)
}

func TestSessionTerminate(t *testing.T) {
	svc, _, _, _, attempts, mock, cleanup := newSessionFixture(t)
	defer cleanup()

	attempts.attempt = &models.AssignmentResult{ID: "res-1", Status: models.StatusWriting}
	mock.ExpectBegin()
	mock.ExpectCommit()

	_, err := svc.Terminate(context.Background(), "stu-1", "asg-1", nil)
	require.NoError(t, err)
	assert.Equal(t, models.StatusTerminated, attempts.concluded.status)
}

func TestSessionTerminateGradesSavedAnswers(t *testing.T) {
	svc, _, _, answers, attempts, mock, cleanup := newSessionFixture(t)
	defer cleanup()

	attempts.attempt = &models.AssignmentResult{ID: "res-1", Status: models.StatusWriting}
	answers.saved = map[string]models.Answer{
		"q1": {QuestionID: "q1", Answer: models.JSONValue(`"Paris"`)},
	}
	mock.ExpectBegin()
	mock.ExpectCommit()

	// A forced cut with no submission batch must still grade the autosaves.
	resp, err := svc.Terminate(context.Background(), "stu-1", "asg-1", nil)
	require.NoError(t, err)
	assert.Equal(t, 5.0, resp.TotalScore)
	assert.Equal(t, 5.0, attempts.concluded.total)
	assert.Equal(t, models.StatusTerminated, attempts.concluded.status)
}

func TestSessionSubmitAnswerRequiresWriting(t *testing.T) {
	svc, _, _, _, attempts, _, cleanup := newSessionFixture(t)
	defer cleanup()

	attempts.attempt = &models.AssignmentResult{ID: "res-1", Status: models.StatusPending}
	err := svc.SubmitAnswer(context.Background(), "stu-1", "asg-1", models.SubmittedAnswer{
		QuestionID: "q1", Answer: models.JSONValue(`"late"`),
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
}
