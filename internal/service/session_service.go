package service

import (
	"context"
	"database/sql"
	"math/rand"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/limpopochefs/academy-api/internal/grading"
	"github.com/limpopochefs/academy-api/internal/models"
	"github.com/limpopochefs/academy-api/internal/repository"
	appErrors "github.com/limpopochefs/academy-api/pkg/errors"
)

type sessionAssignmentRepo interface {
	FindByID(ctx context.Context, id string) (*models.Assignment, error)
	ListForStudent(ctx context.Context, studentID, campusID, intakeGroupID string) ([]models.AssignmentSummary, error)
}

type sessionQuestionRepo interface {
	ListByAssignment(ctx context.Context, assignmentID string) ([]models.Question, error)
	FindByIDs(ctx context.Context, ids []string) (map[string]models.Question, error)
}

type sessionAnswerRepo interface {
	ListByAttempt(ctx context.Context, studentID, assignmentID string) ([]models.Answer, error)
	CreateEmptyWithTx(ctx context.Context, tx *sqlx.Tx, studentID, assignmentID string, questionIDs []string) ([]string, error)
	Upsert(ctx context.Context, answer *models.Answer) error
	UpsertScoredWithTx(ctx context.Context, tx *sqlx.Tx, answer *models.Answer) error
}

type sessionAttemptRepo interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
	FindByStudentAssignment(ctx context.Context, studentID, assignmentID string) (*models.AssignmentResult, error)
	FindByID(ctx context.Context, id string) (*models.AssignmentResult, error)
	CreateWithTx(ctx context.Context, tx *sqlx.Tx, result *models.AssignmentResult) error
	TransitionStatus(ctx context.Context, id string, from, to models.AttemptStatus) error
	ConcludeWithTx(ctx context.Context, tx *sqlx.Tx, id string, total float64, from []models.AttemptStatus, to models.AttemptStatus) error
}

type sessionStudentRepo interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

type sessionNotifier interface {
	AttemptTerminated(studentID, assignmentID, assignmentTitle string)
}

type imageSigner interface {
	Generate(key string) (string, time.Time, error)
}

// SessionService drives a student's run through an assignment, from the start
// gate to final submission.
type SessionService struct {
	assignments sessionAssignmentRepo
	questions   sessionQuestionRepo
	answers     sessionAnswerRepo
	attempts    sessionAttemptRepo
	students    sessionStudentRepo
	notifier    sessionNotifier
	signer      imageSigner
	engine      *grading.Engine
	validator   *validator.Validate
	logger      *zap.Logger

	// now is the window-check clock, swappable in tests.
	now func() time.Time
}

// NewSessionService constructs a SessionService.
func NewSessionService(assignments sessionAssignmentRepo, questions sessionQuestionRepo, answers sessionAnswerRepo, attempts sessionAttemptRepo, students sessionStudentRepo, notifier sessionNotifier, signer imageSigner, engine *grading.Engine, validate *validator.Validate, logger *zap.Logger) *SessionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if engine == nil {
		engine = grading.NewEngine(logger)
	}
	return &SessionService{
		assignments: assignments,
		questions:   questions,
		answers:     answers,
		attempts:    attempts,
		students:    students,
		notifier:    notifier,
		signer:      signer,
		engine:      engine,
		validator:   validate,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// ListAssignments returns the assignments visible to a student with their
// computed deadlines and the student's own progress.
func (s *SessionService) ListAssignments(ctx context.Context, studentID string) ([]models.AssignmentSummary, error) {
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if student == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	summaries, err := s.assignments.ListForStudent(ctx, studentID, student.CampusID, student.IntakeGroupID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assignments")
	}
	return summaries, nil
}

// Start is the entry gate: time window, password, and re-entry rules. A fresh
// pass creates the attempt in Starting with one empty answer per question.
func (s *SessionService) Start(ctx context.Context, studentID, assignmentID, password string) (*models.StartResponse, error) {
	assignment, err := s.assignments.FindByID(ctx, assignmentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment")
	}
	if assignment == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
	}

	if !assignment.WithinWindow(s.now()) {
		return nil, appErrors.Clone(appErrors.ErrNotAvailable, "assignment is not available at this time")
	}
	if password != assignment.Password {
		return nil, appErrors.Clone(appErrors.ErrWrongPassword, "incorrect assignment password")
	}

	existing, err := s.attempts.FindByStudentAssignment(ctx, studentID, assignmentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attempt")
	}
	if existing != nil {
		// Tests may only be re-entered before writing began. Tasks are
		// untimed and always re-enterable.
		if existing.Status == models.StatusStarting || assignment.Type == models.AssignmentTask {
			return startResponse(existing.ID, assignment), nil
		}
		return nil, appErrors.Clone(appErrors.ErrAlreadyStarted, "assignment already started")
	}

	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if student == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}

	questions, err := s.questions.ListByAssignment(ctx, assignmentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load questions")
	}
	questionIDs := make([]string, len(questions))
	for i, q := range questions {
		questionIDs[i] = q.ID
	}

	// Campus, intake group and outcome are frozen on the attempt so a later
	// transfer does not rewrite history.
	attempt := &models.AssignmentResult{
		AssignmentID:  assignmentID,
		StudentID:     studentID,
		Status:        models.StatusStarting,
		OutcomeID:     assignment.OutcomeID,
		CampusID:      student.CampusID,
		IntakeGroupID: student.IntakeGroupID,
	}

	tx, err := s.attempts.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open transaction")
	}
	if err := s.attempts.CreateWithTx(ctx, tx, attempt); err != nil {
		tx.Rollback() //nolint:errcheck
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create attempt")
	}
	if _, err := s.answers.CreateEmptyWithTx(ctx, tx, studentID, assignmentID, questionIDs); err != nil {
		tx.Rollback() //nolint:errcheck
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create answers")
	}
	if err := tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit attempt")
	}

	s.logger.Info("attempt started",
		zap.String("student_id", studentID),
		zap.String("assignment_id", assignmentID),
		zap.String("result_id", attempt.ID))
	return startResponse(attempt.ID, assignment), nil
}

// StartWriting moves a Starting attempt into Writing and hands back the
// questions: shuffled per call, correct answers stripped, saved answers
// merged in.
func (s *SessionService) StartWriting(ctx context.Context, studentID, assignmentID string) (*models.WritingResponse, error) {
	attempt, err := s.attempts.FindByStudentAssignment(ctx, studentID, assignmentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attempt")
	}
	if attempt == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "attempt not found")
	}

	if err := s.attempts.TransitionStatus(ctx, attempt.ID, models.StatusStarting, models.StatusWriting); err != nil {
		if err != repository.ErrStatusConflict {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to start writing")
		}
		// Conflict: the attempt already left Starting. Untimed tasks may
		// resume writing; anything else is a hard stop.
		current, err := s.attempts.FindByID(ctx, attempt.ID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload attempt")
		}
		if current == nil || current.Status != models.StatusWriting {
			return nil, appErrors.Clone(appErrors.ErrAlreadyStarted, "assignment already started")
		}
		assignment, err := s.assignments.FindByID(ctx, assignmentID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment")
		}
		if assignment == nil || assignment.Type != models.AssignmentTask {
			return nil, appErrors.Clone(appErrors.ErrAlreadyStarted, "assignment already started")
		}
	}

	questions, err := s.questions.ListByAssignment(ctx, assignmentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load questions")
	}
	saved, err := s.answers.ListByAttempt(ctx, studentID, assignmentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load answers")
	}
	savedByQuestion := make(map[string]models.Answer, len(saved))
	for _, answer := range saved {
		savedByQuestion[answer.QuestionID] = answer
	}

	// Per-call shuffle; the order is deliberately not persisted.
	rand.Shuffle(len(questions), func(i, j int) {
		questions[i], questions[j] = questions[j], questions[i]
	})

	writing := make([]models.WritingQuestion, 0, len(questions))
	for _, q := range questions {
		wq := models.WritingQuestion{
			ID:      q.ID,
			Text:    q.Text,
			Mark:    q.Mark,
			Type:    q.Type,
			Options: s.signedOptions(q.Options),
		}
		if answer, ok := savedByQuestion[q.ID]; ok {
			wq.Answer = answer.Answer
			wq.MatchAnswers = answer.MatchAnswers
		}
		writing = append(writing, wq)
	}

	return &models.WritingResponse{ResultID: attempt.ID, Questions: writing}, nil
}

// SubmitAnswer autosaves one answer while the attempt is in Writing. No
// scoring happens here.
func (s *SessionService) SubmitAnswer(ctx context.Context, studentID, assignmentID string, submitted models.SubmittedAnswer) error {
	if err := s.validator.Struct(submitted); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid answer payload")
	}

	attempt, err := s.attempts.FindByStudentAssignment(ctx, studentID, assignmentID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attempt")
	}
	if attempt == nil {
		return appErrors.Clone(appErrors.ErrNotFound, "attempt not found")
	}
	if attempt.Status != models.StatusWriting {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "attempt is not in writing")
	}

	answer := &models.Answer{
		StudentID:    studentID,
		AssignmentID: assignmentID,
		QuestionID:   submitted.QuestionID,
		Answer:       submitted.Answer,
		MatchAnswers: submitted.MatchAnswers,
	}
	if err := s.answers.Upsert(ctx, answer); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save answer")
	}
	return nil
}

// Submit finalises the attempt: grades every submitted answer and moves the
// attempt to Pending. Percent stays unset until staff mark it.
func (s *SessionService) Submit(ctx context.Context, studentID, assignmentID string, submissions []models.SubmittedAnswer) (*models.SubmitResponse, error) {
	return s.conclude(ctx, studentID, assignmentID, submissions,
		[]models.AttemptStatus{models.StatusWriting}, models.StatusPending)
}

// Terminate force-submits an attempt, e.g. on proctor action or timeout. Same
// scoring as Submit but the attempt lands in Terminated, a dead end. With no
// submission batch the autosaved answers are graded instead, so a forced cut
// never zeroes out work the student already wrote.
func (s *SessionService) Terminate(ctx context.Context, studentID, assignmentID string, submissions []models.SubmittedAnswer) (*models.SubmitResponse, error) {
	res, err := s.conclude(ctx, studentID, assignmentID, submissions,
		[]models.AttemptStatus{models.StatusStarting, models.StatusWriting}, models.StatusTerminated)
	if err != nil {
		return nil, err
	}
	if s.notifier != nil {
		title := assignmentID
		if assignment, err := s.assignments.FindByID(ctx, assignmentID); err == nil && assignment != nil {
			title = assignment.Title
		}
		s.notifier.AttemptTerminated(studentID, assignmentID, title)
	}
	return res, nil
}

func (s *SessionService) conclude(ctx context.Context, studentID, assignmentID string, submissions []models.SubmittedAnswer, from []models.AttemptStatus, to models.AttemptStatus) (*models.SubmitResponse, error) {
	attempt, err := s.attempts.FindByStudentAssignment(ctx, studentID, assignmentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attempt")
	}
	if attempt == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "attempt not found")
	}

	// No batch means a forced conclusion: fall back to whatever the student
	// autosaved while writing.
	if submissions == nil {
		saved, err := s.answers.ListByAttempt(ctx, studentID, assignmentID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load saved answers")
		}
		for _, answer := range saved {
			submissions = append(submissions, models.SubmittedAnswer{
				QuestionID:   answer.QuestionID,
				Answer:       answer.Answer,
				MatchAnswers: answer.MatchAnswers,
			})
		}
	}

	questionIDs := make([]string, 0, len(submissions))
	for _, submission := range submissions {
		questionIDs = append(questionIDs, submission.QuestionID)
	}
	questions, err := s.questions.FindByIDs(ctx, questionIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load questions")
	}

	tx, err := s.attempts.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open transaction")
	}

	var total float64
	for _, submission := range submissions {
		question, ok := questions[submission.QuestionID]
		if !ok {
			// A stale question id must not abort the batch.
			s.logger.Warn("submitted answer references unknown question",
				zap.String("question_id", submission.QuestionID),
				zap.String("assignment_id", assignmentID))
			continue
		}

		answer := &models.Answer{
			StudentID:    studentID,
			AssignmentID: assignmentID,
			QuestionID:   submission.QuestionID,
			Answer:       submission.Answer,
			MatchAnswers: submission.MatchAnswers,
		}
		score := s.engine.Grade(&question, submission.Answer, submission.MatchAnswers)
		if score.Graded {
			value := score.Value
			answer.Scores = &value
			total += value
		}
		if err := s.answers.UpsertScoredWithTx(ctx, tx, answer); err != nil {
			tx.Rollback() //nolint:errcheck
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save graded answer")
		}
	}

	if err := s.attempts.ConcludeWithTx(ctx, tx, attempt.ID, total, from, to); err != nil {
		tx.Rollback() //nolint:errcheck
		if err == repository.ErrStatusConflict {
			return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "attempt already submitted")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to conclude attempt")
	}
	if err := tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit submission")
	}

	s.logger.Info("attempt concluded",
		zap.String("result_id", attempt.ID),
		zap.String("status", string(to)),
		zap.Float64("total", total))
	return &models.SubmitResponse{ResultID: attempt.ID, TotalScore: total}, nil
}

// signedOptions swaps stored image keys for short-lived signed tokens so
// raw object keys never reach a student.
func (s *SessionService) signedOptions(options models.QuestionOptions) models.QuestionOptions {
	if s.signer == nil || len(options) == 0 {
		return options
	}
	signed := make(models.QuestionOptions, len(options))
	copy(signed, options)
	for i := range signed {
		if key := signed[i].ColumnAImageKey; key != "" {
			if token, _, err := s.signer.Generate(key); err == nil {
				signed[i].ColumnAImageKey = token
			}
		}
		if key := signed[i].ColumnBImageKey; key != "" {
			if token, _, err := s.signer.Generate(key); err == nil {
				signed[i].ColumnBImageKey = token
			}
		}
	}
	return signed
}

func startResponse(resultID string, assignment *models.Assignment) *models.StartResponse {
	resp := &models.StartResponse{AssignmentResultID: resultID}
	resp.Assignment.ID = assignment.ID
	resp.Assignment.Title = assignment.Title
	resp.Assignment.Duration = assignment.DurationMinutes
	resp.Assignment.AvailableFrom = assignment.AvailableFrom
	resp.Assignment.AvailableUntil = assignment.AvailableUntil()
	return resp
}
