package service

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/limpopochefs/academy-api/internal/grading"
	"github.com/limpopochefs/academy-api/internal/models"
	"github.com/limpopochefs/academy-api/internal/repository"
	appErrors "github.com/limpopochefs/academy-api/pkg/errors"
)

type markingAttemptRepo interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
	FindByID(ctx context.Context, id string) (*models.AssignmentResult, error)
	ListByAssignment(ctx context.Context, assignmentID string) ([]models.AssignmentResult, error)
	MarkWithTx(ctx context.Context, tx *sqlx.Tx, id string, total float64, percent int, markedBy string) error
	ModerateWithTx(ctx context.Context, tx *sqlx.Tx, id string, moderatedTotal float64) error
	AppendFeedback(ctx context.Context, id, comment string) error
}

type markingAnswerRepo interface {
	ListByAttempt(ctx context.Context, studentID, assignmentID string) ([]models.Answer, error)
	UpdateScoreWithTx(ctx context.Context, tx *sqlx.Tx, answerID string, score float64) error
	UpdateModeratedScoreWithTx(ctx context.Context, tx *sqlx.Tx, answerID string, score float64) error
}

type markingQuestionRepo interface {
	FindByIDs(ctx context.Context, ids []string) (map[string]models.Question, error)
}

type markingAssignmentRepo interface {
	FindByID(ctx context.Context, id string) (*models.Assignment, error)
}

type markingLedgerRepo interface {
	RecordScoreWithTx(ctx context.Context, tx *sqlx.Tx, score models.LedgerScore) error
}

type moderationWriter interface {
	CreateWithTx(ctx context.Context, tx *sqlx.Tx, moderation *models.AssignmentModeration) error
	ListByAssignment(ctx context.Context, assignmentID string) ([]models.AssignmentModeration, error)
}

type resultNotifier interface {
	ResultMarked(studentID, assignmentID, assignmentTitle string, percent int)
	ResultModerated(studentID, assignmentID, assignmentTitle string, percent int)
}

type progressCache interface {
	DeleteByPattern(ctx context.Context, pattern string) error
}

// AttemptDetailView is the marking screen payload: the attempt, its answers
// and the questions they were written against.
type AttemptDetailView struct {
	Attempt   *models.AssignmentResult `json:"attempt"`
	Answers   []models.Answer          `json:"answers"`
	Questions []models.Question        `json:"questions"`
}

// MarkEntry is one answer's confirmed score in a marking payload.
type MarkEntry struct {
	AnswerID string  `json:"answer" validate:"required"`
	Score    float64 `json:"score" validate:"gte=0"`
}

// MarkRequest carries a full marking pass over one attempt.
type MarkRequest struct {
	Entries  []MarkEntry `json:"scores" validate:"required,min=1,dive"`
	Feedback string      `json:"feedback"`
}

// ModerateEntry is one answer's moderated score.
type ModerateEntry struct {
	AnswerID       string  `json:"answer" validate:"required"`
	ModeratedScore float64 `json:"moderatedScore" validate:"gte=0"`
}

// ModerateRequest carries a second marker's pass over a marked attempt.
type ModerateRequest struct {
	Entries []ModerateEntry `json:"moderatedscores" validate:"required,min=1,dive"`
}

// MarkingService confirms and moderates attempt scores. Every write of a
// pass, the ledger upsert included, shares one transaction.
type MarkingService struct {
	attempts    markingAttemptRepo
	answers     markingAnswerRepo
	questions   markingQuestionRepo
	assignments markingAssignmentRepo
	ledger      markingLedgerRepo
	moderations moderationWriter
	notifier    resultNotifier
	cache       progressCache
	signer      imageSigner
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewMarkingService constructs a MarkingService.
func NewMarkingService(attempts markingAttemptRepo, answers markingAnswerRepo, questions markingQuestionRepo, assignments markingAssignmentRepo, ledger markingLedgerRepo, moderations moderationWriter, notifier resultNotifier, cache progressCache, signer imageSigner, validate *validator.Validate, logger *zap.Logger) *MarkingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &MarkingService{
		attempts:    attempts,
		answers:     answers,
		questions:   questions,
		assignments: assignments,
		ledger:      ledger,
		moderations: moderations,
		notifier:    notifier,
		cache:       cache,
		signer:      signer,
		validator:   validate,
		logger:      logger,
	}
}

// Mark confirms scores on a Pending attempt, computes the percentage and
// folds it into the result ledger.
func (s *MarkingService) Mark(ctx context.Context, resultID string, req MarkRequest, markedBy string) (*models.AssignmentResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid marking payload")
	}

	attempt, assignment, answers, err := s.loadPass(ctx, resultID)
	if err != nil {
		return nil, err
	}

	entries := make([]scoredEntry, 0, len(req.Entries))
	for _, entry := range req.Entries {
		entries = append(entries, scoredEntry{entry.AnswerID, entry.Score})
	}
	total, possible, err := s.totals(ctx, answers, entries)
	if err != nil {
		return nil, err
	}
	percent := grading.Percent(total, possible)

	tx, err := s.attempts.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open transaction")
	}
	for _, entry := range req.Entries {
		if err := s.answers.UpdateScoreWithTx(ctx, tx, entry.AnswerID, entry.Score); err != nil {
			tx.Rollback() //nolint:errcheck
			if err == sql.ErrNoRows {
				return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("answer %s not found", entry.AnswerID))
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update answer score")
		}
	}
	if err := s.attempts.MarkWithTx(ctx, tx, resultID, total, percent, markedBy); err != nil {
		tx.Rollback() //nolint:errcheck
		if err == repository.ErrStatusConflict {
			return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "attempt is not pending")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark attempt")
	}
	if err := s.ledger.RecordScoreWithTx(ctx, tx, models.LedgerScore{
		CampusID:       attempt.CampusID,
		IntakeGroupID:  attempt.IntakeGroupID,
		OutcomeID:      attempt.OutcomeID,
		StudentID:      attempt.StudentID,
		AssignmentType: assignment.Type,
		Percentage:     percent,
		Title:          assignment.Title,
	}); err != nil {
		tx.Rollback() //nolint:errcheck
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record ledger score")
	}
	if err := tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit marking")
	}

	if req.Feedback != "" {
		if err := s.attempts.AppendFeedback(ctx, resultID, req.Feedback); err != nil {
			s.logger.Warn("failed to append feedback", zap.String("result_id", resultID), zap.Error(err))
		}
	}
	s.afterPass(ctx, attempt, assignment, percent, false)

	marked, err := s.attempts.FindByID(ctx, resultID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload attempt")
	}
	return marked, nil
}

// Moderate records a second marker's scores on a Marked attempt, writes one
// audit entry per answer and updates the ledger with the moderated
// percentage.
func (s *MarkingService) Moderate(ctx context.Context, resultID string, req ModerateRequest, moderatedBy string) (*models.AssignmentResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid moderation payload")
	}

	attempt, assignment, answers, err := s.loadPass(ctx, resultID)
	if err != nil {
		return nil, err
	}

	entries := make([]scoredEntry, 0, len(req.Entries))
	for _, entry := range req.Entries {
		entries = append(entries, scoredEntry{entry.AnswerID, entry.ModeratedScore})
	}
	total, possible, err := s.totals(ctx, answers, entries)
	if err != nil {
		return nil, err
	}
	percent := grading.Percent(total, possible)

	answersByID := make(map[string]models.Answer, len(answers))
	for _, answer := range answers {
		answersByID[answer.ID] = answer
	}

	moderation := &models.AssignmentModeration{
		AssignmentID: attempt.AssignmentID,
		ResultID:     resultID,
		ModeratedBy:  moderatedBy,
	}
	for _, entry := range req.Entries {
		answer, ok := answersByID[entry.AnswerID]
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("answer %s not found", entry.AnswerID))
		}
		moderation.Entries = append(moderation.Entries, models.ModerationEntry{
			LecturerID:    moderatedBy,
			QuestionID:    answer.QuestionID,
			AnswerID:      answer.ID,
			ModeratedMark: entry.ModeratedScore,
		})
	}

	tx, err := s.attempts.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open transaction")
	}
	for _, entry := range req.Entries {
		if err := s.answers.UpdateModeratedScoreWithTx(ctx, tx, entry.AnswerID, entry.ModeratedScore); err != nil {
			tx.Rollback() //nolint:errcheck
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update moderated score")
		}
	}
	if err := s.attempts.ModerateWithTx(ctx, tx, resultID, total); err != nil {
		tx.Rollback() //nolint:errcheck
		if err == repository.ErrStatusConflict {
			return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "attempt is not marked")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to moderate attempt")
	}
	if err := s.moderations.CreateWithTx(ctx, tx, moderation); err != nil {
		tx.Rollback() //nolint:errcheck
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record moderation")
	}
	if err := s.ledger.RecordScoreWithTx(ctx, tx, models.LedgerScore{
		CampusID:       attempt.CampusID,
		IntakeGroupID:  attempt.IntakeGroupID,
		OutcomeID:      attempt.OutcomeID,
		StudentID:      attempt.StudentID,
		AssignmentType: assignment.Type,
		Percentage:     percent,
		Title:          assignment.Title,
	}); err != nil {
		tx.Rollback() //nolint:errcheck
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record ledger score")
	}
	if err := tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit moderation")
	}

	s.afterPass(ctx, attempt, assignment, percent, true)

	moderated, err := s.attempts.FindByID(ctx, resultID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload attempt")
	}
	return moderated, nil
}

// ListAttempts returns every attempt against an assignment for marking
// screens.
func (s *MarkingService) ListAttempts(ctx context.Context, assignmentID string) ([]models.AssignmentResult, error) {
	attempts, err := s.attempts.ListByAssignment(ctx, assignmentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attempts")
	}
	return attempts, nil
}

// AddFeedback appends one free-text comment to an attempt's feedback list.
func (s *MarkingService) AddFeedback(ctx context.Context, resultID, comment string) error {
	if comment == "" {
		return appErrors.Clone(appErrors.ErrValidation, "feedback comment is required")
	}
	attempt, err := s.attempts.FindByID(ctx, resultID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attempt")
	}
	if attempt == nil {
		return appErrors.Clone(appErrors.ErrNotFound, "attempt not found")
	}
	if err := s.attempts.AppendFeedback(ctx, resultID, comment); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to append feedback")
	}
	return nil
}

// ListModerations returns the moderation records kept against an assignment.
func (s *MarkingService) ListModerations(ctx context.Context, assignmentID string) ([]models.AssignmentModeration, error) {
	moderations, err := s.moderations.ListByAssignment(ctx, assignmentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list moderations")
	}
	return moderations, nil
}

// AttemptDetail loads one attempt with its answers and questions for a
// marking screen. Stored image keys in match options are swapped for signed
// tokens.
func (s *MarkingService) AttemptDetail(ctx context.Context, resultID string) (*AttemptDetailView, error) {
	attempt, err := s.attempts.FindByID(ctx, resultID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attempt")
	}
	if attempt == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "attempt not found")
	}
	answers, err := s.answers.ListByAttempt(ctx, attempt.StudentID, attempt.AssignmentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load answers")
	}

	questionIDs := make([]string, 0, len(answers))
	for _, answer := range answers {
		questionIDs = append(questionIDs, answer.QuestionID)
	}
	byID, err := s.questions.FindByIDs(ctx, questionIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load questions")
	}
	questions := make([]models.Question, 0, len(byID))
	for _, id := range questionIDs {
		question, ok := byID[id]
		if !ok {
			continue
		}
		question.Options = s.signedQuestionOptions(question.Options)
		questions = append(questions, question)
	}

	return &AttemptDetailView{Attempt: attempt, Answers: answers, Questions: questions}, nil
}

func (s *MarkingService) signedQuestionOptions(options models.QuestionOptions) models.QuestionOptions {
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

func (s *MarkingService) loadPass(ctx context.Context, resultID string) (*models.AssignmentResult, *models.Assignment, []models.Answer, error) {
	attempt, err := s.attempts.FindByID(ctx, resultID)
	if err != nil {
		return nil, nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attempt")
	}
	if attempt == nil {
		return nil, nil, nil, appErrors.Clone(appErrors.ErrNotFound, "attempt not found")
	}
	assignment, err := s.assignments.FindByID(ctx, attempt.AssignmentID)
	if err != nil {
		return nil, nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment")
	}
	if assignment == nil {
		return nil, nil, nil, appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
	}
	answers, err := s.answers.ListByAttempt(ctx, attempt.StudentID, attempt.AssignmentID)
	if err != nil {
		return nil, nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load answers")
	}
	return attempt, assignment, answers, nil
}

// scoredEntry is an (answer, score) pair shared by the Mark and Moderate
// total computations.
type scoredEntry struct {
	answerID string
	score    float64
}

// totals folds entry scores into the confirmed total and sums the possible
// total from each entry's question mark. Unparseable marks count zero weight.
// A possible total of zero aborts the pass before anything is written.
func (s *MarkingService) totals(ctx context.Context, answers []models.Answer, entries []scoredEntry) (float64, float64, error) {
	answersByID := make(map[string]models.Answer, len(answers))
	questionIDs := make([]string, 0, len(answers))
	for _, answer := range answers {
		answersByID[answer.ID] = answer
		questionIDs = append(questionIDs, answer.QuestionID)
	}
	questions, err := s.questions.FindByIDs(ctx, questionIDs)
	if err != nil {
		return 0, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load questions")
	}

	var total, possible float64
	for _, entry := range entries {
		answer, ok := answersByID[entry.answerID]
		if !ok {
			return 0, 0, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("answer %s not found", entry.answerID))
		}
		question, ok := questions[answer.QuestionID]
		if !ok {
			return 0, 0, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("question %s not found", answer.QuestionID))
		}
		mark, err := question.MarkValue()
		if err != nil {
			s.logger.Warn("unparseable question mark in marking pass",
				zap.String("question_id", question.ID),
				zap.String("mark", question.Mark))
			mark = 0
		}
		total += entry.score
		possible += mark
	}
	if possible == 0 {
		return 0, 0, appErrors.Clone(appErrors.ErrComputation, "total possible score is zero")
	}
	return total, possible, nil
}

// afterPass fires the post-commit side effects: student notification and
// marking-progress cache invalidation. Failures are logged, never surfaced.
func (s *MarkingService) afterPass(ctx context.Context, attempt *models.AssignmentResult, assignment *models.Assignment, percent int, moderated bool) {
	if s.notifier != nil {
		if moderated {
			s.notifier.ResultModerated(attempt.StudentID, assignment.ID, assignment.Title, percent)
		} else {
			s.notifier.ResultMarked(attempt.StudentID, assignment.ID, assignment.Title, percent)
		}
	}
	if s.cache != nil {
		if err := s.cache.DeleteByPattern(ctx, "marking:progress:"+attempt.CampusID+"*"); err != nil {
			s.logger.Warn("failed to invalidate marking progress cache", zap.Error(err))
		}
	}
}
