package service

import (
	"context"
	"fmt"
	"path"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/limpopochefs/academy-api/internal/models"
	appErrors "github.com/limpopochefs/academy-api/pkg/errors"
	"github.com/limpopochefs/academy-api/pkg/storage"
)

type questionRepo interface {
	ListByAssignment(ctx context.Context, assignmentID string) ([]models.Question, error)
	FindByID(ctx context.Context, id string) (*models.Question, error)
	Create(ctx context.Context, assignmentID string, question *models.Question) error
	Update(ctx context.Context, question *models.Question) error
	Delete(ctx context.Context, id string) error
	CountAttempts(ctx context.Context, questionID string) (int, error)
}

type questionAssignmentRepo interface {
	FindByID(ctx context.Context, id string) (*models.Assignment, error)
}

// QuestionRequest is the authoring payload for creating or updating a
// question.
type QuestionRequest struct {
	Text          string                 `json:"text" validate:"required"`
	Mark          string                 `json:"mark" validate:"required,numeric"`
	Type          models.QuestionType    `json:"type" validate:"required,oneof=SingleWord Short Long TrueFalse Match MultipleChoice"`
	Options       models.QuestionOptions `json:"options"`
	CorrectAnswer models.JSONValue       `json:"correctAnswer"`
}

// QuestionService manages question authoring, including match-column image
// uploads served through signed URLs.
type QuestionService struct {
	questions   questionRepo
	assignments questionAssignmentRepo
	store       *storage.ObjectStore
	signer      *storage.SignedURLSigner
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewQuestionService constructs a QuestionService.
func NewQuestionService(questions questionRepo, assignments questionAssignmentRepo, store *storage.ObjectStore, signer *storage.SignedURLSigner, validate *validator.Validate, logger *zap.Logger) *QuestionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &QuestionService{
		questions:   questions,
		assignments: assignments,
		store:       store,
		signer:      signer,
		validator:   validate,
		logger:      logger,
	}
}

// List returns an assignment's questions with image keys resolved to signed
// URLs.
func (s *QuestionService) List(ctx context.Context, assignmentID string) ([]models.Question, error) {
	questions, err := s.questions.ListByAssignment(ctx, assignmentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list questions")
	}
	for i := range questions {
		s.signOptionImages(&questions[i])
	}
	return questions, nil
}

// Create adds a question to an assignment.
func (s *QuestionService) Create(ctx context.Context, assignmentID string, req QuestionRequest) (*models.Question, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid question payload")
	}
	assignment, err := s.assignments.FindByID(ctx, assignmentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment")
	}
	if assignment == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
	}

	question := &models.Question{
		Text:          req.Text,
		Mark:          req.Mark,
		Type:          req.Type,
		Options:       req.Options,
		CorrectAnswer: req.CorrectAnswer,
	}
	if err := s.questions.Create(ctx, assignmentID, question); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create question")
	}
	return question, nil
}

// Update rewrites a question. Editing after students have submitted is
// rejected since existing answers were graded against the old content.
func (s *QuestionService) Update(ctx context.Context, questionID string, req QuestionRequest) (*models.Question, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid question payload")
	}
	question, err := s.questions.FindByID(ctx, questionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load question")
	}
	if question == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "question not found")
	}
	attempts, err := s.questions.CountAttempts(ctx, questionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count attempts")
	}
	if attempts > 0 {
		return nil, appErrors.Clone(appErrors.ErrConflict, "question has attempts and can no longer be edited")
	}

	question.Text = req.Text
	question.Mark = req.Mark
	question.Type = req.Type
	question.Options = req.Options
	question.CorrectAnswer = req.CorrectAnswer
	if err := s.questions.Update(ctx, question); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update question")
	}
	return question, nil
}

// Delete removes a question that has no attempts against it.
func (s *QuestionService) Delete(ctx context.Context, questionID string) error {
	attempts, err := s.questions.CountAttempts(ctx, questionID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count attempts")
	}
	if attempts > 0 {
		return appErrors.Clone(appErrors.ErrConflict, "question has attempts and can no longer be deleted")
	}
	if err := s.questions.Delete(ctx, questionID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete question")
	}
	return nil
}

// UploadImage stores a match-column image and returns its object key for use
// in question options.
func (s *QuestionService) UploadImage(ctx context.Context, filename string, data []byte, contentType string) (string, error) {
	if s.store == nil {
		return "", appErrors.Clone(appErrors.ErrInternal, "object storage is not configured")
	}
	key := fmt.Sprintf("questions/%s/%s%s", time.Now().UTC().Format("2006/01"), uuid.NewString(), path.Ext(filename))
	if _, err := s.store.Put(key, data, contentType); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store image")
	}
	return key, nil
}

// SignedImageURL returns a short-lived token URL for one stored image key.
func (s *QuestionService) SignedImageURL(key string) (string, time.Time, error) {
	if s.signer == nil {
		return "", time.Time{}, appErrors.Clone(appErrors.ErrInternal, "url signing is not configured")
	}
	token, expiresAt, err := s.signer.Generate(key)
	if err != nil {
		return "", time.Time{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign url")
	}
	return token, expiresAt, nil
}

// signOptionImages swaps stored image keys for signed tokens on the way out.
func (s *QuestionService) signOptionImages(question *models.Question) {
	if s.signer == nil {
		return
	}
	for i := range question.Options {
		if key := question.Options[i].ColumnAImageKey; key != "" {
			if token, _, err := s.signer.Generate(key); err == nil {
				question.Options[i].ColumnAImageKey = token
			}
		}
		if key := question.Options[i].ColumnBImageKey; key != "" {
			if token, _, err := s.signer.Generate(key); err == nil {
				question.Options[i].ColumnBImageKey = token
			}
		}
	}
}
