package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/limpopochefs/academy-api/internal/models"
	"github.com/limpopochefs/academy-api/internal/repository"
	appErrors "github.com/limpopochefs/academy-api/pkg/errors"
)

type assignmentRepo interface {
	FindByID(ctx context.Context, id string) (*models.Assignment, error)
	List(ctx context.Context, filter repository.AssignmentFilter) ([]models.Assignment, int, error)
	Create(ctx context.Context, assignment *models.Assignment) error
	Update(ctx context.Context, assignment *models.Assignment) error
	Delete(ctx context.Context, id string) error
}

// AssignmentRequest is the staff authoring payload.
type AssignmentRequest struct {
	Title           string                `json:"title" validate:"required"`
	Type            models.AssignmentType `json:"type" validate:"required,oneof=Test Task"`
	Password        string                `json:"password"`
	AvailableFrom   time.Time             `json:"availableFrom" validate:"required"`
	DurationMinutes int                   `json:"duration" validate:"gt=0"`
	OutcomeID       string                `json:"outcome" validate:"required"`
	CampusID        string                `json:"campus" validate:"required"`
	IntakeGroupID   string                `json:"intakeGroup" validate:"required"`
}

// AssignmentService manages staff assignment authoring.
type AssignmentService struct {
	assignments assignmentRepo
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewAssignmentService constructs an AssignmentService.
func NewAssignmentService(assignments assignmentRepo, validate *validator.Validate, logger *zap.Logger) *AssignmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &AssignmentService{assignments: assignments, validator: validate, logger: logger}
}

// Get returns one assignment.
func (s *AssignmentService) Get(ctx context.Context, id string) (*models.Assignment, error) {
	assignment, err := s.assignments.FindByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment")
	}
	if assignment == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
	}
	return assignment, nil
}

// List returns assignments matching the filter with the total count for
// pagination.
func (s *AssignmentService) List(ctx context.Context, filter repository.AssignmentFilter) ([]models.Assignment, int, error) {
	assignments, total, err := s.assignments.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assignments")
	}
	return assignments, total, nil
}

// Create stores a new assignment owned by the calling lecturer. Tests must
// carry a password; tasks must not.
func (s *AssignmentService) Create(ctx context.Context, lecturerID string, req AssignmentRequest) (*models.Assignment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}
	if req.Type == models.AssignmentTest && req.Password == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "tests require a password")
	}

	assignment := &models.Assignment{
		Title:           req.Title,
		LecturerID:      lecturerID,
		Type:            req.Type,
		Password:        req.Password,
		AvailableFrom:   req.AvailableFrom,
		DurationMinutes: req.DurationMinutes,
		OutcomeID:       req.OutcomeID,
		CampusID:        req.CampusID,
		IntakeGroupID:   req.IntakeGroupID,
	}
	if err := s.assignments.Create(ctx, assignment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create assignment")
	}

	s.logger.Info("assignment created",
		zap.String("assignment_id", assignment.ID),
		zap.String("lecturer_id", lecturerID),
		zap.String("type", string(assignment.Type)))
	return assignment, nil
}

// Update rewrites an assignment's authoring fields.
func (s *AssignmentService) Update(ctx context.Context, id string, req AssignmentRequest) (*models.Assignment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}

	assignment, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	assignment.Title = req.Title
	assignment.Type = req.Type
	assignment.Password = req.Password
	assignment.AvailableFrom = req.AvailableFrom
	assignment.DurationMinutes = req.DurationMinutes
	assignment.OutcomeID = req.OutcomeID
	assignment.CampusID = req.CampusID
	assignment.IntakeGroupID = req.IntakeGroupID
	if err := s.assignments.Update(ctx, assignment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update assignment")
	}
	return assignment, nil
}

// Delete removes an assignment and its questions.
func (s *AssignmentService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.assignments.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete assignment")
	}
	return nil
}
