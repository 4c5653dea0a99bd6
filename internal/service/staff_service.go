package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/limpopochefs/academy-api/internal/models"
	appErrors "github.com/limpopochefs/academy-api/pkg/errors"
)

type staffReader interface {
	FindByID(ctx context.Context, id string) (*models.Staff, error)
	UpdateUserPermissions(ctx context.Context, staffID string, permissions models.PagePermissions) error
}

type roleReader interface {
	FindByID(ctx context.Context, id string) (*models.Role, error)
	List(ctx context.Context) ([]models.Role, error)
	UpdatePermissions(ctx context.Context, roleID string, permissions models.PagePermissions) error
}

// StaffService manages staff permission administration.
type StaffService struct {
	staff  staffReader
	roles  roleReader
	logger *zap.Logger
}

// NewStaffService constructs a StaffService.
func NewStaffService(staff staffReader, roles roleReader, logger *zap.Logger) *StaffService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StaffService{staff: staff, roles: roles, logger: logger}
}

// Get returns one staff member with roles loaded.
func (s *StaffService) Get(ctx context.Context, id string) (*models.Staff, error) {
	staff, err := s.staff.FindByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load staff")
	}
	if staff == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "staff member not found")
	}
	return staff, nil
}

// SetUserPermissions replaces a staff member's individual page overrides.
func (s *StaffService) SetUserPermissions(ctx context.Context, staffID string, permissions models.PagePermissions) error {
	if _, err := s.Get(ctx, staffID); err != nil {
		return err
	}
	if err := s.staff.UpdateUserPermissions(ctx, staffID, permissions); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update permissions")
	}
	s.logger.Info("staff permissions updated", zap.String("staff_id", staffID))
	return nil
}

// ListRoles returns every role with its page grants.
func (s *StaffService) ListRoles(ctx context.Context) ([]models.Role, error) {
	roles, err := s.roles.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list roles")
	}
	return roles, nil
}

// SetRolePermissions replaces a role's page grants.
func (s *StaffService) SetRolePermissions(ctx context.Context, roleID string, permissions models.PagePermissions) error {
	role, err := s.roles.FindByID(ctx, roleID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load role")
	}
	if role == nil {
		return appErrors.Clone(appErrors.ErrNotFound, "role not found")
	}
	if err := s.roles.UpdatePermissions(ctx, roleID, permissions); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update role permissions")
	}
	s.logger.Info("role permissions updated", zap.String("role_id", roleID))
	return nil
}
