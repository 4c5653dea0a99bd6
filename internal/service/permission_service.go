package service

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/limpopochefs/academy-api/internal/models"
	appErrors "github.com/limpopochefs/academy-api/pkg/errors"
)

type permissionStaffReader interface {
	FindByID(ctx context.Context, id string) (*models.Staff, error)
}

// Action is a grantable page action.
type Action string

// Page actions implied by HTTP methods.
const (
	ActionView   Action = "view"
	ActionEdit   Action = "edit"
	ActionUpload Action = "upload"
)

// ActionForMethod maps an HTTP method to the page action it implies:
// GET reads, POST uploads, everything else edits.
func ActionForMethod(method string) Action {
	switch method {
	case http.MethodGet:
		return ActionView
	case http.MethodPost:
		return ActionUpload
	default:
		return ActionEdit
	}
}

// PermissionService resolves page access for staff users. Individual
// overrides are consulted before role grants; either may allow, neither may
// revoke what the other grants.
type PermissionService struct {
	staff  permissionStaffReader
	logger *zap.Logger
}

// NewPermissionService constructs a PermissionService.
func NewPermissionService(staff permissionStaffReader, logger *zap.Logger) *PermissionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PermissionService{staff: staff, logger: logger}
}

// Allowed reports whether the staff member may perform the action on any of
// the acceptable pages.
func (s *PermissionService) Allowed(ctx context.Context, staffID string, pages []string, action Action) (bool, error) {
	staff, err := s.staff.FindByID(ctx, staffID)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load staff")
	}
	if staff == nil {
		return false, nil
	}

	if grants(staff.UserPermissions, pages, action) {
		return true, nil
	}
	for _, role := range staff.Roles {
		if grants(role.Permissions, pages, action) {
			return true, nil
		}
	}
	return false, nil
}

func grants(permissions models.PagePermissions, pages []string, action Action) bool {
	for _, permission := range permissions {
		for _, page := range pages {
			if permission.Page != page {
				continue
			}
			if actionGranted(permission.Actions, action) {
				return true
			}
		}
	}
	return false
}

func actionGranted(actions models.PermissionActions, action Action) bool {
	switch action {
	case ActionView:
		return actions.View
	case ActionEdit:
		return actions.Edit
	case ActionUpload:
		return actions.Upload
	default:
		return false
	}
}
