package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/limpopochefs/academy-api/internal/models"
)

type mockPermissionStaffReader struct {
	staff *models.Staff
}

func (m *mockPermissionStaffReader) FindByID(ctx context.Context, id string) (*models.Staff, error) {
	if m.staff != nil && m.staff.ID == id {
		return m.staff, nil
	}
	return nil, nil
}

func TestActionForMethod(t *testing.T) {
	assert.Equal(t, ActionView, ActionForMethod(http.MethodGet))
	assert.Equal(t, ActionUpload, ActionForMethod(http.MethodPost))
	assert.Equal(t, ActionEdit, ActionForMethod(http.MethodPut))
	assert.Equal(t, ActionEdit, ActionForMethod(http.MethodPatch))
	assert.Equal(t, ActionEdit, ActionForMethod(http.MethodDelete))
}

func TestAllowedUserOverride(t *testing.T) {
	svc := NewPermissionService(&mockPermissionStaffReader{staff: &models.Staff{
		ID: "staff-1",
		UserPermissions: models.PagePermissions{
			{Page: "assignments", Actions: models.PermissionActions{View: true}},
		},
	}}, nil)

	ok, err := svc.Allowed(context.Background(), "staff-1", []string{"assignments"}, ActionView)
	require.NoError(t, err)
	assert.True(t, ok)

	// The override grants view only.
	ok, err = svc.Allowed(context.Background(), "staff-1", []string{"assignments"}, ActionEdit)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAllowedRoleGrant(t *testing.T) {
	svc := NewPermissionService(&mockPermissionStaffReader{staff: &models.Staff{
		ID: "staff-1",
		Roles: []models.Role{
			{RoleName: "lecturer", Permissions: models.PagePermissions{
				{Page: "results", Actions: models.PermissionActions{View: true, Edit: true}},
			}},
		},
	}}, nil)

	ok, err := svc.Allowed(context.Background(), "staff-1", []string{"results"}, ActionEdit)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.Allowed(context.Background(), "staff-1", []string{"results"}, ActionUpload)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAllowedAnyPageMatches(t *testing.T) {
	svc := NewPermissionService(&mockPermissionStaffReader{staff: &models.Staff{
		ID: "staff-1",
		Roles: []models.Role{
			{RoleName: "marker", Permissions: models.PagePermissions{
				{Page: "marking", Actions: models.PermissionActions{Upload: true}},
			}},
		},
	}}, nil)

	ok, err := svc.Allowed(context.Background(), "staff-1", []string{"assignments", "marking"}, ActionUpload)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestAllowedUnknownStaff(t *testing.T) {
	svc := NewPermissionService(&mockPermissionStaffReader{}, nil)

	ok, err := svc.Allowed(context.Background(), "ghost", []string{"assignments"}, ActionView)
	require.NoError(t, err)
	assert.False(t, ok)
}
