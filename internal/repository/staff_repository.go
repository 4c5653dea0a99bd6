package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/limpopochefs/academy-api/internal/models"
)

// StaffRepository handles staff and role persistence.
type StaffRepository struct {
	db *sqlx.DB
}

// NewStaffRepository creates a new staff repository.
func NewStaffRepository(db *sqlx.DB) *StaffRepository {
	return &StaffRepository{db: db}
}

const staffColumns = `s.id, s.email, s.password_hash, s.first_name, s.last_name, s.active,
        s.user_permissions, s.created_at, s.updated_at`

// FindByID returns a staff member with roles loaded.
func (r *StaffRepository) FindByID(ctx context.Context, id string) (*models.Staff, error) {
	query := fmt.Sprintf(`SELECT %s FROM staff s WHERE s.id = $1`, staffColumns)
	var staff models.Staff
	if err := r.db.GetContext(ctx, &staff, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("find staff: %w", err)
	}
	if err := r.loadRoles(ctx, &staff); err != nil {
		return nil, err
	}
	return &staff, nil
}

// FindByEmail returns a staff member with roles loaded.
func (r *StaffRepository) FindByEmail(ctx context.Context, email string) (*models.Staff, error) {
	query := fmt.Sprintf(`SELECT %s FROM staff s WHERE LOWER(s.email) = LOWER($1)`, staffColumns)
	var staff models.Staff
	if err := r.db.GetContext(ctx, &staff, query, email); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("find staff by email: %w", err)
	}
	if err := r.loadRoles(ctx, &staff); err != nil {
		return nil, err
	}
	return &staff, nil
}

// UpdateUserPermissions replaces a staff member's individual page overrides.
func (r *StaffRepository) UpdateUserPermissions(ctx context.Context, staffID string, permissions models.PagePermissions) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE staff SET user_permissions = $2, updated_at = NOW() WHERE id = $1`,
		staffID, permissions)
	if err != nil {
		return fmt.Errorf("update user permissions: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update user permissions: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *StaffRepository) loadRoles(ctx context.Context, staff *models.Staff) error {
	const query = `SELECT r.id, r.role_name, r.description, r.permissions, r.created_at, r.updated_at
        FROM roles r
        JOIN staff_roles sr ON sr.role_id = r.id
        WHERE sr.staff_id = $1 ORDER BY r.role_name`
	if err := r.db.SelectContext(ctx, &staff.Roles, query, staff.ID); err != nil {
		return fmt.Errorf("load staff roles: %w", err)
	}
	return nil
}

// RoleRepository handles role persistence.
type RoleRepository struct {
	db *sqlx.DB
}

// NewRoleRepository creates a new role repository.
func NewRoleRepository(db *sqlx.DB) *RoleRepository {
	return &RoleRepository{db: db}
}

// FindByID returns a single role.
func (r *RoleRepository) FindByID(ctx context.Context, id string) (*models.Role, error) {
	const query = `SELECT r.id, r.role_name, r.description, r.permissions, r.created_at, r.updated_at
        FROM roles r WHERE r.id = $1`
	var role models.Role
	if err := r.db.GetContext(ctx, &role, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("find role: %w", err)
	}
	return &role, nil
}

// List returns all roles.
func (r *RoleRepository) List(ctx context.Context) ([]models.Role, error) {
	const query = `SELECT r.id, r.role_name, r.description, r.permissions, r.created_at, r.updated_at
        FROM roles r ORDER BY r.role_name`
	var roles []models.Role
	if err := r.db.SelectContext(ctx, &roles, query); err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	return roles, nil
}

// UpdatePermissions replaces a role's permission list.
func (r *RoleRepository) UpdatePermissions(ctx context.Context, roleID string, permissions models.PagePermissions) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE roles SET permissions = $2, updated_at = NOW() WHERE id = $1`,
		roleID, permissions)
	if err != nil {
		return fmt.Errorf("update role permissions: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update role permissions: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
