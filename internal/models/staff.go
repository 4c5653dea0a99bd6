package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// PermissionActions are the three grantable actions on a page.
type PermissionActions struct {
	View   bool `json:"view"`
	Edit   bool `json:"edit"`
	Upload bool `json:"upload"`
}

// PagePermission grants actions on one logical page identifier
// (e.g. "admin/assignment/mark").
type PagePermission struct {
	Page    string            `json:"page"`
	Actions PermissionActions `json:"actions"`
}

// PagePermissions is a JSONB-backed permission list.
type PagePermissions []PagePermission

// Value implements driver.Valuer.
func (p PagePermissions) Value() (driver.Value, error) {
	if p == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(p)
}

// Scan implements sql.Scanner.
func (p *PagePermissions) Scan(src interface{}) error {
	return scanJSON(src, p)
}

// Role groups page permissions under a name.
type Role struct {
	ID          string          `db:"id" json:"id"`
	RoleName    string          `db:"role_name" json:"roleName"`
	Description string          `db:"description" json:"description"`
	Permissions PagePermissions `db:"permissions" json:"permissions"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`
}

// Staff is an administrative or teaching user. UserPermissions are individual
// per-page overrides consulted before any assigned role.
type Staff struct {
	ID              string          `db:"id" json:"id"`
	Email           string          `db:"email" json:"email"`
	PasswordHash    string          `db:"password_hash" json:"-"`
	FirstName       string          `db:"first_name" json:"firstName"`
	LastName        string          `db:"last_name" json:"lastName"`
	Active          bool            `db:"active" json:"active"`
	UserPermissions PagePermissions `db:"user_permissions" json:"userPermissions"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updated_at"`

	Roles []Role `json:"roles,omitempty"`
}
