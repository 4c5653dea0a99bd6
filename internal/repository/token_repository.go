package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/limpopochefs/academy-api/internal/models"
)

// TokenRepository persists refresh tokens for both staff and students.
type TokenRepository struct {
	db *sqlx.DB
}

// NewTokenRepository creates a new token repository.
func NewTokenRepository(db *sqlx.DB) *TokenRepository {
	return &TokenRepository{db: db}
}

// Create persists a refresh token entry.
func (r *TokenRepository) Create(ctx context.Context, token *models.RefreshToken) error {
	if token.ID == "" {
		token.ID = uuid.NewString()
	}
	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO refresh_tokens (id, user_id, user_type, token_hash, ip, user_agent, expires_at, revoked_at, created_at)
        VALUES (:id, :user_id, :user_type, :token_hash, :ip, :user_agent, :expires_at, :revoked_at, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, token); err != nil {
		return fmt.Errorf("create refresh token: %w", err)
	}
	return nil
}

// FindByHash returns a live refresh token by its hash, or nil when unknown,
// revoked or expired.
func (r *TokenRepository) FindByHash(ctx context.Context, hash string) (*models.RefreshToken, error) {
	const query = `SELECT t.id, t.user_id, t.user_type, t.token_hash, t.ip, t.user_agent, t.expires_at, t.revoked_at, t.created_at
        FROM refresh_tokens t
        WHERE t.token_hash = $1 AND t.revoked_at IS NULL AND t.expires_at > NOW()`
	var token models.RefreshToken
	if err := r.db.GetContext(ctx, &token, query, hash); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("find refresh token: %w", err)
	}
	return &token, nil
}

// Revoke stamps a refresh token as revoked.
func (r *TokenRepository) Revoke(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE refresh_tokens SET revoked_at = $2 WHERE id = $1 AND revoked_at IS NULL`,
		id, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// RevokeAllForUser revokes every live token of one user, e.g. on password
// change.
func (r *TokenRepository) RevokeAllForUser(ctx context.Context, userID string, userType models.UserType) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE refresh_tokens SET revoked_at = $3 WHERE user_id = $1 AND user_type = $2 AND revoked_at IS NULL`,
		userID, userType, time.Now().UTC()); err != nil {
		return fmt.Errorf("revoke user tokens: %w", err)
	}
	return nil
}
