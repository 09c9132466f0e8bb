package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/enotgpt/auth-service/internal/model"
)

// TokenRepo persists refresh tokens (SHA-256 hash at rest, single
// 'token_hash' column).
type TokenRepo struct{ DB *sql.DB }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{DB: db} }

// StoreRefresh inserts a refresh token hash row. One row per
// successful confirmation; prior rows are left untouched so sessions
// on other devices keep working.
func (r *TokenRepo) StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO refresh_tokens (user_id, token_hash, expires_at) VALUES (?,?,?)",
		userID, tokenHash, exp.UTC())
	return err
}

// FindByHash returns the active token row for a hash. Missing and
// inactive rows both surface as sql.ErrNoRows; the service decides
// how an expired-but-present row is reported.
func (r *TokenRepo) FindByHash(ctx context.Context, tokenHash string) (model.RefreshToken, error) {
	var t model.RefreshToken
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, user_id, token_hash, expires_at, created_at, is_active
		 FROM refresh_tokens WHERE token_hash=? AND is_active=1 LIMIT 1`,
		tokenHash).
		Scan(&t.ID, &t.UserID, &t.TokenHash, &t.ExpiresAt, &t.CreatedAt, &t.IsActive)
	return t, err
}
