package repository

import (
	"context"
	"database/sql"

	"github.com/enotgpt/auth-service/internal/model"
)

// QRRepo provides data access to the qr_sessions table. Every read
// goes straight to the database; the long-poll loop relies on each
// iteration observing a fresh row state.
type QRRepo struct{ DB *sql.DB }

func NewQRRepo(db *sql.DB) *QRRepo { return &QRRepo{DB: db} }

// Create inserts an unbound session row and populates its ID.
func (r *QRRepo) Create(ctx context.Context, s *model.QRSession) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO qr_sessions (token, url, expires_at) VALUES (?,?,?)",
		s.Token, s.URL, s.ExpiresAt.UTC())
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	return nil
}

// FindByToken fetches a session by its opaque token.
func (r *QRRepo) FindByToken(ctx context.Context, token string) (model.QRSession, error) {
	var s model.QRSession
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, token, url, user_id, expires_at, created_at FROM qr_sessions WHERE token=? LIMIT 1`,
		token).
		Scan(&s.ID, &s.Token, &s.URL, &s.UserID, &s.ExpiresAt, &s.CreatedAt)
	return s, err
}

// Bind sets the bound user on an unbound session. The WHERE clause
// makes the transition first-writer-wins: a second concurrent bind
// affects zero rows and reports false.
func (r *QRRepo) Bind(ctx context.Context, token string, userID uint64) (bool, error) {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE qr_sessions SET user_id=? WHERE token=? AND user_id IS NULL",
		userID, token)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// ForceExpire moves the session's expiry to the current instant,
// marking it resolved so no second poller can complete it.
func (r *QRRepo) ForceExpire(ctx context.Context, token string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE qr_sessions SET expires_at=UTC_TIMESTAMP() WHERE token=?", token)
	return err
}
