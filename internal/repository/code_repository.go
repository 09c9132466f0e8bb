package repository

import (
	"context"
	"database/sql"

	"github.com/enotgpt/auth-service/internal/model"
)

// CodeRepo provides data access to the verification_codes table.
// Stale codes are never deleted; consumption marks a row inactive and
// expiry is evaluated by the caller at confirm time.
type CodeRepo struct{ DB *sql.DB }

func NewCodeRepo(db *sql.DB) *CodeRepo { return &CodeRepo{DB: db} }

// Create inserts a fresh code row and populates its ID. Every
// code-request call produces a new row; outstanding codes for the
// same user and purpose coexist.
func (r *CodeRepo) Create(ctx context.Context, vc *model.VerificationCode) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO verification_codes (user_id, purpose, code, expires_at) VALUES (?,?,?,?)",
		vc.UserID, vc.Purpose, vc.Code, vc.ExpiresAt.UTC())
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	vc.ID = uint64(id)
	return nil
}

// FindActive fetches the most recent active row matching id, owner
// and purpose group. Expiry is not part of the filter: the service
// distinguishes an expired code from a missing one.
func (r *CodeRepo) FindActive(ctx context.Context, id, userID uint64, group model.PurposeGroup) (model.VerificationCode, error) {
	purposes := group.Purposes()
	var vc model.VerificationCode
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, user_id, purpose, code, expires_at, created_at, is_active
		 FROM verification_codes
		 WHERE id=? AND user_id=? AND purpose IN (?,?) AND is_active=1
		 ORDER BY created_at DESC LIMIT 1`,
		id, userID, purposes[0], purposes[1]).
		Scan(&vc.ID, &vc.UserID, &vc.Purpose, &vc.Code, &vc.ExpiresAt, &vc.CreatedAt, &vc.IsActive)
	return vc, err
}

// Consume marks a code inactive. The conditional update makes the
// code single-use under concurrent confirmations: only one caller
// observes rows affected = 1.
func (r *CodeRepo) Consume(ctx context.Context, id uint64) (bool, error) {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE verification_codes SET is_active=0 WHERE id=? AND is_active=1", id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
