package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/enotgpt/auth-service/internal/model"
)

// UserRepo provides data access to the users table.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = `id, first_name, last_name, middle_name, birth_date, gender,
	email, phone_number, telegram_id, is_active, is_email_confirmed, is_phone_confirmed, created_at`

// contactColumn maps a contact kind to its users column.
func contactColumn(k model.ContactKind) string {
	if k == model.ContactEmail {
		return "email"
	}
	return "phone_number"
}

// Create inserts a dormant user and returns its ID. A unique-key
// violation on any contact column is reported as ErrDuplicateContact.
func (r *UserRepo) Create(ctx context.Context, u *model.User) (uint64, error) {
	if u.Email != nil {
		norm := strings.ToLower(strings.TrimSpace(*u.Email))
		u.Email = &norm
	}
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO users (first_name, last_name, middle_name, birth_date, gender, email, phone_number, telegram_id)
		 VALUES (?,?,?,?,?,?,?,?)`,
		u.FirstName, u.LastName, u.MiddleName, u.BirthDate, u.Gender, u.Email, u.PhoneNumber, u.TelegramID)
	if err != nil {
		if isDuplicateKey(err) {
			return 0, ErrDuplicateContact
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	u.ID = uint64(id)
	return u.ID, nil
}

// GetByContact fetches the user addressable by the given contact.
// The unique key on the contact column guarantees at most one row.
func (r *UserRepo) GetByContact(ctx context.Context, contact model.Contact) (model.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE ` + contactColumn(contact.Kind) + `=? LIMIT 1`
	return r.scanUser(r.DB.QueryRowContext(ctx, q, normalizeContact(contact)))
}

// ActiveContactExists reports whether an active (registration
// confirmed) user already owns the contact.
func (r *UserRepo) ActiveContactExists(ctx context.Context, contact model.Contact) (bool, error) {
	q := `SELECT EXISTS(SELECT 1 FROM users WHERE ` + contactColumn(contact.Kind) + `=? AND is_active=1)`
	var exists bool
	err := r.DB.QueryRowContext(ctx, q, normalizeContact(contact)).Scan(&exists)
	return exists, err
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE id=? LIMIT 1`
	return r.scanUser(r.DB.QueryRowContext(ctx, q, id))
}

// Activate flips is_active on and marks the confirming contact
// channel as verified. Activation happens at most once per user; the
// statement is idempotent so a duplicate delivery of the same confirm
// is harmless.
func (r *UserRepo) Activate(ctx context.Context, id uint64, kind model.ContactKind) error {
	flag := "is_phone_confirmed"
	if kind == model.ContactEmail {
		flag = "is_email_confirmed"
	}
	_, err := r.DB.ExecContext(ctx,
		`UPDATE users SET is_active=1, `+flag+`=1 WHERE id=?`, id)
	return err
}

func normalizeContact(c model.Contact) string {
	if c.Kind == model.ContactEmail {
		return strings.ToLower(strings.TrimSpace(c.Value))
	}
	return strings.TrimSpace(c.Value)
}

func (r *UserRepo) scanUser(row *sql.Row) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.FirstName, &u.LastName, &u.MiddleName, &u.BirthDate, &u.Gender,
		&u.Email, &u.PhoneNumber, &u.TelegramID, &u.IsActive, &u.IsEmailConfirmed, &u.IsPhoneConfirmed, &u.CreatedAt)
	return u, err
}
