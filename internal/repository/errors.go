// Package repository provides raw SQL data access for the auth
// service's entities. Repositories return sql.ErrNoRows for missing
// rows and the sentinel values below for storage-level conflicts; the
// service layer translates both into its domain error taxonomy.
package repository

import (
	"errors"
	"strings"
)

// ErrDuplicateContact is returned when an insert violates one of the
// unique contact columns (email, phone_number, telegram_id). It covers
// the race where two registrations for the same contact pass the
// active-user check simultaneously; the unique key picks the winner.
var ErrDuplicateContact = errors.New("duplicate contact")

// isDuplicateKey reports whether a MySQL error is a unique-key
// violation (error 1062).
func isDuplicateKey(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "1062")
}
