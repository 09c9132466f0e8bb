// Package service implements the authentication core: verification
// code issuance and consumption, registration and auth confirmation,
// refresh token exchange and the QR cross-device handshake. Services
// operate over small store interfaces so the flows can be exercised
// without a database; repositories satisfy the interfaces in
// production. Failures surface as the sentinel errors below, which
// handlers translate into HTTP responses; none are retried
// internally.
package service

import "errors"

var (
	// ErrAlreadyRegistered: an active user already owns the contact a
	// registration request came in with.
	ErrAlreadyRegistered = errors.New("user already registered")
	// ErrUserNotFound: no user is addressable by the given contact.
	ErrUserNotFound = errors.New("user not found")
	// ErrUserNotActive: the user exists but registration was never
	// confirmed.
	ErrUserNotActive = errors.New("user not active")
	// ErrCodeNotFound: no active code matches the id, owner and
	// purpose group — wrong id, wrong user, wrong purpose, or already
	// consumed.
	ErrCodeNotFound = errors.New("verification code not found")
	// ErrCodeExpired: the code matched but its window has passed.
	ErrCodeExpired = errors.New("verification code expired")
	// ErrCodeMismatch: the code row matched but the submitted value
	// differs.
	ErrCodeMismatch = errors.New("verification code mismatch")
	// ErrSessionNotFound: no QR session matches the token.
	ErrSessionNotFound = errors.New("qr session not found")
	// ErrAlreadyBound: the QR session already has a bound user. Binds
	// after the first, and polls entered after the bind, both land
	// here.
	ErrAlreadyBound = errors.New("qr session already bound")
	// ErrTimeout: the QR poll window elapsed without a bind.
	ErrTimeout = errors.New("qr poll timed out")
	// ErrUnauthorized: the telegram shared key does not match
	// configuration. Checked before any other validation.
	ErrUnauthorized = errors.New("unauthorized")
)
