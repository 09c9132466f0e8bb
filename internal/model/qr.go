package model

import "time"

// QRSession models a row in the `qr_sessions` table: one cross-device
// login handshake. The session is created unbound (UserID nil) with a
// 5 minute window. An authenticated device binds it by setting UserID
// exactly once; the waiting poller then issues tokens and force-sets
// ExpiresAt to the current time so the session cannot resolve twice.
//
// Fields:
//  ID        – primary key identifier.
//  Token     – 128-character opaque value displayed inside the QR image.
//  URL       – public link embedding the token, for the scanning device.
//  UserID    – nil until an authenticated device binds the session.
//  ExpiresAt – created_at + session TTL, or the resolution instant (UTC).
//  CreatedAt – timestamp of creation (UTC).
type QRSession struct {
	ID        uint64    // qr_sessions.id
	Token     string    // qr_sessions.token
	URL       string    // qr_sessions.url
	UserID    *uint64   // qr_sessions.user_id (nullable)
	ExpiresAt time.Time // qr_sessions.expires_at
	CreatedAt time.Time // qr_sessions.created_at
}

// Bound reports whether an authenticated device has bound the session.
func (s *QRSession) Bound() bool { return s.UserID != nil }

// Expired reports whether the session window has passed at the given
// instant.
func (s *QRSession) Expired(now time.Time) bool { return s.ExpiresAt.Before(now) }
