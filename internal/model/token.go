package model

import "time"

// RefreshToken models an entry in the `refresh_tokens` table. Each
// refresh token belongs to a user and is exchangeable for a fresh
// access token until it expires. The plain token is not stored; only
// its SHA-256 hash. Every successful confirmation creates a new row
// and prior rows stay valid, so one user may hold tokens on several
// devices at once.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – owner of the token.
//  TokenHash – SHA-256 hex digest of the raw token value.
//  ExpiresAt – expiration timestamp of the token (UTC).
//  CreatedAt – timestamp of creation (UTC).
//  IsActive  – whether the token may still be exchanged.
type RefreshToken struct {
	ID        uint64    // refresh_tokens.id
	UserID    uint64    // refresh_tokens.user_id
	TokenHash string    // refresh_tokens.token_hash
	ExpiresAt time.Time // refresh_tokens.expires_at
	CreatedAt time.Time // refresh_tokens.created_at
	IsActive  bool      // refresh_tokens.is_active
}
