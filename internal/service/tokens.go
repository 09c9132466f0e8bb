package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/enotgpt/auth-service/internal/utils"
)

// TokenPair is the result of a successful confirmation: a signed
// access token plus an opaque refresh token. The telegram flow leaves
// RefreshToken empty.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// TokenService mints access tokens and manages persisted refresh
// tokens. Access tokens are stateless so verification stays cheap on
// every request; refresh tokens are stateful so they can be looked up
// and expired.
type TokenService struct {
	secret         string
	accessTTL      time.Duration
	refreshTTLDays int
	tokens         TokenStore
	roles          RoleStore
}

func NewTokenService(secret string, accessTTL time.Duration, refreshTTLDays int, tokens TokenStore, roles RoleStore) *TokenService {
	return &TokenService{
		secret:         secret,
		accessTTL:      accessTTL,
		refreshTTLDays: refreshTTLDays,
		tokens:         tokens,
		roles:          roles,
	}
}

// IssuePair mints an access token carrying the given role names and a
// fresh refresh token persisted for the user. Prior refresh tokens
// remain valid; a user logged in on several devices keeps all of
// them.
func (s *TokenService) IssuePair(ctx context.Context, userID uint64, roles []string) (TokenPair, error) {
	access, err := utils.NewAccessToken(s.secret, userID, roles, s.accessTTL)
	if err != nil {
		return TokenPair{}, err
	}
	refresh := utils.NewRefreshToken(s.refreshTTLDays)
	if err := s.tokens.StoreRefresh(ctx, userID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access.Token, RefreshToken: refresh.Raw}, nil
}

// IssueAccess mints a standalone access token with an explicit TTL.
// Used by the telegram flow, which trades refresh capability for a
// years-long lifetime.
func (s *TokenService) IssueAccess(userID uint64, roles []string, ttl time.Duration) (string, error) {
	access, err := utils.NewAccessToken(s.secret, userID, roles, ttl)
	if err != nil {
		return "", err
	}
	return access.Token, nil
}

// Refresh exchanges a raw refresh token for a new access token. The
// refresh token is not rotated: the same token keeps working until
// its own expiry. Unknown or inactive tokens yield ErrTokenInvalid,
// present-but-expired ones ErrTokenExpired.
func (s *TokenService) Refresh(ctx context.Context, raw string) (string, error) {
	t, err := s.tokens.FindByHash(ctx, utils.HashRefreshRaw(raw))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", utils.ErrTokenInvalid
		}
		return "", err
	}
	if time.Now().UTC().After(t.ExpiresAt) {
		return "", utils.ErrTokenExpired
	}
	roles, err := s.roles.NamesForUser(ctx, t.UserID)
	if err != nil {
		return "", err
	}
	return s.IssueAccess(t.UserID, roles, s.accessTTL)
}
