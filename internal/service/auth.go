package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/enotgpt/auth-service/internal/model"
	"github.com/enotgpt/auth-service/internal/utils"
)

// AuthService signs in already-registered users with one-time codes.
// The telegram variants additionally gate every call on a shared bot
// key and trade the refresh token for a years-long access token,
// because the bot integration cannot run a refresh loop.
type AuthService struct {
	users        UserStore
	codes        CodeStore
	roles        RoleStore
	tokens       *TokenService
	notifier     Notifier
	codeTTL      time.Duration
	botKeyHash   string
	botAccessTTL time.Duration
}

func NewAuthService(users UserStore, codes CodeStore, roles RoleStore, tokens *TokenService,
	notifier Notifier, codeTTL time.Duration, botKeyHash string, botAccessTTL time.Duration) *AuthService {
	return &AuthService{
		users:        users,
		codes:        codes,
		roles:        roles,
		tokens:       tokens,
		notifier:     notifier,
		codeTTL:      codeTTL,
		botKeyHash:   botKeyHash,
		botAccessTTL: botAccessTTL,
	}
}

// lookupActive finds the user owning the contact and requires a
// completed registration.
func (s *AuthService) lookupActive(ctx context.Context, contact model.Contact) (model.User, error) {
	u, err := s.users.GetByContact(ctx, contact)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, ErrUserNotFound
		}
		return model.User{}, err
	}
	if !u.IsActive {
		return model.User{}, ErrUserNotActive
	}
	return u, nil
}

// RequestCode issues an auth code for an active user reachable at the
// contact and returns the code id the client must echo back.
func (s *AuthService) RequestCode(ctx context.Context, contact model.Contact) (uint64, error) {
	u, err := s.lookupActive(ctx, contact)
	if err != nil {
		return 0, err
	}
	return issueCode(ctx, s.codes, s.notifier, u, contact, model.AuthPurpose(contact.Kind), s.codeTTL)
}

// Confirm resolves an auth code and mints a token pair carrying the
// user's full current role set.
func (s *AuthService) Confirm(ctx context.Context, codeID uint64, contact model.Contact, submitted int) (TokenPair, error) {
	u, err := s.users.GetByContact(ctx, contact)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return TokenPair{}, ErrUserNotFound
		}
		return TokenPair{}, err
	}
	if err := resolveCode(ctx, s.codes, codeID, u.ID, model.GroupAuth, submitted); err != nil {
		return TokenPair{}, err
	}
	roles, err := s.roles.NamesForUser(ctx, u.ID)
	if err != nil {
		return TokenPair{}, err
	}
	return s.tokens.IssuePair(ctx, u.ID, roles)
}

// checkBotKey verifies the telegram shared key before anything else
// happens; a mismatch never reveals whether the contact exists.
func (s *AuthService) checkBotKey(key string) error {
	if !utils.VerifyBotKey(s.botKeyHash, key) {
		return ErrUnauthorized
	}
	return nil
}

// TelegramRequestCode is RequestCode behind the bot key gate.
func (s *AuthService) TelegramRequestCode(ctx context.Context, botKey string, contact model.Contact) (uint64, error) {
	if err := s.checkBotKey(botKey); err != nil {
		return 0, err
	}
	return s.RequestCode(ctx, contact)
}

// TelegramConfirm resolves an auth code for the bot integration. It
// mints only an access token, with the extended TTL, and leaves the
// refresh token empty.
func (s *AuthService) TelegramConfirm(ctx context.Context, botKey string, codeID uint64, contact model.Contact, submitted int) (TokenPair, error) {
	if err := s.checkBotKey(botKey); err != nil {
		return TokenPair{}, err
	}
	u, err := s.users.GetByContact(ctx, contact)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return TokenPair{}, ErrUserNotFound
		}
		return TokenPair{}, err
	}
	if err := resolveCode(ctx, s.codes, codeID, u.ID, model.GroupAuth, submitted); err != nil {
		return TokenPair{}, err
	}
	roles, err := s.roles.NamesForUser(ctx, u.ID)
	if err != nil {
		return TokenPair{}, err
	}
	access, err := s.tokens.IssueAccess(u.ID, roles, s.botAccessTTL)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access}, nil
}

// Me returns the profile of the authenticated user.
func (s *AuthService) Me(ctx context.Context, userID uint64) (model.User, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, ErrUserNotFound
		}
		return model.User{}, err
	}
	return u, nil
}
