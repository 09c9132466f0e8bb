package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/enotgpt/auth-service/internal/model"
	"github.com/enotgpt/auth-service/internal/utils"
)

// QRService runs the cross-device login handshake. One device
// displays an opaque session token; another, already authenticated,
// device binds it; the first device long-polls until the bind lands
// and receives a token pair for the bound user.
type QRService struct {
	qr           QRStore
	tokens       *TokenService
	roles        RoleStore
	sessionTTL   time.Duration
	pollInterval time.Duration
	baseURL      string
}

func NewQRService(qr QRStore, tokens *TokenService, roles RoleStore,
	sessionTTL, pollInterval time.Duration, baseURL string) *QRService {
	return &QRService{
		qr:           qr,
		tokens:       tokens,
		roles:        roles,
		sessionTTL:   sessionTTL,
		pollInterval: pollInterval,
		baseURL:      strings.TrimSuffix(baseURL, "/"),
	}
}

// CreateSession persists an unbound handshake session and returns it.
// The URL embeds the token so the scanning device lands on the bind
// endpoint directly.
func (s *QRService) CreateSession(ctx context.Context) (model.QRSession, error) {
	token := utils.NewQRToken()
	session := model.QRSession{
		Token:     token,
		URL:       s.baseURL + "/api/qr_code/auth/" + token,
		ExpiresAt: time.Now().UTC().Add(s.sessionTTL),
	}
	if err := s.qr.Create(ctx, &session); err != nil {
		return model.QRSession{}, err
	}
	return session, nil
}

// Bind attaches the authenticated user to the session. The user_id
// column transitions from null at most once; when two devices scan
// the same code the first writer wins and the loser gets
// ErrAlreadyBound. Expiry is not re-checked here — a late bind on an
// expired session simply never resolves, because no poller is
// waiting.
func (s *QRService) Bind(ctx context.Context, token string, userID uint64) error {
	bound, err := s.qr.Bind(ctx, token, userID)
	if err != nil {
		return err
	}
	if bound {
		return nil
	}
	// Zero rows updated: either the session does not exist or it is
	// already bound. Distinguish with a read.
	if _, err := s.qr.FindByToken(ctx, token); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrSessionNotFound
		}
		return err
	}
	return ErrAlreadyBound
}

// Await blocks until the session is bound, then issues a token pair
// for the bound user and force-expires the session so it cannot
// resolve twice. A session already bound when the call arrives fails
// immediately with ErrAlreadyBound: the handshake only pays out to a
// poller that was waiting before the scan. The timeout window is
// anchored at poll start, not at session creation, so a late poller
// still gets the full window. Each iteration re-reads the row in its
// own query; no transaction is held across the pause, so the bind
// call is never blocked. The wait ends with ErrTimeout, or earlier
// with the caller's context error when the client disconnects.
func (s *QRService) Await(ctx context.Context, token string) (TokenPair, error) {
	session, err := s.qr.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return TokenPair{}, ErrSessionNotFound
		}
		return TokenPair{}, err
	}
	if session.Bound() {
		return TokenPair{}, ErrAlreadyBound
	}

	deadline := time.Now().UTC().Add(s.sessionTTL)
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return TokenPair{}, ctx.Err()
		case <-ticker.C:
		}

		session, err = s.qr.FindByToken(ctx, token)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return TokenPair{}, ErrSessionNotFound
			}
			return TokenPair{}, err
		}
		if session.Bound() {
			if session.Expired(time.Now().UTC()) {
				// Another poller resolved the bind first.
				return TokenPair{}, ErrAlreadyBound
			}
			return s.resolve(ctx, session)
		}
		if time.Now().UTC().After(deadline) {
			return TokenPair{}, ErrTimeout
		}
	}
}

func (s *QRService) resolve(ctx context.Context, session model.QRSession) (TokenPair, error) {
	userID := *session.UserID
	roles, err := s.roles.NamesForUser(ctx, userID)
	if err != nil {
		return TokenPair{}, err
	}
	pair, err := s.tokens.IssuePair(ctx, userID, roles)
	if err != nil {
		return TokenPair{}, err
	}
	if err := s.qr.ForceExpire(ctx, session.Token); err != nil {
		return TokenPair{}, err
	}
	return pair, nil
}
