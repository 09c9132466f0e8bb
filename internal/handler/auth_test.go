package handler_test

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/enotgpt/auth-service/internal/config"
	"github.com/enotgpt/auth-service/internal/handler"
	"github.com/enotgpt/auth-service/internal/model"
	"github.com/enotgpt/auth-service/internal/queue"
	"github.com/enotgpt/auth-service/internal/router"
	"github.com/enotgpt/auth-service/internal/service"
	"github.com/enotgpt/auth-service/internal/utils"
)

// These tests run requests through the real route table, handlers,
// services and JWT middleware, with only the storage swapped for
// maps. Concurrency is not exercised here; the service tests cover
// it.

const testSecret = "handler-test-secret"

type memStore struct {
	users       map[uint64]model.User
	codes       map[uint64]model.VerificationCode
	tokens      map[string]model.RefreshToken
	grants      map[uint64][]string
	qr          map[string]model.QRSession
	nextUser    uint64
	nextCode    uint64
	nextRefresh uint64
}

func newMemStore() *memStore {
	return &memStore{
		users:    map[uint64]model.User{},
		codes:    map[uint64]model.VerificationCode{},
		tokens:   map[string]model.RefreshToken{},
		grants:   map[uint64][]string{},
		qr:       map[string]model.QRSession{},
		nextUser: 1,
		nextCode: 1,
	}
}

func (m *memStore) match(u model.User, contact model.Contact) bool {
	if contact.Kind == model.ContactEmail {
		return u.Email != nil && *u.Email == contact.Value
	}
	return u.PhoneNumber != nil && *u.PhoneNumber == contact.Value
}

func (m *memStore) Create(_ context.Context, u *model.User) (uint64, error) {
	u.ID = m.nextUser
	m.nextUser++
	m.users[u.ID] = *u
	return u.ID, nil
}

func (m *memStore) GetByContact(_ context.Context, contact model.Contact) (model.User, error) {
	var found model.User
	var ok bool
	for _, u := range m.users {
		if m.match(u, contact) && (!ok || u.ID > found.ID) {
			found, ok = u, true
		}
	}
	if !ok {
		return model.User{}, sql.ErrNoRows
	}
	return found, nil
}

func (m *memStore) ActiveContactExists(_ context.Context, contact model.Contact) (bool, error) {
	for _, u := range m.users {
		if m.match(u, contact) && u.IsActive {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) GetByID(_ context.Context, id uint64) (model.User, error) {
	u, ok := m.users[id]
	if !ok {
		return model.User{}, sql.ErrNoRows
	}
	return u, nil
}

func (m *memStore) Activate(_ context.Context, id uint64, kind model.ContactKind) error {
	u := m.users[id]
	u.IsActive = true
	if kind == model.ContactEmail {
		u.IsEmailConfirmed = true
	} else {
		u.IsPhoneConfirmed = true
	}
	m.users[id] = u
	return nil
}

func (m *memStore) CreateCode(_ context.Context, vc *model.VerificationCode) error {
	vc.ID = m.nextCode
	m.nextCode++
	m.codes[vc.ID] = *vc
	return nil
}

func (m *memStore) FindActive(_ context.Context, id, userID uint64, group model.PurposeGroup) (model.VerificationCode, error) {
	vc, ok := m.codes[id]
	if !ok || vc.UserID != userID || !vc.IsActive || !group.Contains(vc.Purpose) {
		return model.VerificationCode{}, sql.ErrNoRows
	}
	return vc, nil
}

func (m *memStore) Consume(_ context.Context, id uint64) (bool, error) {
	vc, ok := m.codes[id]
	if !ok || !vc.IsActive {
		return false, nil
	}
	vc.IsActive = false
	m.codes[id] = vc
	return true, nil
}

func (m *memStore) StoreRefresh(_ context.Context, userID uint64, tokenHash string, exp time.Time) error {
	m.nextRefresh++
	m.tokens[tokenHash] = model.RefreshToken{ID: m.nextRefresh, UserID: userID, TokenHash: tokenHash, ExpiresAt: exp, IsActive: true}
	return nil
}

func (m *memStore) FindByHash(_ context.Context, tokenHash string) (model.RefreshToken, error) {
	t, ok := m.tokens[tokenHash]
	if !ok {
		return model.RefreshToken{}, sql.ErrNoRows
	}
	return t, nil
}

func (m *memStore) Grant(_ context.Context, userID, roleID uint64) error {
	name := model.DefaultRoleName
	if roleID != model.DefaultRoleID {
		name = fmt.Sprintf("role-%d", roleID)
	}
	m.grants[userID] = append(m.grants[userID], name)
	return nil
}

func (m *memStore) NamesForUser(_ context.Context, userID uint64) ([]string, error) {
	return m.grants[userID], nil
}

func (m *memStore) CreateQR(_ context.Context, s *model.QRSession) error {
	m.qr[s.Token] = *s
	return nil
}

func (m *memStore) FindByToken(_ context.Context, token string) (model.QRSession, error) {
	s, ok := m.qr[token]
	if !ok {
		return model.QRSession{}, sql.ErrNoRows
	}
	return s, nil
}

func (m *memStore) Bind(_ context.Context, token string, userID uint64) (bool, error) {
	s, ok := m.qr[token]
	if !ok || s.UserID != nil {
		return false, nil
	}
	s.UserID = &userID
	m.qr[token] = s
	return true, nil
}

func (m *memStore) ForceExpire(_ context.Context, token string) error {
	s := m.qr[token]
	s.ExpiresAt = time.Now().UTC()
	m.qr[token] = s
	return nil
}

// Interface adapters: the services take separate store interfaces
// that memStore satisfies with slightly different method names for
// codes and QR sessions.
type codeStoreAdapter struct{ *memStore }

func (a codeStoreAdapter) Create(ctx context.Context, vc *model.VerificationCode) error {
	return a.CreateCode(ctx, vc)
}

type qrStoreAdapter struct{ *memStore }

func (a qrStoreAdapter) Create(ctx context.Context, s *model.QRSession) error {
	return a.CreateQR(ctx, s)
}

type nopNotifier struct{}

func (nopNotifier) PublishCodeIssued(context.Context, queue.CodeIssuedEvent) error { return nil }

func newTestServer(t *testing.T) (*echo.Echo, *memStore) {
	t.Helper()
	store := newMemStore()

	botHash, err := utils.HashBotKey("bot-key", bcrypt.MinCost)
	require.NoError(t, err)

	tokenSvc := service.NewTokenService(testSecret, 15*time.Minute, 7, store, store)
	regSvc := service.NewRegistrationService(store, codeStoreAdapter{store}, store, tokenSvc, nopNotifier{}, 5*time.Minute)
	authSvc := service.NewAuthService(store, codeStoreAdapter{store}, store, tokenSvc, nopNotifier{}, 5*time.Minute, botHash, 24*time.Hour)
	qrSvc := service.NewQRService(qrStoreAdapter{store}, tokenSvc, store, time.Second, 10*time.Millisecond, "https://auth.example.com")

	e := echo.New()
	noLimit := func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(config.Config{}, regSvc, authSvc, tokenSvc), handler.NewQRHandler(qrSvc), testSecret, noLimit)
	return e, store
}

func doJSON(t *testing.T, e *echo.Echo, method, path string, body any, bearer string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if bearer != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	out := map[string]any{}
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec, out
}

func TestRegistrationFlowOverHTTP(t *testing.T) {
	e, store := newTestServer(t)

	rec, body := doJSON(t, e, http.MethodPost, "/api/registration_by_phone", map[string]any{
		"first_name":   "Ivan",
		"last_name":    "Petrov",
		"phone_number": "79990001122",
	}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, true, body["status"])
	codeID := uint64(body["code_id"].(float64))

	code := store.codes[codeID].Code
	rec, body = doJSON(t, e, http.MethodPost, "/api/registration_confirm_phone", map[string]any{
		"code_id":      codeID,
		"code":         code,
		"phone_number": "79990001122",
	}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	access := body["access_token"].(string)
	refresh := body["refresh_token"].(string)
	require.NotEmpty(t, access)
	require.NotEmpty(t, refresh)

	// The access token opens the profile endpoint.
	rec, body = doJSON(t, e, http.MethodGet, "/api/users/me", nil, access)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Ivan", body["first_name"])
	assert.Equal(t, "79990001122", body["phone_number"])
	assert.Equal(t, true, body["is_phone_confirmed"])

	// The refresh token buys a new access token.
	rec, body = doJSON(t, e, http.MethodPost, "/api/change_token", map[string]any{"refresh_token": refresh}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, body["access_token"])
}

func TestRegistrationValidationOverHTTP(t *testing.T) {
	e, _ := newTestServer(t)

	// Phone with letters.
	rec, body := doJSON(t, e, http.MethodPost, "/api/registration_by_phone", map[string]any{
		"first_name":   "Ivan",
		"last_name":    "Petrov",
		"phone_number": "7999abc",
	}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, false, body["status"])

	// Missing name.
	rec, _ = doJSON(t, e, http.MethodPost, "/api/registration_by_email", map[string]any{
		"email": "ivan@example.com",
	}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Malformed email.
	rec, _ = doJSON(t, e, http.MethodPost, "/api/registration_by_email", map[string]any{
		"first_name": "Ivan",
		"last_name":  "Petrov",
		"email":      "not-an-email",
	}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestErrorStatusMappingOverHTTP(t *testing.T) {
	e, store := newTestServer(t)

	// Unknown user asking for an auth code.
	rec, body := doJSON(t, e, http.MethodPost, "/api/auth/get_code_by_phone", map[string]any{
		"phone_number": "70000000000",
	}, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, false, body["status"])

	// Register and confirm, then re-register the same contact.
	rec, body = doJSON(t, e, http.MethodPost, "/api/registration_by_phone", map[string]any{
		"first_name": "Ivan", "last_name": "Petrov", "phone_number": "79990001122",
	}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	codeID := uint64(body["code_id"].(float64))
	rec, _ = doJSON(t, e, http.MethodPost, "/api/registration_confirm_phone", map[string]any{
		"code_id": codeID, "code": store.codes[codeID].Code, "phone_number": "79990001122",
	}, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec, _ = doJSON(t, e, http.MethodPost, "/api/registration_by_phone", map[string]any{
		"first_name": "Ivan", "last_name": "Petrov", "phone_number": "79990001122",
	}, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Wrong code value on a fresh auth code.
	rec, body = doJSON(t, e, http.MethodPost, "/api/auth/get_code_by_phone", map[string]any{
		"phone_number": "79990001122",
	}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	authCodeID := uint64(body["code_id"].(float64))
	wrong := store.codes[authCodeID].Code%900000 + 100000
	rec, _ = doJSON(t, e, http.MethodPost, "/api/auth/confirm_phone", map[string]any{
		"code_id": authCodeID, "code": wrong, "phone_number": "79990001122",
	}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Unknown refresh token.
	rec, _ = doJSON(t, e, http.MethodPost, "/api/change_token", map[string]any{"refresh_token": "bogus"}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestTelegramKeyOverHTTP(t *testing.T) {
	e, _ := newTestServer(t)

	// Wrong key loses before the contact is even considered.
	rec, body := doJSON(t, e, http.MethodPost, "/api/auth/telegram/get_code/phone", map[string]any{
		"phone_number": "70000000000",
		"password":     "wrong",
	}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, false, body["status"])
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	e, _ := newTestServer(t)

	rec, _ := doJSON(t, e, http.MethodGet, "/api/users/me", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = doJSON(t, e, http.MethodGet, "/api/qr_code/auth/sometoken", nil, "garbage")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestQRHandshakeOverHTTP(t *testing.T) {
	e, store := newTestServer(t)

	// Register a user to play the authenticated device.
	rec, body := doJSON(t, e, http.MethodPost, "/api/registration_by_email", map[string]any{
		"first_name": "Ivan", "last_name": "Petrov", "email": "ivan@example.com",
	}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	codeID := uint64(body["code_id"].(float64))
	rec, body = doJSON(t, e, http.MethodPost, "/api/registration_confirm_email", map[string]any{
		"code_id": codeID, "code": store.codes[codeID].Code, "email": "ivan@example.com",
	}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	access := body["access_token"].(string)

	// New device opens a session.
	rec, body = doJSON(t, e, http.MethodGet, "/api/auth/qr", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	token := body["token"].(string)
	require.Len(t, token, 128)
	assert.Contains(t, body["url"], token)

	// The new device starts polling, then the authenticated device
	// binds while the poll is in flight.
	type pollResult struct {
		rec  *httptest.ResponseRecorder
		body map[string]any
	}
	pollDone := make(chan pollResult, 1)
	go func() {
		rec, body := doJSON(t, e, http.MethodGet, "/api/qr/longpoll/"+token, nil, "")
		pollDone <- pollResult{rec, body}
	}()

	time.Sleep(50 * time.Millisecond)
	rec, _ = doJSON(t, e, http.MethodGet, "/api/qr_code/auth/"+token, nil, access)
	require.Equal(t, http.StatusOK, rec.Code)

	var poll pollResult
	select {
	case poll = <-pollDone:
	case <-time.After(2 * time.Second):
		t.Fatal("long poll did not return after bind")
	}
	require.Equal(t, http.StatusOK, poll.rec.Code)
	assert.NotEmpty(t, poll.body["access_token"])
	assert.NotEmpty(t, poll.body["refresh_token"])

	// Binding again is refused, and so is a poll that starts after
	// the bind.
	rec, _ = doJSON(t, e, http.MethodGet, "/api/qr_code/auth/"+token, nil, access)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec, _ = doJSON(t, e, http.MethodGet, "/api/qr/longpoll/"+token, nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Polling an unknown session is a 404.
	rec, _ = doJSON(t, e, http.MethodGet, "/api/qr/longpoll/unknown", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
