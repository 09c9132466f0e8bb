package service

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/enotgpt/auth-service/internal/model"
	"github.com/enotgpt/auth-service/internal/queue"
	"github.com/enotgpt/auth-service/internal/repository"
	"github.com/enotgpt/auth-service/internal/utils"
)

// In-memory store fakes backing the service tests. They mirror the
// repository contracts: missing rows surface as sql.ErrNoRows, and
// the conditional updates (code consume, QR bind) report whether a
// row actually changed.

type fakeUsers struct {
	mu     sync.Mutex
	nextID uint64
	users  map[uint64]model.User
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{nextID: 1, users: map[uint64]model.User{}}
}

func (f *fakeUsers) Create(_ context.Context, u *model.User) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	// Unique contact columns, like the real schema.
	for _, existing := range f.users {
		if u.Email != nil && existing.Email != nil && *existing.Email == *u.Email {
			return 0, repository.ErrDuplicateContact
		}
		if u.PhoneNumber != nil && existing.PhoneNumber != nil && *existing.PhoneNumber == *u.PhoneNumber {
			return 0, repository.ErrDuplicateContact
		}
	}
	u.ID = f.nextID
	f.nextID++
	f.users[u.ID] = *u
	return u.ID, nil
}

func (f *fakeUsers) matches(u model.User, contact model.Contact) bool {
	switch contact.Kind {
	case model.ContactEmail:
		return u.Email != nil && *u.Email == contact.Value
	default:
		return u.PhoneNumber != nil && *u.PhoneNumber == contact.Value
	}
}

func (f *fakeUsers) GetByContact(_ context.Context, contact model.Contact) (model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var found model.User
	var ok bool
	for _, u := range f.users {
		if f.matches(u, contact) && (!ok || u.ID > found.ID) {
			found, ok = u, true
		}
	}
	if !ok {
		return model.User{}, sql.ErrNoRows
	}
	return found, nil
}

func (f *fakeUsers) ActiveContactExists(_ context.Context, contact model.Contact) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if f.matches(u, contact) && u.IsActive {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeUsers) GetByID(_ context.Context, id uint64) (model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return model.User{}, sql.ErrNoRows
	}
	return u, nil
}

func (f *fakeUsers) Activate(_ context.Context, id uint64, kind model.ContactKind) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return sql.ErrNoRows
	}
	u.IsActive = true
	if kind == model.ContactEmail {
		u.IsEmailConfirmed = true
	} else {
		u.IsPhoneConfirmed = true
	}
	f.users[id] = u
	return nil
}

type fakeCodes struct {
	mu     sync.Mutex
	nextID uint64
	codes  map[uint64]model.VerificationCode
}

func newFakeCodes() *fakeCodes {
	return &fakeCodes{nextID: 1, codes: map[uint64]model.VerificationCode{}}
}

func (f *fakeCodes) Create(_ context.Context, vc *model.VerificationCode) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	vc.ID = f.nextID
	f.nextID++
	vc.CreatedAt = time.Now().UTC()
	f.codes[vc.ID] = *vc
	return nil
}

func (f *fakeCodes) FindActive(_ context.Context, id, userID uint64, group model.PurposeGroup) (model.VerificationCode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	vc, ok := f.codes[id]
	if !ok || vc.UserID != userID || !vc.IsActive || !group.Contains(vc.Purpose) {
		return model.VerificationCode{}, sql.ErrNoRows
	}
	return vc, nil
}

func (f *fakeCodes) Consume(_ context.Context, id uint64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	vc, ok := f.codes[id]
	if !ok || !vc.IsActive {
		return false, nil
	}
	vc.IsActive = false
	f.codes[id] = vc
	return true, nil
}

type fakeTokens struct {
	mu     sync.Mutex
	nextID uint64
	byHash map[string]model.RefreshToken
}

func newFakeTokens() *fakeTokens {
	return &fakeTokens{nextID: 1, byHash: map[string]model.RefreshToken{}}
}

func (f *fakeTokens) StoreRefresh(_ context.Context, userID uint64, tokenHash string, exp time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byHash[tokenHash] = model.RefreshToken{
		ID:        f.nextID,
		UserID:    userID,
		TokenHash: tokenHash,
		ExpiresAt: exp,
		CreatedAt: time.Now().UTC(),
		IsActive:  true,
	}
	f.nextID++
	return nil
}

func (f *fakeTokens) FindByHash(_ context.Context, tokenHash string) (model.RefreshToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.byHash[tokenHash]
	if !ok || !t.IsActive {
		return model.RefreshToken{}, sql.ErrNoRows
	}
	return t, nil
}

type fakeRoles struct {
	mu     sync.Mutex
	names  map[uint64]string
	grants map[uint64][]uint64
}

func newFakeRoles() *fakeRoles {
	return &fakeRoles{
		names:  map[uint64]string{model.DefaultRoleID: model.DefaultRoleName},
		grants: map[uint64][]uint64{},
	}
}

func (f *fakeRoles) Grant(_ context.Context, userID, roleID uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.grants[userID] {
		if r == roleID {
			return nil
		}
	}
	f.grants[userID] = append(f.grants[userID], roleID)
	return nil
}

func (f *fakeRoles) NamesForUser(_ context.Context, userID uint64) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, r := range f.grants[userID] {
		if n, ok := f.names[r]; ok {
			out = append(out, n)
		}
	}
	return out, nil
}

type fakeQR struct {
	mu       sync.Mutex
	nextID   uint64
	sessions map[string]model.QRSession
}

func newFakeQR() *fakeQR {
	return &fakeQR{nextID: 1, sessions: map[string]model.QRSession{}}
}

func (f *fakeQR) Create(_ context.Context, s *model.QRSession) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s.ID = f.nextID
	f.nextID++
	s.CreatedAt = time.Now().UTC()
	f.sessions[s.Token] = *s
	return nil
}

func (f *fakeQR) FindByToken(_ context.Context, token string) (model.QRSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[token]
	if !ok {
		return model.QRSession{}, sql.ErrNoRows
	}
	return s, nil
}

func (f *fakeQR) Bind(_ context.Context, token string, userID uint64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[token]
	if !ok || s.UserID != nil {
		return false, nil
	}
	s.UserID = &userID
	f.sessions[token] = s
	return true, nil
}

func (f *fakeQR) ForceExpire(_ context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[token]
	if !ok {
		return sql.ErrNoRows
	}
	s.ExpiresAt = time.Now().UTC()
	f.sessions[token] = s
	return nil
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []queue.CodeIssuedEvent
}

func (f *fakeNotifier) PublishCodeIssued(_ context.Context, event queue.CodeIssuedEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return nil
}

func (f *fakeNotifier) last() queue.CodeIssuedEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.events[len(f.events)-1]
}

// env bundles the fakes and services a test exercises.
type env struct {
	users    *fakeUsers
	codes    *fakeCodes
	tokens   *fakeTokens
	roles    *fakeRoles
	qr       *fakeQR
	notifier *fakeNotifier

	tokenSvc *TokenService
	regSvc   *RegistrationService
	authSvc  *AuthService
	qrSvc    *QRService
}

const (
	testSecret = "test-signing-secret"
	testBotKey = "shared-bot-key"
)

// Minimum bcrypt cost keeps the telegram tests fast.
var testBotKeyHash = func() string {
	h, err := utils.HashBotKey(testBotKey, bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	return h
}()

func newEnv() *env {
	e := &env{
		users:    newFakeUsers(),
		codes:    newFakeCodes(),
		tokens:   newFakeTokens(),
		roles:    newFakeRoles(),
		qr:       newFakeQR(),
		notifier: &fakeNotifier{},
	}
	e.tokenSvc = NewTokenService(testSecret, 15*time.Minute, 7, e.tokens, e.roles)
	e.regSvc = NewRegistrationService(e.users, e.codes, e.roles, e.tokenSvc, e.notifier, 5*time.Minute)
	e.authSvc = NewAuthService(e.users, e.codes, e.roles, e.tokenSvc, e.notifier, 5*time.Minute, testBotKeyHash, 30*365*24*time.Hour)
	e.qrSvc = NewQRService(e.qr, e.tokenSvc, e.roles, 200*time.Millisecond, 10*time.Millisecond, "https://auth.example.com")
	return e
}

// register runs the full registration flow for a contact and returns
// the user id and token pair.
func (e *env) register(ctx context.Context, contact model.Contact) (uint64, TokenPair, error) {
	codeID, err := e.regSvc.Register(ctx, contact, Profile{FirstName: "Ivan", LastName: "Petrov"})
	if err != nil {
		return 0, TokenPair{}, err
	}
	code := e.codes.codes[codeID]
	pair, err := e.regSvc.Confirm(ctx, codeID, contact, code.Code)
	if err != nil {
		return 0, TokenPair{}, err
	}
	return code.UserID, pair, nil
}
