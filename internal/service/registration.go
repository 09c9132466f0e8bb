package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/enotgpt/auth-service/internal/model"
	"github.com/enotgpt/auth-service/internal/repository"
)

// Profile carries the user-supplied identity fields of a
// registration request. The contact identifier travels separately as
// a model.Contact.
type Profile struct {
	FirstName  string
	LastName   string
	MiddleName *string
	BirthDate  *time.Time
	Gender     *int
}

// RegistrationService creates dormant users and activates them on
// code confirmation.
type RegistrationService struct {
	users    UserStore
	codes    CodeStore
	roles    RoleStore
	tokens   *TokenService
	notifier Notifier
	codeTTL  time.Duration
}

func NewRegistrationService(users UserStore, codes CodeStore, roles RoleStore,
	tokens *TokenService, notifier Notifier, codeTTL time.Duration) *RegistrationService {
	return &RegistrationService{
		users:    users,
		codes:    codes,
		roles:    roles,
		tokens:   tokens,
		notifier: notifier,
		codeTTL:  codeTTL,
	}
}

// Register creates a dormant user for the contact and issues a
// registration code. An active user on the same contact rejects the
// request. An abandoned registration can be retried: the unique key
// on the contact column turns the retry's insert into a duplicate,
// and the existing dormant row gets a fresh code instead. The same
// key decides two racing requests that both pass the active check.
func (s *RegistrationService) Register(ctx context.Context, contact model.Contact, profile Profile) (uint64, error) {
	active, err := s.users.ActiveContactExists(ctx, contact)
	if err != nil {
		return 0, err
	}
	if active {
		return 0, ErrAlreadyRegistered
	}

	u := model.User{
		FirstName:  profile.FirstName,
		LastName:   profile.LastName,
		MiddleName: profile.MiddleName,
		BirthDate:  profile.BirthDate,
		Gender:     profile.Gender,
	}
	switch contact.Kind {
	case model.ContactEmail:
		v := contact.Value
		u.Email = &v
	default:
		v := contact.Value
		u.PhoneNumber = &v
	}
	if _, err := s.users.Create(ctx, &u); err != nil {
		if !errors.Is(err, repository.ErrDuplicateContact) {
			return 0, err
		}
		existing, gerr := s.users.GetByContact(ctx, contact)
		if gerr != nil {
			return 0, gerr
		}
		if existing.IsActive {
			// A racing registration confirmed between our active
			// check and the insert.
			return 0, ErrAlreadyRegistered
		}
		u = existing
	}

	return issueCode(ctx, s.codes, s.notifier, u, contact, model.RegistrationPurpose(contact.Kind), s.codeTTL)
}

// Confirm resolves a registration code and completes the
// registration: the user becomes active, the confirming channel is
// marked verified, the default role is granted and a token pair is
// minted with exactly that role. The user is located by contact
// first, so the code lookup is scoped to the owner the confirm
// request names. Once the code is consumed there is no rollback; a
// failure in a later step leaves the code spent and the client
// requests a new one.
func (s *RegistrationService) Confirm(ctx context.Context, codeID uint64, contact model.Contact, submitted int) (TokenPair, error) {
	u, err := s.users.GetByContact(ctx, contact)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return TokenPair{}, ErrUserNotFound
		}
		return TokenPair{}, err
	}
	if err := resolveCode(ctx, s.codes, codeID, u.ID, model.GroupRegistration, submitted); err != nil {
		return TokenPair{}, err
	}
	if err := s.users.Activate(ctx, u.ID, contact.Kind); err != nil {
		return TokenPair{}, err
	}
	if err := s.roles.Grant(ctx, u.ID, model.DefaultRoleID); err != nil {
		return TokenPair{}, err
	}
	return s.tokens.IssuePair(ctx, u.ID, []string{model.DefaultRoleName})
}
