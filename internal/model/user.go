package model

import "time"

// User represents an application user record as stored in the
// `users` table. A user is created dormant (IsActive=false) when a
// registration code is requested and becomes active exactly once,
// when that code is confirmed. Each contact identifier (email,
// phone number, telegram id) is unique when present, so at most one
// row can own a given contact.
//
// Fields:
//  ID               – primary key identifier of the user.
//  FirstName        – given name.
//  LastName         – family name.
//  MiddleName       – optional patronymic/middle name.
//  BirthDate        – optional date of birth.
//  Gender           – optional numeric gender code.
//  Email            – optional unique email address.
//  PhoneNumber      – optional unique phone number (digits only).
//  TelegramID       – optional unique external chat identifier.
//  IsActive         – whether registration has been confirmed.
//  IsEmailConfirmed – whether the email channel was confirmed.
//  IsPhoneConfirmed – whether the phone channel was confirmed.
//  CreatedAt        – timestamp of creation (UTC).
type User struct {
	ID               uint64     // users.id
	FirstName        string     // users.first_name
	LastName         string     // users.last_name
	MiddleName       *string    // users.middle_name (nullable)
	BirthDate        *time.Time // users.birth_date (nullable)
	Gender           *int       // users.gender (nullable)
	Email            *string    // users.email (nullable, unique)
	PhoneNumber      *string    // users.phone_number (nullable, unique)
	TelegramID       *int64     // users.telegram_id (nullable, unique)
	IsActive         bool       // users.is_active
	IsEmailConfirmed bool       // users.is_email_confirmed
	IsPhoneConfirmed bool       // users.is_phone_confirmed
	CreatedAt        time.Time  // users.created_at
}

// Role represents a row in the `roles` table. Role 1 ("user") is
// seeded at startup and granted to every user at registration
// confirmation.
type Role struct {
	ID        uint64    // roles.id
	Name      string    // roles.name
	CreatedAt time.Time // roles.created_at
}

// DefaultRoleID is the role granted on registration confirmation.
const DefaultRoleID uint64 = 1

// DefaultRoleName is the name of the seeded default role.
const DefaultRoleName = "user"

// UserRole assigns a role to a user (`user_roles` table). A user may
// hold any number of roles; the default assignment is created once,
// at registration confirmation.
type UserRole struct {
	ID        uint64    // user_roles.id
	UserID    uint64    // user_roles.user_id
	RoleID    uint64    // user_roles.role_id
	CreatedAt time.Time // user_roles.created_at
}
