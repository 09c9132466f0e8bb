package model

import "time"

// CodePurpose is the enumerated reason a verification code was
// issued. Registration purposes and auth purposes form two separate
// groups: a confirmation request matches any purpose within its
// group, not just the exact variant that created the code.
type CodePurpose string

const (
	PurposeRegistrationPhone CodePurpose = "registration_phone"
	PurposeRegistrationEmail CodePurpose = "registration_email"
	PurposeAuthPhone         CodePurpose = "auth_phone"
	PurposeAuthEmail         CodePurpose = "auth_email"
)

// PurposeGroup is the broader bucket used when matching a submitted
// code.
type PurposeGroup string

const (
	GroupRegistration PurposeGroup = "registration"
	GroupAuth         PurposeGroup = "auth"
)

// Purposes returns the purpose variants belonging to the group.
func (g PurposeGroup) Purposes() []CodePurpose {
	switch g {
	case GroupRegistration:
		return []CodePurpose{PurposeRegistrationPhone, PurposeRegistrationEmail}
	case GroupAuth:
		return []CodePurpose{PurposeAuthPhone, PurposeAuthEmail}
	}
	return nil
}

// Contains reports whether the purpose belongs to the group.
func (g PurposeGroup) Contains(p CodePurpose) bool {
	for _, v := range g.Purposes() {
		if v == p {
			return true
		}
	}
	return false
}

// RegistrationPurpose maps a contact kind to its registration
// purpose variant.
func RegistrationPurpose(k ContactKind) CodePurpose {
	if k == ContactEmail {
		return PurposeRegistrationEmail
	}
	return PurposeRegistrationPhone
}

// AuthPurpose maps a contact kind to its auth purpose variant.
func AuthPurpose(k ContactKind) CodePurpose {
	if k == ContactEmail {
		return PurposeAuthEmail
	}
	return PurposeAuthPhone
}

// VerificationCode models a row in the `verification_codes` table: a
// one-time possession proof bound to a user and a purpose. Codes are
// never deleted; confirmation flips IsActive to false exactly once,
// and expiry is checked lazily at confirm time.
//
// Fields:
//  ID        – primary key, returned to the caller as code_id.
//  UserID    – owner of the code.
//  Purpose   – which flow and channel requested the code.
//  Code      – numeric code value delivered out of band.
//  ExpiresAt – created_at + code TTL (UTC).
//  CreatedAt – timestamp of creation (UTC).
//  IsActive  – false once consumed.
type VerificationCode struct {
	ID        uint64      // verification_codes.id
	UserID    uint64      // verification_codes.user_id
	Purpose   CodePurpose // verification_codes.purpose
	Code      int         // verification_codes.code
	ExpiresAt time.Time   // verification_codes.expires_at
	CreatedAt time.Time   // verification_codes.created_at
	IsActive  bool        // verification_codes.is_active
}
