package model

// ContactKind discriminates which contact channel identifies a user
// in a request. Handlers construct the variant explicitly so the
// channel is checked at compile time instead of probing request
// attributes at runtime.
type ContactKind string

const (
	ContactPhone ContactKind = "phone"
	ContactEmail ContactKind = "email"
)

// Contact is a tagged variant over a phone number or an email
// address. The zero value is invalid; use ByPhone or ByEmail.
type Contact struct {
	Kind  ContactKind
	Value string
}

// ByPhone builds a phone contact.
func ByPhone(number string) Contact { return Contact{Kind: ContactPhone, Value: number} }

// ByEmail builds an email contact.
func ByEmail(address string) Contact { return Contact{Kind: ContactEmail, Value: address} }
