// Package queue defines message payloads exchanged over the message broker.
package queue

// CodeIssuedEvent is published whenever a verification code is
// created. The delivery gateway (SMS, mail or chat sender) consumes
// it and forwards the code to the destination; the auth service never
// talks to a delivery channel directly.
type CodeIssuedEvent struct {
	CodeID      uint64 `json:"code_id"`
	UserID      uint64 `json:"user_id"`
	Purpose     string `json:"purpose"`
	Channel     string `json:"channel"`     // "phone" or "email"
	Destination string `json:"destination"` // phone number or email address
	Code        int    `json:"code"`
	ExpiresAt   string `json:"expires_at"`
	IssuedAt    string `json:"issued_at"`
}
