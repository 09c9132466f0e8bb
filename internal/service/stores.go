package service

import (
	"context"
	"time"

	"github.com/enotgpt/auth-service/internal/model"
	"github.com/enotgpt/auth-service/internal/queue"
)

// Store interfaces consumed by the services. The repository package
// satisfies them against MySQL; tests substitute in-memory fakes.
// Missing rows are reported as sql.ErrNoRows throughout.

// UserStore accesses user records.
type UserStore interface {
	Create(ctx context.Context, u *model.User) (uint64, error)
	GetByContact(ctx context.Context, contact model.Contact) (model.User, error)
	ActiveContactExists(ctx context.Context, contact model.Contact) (bool, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
	Activate(ctx context.Context, id uint64, kind model.ContactKind) error
}

// CodeStore accesses verification codes.
type CodeStore interface {
	Create(ctx context.Context, vc *model.VerificationCode) error
	FindActive(ctx context.Context, id, userID uint64, group model.PurposeGroup) (model.VerificationCode, error)
	Consume(ctx context.Context, id uint64) (bool, error)
}

// TokenStore persists refresh tokens.
type TokenStore interface {
	StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error
	FindByHash(ctx context.Context, tokenHash string) (model.RefreshToken, error)
}

// RoleStore accesses role assignments.
type RoleStore interface {
	Grant(ctx context.Context, userID, roleID uint64) error
	NamesForUser(ctx context.Context, userID uint64) ([]string, error)
}

// QRStore accesses QR handshake sessions.
type QRStore interface {
	Create(ctx context.Context, s *model.QRSession) error
	FindByToken(ctx context.Context, token string) (model.QRSession, error)
	Bind(ctx context.Context, token string, userID uint64) (bool, error)
	ForceExpire(ctx context.Context, token string) error
}

// Notifier hands issued codes off to the delivery pipeline. The
// actual SMS/email/chat gateway is external; publishing the event is
// the service's entire delivery responsibility.
type Notifier interface {
	PublishCodeIssued(ctx context.Context, event queue.CodeIssuedEvent) error
}
