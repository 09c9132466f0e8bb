package service

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"time"

	"github.com/enotgpt/auth-service/internal/model"
	"github.com/enotgpt/auth-service/internal/queue"
	"github.com/enotgpt/auth-service/internal/utils"
)

// issueCode creates a fresh verification code for the user and hands
// it to the delivery pipeline. Outstanding codes for the same purpose
// are not superseded; each request gets its own row and only the one
// whose id the client echoes back can confirm. Publish failures are
// logged and swallowed so a broker hiccup does not fail the request;
// the client can always ask for another code.
func issueCode(ctx context.Context, codes CodeStore, notifier Notifier,
	user model.User, contact model.Contact, purpose model.CodePurpose, ttl time.Duration) (uint64, error) {

	value, err := utils.NewVerificationCode()
	if err != nil {
		return 0, err
	}
	now := time.Now().UTC()
	vc := model.VerificationCode{
		UserID:    user.ID,
		Purpose:   purpose,
		Code:      value,
		ExpiresAt: now.Add(ttl),
		IsActive:  true,
	}
	if err := codes.Create(ctx, &vc); err != nil {
		return 0, err
	}

	if notifier != nil {
		event := queue.CodeIssuedEvent{
			CodeID:      vc.ID,
			UserID:      user.ID,
			Purpose:     string(purpose),
			Channel:     string(contact.Kind),
			Destination: contact.Value,
			Code:        value,
			ExpiresAt:   vc.ExpiresAt.Format(time.RFC3339),
			IssuedAt:    now.Format(time.RFC3339),
		}
		if err := notifier.PublishCodeIssued(ctx, event); err != nil {
			log.Printf("code delivery publish failed for code %d: %v", vc.ID, err)
		}
	}
	return vc.ID, nil
}

// resolveCode looks up and consumes a verification code. The failure
// ladder is fixed: a missing/inactive/foreign row is ErrCodeNotFound,
// then expiry is checked before the value, then the value. On match
// the row is consumed through a conditional update; losing that race
// to a concurrent confirmation reports ErrCodeNotFound, same as a
// code that was never there.
func resolveCode(ctx context.Context, codes CodeStore,
	codeID, userID uint64, group model.PurposeGroup, submitted int) error {

	vc, err := codes.FindActive(ctx, codeID, userID, group)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrCodeNotFound
		}
		return err
	}
	if time.Now().UTC().After(vc.ExpiresAt) {
		return ErrCodeExpired
	}
	if vc.Code != submitted {
		return ErrCodeMismatch
	}
	consumed, err := codes.Consume(ctx, vc.ID)
	if err != nil {
		return err
	}
	if !consumed {
		return ErrCodeNotFound
	}
	return nil
}
