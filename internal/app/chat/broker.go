/*
Package chat contains the core logic for the real-time message broker.

This file defines the Broker, which processes one inbound send request
end-to-end: sender authorization, body validation, persistence, and fan-out
to every registered connection. Persistence strictly precedes broadcast; a
message that was not durably recorded is never delivered to anyone.
*/
package chat

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"minichat/internal/app/user"
	"minichat/internal/pkg/errs"
	"minichat/internal/pkg/logx"
)

// MaxMessageRunes is the maximum length of a message body.
const MaxMessageRunes = 5000

// StoredMessage is the immutable record of a persisted message, with the
// identifier and timestamp assigned by the store.
type StoredMessage struct {
	ID         string
	SenderID   string
	ReceiverID string
	Body       string
	Timestamp  time.Time
}

// MessageStore is the persistence collaborator consumed by the Broker.
type MessageStore interface {
	// SaveMessage durably records a message and returns it with its assigned
	// ID and timestamp. Timestamps are non-decreasing across calls.
	SaveMessage(ctx context.Context, senderID, receiverID, body string) (StoredMessage, error)
}

// TokenVerifier resolves a bearer token to a user identity. The transport
// adapter consumes it during the authenticate step.
type TokenVerifier interface {
	Verify(token string) (user.User, error)
}

// Broker validates, persists, and broadcasts inbound chat messages.
type Broker struct {
	registry *Registry
	store    MessageStore
	logger   zerolog.Logger
}

// NewBroker constructs a Broker fanning out through registry and persisting
// through store.
func NewBroker(registry *Registry, store MessageStore) *Broker {
	return &Broker{
		registry: registry,
		store:    store,
		logger:   logx.Logger().With().Str("component", "broker").Logger(),
	}
}

// SubmitMessage processes one send request under the persist-then-broadcast
// contract:
//
//  1. The connection must be authenticated, and the claimed sender must equal
//     its bound identity; a mismatch is a spoofing attempt and yields
//     ErrForbidden with no side effects.
//  2. The body must be non-empty after trimming and within the length limit.
//  3. The message is persisted. A storage failure is returned to the sender
//     only; no broadcast occurs.
//  4. The persisted message is broadcast to every registered connection,
//     the sender included, so all recipients see identical framing.
//
// On success the persisted record is returned so the transport adapter can
// acknowledge the sender with the assigned MessageID. The Broker performs no
// retries; resubmission after a storage failure is the caller's decision.
func (b *Broker) SubmitMessage(ctx context.Context, connID uuid.UUID, claimedSender, receiver, body string) (StoredMessage, *errs.CustomError) {
	identity, ok := b.registry.Identity(connID)
	if !ok {
		return StoredMessage{}, errs.NewError(errs.ErrUnauthenticated)
	}

	if claimedSender != identity.ID {
		b.logger.Warn().
			Str("connection_id", connID.String()).
			Str("bound_user_id", identity.ID).
			Str("claimed_sender", claimedSender).
			Msg("Rejected message with spoofed sender identity.")

		return StoredMessage{}, errs.NewError(errs.ErrForbidden)
	}

	body = strings.TrimSpace(body)
	if body == "" {
		return StoredMessage{}, errs.NewError(errs.ErrEmptyMessage)
	}
	if len([]rune(body)) > MaxMessageRunes {
		return StoredMessage{}, errs.NewError(errs.ErrMessageTooLong)
	}

	stored, err := b.store.SaveMessage(ctx, identity.ID, receiver, body)
	if err != nil {
		b.logger.Error().
			Err(err).
			Str("connection_id", connID.String()).
			Str("sender_id", identity.ID).
			Msg("Message persistence failed. No broadcast will occur.")

		return StoredMessage{}, errs.NewError(errs.ErrMessageStorage)
	}

	event, err := NewEvent(EventReceiveMessage, ReceiveMessagePayload{
		ID:        stored.ID,
		Sender:    stored.SenderID,
		Receiver:  stored.ReceiverID,
		Message:   stored.Body,
		Timestamp: stored.Timestamp.UnixMilli(),
	})
	if err != nil {
		b.logger.Error().
			Err(err).
			Str("message_id", stored.ID).
			Msg("Failed to marshal persisted message for broadcast.")

		return StoredMessage{}, errs.NewError(errs.ErrUnknown)
	}

	b.registry.Broadcast(event)

	return stored, nil
}
