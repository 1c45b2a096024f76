/*
Package chat contains the core logic for the real-time message broker:
connection tracking, identity binding, persist-then-broadcast message
handling, and the per-connection WebSocket pumps.

This file defines the wire-level event envelope and its payload types.
*/
package chat

import (
	"encoding/json"

	"minichat/internal/app/user"
)

// EventType identifies the kind of protocol event carried in an Envelope.
type EventType string

const (
	// EventAuthenticate is the inbound request binding an identity to the connection.
	EventAuthenticate EventType = "authenticate"

	// EventSendMessage is the inbound request to broadcast a chat message.
	EventSendMessage EventType = "sendMessage"

	// EventAuthenticated is the outbound acknowledgment of a successful authenticate.
	EventAuthenticated EventType = "authenticated"

	// EventReceiveMessage is the outbound delivery of a persisted chat message.
	EventReceiveMessage EventType = "receiveMessage"

	// EventConfirm is the outbound acknowledgment to the sender of a persisted message.
	EventConfirm EventType = "confirm"

	// EventError is the outbound delivery of an error to the originating connection only.
	EventError EventType = "error"
)

// Envelope is the framing shared by every inbound and outbound protocol event.
type Envelope struct {
	Type    EventType       `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
	TempID  string          `json:"tempId,omitempty"`
}

// AuthenticatePayload carries the bearer token of an authenticate event.
type AuthenticatePayload struct {
	Token string `json:"token"`
}

// SendMessagePayload carries the content of a sendMessage event. Sender must
// match the identity bound to the connection; Receiver is recorded but the
// current protocol broadcasts to all connections regardless.
type SendMessagePayload struct {
	Sender   string `json:"sender"`
	Receiver string `json:"receiver,omitempty"`
	Message  string `json:"message"`
}

// AuthenticatedPayload confirms the identity now bound to the connection.
type AuthenticatedPayload struct {
	User user.User `json:"user"`
}

// ReceiveMessagePayload is the broadcast form of a persisted message. Every
// registered connection, the sender included, receives the identical payload.
type ReceiveMessagePayload struct {
	ID        string `json:"id"`
	Sender    string `json:"sender"`
	Receiver  string `json:"receiver,omitempty"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}

// ConfirmPayload acknowledges persistence to the original sender, echoing the
// client-chosen tempId so the client can correlate the acknowledgment.
type ConfirmPayload struct {
	TempID    string `json:"tempId,omitempty"`
	ID        string `json:"id"`
	Timestamp int64  `json:"timestamp"`
}

// ErrorPayload carries a classified error event to a single connection.
type ErrorPayload struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// NewEvent marshals an outbound event of the given type and payload into its
// wire representation.
func NewEvent(eventType EventType, payload any) ([]byte, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return json.Marshal(Envelope{
		Type:    eventType,
		Payload: payloadBytes,
	})
}
