/*
Package randx provides generation of the unique identifiers used across the service.

Connection, user, and message identifiers are all standard UUID v4 values.
*/
package randx

import (
	"github.com/google/uuid"
)

// ConnectionID generates a unique identifier for a live WebSocket connection.
func ConnectionID() uuid.UUID {
	return uuid.New()
}

// UserID generates a unique identifier string for a newly registered user.
func UserID() string {
	return uuid.New().String()
}

// MessageID generates a standard UUID v4 string to serve as a unique identifier for a message.
func MessageID() string {
	return uuid.New().String()
}
