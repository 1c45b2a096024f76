/*
Package user contains the core data structure for user identity.

It defines the minimal representation of a chat participant as carried on
live connections and in WebSocket payloads. The full account record
(password hash, profile text, avatar) lives in the database layer.
*/
package user

// User represents the identity bound to a connection or embedded in a token.
// Fields use JSON tags for serialization in WebSocket messages.
type User struct {

	// ID is the unique identifier for the user, assigned at registration.
	ID string `json:"id"`

	// Username is the unique login and display name of the user.
	Username string `json:"username"`
}
