/*
Package chat contains the core logic for the real-time message broker.

This file defines the Client, the transport adapter for one WebSocket
connection. It runs two independent pumps: ReadPump parses inbound protocol
events and forwards them to the authentication step or the Broker, while
WritePump relays broker-originated events from the connection's outbound
queue to the socket. Neither side blocks the other.
*/
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"minichat/internal/pkg/errs"
	"minichat/internal/pkg/logx"
)

const (
	// timeout duration for writing to the WebSocket connection.
	writeWait = 10 * time.Second

	// maximum time allowed for the server to wait for a Pong message from the client.
	pongWait = 60 * time.Second

	// frequency at which the server sends a Ping message.
	pingPeriod = (pongWait * 9) / 10

	// maximum allowed size (in bytes) of a frame sent by the client.
	maxMessageSize = 8192
)

// Client adapts one WebSocket connection to the Registry and Broker.
type Client struct {
	// conn is this client's record in the Registry.
	conn *Conn

	// underlying WebSocket connection object.
	ws *websocket.Conn

	registry *Registry
	broker   *Broker
	verifier TokenVerifier

	// structured logger with connection context.
	logger zerolog.Logger
}

// NewClient constructs a Client, registers its connection record, and returns
// it ready for its pumps to start. The connection is unauthenticated until an
// authenticate event succeeds.
func NewClient(registry *Registry, broker *Broker, verifier TokenVerifier, ws *websocket.Conn) *Client {
	conn := NewConn()
	registry.Register(conn)

	clientLogger := logx.Logger().With().
		Str("connection_id", conn.ID().String()).
		Logger()

	return &Client{
		conn:     conn,
		ws:       ws,
		registry: registry,
		broker:   broker,
		verifier: verifier,
		logger:   clientLogger,
	}
}

// ConnectionID returns the identifier of this client's registry record.
func (c *Client) ConnectionID() string {
	return c.conn.ID().String()
}

// ReadPump reads protocol events from the WebSocket connection until the
// client disconnects or commits a protocol violation. It handles heartbeats
// (Pong) and performs cleanup on exit.
func (c *Client) ReadPump() {
	defer c.cleanupOnDisconnect()

	c.ws.SetReadLimit(maxMessageSize)

	if err := c.ws.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set read deadline")
		return
	}

	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, eventBytes, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Info().Err(err).Msg("Error reading message (client close/going away)")
			}
			break
		}

		if !c.processInboundEvent(eventBytes) {
			break
		}
	}
}

// cleanupOnDisconnect removes the connection from the Registry and closes the
// socket when ReadPump terminates. Unregister is idempotent, so a connection
// already removed by a failed broadcast delivery is handled cleanly.
func (c *Client) cleanupOnDisconnect() {
	c.logger.Info().Msg("Client connection cleanup starting.")

	c.registry.Unregister(c.conn.ID())

	if err := c.ws.Close(); err != nil {
		c.logger.Debug().Err(err).Msg("Client connection close error")
	}
}

// processInboundEvent dispatches one raw inbound frame. It returns false when
// the connection must be terminated.
func (c *Client) processInboundEvent(eventBytes []byte) bool {
	var envelope Envelope

	if err := json.Unmarshal(eventBytes, &envelope); err != nil {
		c.logger.Warn().Err(err).
			Bytes("event_bytes", eventBytes).
			Msg("Client sent invalid JSON")
		return true
	}

	switch envelope.Type {
	case EventAuthenticate:
		return c.handleAuthenticate(envelope.Payload)

	case EventSendMessage:
		return c.handleSendMessage(envelope.Payload, envelope.TempID)

	default:
		c.logger.Warn().Str("event_type", string(envelope.Type)).Msg("Client sent unsupported event type")
		return true
	}
}

// handleAuthenticate verifies the presented token and binds the resulting
// identity to the connection. A failed verification terminates the
// connection; other connections are unaffected.
func (c *Client) handleAuthenticate(payloadBytes json.RawMessage) bool {
	var payload AuthenticatePayload
	if err := json.Unmarshal(payloadBytes, &payload); err != nil {
		c.logger.Warn().Err(err).Msg("Client sent invalid authenticate payload")
		c.SendError(errs.NewError(errs.ErrInvalidParams))
		return true
	}

	identity, err := c.verifier.Verify(payload.Token)
	if err != nil {
		c.logger.Warn().Msg("Authentication failed, closing connection.")
		c.SendError(errs.NewError(errs.ErrUnauthenticated))
		return false
	}

	if err := c.registry.Bind(c.conn.ID(), identity); err != nil {
		if errors.Is(err, ErrAlreadyBound) {
			c.logger.Warn().Str("user_id", identity.ID).Msg("Authenticate on already-bound connection.")
			c.SendError(errs.NewError(errs.ErrAlreadyAuthenticated))
			return true
		}

		c.SendError(errs.NewError(errs.ErrUnknown))
		return false
	}

	c.sendEvent(EventAuthenticated, AuthenticatedPayload{User: identity})
	return true
}

// handleSendMessage forwards one send request to the Broker and acknowledges
// the outcome to this connection only. Delivery of the message itself happens
// via the broadcast, which includes the sender.
func (c *Client) handleSendMessage(payloadBytes json.RawMessage, tempID string) bool {
	var payload SendMessagePayload
	if err := json.Unmarshal(payloadBytes, &payload); err != nil {
		c.logger.Warn().Err(err).Msg("Client sent invalid sendMessage payload")
		c.SendError(errs.NewError(errs.ErrInvalidParams))
		return true
	}

	stored, customErr := c.broker.SubmitMessage(
		context.Background(),
		c.conn.ID(),
		payload.Sender,
		payload.Receiver,
		payload.Message,
	)

	if customErr != nil {
		c.SendError(customErr)

		// A send before authentication terminates the connection.
		return customErr.Code != errs.ErrUnauthenticated
	}

	c.sendConfirmation(tempID, stored)
	return true
}

// sendConfirmation acknowledges persistence to the sender, echoing the
// client-chosen tempId alongside the authoritative MessageID and timestamp.
func (c *Client) sendConfirmation(tempID string, stored StoredMessage) {
	c.sendEvent(EventConfirm, ConfirmPayload{
		TempID:    tempID,
		ID:        stored.ID,
		Timestamp: stored.Timestamp.UnixMilli(),
	})
}

// SendError queues a classified error event for this connection only.
func (c *Client) SendError(customErr *errs.CustomError) {
	if customErr == nil {
		customErr = errs.NewError(errs.ErrUnknown)
	}

	c.sendEvent(EventError, ErrorPayload{
		Code:    customErr.Code,
		Message: customErr.Message,
	})
}

// sendEvent marshals and queues an outbound event for this connection.
func (c *Client) sendEvent(eventType EventType, payload any) {
	event, err := NewEvent(eventType, payload)
	if err != nil {
		c.logger.Error().Err(err).Str("event_type", string(eventType)).Msg("Error marshaling event for client")
		return
	}

	if !c.conn.trySend(event) {
		c.logger.Warn().
			Int("queue_len", len(c.conn.send)).
			Str("event_type", string(eventType)).
			Msg("Client send queue full or closed, dropping event")
	}
}

// WritePump relays events from the connection's outbound queue to the
// WebSocket and maintains the ping heartbeat. It terminates when the
// connection is unregistered or a write fails.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()

		// ensure the connection is closed on exit
		if err := c.ws.Close(); err != nil {
			c.logger.Debug().Err(err).Msg("Client connection close error in WritePump")
		}
	}()

	for {
		select {
		case event := <-c.conn.Outbound():
			if !c.writeQueuedEvent(event) {
				return
			}

		case <-c.conn.Done():
			c.flushOutbound()
			c.writeCloseMessage()
			return

		case <-ticker.C:
			if !c.writePingMessage() {
				return
			}
		}
	}
}

// writeQueuedEvent writes one event pulled from the outbound queue.
// Returns false if the WritePump loop should terminate.
func (c *Client) writeQueuedEvent(event []byte) bool {
	if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline")
		return false
	}

	if err := c.ws.WriteMessage(websocket.TextMessage, event); err != nil {
		c.logger.Error().Err(err).Msg("Error writing event")
		return false
	}

	return true
}

// flushOutbound writes any events still queued when the connection is torn
// down, so a final error event reaches the client before the close frame.
func (c *Client) flushOutbound() {
	for {
		select {
		case event := <-c.conn.Outbound():
			if !c.writeQueuedEvent(event) {
				return
			}
		default:
			return
		}
	}
}

// writeCloseMessage sends a WebSocket close frame after the connection was
// unregistered.
func (c *Client) writeCloseMessage() {
	if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return
	}

	if err := c.ws.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
		c.logger.Debug().Err(err).Msg("Error writing close message")
	}
}

// writePingMessage sends a periodic WebSocket Ping to maintain the heartbeat.
// Returns false if the WritePump loop should terminate due to write failure.
func (c *Client) writePingMessage() bool {
	if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline on ping")
		return false
	}

	if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
		c.logger.Error().Err(err).Msg("Error writing ping")
		return false
	}

	return true
}
