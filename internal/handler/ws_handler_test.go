package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"minichat/internal/app/chat"
	"minichat/internal/configs"
	"minichat/internal/pkg/auth/jwt"
	"minichat/internal/pkg/errs"
	"minichat/internal/pkg/limiter"
	"minichat/internal/pkg/randx"
)

const testJWTSecret = "integration-test-secret"

// memoryMessageStore is an in-memory chat.MessageStore for transport tests.
type memoryMessageStore struct {
	mu       sync.Mutex
	saved    int
	failWith error
}

func (m *memoryMessageStore) SaveMessage(_ context.Context, senderID, receiverID, body string) (chat.StoredMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failWith != nil {
		return chat.StoredMessage{}, m.failWith
	}

	m.saved++
	return chat.StoredMessage{
		ID:         randx.MessageID(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Body:       body,
		Timestamp:  time.Now().UTC(),
	}, nil
}

func (m *memoryMessageStore) savedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.saved
}

// newWebSocketServer starts an httptest server exposing only the WebSocket
// endpoint, backed by a fresh registry and broker over the given store.
func newWebSocketServer(t *testing.T, store chat.MessageStore) *httptest.Server {
	t.Helper()

	registry := chat.NewRegistry()
	deps := &AppDeps{
		Registry: registry,
		Broker:   chat.NewBroker(registry, store),
		Verifier: jwt.NewVerifier(testJWTSecret),
		Config: &configs.AppConfig{
			Environment: "development",
			JWTSecret:   testJWTSecret,
		},
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}
	connectLimiter := limiter.NewIPRateLimiter(rate.Limit(1000), 1000)

	srv := httptest.NewServer(HandleWebSocket(upgrader, connectLimiter, deps))
	t.Cleanup(srv.Close)
	t.Cleanup(registry.Shutdown)

	return srv
}

func dialWebSocket(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return conn
}

func issueToken(t *testing.T, userID, username string) string {
	t.Helper()

	token, err := jwt.GenerateToken(&jwt.Payload{ID: userID, Username: username}, testJWTSecret, time.Hour)
	require.NoError(t, err)

	return token
}

func writeEvent(t *testing.T, conn *websocket.Conn, eventType chat.EventType, payload any, tempID string) {
	t.Helper()

	payloadBytes, err := json.Marshal(payload)
	require.NoError(t, err)

	frame, err := json.Marshal(chat.Envelope{
		Type:    eventType,
		Payload: payloadBytes,
		TempID:  tempID,
	})
	require.NoError(t, err)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, frame))
}

func readEvent(t *testing.T, conn *websocket.Conn) chat.Envelope {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	_, frame, err := conn.ReadMessage()
	require.NoError(t, err)

	var envelope chat.Envelope
	require.NoError(t, json.Unmarshal(frame, &envelope))

	return envelope
}

// requireSilent asserts that no event arrives on the connection within the
// given window.
func requireSilent(t *testing.T, conn *websocket.Conn, window time.Duration) {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(window)))

	_, frame, err := conn.ReadMessage()
	require.Error(t, err, "expected no event, got: %s", frame)
}

func authenticate(t *testing.T, conn *websocket.Conn, token string) {
	t.Helper()

	writeEvent(t, conn, chat.EventAuthenticate, chat.AuthenticatePayload{Token: token}, "")

	envelope := readEvent(t, conn)
	require.Equal(t, chat.EventAuthenticated, envelope.Type)
}

func TestWebSocketBroadcastScenario(t *testing.T) {
	req := require.New(t)

	store := &memoryMessageStore{}
	srv := newWebSocketServer(t, store)

	connA := dialWebSocket(t, srv)
	connB := dialWebSocket(t, srv)

	authenticate(t, connA, issueToken(t, "u-alice", "alice"))
	authenticate(t, connB, issueToken(t, "u-bob", "bob"))

	writeEvent(t, connA, chat.EventSendMessage, chat.SendMessagePayload{
		Sender:   "u-alice",
		Receiver: "u-bob",
		Message:  "hi",
	}, "tmp-1")

	// The sender receives the broadcast copy first, then the confirmation.
	broadcastA := readEvent(t, connA)
	req.Equal(chat.EventReceiveMessage, broadcastA.Type)

	var receivedA chat.ReceiveMessagePayload
	req.NoError(json.Unmarshal(broadcastA.Payload, &receivedA))
	req.NotEmpty(receivedA.ID)
	req.Equal("u-alice", receivedA.Sender)
	req.Equal("u-bob", receivedA.Receiver)
	req.Equal("hi", receivedA.Message)

	confirm := readEvent(t, connA)
	req.Equal(chat.EventConfirm, confirm.Type)

	var confirmed chat.ConfirmPayload
	req.NoError(json.Unmarshal(confirm.Payload, &confirmed))
	req.Equal("tmp-1", confirmed.TempID)
	req.Equal(receivedA.ID, confirmed.ID)

	// The other participant receives the identical framing.
	broadcastB := readEvent(t, connB)
	req.Equal(chat.EventReceiveMessage, broadcastB.Type)

	var receivedB chat.ReceiveMessagePayload
	req.NoError(json.Unmarshal(broadcastB.Payload, &receivedB))
	req.Equal(receivedA, receivedB)

	req.Equal(1, store.savedCount())
}

func TestWebSocketSpoofedSenderForbidden(t *testing.T) {
	req := require.New(t)

	store := &memoryMessageStore{}
	srv := newWebSocketServer(t, store)

	connA := dialWebSocket(t, srv)
	connB := dialWebSocket(t, srv)

	authenticate(t, connA, issueToken(t, "u-alice", "alice"))
	authenticate(t, connB, issueToken(t, "u-bob", "bob"))

	writeEvent(t, connA, chat.EventSendMessage, chat.SendMessagePayload{
		Sender:  "u-mallory",
		Message: "x",
	}, "")

	envelope := readEvent(t, connA)
	req.Equal(chat.EventError, envelope.Type)

	var errPayload chat.ErrorPayload
	req.NoError(json.Unmarshal(envelope.Payload, &errPayload))
	req.Equal(errs.ErrForbidden, errPayload.Code)

	req.Equal(0, store.savedCount())
	requireSilent(t, connB, 200*time.Millisecond)
}

func TestWebSocketStorageFailureIsolatedToSender(t *testing.T) {
	req := require.New(t)

	store := &memoryMessageStore{failWith: errors.New("storage down")}
	srv := newWebSocketServer(t, store)

	connA := dialWebSocket(t, srv)
	connB := dialWebSocket(t, srv)

	authenticate(t, connA, issueToken(t, "u-alice", "alice"))
	authenticate(t, connB, issueToken(t, "u-bob", "bob"))

	writeEvent(t, connA, chat.EventSendMessage, chat.SendMessagePayload{
		Sender:  "u-alice",
		Message: "doomed",
	}, "")

	envelope := readEvent(t, connA)
	req.Equal(chat.EventError, envelope.Type)

	var errPayload chat.ErrorPayload
	req.NoError(json.Unmarshal(envelope.Payload, &errPayload))
	req.Equal(errs.ErrMessageStorage, errPayload.Code)

	requireSilent(t, connB, 200*time.Millisecond)
}

func TestWebSocketInvalidTokenClosesConnection(t *testing.T) {
	req := require.New(t)

	srv := newWebSocketServer(t, &memoryMessageStore{})
	conn := dialWebSocket(t, srv)

	writeEvent(t, conn, chat.EventAuthenticate, chat.AuthenticatePayload{Token: "garbage"}, "")

	envelope := readEvent(t, conn)
	req.Equal(chat.EventError, envelope.Type)

	var errPayload chat.ErrorPayload
	req.NoError(json.Unmarshal(envelope.Payload, &errPayload))
	req.Equal(errs.ErrUnauthenticated, errPayload.Code)

	// The server closes the connection after the error event.
	req.NoError(conn.SetReadDeadline(time.Now().Add(2 * time.Second)))
	_, _, err := conn.ReadMessage()
	req.Error(err)
}

func TestWebSocketSendBeforeAuthenticateRejected(t *testing.T) {
	req := require.New(t)

	store := &memoryMessageStore{}
	srv := newWebSocketServer(t, store)
	conn := dialWebSocket(t, srv)

	writeEvent(t, conn, chat.EventSendMessage, chat.SendMessagePayload{
		Sender:  "u-alice",
		Message: "too early",
	}, "")

	envelope := readEvent(t, conn)
	req.Equal(chat.EventError, envelope.Type)

	var errPayload chat.ErrorPayload
	req.NoError(json.Unmarshal(envelope.Payload, &errPayload))
	req.Equal(errs.ErrUnauthenticated, errPayload.Code)

	req.Equal(0, store.savedCount())

	req.NoError(conn.SetReadDeadline(time.Now().Add(2 * time.Second)))
	_, _, err := conn.ReadMessage()
	req.Error(err)
}

func TestWebSocketSecondAuthenticateReported(t *testing.T) {
	req := require.New(t)

	srv := newWebSocketServer(t, &memoryMessageStore{})
	conn := dialWebSocket(t, srv)

	authenticate(t, conn, issueToken(t, "u-alice", "alice"))

	writeEvent(t, conn, chat.EventAuthenticate, chat.AuthenticatePayload{
		Token: issueToken(t, "u-bob", "bob"),
	}, "")

	envelope := readEvent(t, conn)
	req.Equal(chat.EventError, envelope.Type)

	var errPayload chat.ErrorPayload
	req.NoError(json.Unmarshal(envelope.Payload, &errPayload))
	req.Equal(errs.ErrAlreadyAuthenticated, errPayload.Code)

	// The original identity still works: a send as alice succeeds.
	writeEvent(t, conn, chat.EventSendMessage, chat.SendMessagePayload{
		Sender:  "u-alice",
		Message: "still alice",
	}, "")

	received := readEvent(t, conn)
	req.Equal(chat.EventReceiveMessage, received.Type)
}
