package chat

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"minichat/internal/app/user"
)

func TestRegistryRegisterAssignsUniqueIDs(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	seen := make(map[uuid.UUID]struct{})
	for i := 0; i < 10; i++ {
		id := registry.Register(NewConn())
		_, dup := seen[id]
		req.False(dup, "ConnectionID %s assigned twice", id)
		seen[id] = struct{}{}
	}

	req.Equal(10, registry.Len())
}

func TestRegistryBind(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	connID := registry.Register(NewConn())

	_, ok := registry.Identity(connID)
	req.False(ok, "unbound connection must have no identity")

	alice := user.User{ID: "u-alice", Username: "alice"}
	req.NoError(registry.Bind(connID, alice))

	identity, ok := registry.Identity(connID)
	req.True(ok)
	req.Equal(alice, identity)
}

func TestRegistryBindTwiceFails(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	connID := registry.Register(NewConn())

	alice := user.User{ID: "u-alice", Username: "alice"}
	req.NoError(registry.Bind(connID, alice))

	err := registry.Bind(connID, user.User{ID: "u-mallory", Username: "mallory"})
	req.ErrorIs(err, ErrAlreadyBound)

	// The original identity must survive the failed rebind.
	identity, ok := registry.Identity(connID)
	req.True(ok)
	req.Equal(alice, identity)
}

func TestRegistryBindUnknownConnection(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	err := registry.Bind(uuid.New(), user.User{ID: "u-alice", Username: "alice"})
	req.ErrorIs(err, ErrNotRegistered)
}

func TestRegistryUnregisterIsIdempotent(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	conn := NewConn()
	connID := registry.Register(conn)
	req.Equal(1, registry.Len())

	registry.Unregister(connID)
	req.Equal(0, registry.Len())

	select {
	case <-conn.Done():
	default:
		t.Fatal("unregistered connection must be marked done")
	}

	// Second call is a no-op, not an error or panic.
	registry.Unregister(connID)
	req.Equal(0, registry.Len())
}

func TestBroadcastDeliversToMembershipSnapshot(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	connA := NewConn()
	connB := NewConn()
	registry.Register(connA)
	registry.Register(connB)

	event := []byte(`{"type":"receiveMessage"}`)
	registry.Broadcast(event)

	req.Equal(event, <-connA.Outbound())
	req.Equal(event, <-connB.Outbound())

	// A connection registered after the broadcast does not receive it.
	late := NewConn()
	registry.Register(late)
	req.Empty(late.Outbound())
}

func TestBroadcastFullQueueDropsAndSchedulesRemoval(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	slow := NewConn()
	healthy := NewConn()
	registry.Register(slow)
	registry.Register(healthy)

	for i := 0; i < sendChannelBuffer; i++ {
		req.True(slow.trySend([]byte(fmt.Sprintf("backlog %d", i))))
	}

	registry.Broadcast([]byte("overflow"))

	// The healthy connection is unaffected by the slow one.
	req.Equal([]byte("overflow"), <-healthy.Outbound())

	// The slow connection is removed asynchronously.
	req.Eventually(func() bool {
		return registry.Len() == 1
	}, time.Second, 5*time.Millisecond, "slow connection was not removed")
}

func TestBroadcastToClosedConnectionDoesNotBlockOthers(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	dead := NewConn()
	healthy := NewConn()
	registry.Register(dead)
	registry.Register(healthy)

	registry.Unregister(dead.ID())

	registry.Broadcast([]byte("still delivered"))
	req.Equal([]byte("still delivered"), <-healthy.Outbound())
}

func TestRegistryShutdownClosesAllConnections(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	conns := make([]*Conn, 0, 3)
	for i := 0; i < 3; i++ {
		c := NewConn()
		registry.Register(c)
		conns = append(conns, c)
	}

	registry.Shutdown()
	req.Equal(0, registry.Len())

	for _, c := range conns {
		select {
		case <-c.Done():
		default:
			t.Fatalf("connection %s not closed by shutdown", c.ID())
		}
	}
}
