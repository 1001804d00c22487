package ws

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test sessions are built without a websocket; the write pump is never
// started, so Send only fills the buffered channel.
func testSession(userID int) *Session {
	return NewSession(userID, nil)
}

func received(s *Session) [][]byte {
	var payloads [][]byte
	for {
		select {
		case p := <-s.send:
			payloads = append(payloads, p)
		default:
			return payloads
		}
	}
}

func TestHubRegisterAndSendToUser(t *testing.T) {
	hub := NewHub()
	s := testSession(1)
	require.Nil(t, hub.Register(s))

	assert.True(t, hub.SendToUser(1, []byte("hello")))
	payloads := received(s)
	require.Len(t, payloads, 1)
	assert.Equal(t, "hello", string(payloads[0]))

	assert.False(t, hub.SendToUser(2, []byte("nobody")))
}

func TestHubLastSessionWins(t *testing.T) {
	hub := NewHub()
	first := testSession(1)
	second := testSession(1)

	require.Nil(t, hub.Register(first))
	replaced := hub.Register(second)
	require.Same(t, first, replaced)

	assert.True(t, hub.SendToUser(1, []byte("x")))
	assert.Empty(t, received(first))
	assert.Len(t, received(second), 1)

	// The displaced session unregistering late must not evict its
	// replacement.
	hub.Unregister(first)
	assert.True(t, hub.SendToUser(1, []byte("y")))
}

func TestHubUnregisterIdempotent(t *testing.T) {
	hub := NewHub()
	s := testSession(1)
	hub.Register(s)

	hub.Unregister(s)
	hub.Unregister(s)
	assert.Equal(t, 0, hub.SessionCount())
	assert.False(t, hub.SendToUser(1, []byte("x")))
}

func TestHubRoomBroadcast(t *testing.T) {
	hub := NewHub()
	a := testSession(1)
	b := testSession(2)
	c := testSession(3)
	hub.Register(a)
	hub.Register(b)
	hub.Register(c)

	hub.Subscribe(a, 7)
	hub.Subscribe(b, 7)
	hub.Subscribe(c, 8)

	delivered := hub.BroadcastRoom(7, []byte("group"))
	assert.Equal(t, 2, delivered)
	assert.Len(t, received(a), 1)
	assert.Len(t, received(b), 1)
	assert.Empty(t, received(c))
}

func TestHubSubscribeIgnoresStaleSession(t *testing.T) {
	hub := NewHub()
	stale := testSession(1)
	hub.Register(stale)
	hub.Register(testSession(1)) // displaces stale

	hub.Subscribe(stale, 7)
	assert.Equal(t, 0, hub.BroadcastRoom(7, []byte("x")))
}

func TestHubUnregisterLeavesRooms(t *testing.T) {
	hub := NewHub()
	s := testSession(1)
	hub.Register(s)
	hub.Subscribe(s, 7)

	hub.Unregister(s)
	assert.Equal(t, 0, hub.BroadcastRoom(7, []byte("x")))
}

func TestHubShutdownDrainsRegistry(t *testing.T) {
	hub := NewHub()
	for i := 1; i <= 5; i++ {
		hub.Register(testSession(i))
	}
	require.Equal(t, 5, hub.SessionCount())

	hub.Shutdown()
	assert.Equal(t, 0, hub.SessionCount())
	assert.False(t, hub.SendToUser(1, []byte("x")))
}

func TestHubConcurrentAccess(t *testing.T) {
	hub := NewHub()
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(userID int) {
			defer wg.Done()
			s := testSession(userID)
			hub.Register(s)
			hub.Subscribe(s, userID%5)
			hub.BroadcastRoom(userID%5, []byte("x"))
			hub.SendToUser(userID, []byte("y"))
			hub.Unregister(s)
		}(i + 1)
	}
	wg.Wait()

	assert.Equal(t, 0, hub.SessionCount())
}
