package websocket

import (
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTestClient(hub *MatchupHub, id, username string) *Client {
	client := &Client{
		ID:       id,
		Username: username,
		Send:     make(chan []byte, 8),
		Hub:      hub,
	}
	client.touch()
	return client
}

func TestDropStaleClients(t *testing.T) {
	hub := NewMatchupHub(testLogger())
	client := newTestClient(hub, "c1", "u1")
	hub.registerClient(client)
	assert.Equal(t, 1, hub.GetConnectionCount())

	// A recently seen client survives the sweep.
	hub.dropStaleClients()
	assert.Equal(t, 1, hub.GetConnectionCount())

	// Past the idle threshold it gets evicted.
	client.lastSeen.Store(time.Now().Add(-3 * time.Minute).UnixNano())
	hub.dropStaleClients()
	assert.Equal(t, 0, hub.GetConnectionCount())
	assert.Empty(t, hub.GetConnectedUsers())
}

func TestBroadcastTargetsUsername(t *testing.T) {
	hub := NewMatchupHub(testLogger())
	mine := newTestClient(hub, "c1", "u1")
	other := newTestClient(hub, "c2", "u2")
	hub.registerClient(mine)
	hub.registerClient(other)

	// Drain the welcome messages.
	<-mine.Send
	<-other.Send

	hub.broadcastMessage(&Message{
		Type:      "matchup_update",
		Username:  "u1",
		Timestamp: time.Now(),
	})
	assert.Len(t, mine.Send, 1)
	assert.Empty(t, other.Send)

	// Untargeted messages reach everyone.
	hub.broadcastMessage(&Message{
		Type:      "scoring_event",
		Timestamp: time.Now(),
	})
	assert.Len(t, mine.Send, 2)
	assert.Len(t, other.Send, 1)
}

func TestSendToClientTouchesLastSeen(t *testing.T) {
	hub := NewMatchupHub(testLogger())
	client := newTestClient(hub, "c1", "u1")
	client.lastSeen.Store(time.Now().Add(-time.Hour).UnixNano())

	hub.sendToClient(client, &Message{Type: "pong", Timestamp: time.Now()})
	assert.Less(t, client.idleFor(time.Now()), time.Minute)
}
