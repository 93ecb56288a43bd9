package ws

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"community-chat-service/internal/models"
)

func TestHubAddAndRemoveClient(t *testing.T) {
	hub := NewHub()

	hub.AddClient(nil, ConnInfo{ConnID: "c1"})
	if hub.Size() != 1 {
		t.Fatalf("expected connection to be registered")
	}

	hub.RemoveClient(nil)
	if hub.Size() != 0 {
		t.Fatalf("expected connection to be removed")
	}
}

func TestHubRemoveUnknownClient(t *testing.T) {
	hub := NewHub()
	hub.RemoveClient(nil)
	if hub.Size() != 0 {
		t.Fatalf("expected hub to stay empty")
	}
}

// newAudienceConn upgrades a real websocket connection into the hub and
// returns the client side.
func newAudienceConn(t *testing.T, hub *Hub) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.AddClient(conn, ConnInfo{ConnID: "c1"})
	}))
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.Eventually(t, func() bool { return hub.Size() == 1 }, time.Second, 5*time.Millisecond)
	return conn
}

// Broadcasts originate concurrently from every session read loop and from the
// moderation handlers; all writes to one connection must be serialized
// through its writer goroutine.
func TestHubConcurrentBroadcastsDeliverAllFrames(t *testing.T) {
	hub := NewHub()
	conn := newAudienceConn(t, hub)

	const writers = 4
	const perWriter = 50

	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < perWriter; j++ {
				hub.BroadcastMessage(models.ChatMessage{
					ID:        fmt.Sprintf("m-%d-%d", i, j),
					Body:      "hi",
					CreatedAt: 1000,
				})
			}
		}(i)
	}
	wg.Wait()

	seen := make(map[string]struct{})
	for len(seen) < writers*perWriter {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		_, raw, err := conn.ReadMessage()
		require.NoError(t, err)

		var event models.ChatEvent
		require.NoError(t, json.Unmarshal(raw, &event))
		require.Equal(t, models.EventMessage, event.Type)
		require.NotNil(t, event.Message)
		seen[event.Message.ID] = struct{}{}
	}
	assert.Len(t, seen, writers*perWriter)
	assert.Equal(t, 1, hub.Size(), "a keeping-up connection must not be dropped")
}
