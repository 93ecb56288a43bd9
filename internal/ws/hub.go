package ws

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"community-chat-service/internal/models"
	"community-chat-service/internal/observability"
)

// sendBuffer bounds how far a slow consumer may fall behind before the hub
// drops its connection.
const sendBuffer = 256

// audienceConn is one connection in the audience. All writes go through the
// send channel and a single writer goroutine; gorilla/websocket allows at
// most one concurrent writer per connection.
type audienceConn struct {
	conn *websocket.Conn
	info ConnInfo
	send chan []byte
	done chan struct{}
	once sync.Once
}

func (c *audienceConn) close() {
	c.once.Do(func() { close(c.done) })
}

func (c *audienceConn) writePump() {
	for {
		select {
		case <-c.done:
			return
		case payload := <-c.send:
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				log.Warn().Err(err).Str("conn_id", c.info.ConnID).Msg("websocket write error")
				observability.IncBroadcastError()
				// Closing the conn wakes the session read loop, which runs
				// the full disconnect path.
				c.conn.Close()
				c.close()
				return
			}
		}
	}
}

// Hub maintains the single shared audience of websocket connections. Every
// broadcast is fire-and-forget, at most once per connection; a connection
// that cannot keep up is closed and removed without affecting the others.
type Hub struct {
	conns map[*websocket.Conn]*audienceConn
	mu    sync.RWMutex
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{conns: make(map[*websocket.Conn]*audienceConn)}
}

// AddClient registers a websocket connection in the audience and starts its
// writer goroutine.
func (h *Hub) AddClient(conn *websocket.Conn, info ConnInfo) {
	client := &audienceConn{
		conn: conn,
		info: info,
		send: make(chan []byte, sendBuffer),
		done: make(chan struct{}),
	}
	h.mu.Lock()
	h.conns[conn] = client
	h.mu.Unlock()
	go client.writePump()
}

// RemoveClient removes a websocket connection and stops its writer.
func (h *Hub) RemoveClient(conn *websocket.Conn) {
	h.mu.Lock()
	client, ok := h.conns[conn]
	delete(h.conns, conn)
	h.mu.Unlock()
	if ok {
		client.close()
	}
}

// Size reports the number of connections in the audience.
func (h *Hub) Size() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// BroadcastMessage sends a chat message to the whole audience.
func (h *Hub) BroadcastMessage(msg models.ChatMessage) {
	h.broadcast(models.ChatEvent{Type: models.EventMessage, Message: &msg})
}

// BroadcastPresence resends the full presence list. There is no diff
// protocol: the complete list goes out on every change.
func (h *Hub) BroadcastPresence(list []models.Identity) {
	h.broadcast(models.ChatEvent{Type: models.EventPresence, Presence: list})
}

// BroadcastStatusChange notifies the audience of a ban/timeout change.
func (h *Hub) BroadcastStatusChange(state models.ModerationState) {
	h.broadcast(models.ChatEvent{Type: models.EventStatusChanged, Status: &state})
}

// BroadcastHistoryCleared notifies the audience that the log was wiped.
func (h *Hub) BroadcastHistoryCleared() {
	h.broadcast(models.ChatEvent{Type: models.EventHistoryCleared})
}

// BroadcastMessageDeleted notifies the audience of a single removal.
func (h *Hub) BroadcastMessageDeleted(messageID string) {
	h.broadcast(models.ChatEvent{Type: models.EventMessageDeleted, MessageID: messageID})
}

func (h *Hub) broadcast(event models.ChatEvent) {
	h.mu.RLock()
	clients := make([]*audienceConn, 0, len(h.conns))
	for _, client := range h.conns {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	payload, _ := json.Marshal(event)
	for _, client := range clients {
		select {
		case client.send <- payload:
		case <-client.done:
		default:
			log.Warn().Str("event", event.Type).Str("conn_id", client.info.ConnID).Msg("send buffer full, dropping connection")
			observability.IncBroadcastError()
			client.conn.Close()
			h.RemoveClient(client.conn)
		}
	}
}
