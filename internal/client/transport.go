package client

import (
	"context"

	"github.com/gorilla/websocket"

	"community-chat-service/internal/models"
)

// Transport is one open realtime channel to the relay.
type Transport interface {
	ReadEvent() (models.ChatEvent, error)
	WriteFrame(frame models.ClientFrame) error
	Close() error
}

// Dialer opens a new channel. The controller redials through this after
// every transport loss.
type Dialer func(ctx context.Context) (Transport, error)

type wsTransport struct {
	conn *websocket.Conn
}

// NewWebSocketDialer returns a Dialer connecting to the given ws:// URL.
func NewWebSocketDialer(url string) Dialer {
	return func(ctx context.Context) (Transport, error) {
		conn, resp, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
		if resp != nil && resp.Body != nil {
			resp.Body.Close()
		}
		if err != nil {
			return nil, err
		}
		return &wsTransport{conn: conn}, nil
	}
}

func (t *wsTransport) ReadEvent() (models.ChatEvent, error) {
	var event models.ChatEvent
	err := t.conn.ReadJSON(&event)
	return event, err
}

func (t *wsTransport) WriteFrame(frame models.ClientFrame) error {
	return t.conn.WriteJSON(frame)
}

func (t *wsTransport) Close() error {
	return t.conn.Close()
}
