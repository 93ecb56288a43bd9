package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"

	"community-chat-service/internal/models"
	"community-chat-service/internal/observability"
	"community-chat-service/internal/relay"
)

// SessionHandler upgrades browser connections and feeds their frames into
// the relay.
type SessionHandler struct {
	hub   *Hub
	relay *relay.Relay
}

// NewSessionHandler constructs a SessionHandler.
func NewSessionHandler(hub *Hub, relay *relay.Relay) *SessionHandler {
	return &SessionHandler{hub: hub, relay: relay}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handle upgrades the connection, registers it with the audience and runs
// the read loop. Any read error, clean close included, is treated as a
// disconnect.
func (h *SessionHandler) Handle(c *gin.Context) {
	ctx, span := otel.Tracer("community-chat-service/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	info := ConnInfo{
		ConnID:      newConnID(),
		IP:          observability.IPFromRequest(c.Request),
		RequestID:   observability.RequestIDFromRequest(c.Request),
		TraceID:     span.SpanContext().TraceID().String(),
		ConnectedAt: time.Now(),
	}
	h.hub.AddClient(conn, info)

	observability.IncWSActive()
	observability.IncWSEvent(observability.EventWSConnect)
	_ = observability.PublishEvent(ctx, observability.RoutingKeyWSEvents, observability.EventEnvelope{
		EventType: observability.EventTypeWS,
		EventName: observability.EventWSConnect,
		Payload: map[string]interface{}{
			"conn_id": info.ConnID,
			"ip":      info.IP,
		},
	}, observability.BuildHeaders(info.RequestID, info.TraceID))

	go h.readLoop(context.WithoutCancel(ctx), conn, info)
}

func (h *SessionHandler) readLoop(ctx context.Context, conn *websocket.Conn, info ConnInfo) {
	var closeReason string
	defer func() {
		h.relay.OnDisconnect(info.ConnID)
		h.hub.RemoveClient(conn)
		observability.DecWSActive()
		observability.IncWSEvent(observability.EventWSDisconnect)
		_ = observability.PublishEvent(ctx, observability.RoutingKeyWSEvents, observability.EventEnvelope{
			EventType: observability.EventTypeWS,
			EventName: observability.EventWSDisconnect,
			Payload: map[string]interface{}{
				"conn_id":     info.ConnID,
				"ip":          info.IP,
				"duration_ms": time.Since(info.ConnectedAt).Milliseconds(),
				"reason":      closeReason,
			},
		}, observability.BuildHeaders(info.RequestID, info.TraceID))
		conn.Close()
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			closeReason = err.Error()
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				observability.IncWSEvent(observability.EventWSError)
			}
			return
		}
		h.dispatch(ctx, info.ConnID, raw)
	}
}

func (h *SessionHandler) dispatch(ctx context.Context, connID string, raw []byte) {
	var frame models.ClientFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		log.Debug().Err(err).Str("conn_id", connID).Msg("dropping malformed frame")
		return
	}

	switch frame.Type {
	case models.FrameJoin:
		h.relay.OnJoin(connID, frame.Identity)
	case models.FrameSend:
		var msg models.ChatMessage
		if err := json.Unmarshal(frame.Message, &msg); err != nil {
			log.Debug().Err(err).Str("conn_id", connID).Msg("dropping malformed send")
			return
		}
		// Rejections and persistence failures are already logged and counted
		// by the relay; the sender gets no error frame back.
		_ = h.relay.OnSend(ctx, connID, msg)
	default:
		log.Debug().Str("type", frame.Type).Str("conn_id", connID).Msg("unknown frame type")
	}
}
