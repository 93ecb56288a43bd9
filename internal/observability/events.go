package observability

// Websocket lifecycle events published on the chat event stream.
const (
	EventTypeWS       = "ws_events"
	EventWSConnect    = "ws_connect"
	EventWSDisconnect = "ws_disconnect"
	EventWSError      = "ws_error"

	RoutingKeyWSEvents = "ws_events.chat"
)

// EventEnvelope wraps a lifecycle event for the AMQP stream.
type EventEnvelope struct {
	EventType string      `json:"event_type"`
	EventName string      `json:"event_name"`
	Payload   interface{} `json:"payload"`
}

// BuildHeaders carries request correlation onto the stream. Empty values
// are omitted.
func BuildHeaders(requestID, traceID string) map[string]string {
	headers := map[string]string{}
	if requestID != "" {
		headers["x-request-id"] = requestID
	}
	if traceID != "" {
		headers["trace_id"] = traceID
	}
	return headers
}
