package connection

// Control frame types exchanged for liveness. Never forwarded to listeners.
const (
	eventPing = "ping"
	eventPong = "pong"
)

// Housekeeping types the server emits around subscription lifecycle. They
// are acknowledged (logged, counted) but not forwarded to listeners.
const (
	eventConnectionEstablished = "connection_established"
	eventSubscribed            = "subscribed"
	eventUnsubscribed          = "unsubscribed"
)

// Wildcard subscribes a listener to every forwarded event type.
const Wildcard = "*"

// eventTypeRemap translates legacy dotted event names emitted by older
// server versions into their canonical underscore form. Remapping happens
// before listener lookup so subscribers only ever see canonical names.
var eventTypeRemap = map[string]string{
	"message.created":      "message_created",
	"message.status":       "message_status",
	"conversation.updated": "conversation_updated",
	"order.created":        "order_created",
	"order.updated":        "order_updated",
	"campaign.metrics":     "campaign_metrics",
}

// normalizeEventType maps a wire event type to its canonical name.
func normalizeEventType(eventType string) string {
	if canonical, ok := eventTypeRemap[eventType]; ok {
		return canonical
	}
	return eventType
}

// isControlType reports whether the type is a ping/pong liveness frame.
func isControlType(eventType string) bool {
	return eventType == eventPing || eventType == eventPong
}

// isHousekeepingType reports whether the type is subscription housekeeping.
func isHousekeepingType(eventType string) bool {
	switch eventType {
	case eventConnectionEstablished, eventSubscribed, eventUnsubscribed:
		return true
	}
	return false
}
