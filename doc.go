// Package realtime is a realtime connection layer for multi-tenant commerce
// dashboards. It delivers server events (new messages, order updates,
// campaign metrics) to a client over the best transport the environment
// supports, falling back from websocket to server-sent events to HTTP
// polling, and reconnects with exponential backoff when the connection
// drops.
//
// The entry point is the connection manager:
//
//	m := realtime.New(realtime.Options{
//		BaseURL: "https://shop.example.com",
//		Token:   token,
//		StoreID: "acme",
//	})
//
//	unsub := m.On("message_created", func(payload map[string]interface{}) {
//		// react to the event
//	})
//	defer unsub()
//
//	m.Connect()
//	defer m.Disconnect()
//
// Connect is non-blocking: progress is observed through OnStatusChange and
// OnError. Listener registrations survive transport switches and
// reconnections; a subscription never needs to be re-issued because the
// underlying transport changed.
//
// The subpackages can also be used directly: pkg/connection holds the
// manager, pkg/transport the three drivers, pkg/capability the transport
// probe, and pkg/observability optional Prometheus metrics and
// OpenTelemetry tracing.
package realtime
