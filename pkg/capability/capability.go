// Package capability reports which transport kinds the current environment
// can use. The probe is a pure function: restricted environments (corporate
// proxies that strip upgrade headers, servers without stream endpoints) are
// expressed by handing the connection manager an explicit Capabilities value
// rather than by sniffing ambient state.
package capability

import (
	"github.com/caiogn-dev/realtime-go/pkg/logging"
	"github.com/caiogn-dev/realtime-go/pkg/transport"
)

// Capabilities is a snapshot of transport availability.
type Capabilities struct {
	WebSocket bool `json:"websocket"`
	SSE       bool `json:"sse"`
	Polling   bool `json:"polling"`
}

// Detect probes the runtime. The networking primitives behind all three
// transports are always linked into this client, so the probe reports
// everything available; polling in particular is unconditionally true as the
// universal fallback.
func Detect() Capabilities {
	return Capabilities{
		WebSocket: true,
		SSE:       true,
		Polling:   true,
	}
}

// Supports reports whether a single transport kind is available.
func (c Capabilities) Supports(kind transport.Kind) bool {
	switch kind {
	case transport.KindWebSocket:
		return c.WebSocket
	case transport.KindSSE:
		return c.SSE
	case transport.KindPolling:
		return c.Polling
	default:
		return false
	}
}

// Any reports whether at least one transport is available.
func (c Capabilities) Any() bool {
	return c.WebSocket || c.SSE || c.Polling
}

// Fields renders the snapshot for structured diagnostics logs.
func (c Capabilities) Fields() []logging.Field {
	return []logging.Field{
		logging.Bool("websocket", c.WebSocket),
		logging.Bool("sse", c.SSE),
		logging.Bool("polling", c.Polling),
	}
}
