// Package transport implements the wire-level drivers used by the realtime
// connection layer: a websocket driver, a server-sent-events driver and an
// HTTP polling driver. Drivers expose a uniform channel-based surface and
// never retry on their own; reconnection policy lives in the connection
// manager.
package transport

import (
	"context"
	"encoding/json"
	"time"

	"github.com/caiogn-dev/realtime-go/pkg/errors"
	"github.com/caiogn-dev/realtime-go/pkg/logging"
)

// Kind identifies a transport driver.
type Kind string

const (
	// KindWebSocket is the bidirectional persistent-socket transport.
	KindWebSocket Kind = "websocket"
	// KindSSE is the one-way push-stream transport.
	KindSSE Kind = "sse"
	// KindPolling is the interval-based HTTP polling transport.
	KindPolling Kind = "polling"
)

// String returns the kind's wire name.
func (k Kind) String() string { return string(k) }

// Event is a single decoded realtime event.
type Event struct {
	// Type is the event's type discriminator.
	Type string
	// Payload holds the remaining fields of the event object.
	Payload map[string]interface{}
	// ReceivedAt records when the driver decoded the event.
	ReceivedAt time.Time
}

// Driver is the uniform surface every transport implements. Open blocks
// until the first successful connection or a terminal failure. After a
// successful Open, inbound events arrive on Events and a single terminal
// error arrives on Errors when the stream dies. Close is idempotent and
// aborts any in-flight request.
type Driver interface {
	// Kind identifies the driver.
	Kind() Kind

	// Open establishes the connection. The context bounds the driver's
	// lifetime: cancelling it tears the driver down.
	Open(ctx context.Context) error

	// Close shuts the driver down. Safe to call more than once.
	Close() error

	// Send writes an outbound frame. One-way drivers return a
	// send-unsupported error.
	Send(data []byte) error

	// Events delivers decoded inbound events.
	Events() <-chan Event

	// Errors delivers the terminal stream error, at most one per Open.
	Errors() <-chan error
}

// Config carries everything a driver needs to reach the server.
type Config struct {
	// BaseURL is the dashboard API origin, e.g. "https://shop.example.com".
	BaseURL string
	// Token is the pre-issued access token.
	Token string
	// StoreID is the tenant identifier baked into endpoint paths.
	StoreID string
	// PollInterval is the gap between polling requests, measured from the
	// completion of the previous request.
	PollInterval time.Duration
	// DialTimeout bounds the initial connection attempt.
	DialTimeout time.Duration
	// BufferSize sizes the event and error channels.
	BufferSize int
	// Logger receives driver diagnostics.
	Logger logging.Logger
}

const (
	defaultDialTimeout  = 10 * time.Second
	defaultPollInterval = 5 * time.Second
	defaultBufferSize   = 64
)

func (c Config) withDefaults() Config {
	if c.DialTimeout <= 0 {
		c.DialTimeout = defaultDialTimeout
	}
	if c.PollInterval <= 0 {
		c.PollInterval = defaultPollInterval
	}
	if c.BufferSize <= 0 {
		c.BufferSize = defaultBufferSize
	}
	if c.Logger == nil {
		c.Logger = logging.Nop()
	}
	return c
}

// New constructs a driver of the given kind.
func New(kind Kind, cfg Config) (Driver, error) {
	switch kind {
	case KindWebSocket:
		return NewWebSocketDriver(cfg), nil
	case KindSSE:
		return NewSSEDriver(cfg), nil
	case KindPolling:
		return NewPollingDriver(cfg), nil
	default:
		return nil, errors.UnknownTransport(string(kind))
	}
}

// decodeEvent parses a single JSON event object. The "type" key becomes the
// event type; everything else lands in Payload.
func decodeEvent(kind Kind, data []byte) (Event, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return Event{}, errors.MalformedPayload(string(kind), err)
	}

	ev := Event{Payload: raw, ReceivedAt: time.Now()}
	if t, ok := raw["type"].(string); ok {
		ev.Type = t
		delete(raw, "type")
	}
	return ev, nil
}

// decodeEvents parses a response body that may hold either a single event
// object or an array of them. Order is preserved.
func decodeEvents(kind Kind, data []byte) ([]Event, error) {
	trimmed := firstNonSpace(data)
	if trimmed == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(data, &items); err != nil {
			return nil, errors.MalformedPayload(string(kind), err)
		}
		events := make([]Event, 0, len(items))
		for _, item := range items {
			ev, err := decodeEvent(kind, item)
			if err != nil {
				return nil, err
			}
			events = append(events, ev)
		}
		return events, nil
	}

	ev, err := decodeEvent(kind, data)
	if err != nil {
		return nil, err
	}
	return []Event{ev}, nil
}

func firstNonSpace(data []byte) byte {
	for _, b := range data {
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		}
		return b
	}
	return 0
}
