package realtime

import (
	"github.com/caiogn-dev/realtime-go/pkg/capability"
	"github.com/caiogn-dev/realtime-go/pkg/connection"
	"github.com/caiogn-dev/realtime-go/pkg/transport"
)

// Connection manager constructors and types.
var (
	// New creates a connection manager.
	New = connection.New
)

// Re-exported types for convenience.
type (
	// Manager owns one active transport and fans events out to listeners.
	Manager = connection.Manager
	// Options configures a Manager.
	Options = connection.Options
	// Status is the connection lifecycle state.
	Status = connection.Status
	// Info is an introspection snapshot.
	Info = connection.Info
	// Subscription removes a listener registration.
	Subscription = connection.Subscription
	// EventHandler receives a single event type's payloads.
	EventHandler = connection.EventHandler
	// AnyHandler receives every forwarded event.
	AnyHandler = connection.AnyHandler
	// StatusHandler receives status transitions.
	StatusHandler = connection.StatusHandler
	// ErrorHandler receives transport-level errors.
	ErrorHandler = connection.ErrorHandler

	// Kind identifies a transport.
	Kind = transport.Kind
	// Capabilities is a transport availability snapshot.
	Capabilities = capability.Capabilities
)

// Status values.
const (
	StatusDisconnected = connection.StatusDisconnected
	StatusConnecting   = connection.StatusConnecting
	StatusConnected    = connection.StatusConnected
	StatusError        = connection.StatusError
)

// Transport kinds.
const (
	KindWebSocket = transport.KindWebSocket
	KindSSE       = transport.KindSSE
	KindPolling   = transport.KindPolling
)

// Wildcard subscribes a listener to every forwarded event type.
const Wildcard = connection.Wildcard

// DetectCapabilities probes the runtime for usable transports.
var DetectCapabilities = capability.Detect
