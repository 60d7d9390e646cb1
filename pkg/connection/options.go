// Package connection implements the realtime connection manager: transport
// selection with fallback, reconnection with exponential backoff, keepalive,
// event normalization and listener registries.
package connection

import (
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/caiogn-dev/realtime-go/pkg/capability"
	"github.com/caiogn-dev/realtime-go/pkg/logging"
	"github.com/caiogn-dev/realtime-go/pkg/observability"
	"github.com/caiogn-dev/realtime-go/pkg/transport"
)

const (
	// DefaultMaxReconnectAttempts is the failed-cycle ceiling before the
	// manager gives up.
	DefaultMaxReconnectAttempts = 10
	// DefaultReconnectBaseDelay seeds the backoff curve.
	DefaultReconnectBaseDelay = 1000 * time.Millisecond
	// DefaultReconnectMaxDelay caps the backoff curve.
	DefaultReconnectMaxDelay = 30000 * time.Millisecond
	// DefaultKeepaliveInterval is the gap between keepalive pings on the
	// websocket transport.
	DefaultKeepaliveInterval = 25000 * time.Millisecond
	// DefaultPollInterval is the gap between polling requests.
	DefaultPollInterval = 5000 * time.Millisecond
)

// DriverFactory builds a driver for one transport kind. Overridable for
// tests.
type DriverFactory func(kind transport.Kind, cfg transport.Config) (transport.Driver, error)

// Options configures a Manager.
type Options struct {
	// BaseURL is the dashboard API origin, e.g. "https://shop.example.com".
	BaseURL string
	// Token is the pre-issued access token carried on every transport.
	Token string
	// StoreID is the tenant whose events this connection delivers.
	StoreID string

	// MaxReconnectAttempts is the number of failed full fallback cycles
	// tolerated before the manager enters the error state.
	MaxReconnectAttempts int
	// ReconnectBaseDelay is the delay before the first retry cycle.
	ReconnectBaseDelay time.Duration
	// ReconnectMaxDelay caps the growing delay between retry cycles.
	ReconnectMaxDelay time.Duration
	// KeepaliveInterval is the gap between pings on the websocket
	// transport. Other transports have server-driven liveness.
	KeepaliveInterval time.Duration
	// PollInterval is the gap between polling requests.
	PollInterval time.Duration
	// DialTimeout bounds each open attempt.
	DialTimeout time.Duration

	// FallbackOrder is the priority sequence of transports. Defaults to
	// websocket, sse, polling.
	FallbackOrder []transport.Kind

	// Capabilities overrides the probe, restricting which kinds are
	// attempted. Nil means use the probe result.
	Capabilities *capability.Capabilities

	// DriverFactory overrides driver construction. Nil means the real
	// transports.
	DriverFactory DriverFactory

	// Logger receives manager diagnostics.
	Logger logging.Logger
	// Metrics receives connection metrics.
	Metrics observability.Metrics
	// Tracer, when set, produces a span per open attempt.
	Tracer trace.Tracer
}

func (o Options) withDefaults() Options {
	if o.MaxReconnectAttempts <= 0 {
		o.MaxReconnectAttempts = DefaultMaxReconnectAttempts
	}
	if o.ReconnectBaseDelay <= 0 {
		o.ReconnectBaseDelay = DefaultReconnectBaseDelay
	}
	if o.ReconnectMaxDelay <= 0 {
		o.ReconnectMaxDelay = DefaultReconnectMaxDelay
	}
	if o.KeepaliveInterval <= 0 {
		o.KeepaliveInterval = DefaultKeepaliveInterval
	}
	if o.PollInterval <= 0 {
		o.PollInterval = DefaultPollInterval
	}
	if len(o.FallbackOrder) == 0 {
		o.FallbackOrder = []transport.Kind{
			transport.KindWebSocket,
			transport.KindSSE,
			transport.KindPolling,
		}
	}
	if o.DriverFactory == nil {
		o.DriverFactory = func(kind transport.Kind, cfg transport.Config) (transport.Driver, error) {
			return transport.New(kind, cfg)
		}
	}
	if o.Logger == nil {
		o.Logger = logging.Nop()
	}
	if o.Metrics == nil {
		o.Metrics = observability.NopMetrics()
	}
	return o
}

func (o Options) transportConfig() transport.Config {
	return transport.Config{
		BaseURL:      o.BaseURL,
		Token:        o.Token,
		StoreID:      o.StoreID,
		PollInterval: o.PollInterval,
		DialTimeout:  o.DialTimeout,
		Logger:       o.Logger,
	}
}
