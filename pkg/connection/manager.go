package connection

import (
	"context"
	"encoding/json"
	"math"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/caiogn-dev/realtime-go/pkg/capability"
	"github.com/caiogn-dev/realtime-go/pkg/errors"
	"github.com/caiogn-dev/realtime-go/pkg/logging"
	"github.com/caiogn-dev/realtime-go/pkg/observability"
	"github.com/caiogn-dev/realtime-go/pkg/transport"
)

// Status is the connection lifecycle state.
type Status string

const (
	// StatusDisconnected is the initial state and the result of Disconnect.
	StatusDisconnected Status = "disconnected"
	// StatusConnecting covers open attempts, fallback walks and backoff
	// waits.
	StatusConnecting Status = "connecting"
	// StatusConnected means an active driver is delivering events.
	StatusConnected Status = "connected"
	// StatusError means the reconnect ceiling was reached; only a fresh
	// Connect or Reconnect escapes it.
	StatusError Status = "error"
)

// Info is a point-in-time snapshot for introspection.
type Info struct {
	Transport         transport.Kind          `json:"transport"`
	Status            Status                  `json:"status"`
	ReconnectAttempts int                     `json:"reconnect_attempts"`
	FallbackIndex     int                     `json:"fallback_index"`
	Capabilities      capability.Capabilities `json:"capabilities"`
}

// Manager owns one active transport driver at a time, walks the fallback
// order when a driver fails, applies exponential backoff across full failed
// cycles and fans inbound events out to listeners. All public methods are
// non-blocking and none of them panic or surface transport errors directly:
// problems flow through OnError and OnStatusChange.
type Manager struct {
	opts    Options
	log     logging.Logger
	metrics observability.Metrics
	caps    capability.Capabilities

	listeners *listenerRegistry

	mu          sync.Mutex
	status      Status
	driver      transport.Driver
	kind        transport.Kind
	attempts    int
	fallbackIdx int
	startIdx    int
	cancel      context.CancelFunc
	gen         uint64
}

// New constructs a manager. No network activity happens until Connect.
func New(opts Options) *Manager {
	opts = opts.withDefaults()

	caps := capability.Detect()
	if opts.Capabilities != nil {
		caps = *opts.Capabilities
	}

	log := opts.Logger.WithFields(
		logging.String("component", "connection"),
		logging.String("store_id", opts.StoreID),
	)

	return &Manager{
		opts:      opts,
		log:       log,
		metrics:   opts.Metrics,
		caps:      caps,
		listeners: newListenerRegistry(log),
		status:    StatusDisconnected,
	}
}

// Connect starts the connection cycle at fallback index 0. It is a no-op
// while already connecting or connected and returns immediately; progress is
// observed through OnStatusChange.
func (m *Manager) Connect() {
	m.connectAt(0)
}

func (m *Manager) connectAt(startIdx int) {
	m.mu.Lock()
	if m.status == StatusConnecting || m.status == StatusConnected {
		m.mu.Unlock()
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	// A cycle that ended in the error state left its cancel behind.
	if m.cancel != nil {
		m.cancel()
	}
	m.cancel = cancel
	m.gen++
	gen := m.gen
	m.attempts = 0
	m.startIdx = startIdx
	m.fallbackIdx = startIdx
	m.setStatusLocked(StatusConnecting)
	m.mu.Unlock()

	m.notifyStatus(StatusConnecting, "")
	go m.run(ctx, gen)
}

// Disconnect tears down the active driver, cancels the reconnect and
// keepalive timers and any in-flight polling request, and resets the attempt
// counters. Idempotent: calling it in any state ends in disconnected.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	cancel := m.cancel
	m.cancel = nil
	driver := m.driver
	m.driver = nil
	m.kind = ""
	m.attempts = 0
	m.fallbackIdx = 0
	m.startIdx = 0
	m.gen++
	changed := m.setStatusLocked(StatusDisconnected)
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if driver != nil {
		_ = driver.Close()
	}
	if changed {
		m.notifyStatus(StatusDisconnected, "")
	}
}

// Reconnect is Disconnect followed by Connect with counters zeroed.
func (m *Manager) Reconnect() {
	m.Disconnect()
	m.Connect()
}

// ForceTransport restarts the connection with the fallback index pinned to
// the requested kind's position in the order. Intended for diagnostics. It
// returns an error only when the kind is not part of the configured order.
func (m *Manager) ForceTransport(kind transport.Kind) error {
	idx := -1
	for i, k := range m.opts.FallbackOrder {
		if k == kind {
			idx = i
			break
		}
	}
	if idx < 0 {
		return errors.UnknownTransport(string(kind))
	}

	m.Disconnect()
	m.connectAt(idx)
	return nil
}

// Emit sends an application event over the active transport. It reports
// whether the frame was actually written: false while not connected, on a
// read-only transport, or on a write failure.
func (m *Manager) Emit(eventType string, payload map[string]interface{}) bool {
	m.mu.Lock()
	driver := m.driver
	connected := m.status == StatusConnected
	m.mu.Unlock()

	if !connected || driver == nil {
		return false
	}

	frame := make(map[string]interface{}, len(payload)+1)
	for k, v := range payload {
		frame[k] = v
	}
	frame["type"] = eventType

	data, err := json.Marshal(frame)
	if err != nil {
		m.log.WithError(err).Warn("emit payload not serializable", logging.String("type", eventType))
		return false
	}

	if err := driver.Send(data); err != nil {
		if !errors.IsCode(err, errors.CodeSendUnsupported) {
			m.log.WithError(err).Warn("emit failed", logging.String("type", eventType))
		}
		return false
	}
	return true
}

// On registers a listener for one event type, or for every type when
// eventType is the wildcard "*". The returned Subscription removes exactly
// this registration.
func (m *Manager) On(eventType string, handler EventHandler) Subscription {
	return m.listeners.addEvent(eventType, handler)
}

// OnAny registers a listener receiving every forwarded event with its type.
func (m *Manager) OnAny(handler AnyHandler) Subscription {
	return m.listeners.addGlobal(handler)
}

// OnStatusChange registers a listener for status transitions.
func (m *Manager) OnStatusChange(handler StatusHandler) Subscription {
	return m.listeners.addStatus(handler)
}

// OnError registers a listener for transport-level errors.
func (m *Manager) OnError(handler ErrorHandler) Subscription {
	return m.listeners.addError(handler)
}

// Status returns the current lifecycle state.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// Transport returns the active transport kind, empty when none is active.
func (m *Manager) Transport() transport.Kind {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.kind
}

// IsConnected reports whether an active driver is delivering events.
func (m *Manager) IsConnected() bool {
	return m.Status() == StatusConnected
}

// Info returns a snapshot of the connection for diagnostics.
func (m *Manager) Info() Info {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Info{
		Transport:         m.kind,
		Status:            m.status,
		ReconnectAttempts: m.attempts,
		FallbackIndex:     m.fallbackIdx,
		Capabilities:      m.caps,
	}
}

// run is the connection cycle: walk the fallback order, serve the driver
// that opens, back off between failed full cycles. It exits on context
// cancellation or when the attempt ceiling is reached.
func (m *Manager) run(ctx context.Context, gen uint64) {
	for {
		m.walkFallbackOrder(ctx, gen)
		if ctx.Err() != nil {
			return
		}

		// Whole order exhausted: one failed cycle.
		m.mu.Lock()
		if m.gen != gen {
			m.mu.Unlock()
			return
		}
		cycles := m.attempts
		m.attempts++
		reached := m.attempts >= m.opts.MaxReconnectAttempts
		if reached {
			m.setStatusLocked(StatusError)
		}
		m.mu.Unlock()

		m.metrics.RecordReconnectCycle()

		if reached {
			err := errors.RetriesExhausted(m.attemptsSnapshot())
			m.log.WithError(err).Error("giving up")
			m.notifyError(err, "")
			m.notifyStatus(StatusError, "")
			return
		}

		delay := backoffDelay(m.opts.ReconnectBaseDelay, m.opts.ReconnectMaxDelay, cycles)
		m.log.Info("retry cycle scheduled",
			logging.Duration("delay", delay),
			logging.Int("failed_cycles", cycles+1))

		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}

		m.mu.Lock()
		if m.gen != gen {
			m.mu.Unlock()
			return
		}
		m.fallbackIdx = m.startIdx
		m.mu.Unlock()
	}
}

// walkFallbackOrder tries each candidate from the current fallback index.
// It returns after the order is exhausted or the context is cancelled;
// successful connections are served inline.
func (m *Manager) walkFallbackOrder(ctx context.Context, gen uint64) {
	for {
		m.mu.Lock()
		if m.gen != gen {
			m.mu.Unlock()
			return
		}
		idx := m.fallbackIdx
		m.mu.Unlock()

		if idx >= len(m.opts.FallbackOrder) {
			return
		}
		kind := m.opts.FallbackOrder[idx]

		// Unsupported transports are skipped without attempt cost.
		if !m.caps.Supports(kind) {
			m.log.Debug("transport unsupported, skipping", logging.String("transport", string(kind)))
			m.advanceFallback(gen)
			continue
		}

		driver, err := m.openDriver(ctx, kind, idx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			m.notifyError(err, kind)
			m.advanceFallback(gen)
			continue
		}

		m.mu.Lock()
		if m.gen != gen {
			m.mu.Unlock()
			_ = driver.Close()
			return
		}
		m.driver = driver
		m.kind = kind
		m.attempts = 0
		m.setStatusLocked(StatusConnected)
		m.mu.Unlock()

		m.metrics.RecordTransport(string(kind))
		m.log.Info("connected", logging.String("transport", string(kind)))
		m.notifyStatus(StatusConnected, kind)

		reason := m.serve(ctx, gen, driver, kind)
		_ = driver.Close()

		m.mu.Lock()
		if m.gen != gen {
			m.mu.Unlock()
			return
		}
		m.driver = nil
		m.kind = ""
		m.fallbackIdx = idx + 1
		// Mid-stream failure flips back to connecting, not disconnected:
		// the manager is about to retry.
		m.setStatusLocked(StatusConnecting)
		m.mu.Unlock()

		if ctx.Err() != nil {
			return
		}

		m.metrics.RecordTransport("")
		m.notifyError(reason, kind)
		m.notifyStatus(StatusConnecting, "")
	}
}

// openDriver instantiates and opens one candidate, recording the attempt.
func (m *Manager) openDriver(ctx context.Context, kind transport.Kind, idx int) (transport.Driver, error) {
	driver, err := m.opts.DriverFactory(kind, m.opts.transportConfig())
	if err != nil {
		return nil, err
	}

	start := time.Now()
	if m.opts.Tracer != nil {
		spanCtx, span := m.opts.Tracer.Start(ctx, "realtime.connect")
		span.SetAttributes(
			attribute.String("realtime.transport", string(kind)),
			attribute.Int("realtime.fallback_index", idx),
		)
		err = driver.Open(spanCtx)
		observability.RecordError(span, err)
		span.End()
	} else {
		err = driver.Open(ctx)
	}
	m.metrics.RecordConnectAttempt(string(kind), time.Since(start), err == nil)

	if err != nil {
		_ = driver.Close()
		m.log.WithError(err).Warn("open attempt failed", logging.String("transport", string(kind)))
		return nil, err
	}
	return driver, nil
}

// serve pumps one connected driver until it fails or the cycle is
// cancelled, running the keepalive timer on the websocket transport.
func (m *Manager) serve(ctx context.Context, gen uint64, driver transport.Driver, kind transport.Kind) error {
	var keepaliveC <-chan time.Time
	if kind == transport.KindWebSocket {
		ticker := time.NewTicker(m.opts.KeepaliveInterval)
		defer ticker.Stop()
		keepaliveC = ticker.C
	}

	ping, _ := json.Marshal(map[string]string{"type": eventPing})

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-keepaliveC:
			if err := driver.Send(ping); err != nil {
				return errors.KeepaliveFailed(string(kind), err)
			}
			m.metrics.RecordKeepalive(string(kind))
			m.log.Debug("keepalive ping sent")

		case err, ok := <-driver.Errors():
			if !ok {
				return errors.ConnectionLost(string(kind), "", nil)
			}
			return err

		case ev, ok := <-driver.Events():
			if !ok {
				return errors.ConnectionLost(string(kind), "", nil)
			}
			m.forward(gen, kind, ev)
		}
	}
}

// forward normalizes and dispatches one inbound event. Stale generations
// (a disconnect happened since the event was read) are dropped.
func (m *Manager) forward(gen uint64, kind transport.Kind, ev transport.Event) {
	if isControlType(ev.Type) {
		return
	}

	eventType := normalizeEventType(ev.Type)

	if isHousekeepingType(eventType) {
		m.log.Debug("housekeeping event", logging.String("type", eventType))
		m.metrics.RecordEvent(string(kind), eventType)
		return
	}

	m.mu.Lock()
	stale := m.gen != gen || m.status != StatusConnected
	m.mu.Unlock()
	if stale {
		return
	}

	m.metrics.RecordEvent(string(kind), eventType)
	m.listeners.dispatchEvent(eventType, ev.Payload)
}

func (m *Manager) advanceFallback(gen uint64) {
	m.mu.Lock()
	if m.gen == gen {
		m.fallbackIdx++
	}
	m.mu.Unlock()
}

func (m *Manager) attemptsSnapshot() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.attempts
}

// setStatusLocked updates the status, reporting whether it changed. Caller
// holds m.mu and is responsible for notifying listeners after unlocking.
func (m *Manager) setStatusLocked(status Status) bool {
	if m.status == status {
		return false
	}
	m.status = status
	m.metrics.RecordStatus(string(status))
	return true
}

func (m *Manager) notifyStatus(status Status, kind transport.Kind) {
	m.listeners.dispatchStatus(status, kind)
}

func (m *Manager) notifyError(err error, kind transport.Kind) {
	m.metrics.RecordError(string(kind), errorCode(err))
	m.listeners.dispatchError(err, kind)
}

func errorCode(err error) int {
	if rtErr, ok := errors.AsRealtimeError(err); ok {
		return rtErr.Code()
	}
	return 0
}

// backoffDelay computes min(base * 1.5^cycles, max).
func backoffDelay(base, max time.Duration, cycles int) time.Duration {
	delay := float64(base) * math.Pow(1.5, float64(cycles))
	if delay > float64(max) {
		return max
	}
	return time.Duration(delay)
}
