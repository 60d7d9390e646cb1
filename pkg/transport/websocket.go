package transport

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/caiogn-dev/realtime-go/pkg/errors"
	"github.com/caiogn-dev/realtime-go/pkg/logging"
)

// WebSocketDriver is the bidirectional persistent-socket transport. Inbound
// frames are JSON-decoded and forwarded on Events; an abnormal close is
// reported once on Errors.
type WebSocketDriver struct {
	cfg Config
	log logging.Logger

	mu        sync.Mutex
	conn      *websocket.Conn
	connected bool
	closed    bool
	cancel    context.CancelFunc
	group     *errgroup.Group

	// writeMu serializes writes; gorilla allows one concurrent writer.
	writeMu sync.Mutex

	events chan Event
	errs   chan error
}

// NewWebSocketDriver creates an unopened websocket driver.
func NewWebSocketDriver(cfg Config) *WebSocketDriver {
	cfg = cfg.withDefaults()
	return &WebSocketDriver{
		cfg:    cfg,
		log:    cfg.Logger.WithFields(logging.String("component", "transport"), logging.String("transport", string(KindWebSocket))),
		events: make(chan Event, cfg.BufferSize),
		errs:   make(chan error, 1),
	}
}

// Kind identifies the driver.
func (d *WebSocketDriver) Kind() Kind { return KindWebSocket }

// Open dials the socket endpoint and starts the read loop.
func (d *WebSocketDriver) Open(ctx context.Context) error {
	endpoint, err := SocketURL(d.cfg)
	if err != nil {
		return err
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: d.cfg.DialTimeout,
	}

	conn, resp, err := dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		if resp != nil {
			return errors.ConnectionFailed(string(KindWebSocket), endpoint, err).
				WithData(map[string]interface{}{"status": resp.StatusCode})
		}
		return errors.ConnectionFailed(string(KindWebSocket), endpoint, err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	group, runCtx := errgroup.WithContext(runCtx)

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		cancel()
		_ = conn.Close()
		return errors.NotConnected().WithDetail("driver already closed")
	}
	d.conn = conn
	d.connected = true
	d.cancel = cancel
	d.group = group
	d.mu.Unlock()

	group.Go(func() error {
		d.readLoop(runCtx, conn, endpoint)
		return nil
	})

	d.log.Info("websocket open", logging.String("endpoint", endpoint))
	return nil
}

func (d *WebSocketDriver) readLoop(ctx context.Context, conn *websocket.Conn, endpoint string) {
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			d.mu.Lock()
			closed := d.closed
			d.connected = false
			d.mu.Unlock()

			if closed || ctx.Err() != nil {
				return
			}
			d.reportError(errors.ConnectionLost(string(KindWebSocket), endpoint, err))
			return
		}

		if msgType != websocket.TextMessage && msgType != websocket.BinaryMessage {
			continue
		}

		ev, err := decodeEvent(KindWebSocket, data)
		if err != nil {
			d.mu.Lock()
			d.connected = false
			d.mu.Unlock()
			d.reportError(err)
			return
		}

		select {
		case d.events <- ev:
		case <-ctx.Done():
			return
		default:
			d.log.Warn("event buffer full, dropping frame", logging.String("type", ev.Type))
		}
	}
}

// Send writes a text frame to the socket.
func (d *WebSocketDriver) Send(data []byte) error {
	d.mu.Lock()
	conn := d.conn
	connected := d.connected
	d.mu.Unlock()

	if !connected || conn == nil {
		return errors.NotConnected()
	}

	d.writeMu.Lock()
	defer d.writeMu.Unlock()

	if err := conn.SetWriteDeadline(time.Now().Add(d.cfg.DialTimeout)); err != nil {
		return errors.SendFailed(string(KindWebSocket), err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return errors.SendFailed(string(KindWebSocket), err)
	}
	return nil
}

// Close shuts the socket down. Safe to call more than once.
func (d *WebSocketDriver) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	d.connected = false
	conn := d.conn
	cancel := d.cancel
	group := d.group
	d.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if conn != nil {
		d.writeMu.Lock()
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		d.writeMu.Unlock()
		_ = conn.Close()
	}
	if group != nil {
		_ = group.Wait()
	}

	d.log.Debug("websocket closed")
	return nil
}

// Events delivers decoded inbound events.
func (d *WebSocketDriver) Events() <-chan Event { return d.events }

// Errors delivers the terminal stream error.
func (d *WebSocketDriver) Errors() <-chan error { return d.errs }

func (d *WebSocketDriver) reportError(err error) {
	select {
	case d.errs <- err:
	default:
	}
}
