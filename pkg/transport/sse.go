package transport

import (
	"bufio"
	"bytes"
	"context"
	"net/http"
	"strings"
	"sync"

	"github.com/caiogn-dev/realtime-go/pkg/errors"
	"github.com/caiogn-dev/realtime-go/pkg/logging"
)

// SSEDriver is the one-way push-stream transport. It holds a single GET
// request open and parses the text/event-stream body line by line.
type SSEDriver struct {
	cfg    Config
	log    logging.Logger
	client *http.Client

	mu          sync.Mutex
	closed      bool
	cancel      context.CancelFunc
	lastEventID string

	events chan Event
	errs   chan error
}

// NewSSEDriver creates an unopened push-stream driver.
func NewSSEDriver(cfg Config) *SSEDriver {
	cfg = cfg.withDefaults()
	return &SSEDriver{
		cfg: cfg,
		log: cfg.Logger.WithFields(logging.String("component", "transport"), logging.String("transport", string(KindSSE))),
		// No overall client timeout: the stream stays open indefinitely.
		// Cancellation happens through the request context.
		client: &http.Client{},
		events: make(chan Event, cfg.BufferSize),
		errs:   make(chan error, 1),
	}
}

// Kind identifies the driver.
func (d *SSEDriver) Kind() Kind { return KindSSE }

// Open issues the stream request and starts the parse loop. A 200 response
// with the event-stream content type counts as connected.
func (d *SSEDriver) Open(ctx context.Context) error {
	endpoint, err := StreamURL(d.cfg)
	if err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)

	req, err := http.NewRequestWithContext(runCtx, http.MethodGet, endpoint, nil)
	if err != nil {
		cancel()
		return errors.ConnectionFailed(string(KindSSE), endpoint, err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		cancel()
		return errors.NotConnected().WithDetail("driver already closed")
	}
	if d.lastEventID != "" {
		req.Header.Set("Last-Event-ID", d.lastEventID)
	}
	d.cancel = cancel
	d.mu.Unlock()

	resp, err := d.client.Do(req)
	if err != nil {
		cancel()
		return errors.ConnectionFailed(string(KindSSE), endpoint, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		cancel()
		return errors.StreamRejected(string(KindSSE), endpoint, resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "text/event-stream") {
		d.log.Warn("unexpected stream content type", logging.String("content_type", ct))
	}

	go d.readLoop(runCtx, resp, endpoint)

	d.log.Info("stream open", logging.String("endpoint", endpoint))
	return nil
}

func (d *SSEDriver) readLoop(ctx context.Context, resp *http.Response, endpoint string) {
	defer resp.Body.Close()

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var data bytes.Buffer
	var eventName string

	for scanner.Scan() {
		line := scanner.Text()

		// Blank line terminates the pending event.
		if line == "" {
			if data.Len() > 0 {
				if !d.emit(ctx, eventName, data.Bytes()) {
					return
				}
			}
			data.Reset()
			eventName = ""
			continue
		}

		// Comment lines are keepalive heartbeats.
		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value := splitSSELine(line)
		switch field {
		case "data":
			if data.Len() > 0 {
				data.WriteByte('\n')
			}
			data.WriteString(value)
		case "event":
			eventName = value
		case "id":
			d.mu.Lock()
			d.lastEventID = value
			d.mu.Unlock()
		case "retry":
			// Server retry hints are ignored: backoff policy is owned by
			// the connection manager.
		}
	}

	d.mu.Lock()
	closed := d.closed
	d.mu.Unlock()
	if closed || ctx.Err() != nil {
		return
	}

	err := scanner.Err()
	d.reportError(errors.ConnectionLost(string(KindSSE), endpoint, err))
}

// emit decodes and forwards one event, reporting false when the driver must
// stop.
func (d *SSEDriver) emit(ctx context.Context, eventName string, data []byte) bool {
	ev, err := decodeEvent(KindSSE, data)
	if err != nil {
		d.reportError(err)
		return false
	}
	// Named-event framing: the payload type wins, the stream's event field
	// fills in when the payload carries none.
	if ev.Type == "" && eventName != "" && eventName != "message" {
		ev.Type = eventName
	}

	select {
	case d.events <- ev:
		return true
	case <-ctx.Done():
		return false
	default:
		d.log.Warn("event buffer full, dropping event", logging.String("type", ev.Type))
		return true
	}
}

// Send is unsupported on a one-way stream.
func (d *SSEDriver) Send([]byte) error {
	return errors.SendUnsupported(string(KindSSE))
}

// Close aborts the stream request. Safe to call more than once.
func (d *SSEDriver) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	cancel := d.cancel
	d.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	d.log.Debug("stream closed")
	return nil
}

// Events delivers decoded inbound events.
func (d *SSEDriver) Events() <-chan Event { return d.events }

// Errors delivers the terminal stream error.
func (d *SSEDriver) Errors() <-chan error { return d.errs }

func (d *SSEDriver) reportError(err error) {
	select {
	case d.errs <- err:
	default:
	}
}

// splitSSELine splits "field: value", trimming the single optional space
// after the colon.
func splitSSELine(line string) (field, value string) {
	idx := strings.IndexByte(line, ':')
	if idx < 0 {
		return line, ""
	}
	field = line[:idx]
	value = line[idx+1:]
	value = strings.TrimPrefix(value, " ")
	return field, value
}
