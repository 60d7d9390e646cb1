package transport

import (
	"context"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/caiogn-dev/realtime-go/pkg/errors"
	"github.com/caiogn-dev/realtime-go/pkg/logging"
)

// PollingDriver is the interval-based HTTP transport. The first successful
// response counts as connected; afterwards each request is scheduled a fixed
// interval after the previous one completes, so slow responses never cause
// overlapping requests.
type PollingDriver struct {
	cfg      Config
	log      logging.Logger
	client   *http.Client
	endpoint string

	mu     sync.Mutex
	closed bool
	cancel context.CancelFunc

	events chan Event
	errs   chan error
}

// NewPollingDriver creates an unopened polling driver.
func NewPollingDriver(cfg Config) *PollingDriver {
	cfg = cfg.withDefaults()
	return &PollingDriver{
		cfg:    cfg,
		log:    cfg.Logger.WithFields(logging.String("component", "transport"), logging.String("transport", string(KindPolling))),
		client: &http.Client{Timeout: cfg.DialTimeout},
		events: make(chan Event, cfg.BufferSize),
		errs:   make(chan error, 1),
	}
}

// Kind identifies the driver.
func (d *PollingDriver) Kind() Kind { return KindPolling }

// Open performs the first poll synchronously and, on success, starts the
// poll loop.
func (d *PollingDriver) Open(ctx context.Context) error {
	endpoint, err := PollURL(d.cfg)
	if err != nil {
		return err
	}
	d.endpoint = endpoint

	runCtx, cancel := context.WithCancel(ctx)

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		cancel()
		return errors.NotConnected().WithDetail("driver already closed")
	}
	d.cancel = cancel
	d.mu.Unlock()

	// First successful response is the connected signal.
	if err := d.pollOnce(runCtx); err != nil {
		cancel()
		return err
	}

	go d.pollLoop(runCtx)

	d.log.Info("polling started",
		logging.String("endpoint", endpoint),
		logging.Duration("interval", d.cfg.PollInterval))
	return nil
}

func (d *PollingDriver) pollLoop(ctx context.Context) {
	for {
		// Interval measured from completion of the previous request.
		timer := time.NewTimer(d.cfg.PollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		if err := d.pollOnce(ctx); err != nil {
			d.mu.Lock()
			closed := d.closed
			d.mu.Unlock()
			if closed || ctx.Err() != nil {
				return
			}
			d.reportError(err)
			return
		}
	}
}

func (d *PollingDriver) pollOnce(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.endpoint, nil)
	if err != nil {
		return errors.ConnectionFailed(string(KindPolling), d.endpoint, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+d.cfg.Token)

	resp, err := d.client.Do(req)
	if err != nil {
		return errors.ConnectionFailed(string(KindPolling), d.endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errors.StreamRejected(string(KindPolling), d.endpoint, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.ConnectionLost(string(KindPolling), d.endpoint, err)
	}
	if firstNonSpace(body) == 0 {
		return nil
	}

	events, err := decodeEvents(KindPolling, body)
	if err != nil {
		return err
	}
	for _, ev := range events {
		select {
		case d.events <- ev:
		case <-ctx.Done():
			return ctx.Err()
		default:
			d.log.Warn("event buffer full, dropping event", logging.String("type", ev.Type))
		}
	}
	return nil
}

// Send is unsupported on the polling transport.
func (d *PollingDriver) Send([]byte) error {
	return errors.SendUnsupported(string(KindPolling))
}

// Close cancels the poll loop, aborting any in-flight request. Safe to call
// more than once.
func (d *PollingDriver) Close() error {
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
	d.log.Debug("polling stopped")
	return nil
}

// Events delivers decoded inbound events.
func (d *PollingDriver) Events() <-chan Event { return d.events }

// Errors delivers the terminal stream error.
func (d *PollingDriver) Errors() <-chan error { return d.errs }

func (d *PollingDriver) reportError(err error) {
	select {
	case d.errs <- err:
	default:
	}
}
