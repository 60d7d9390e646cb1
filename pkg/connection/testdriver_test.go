package connection

import (
	"context"
	"sync"

	"github.com/caiogn-dev/realtime-go/pkg/transport"
)

// fakeDriver is a scriptable transport.Driver for manager tests.
type fakeDriver struct {
	kind    transport.Kind
	openErr error
	sendErr error

	mu     sync.Mutex
	opened bool
	closed bool
	sent   [][]byte

	events chan transport.Event
	errs   chan error
}

func newFakeDriver(kind transport.Kind) *fakeDriver {
	return &fakeDriver{
		kind:   kind,
		events: make(chan transport.Event, 16),
		errs:   make(chan error, 1),
	}
}

func (d *fakeDriver) Kind() transport.Kind { return d.kind }

func (d *fakeDriver) Open(_ context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.openErr != nil {
		return d.openErr
	}
	d.opened = true
	return nil
}

func (d *fakeDriver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

func (d *fakeDriver) Send(data []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.sendErr != nil {
		return d.sendErr
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	d.sent = append(d.sent, buf)
	return nil
}

func (d *fakeDriver) Events() <-chan transport.Event { return d.events }
func (d *fakeDriver) Errors() <-chan error           { return d.errs }

func (d *fakeDriver) push(ev transport.Event) { d.events <- ev }
func (d *fakeDriver) fail(err error)          { d.errs <- err }

func (d *fakeDriver) sentCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.sent)
}

func (d *fakeDriver) lastSent() []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.sent) == 0 {
		return nil
	}
	return d.sent[len(d.sent)-1]
}

func (d *fakeDriver) isClosed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

// fakeFactory builds fakeDrivers on demand and records every attempt.
type fakeFactory struct {
	mu       sync.Mutex
	openErr  map[transport.Kind]error
	sendErr  map[transport.Kind]error
	attempts []transport.Kind
	created  map[transport.Kind][]*fakeDriver
}

func newFakeFactory() *fakeFactory {
	return &fakeFactory{
		openErr: make(map[transport.Kind]error),
		sendErr: make(map[transport.Kind]error),
		created: make(map[transport.Kind][]*fakeDriver),
	}
}

func (f *fakeFactory) failOpen(kind transport.Kind, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.openErr[kind] = err
}

func (f *fakeFactory) failSend(kind transport.Kind, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sendErr[kind] = err
}

func (f *fakeFactory) factory(kind transport.Kind, _ transport.Config) (transport.Driver, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	d := newFakeDriver(kind)
	d.openErr = f.openErr[kind]
	d.sendErr = f.sendErr[kind]
	f.attempts = append(f.attempts, kind)
	f.created[kind] = append(f.created[kind], d)
	return d, nil
}

func (f *fakeFactory) attemptCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.attempts)
}

func (f *fakeFactory) attemptOrder() []transport.Kind {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]transport.Kind, len(f.attempts))
	copy(out, f.attempts)
	return out
}

func (f *fakeFactory) last(kind transport.Kind) *fakeDriver {
	f.mu.Lock()
	defer f.mu.Unlock()
	drivers := f.created[kind]
	if len(drivers) == 0 {
		return nil
	}
	return drivers[len(drivers)-1]
}
