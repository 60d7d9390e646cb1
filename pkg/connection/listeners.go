package connection

import (
	"sync"

	"github.com/google/uuid"

	"github.com/caiogn-dev/realtime-go/pkg/errors"
	"github.com/caiogn-dev/realtime-go/pkg/logging"
	"github.com/caiogn-dev/realtime-go/pkg/transport"
)

// EventHandler receives the payload of a single event type (or of every
// event when registered under the wildcard).
type EventHandler func(payload map[string]interface{})

// AnyHandler receives every forwarded event with its type.
type AnyHandler func(eventType string, payload map[string]interface{})

// StatusHandler receives status transitions with the active transport kind;
// the kind is empty when no transport is active.
type StatusHandler func(status Status, kind transport.Kind)

// ErrorHandler receives transport-level errors with the failing kind.
type ErrorHandler func(err error, kind transport.Kind)

// Subscription removes the registration it was returned for. Each
// registration is independent: registering the same function twice yields
// two subscriptions needing two removals. Calling it more than once is
// harmless.
type Subscription func()

// listenerRegistry holds every listener set. Handlers are keyed by opaque
// handles so removal never depends on function identity.
type listenerRegistry struct {
	mu       sync.RWMutex
	byType   map[string]map[string]EventHandler
	wildcard map[string]EventHandler
	global   map[string]AnyHandler
	status   map[string]StatusHandler
	errors   map[string]ErrorHandler

	log logging.Logger
}

func newListenerRegistry(log logging.Logger) *listenerRegistry {
	return &listenerRegistry{
		byType:   make(map[string]map[string]EventHandler),
		wildcard: make(map[string]EventHandler),
		global:   make(map[string]AnyHandler),
		status:   make(map[string]StatusHandler),
		errors:   make(map[string]ErrorHandler),
		log:      log,
	}
}

func (r *listenerRegistry) addEvent(eventType string, handler EventHandler) Subscription {
	id := uuid.NewString()

	r.mu.Lock()
	if eventType == Wildcard {
		r.wildcard[id] = handler
	} else {
		handlers, ok := r.byType[eventType]
		if !ok {
			handlers = make(map[string]EventHandler)
			r.byType[eventType] = handlers
		}
		handlers[id] = handler
	}
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if eventType == Wildcard {
			delete(r.wildcard, id)
			return
		}
		if handlers, ok := r.byType[eventType]; ok {
			delete(handlers, id)
			if len(handlers) == 0 {
				delete(r.byType, eventType)
			}
		}
	}
}

func (r *listenerRegistry) addGlobal(handler AnyHandler) Subscription {
	id := uuid.NewString()
	r.mu.Lock()
	r.global[id] = handler
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		delete(r.global, id)
		r.mu.Unlock()
	}
}

func (r *listenerRegistry) addStatus(handler StatusHandler) Subscription {
	id := uuid.NewString()
	r.mu.Lock()
	r.status[id] = handler
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		delete(r.status, id)
		r.mu.Unlock()
	}
}

func (r *listenerRegistry) addError(handler ErrorHandler) Subscription {
	id := uuid.NewString()
	r.mu.Lock()
	r.errors[id] = handler
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		delete(r.errors, id)
		r.mu.Unlock()
	}
}

// dispatchEvent fans one event out: exact-type listeners, then wildcard,
// then global. Handlers run outside the lock on a snapshot, so a handler
// may freely subscribe or unsubscribe.
func (r *listenerRegistry) dispatchEvent(eventType string, payload map[string]interface{}) {
	r.mu.RLock()
	exact := make([]EventHandler, 0, len(r.byType[eventType]))
	for _, h := range r.byType[eventType] {
		exact = append(exact, h)
	}
	wildcard := make([]EventHandler, 0, len(r.wildcard))
	for _, h := range r.wildcard {
		wildcard = append(wildcard, h)
	}
	global := make([]AnyHandler, 0, len(r.global))
	for _, h := range r.global {
		global = append(global, h)
	}
	r.mu.RUnlock()

	for _, h := range exact {
		r.safeInvoke(eventType, func() { h(payload) })
	}
	for _, h := range wildcard {
		r.safeInvoke(eventType, func() { h(payload) })
	}
	for _, h := range global {
		r.safeInvoke(eventType, func() { h(eventType, payload) })
	}
}

func (r *listenerRegistry) dispatchStatus(status Status, kind transport.Kind) {
	r.mu.RLock()
	handlers := make([]StatusHandler, 0, len(r.status))
	for _, h := range r.status {
		handlers = append(handlers, h)
	}
	r.mu.RUnlock()

	for _, h := range handlers {
		r.safeInvoke("status", func() { h(status, kind) })
	}
}

func (r *listenerRegistry) dispatchError(err error, kind transport.Kind) {
	r.mu.RLock()
	handlers := make([]ErrorHandler, 0, len(r.errors))
	for _, h := range r.errors {
		handlers = append(handlers, h)
	}
	r.mu.RUnlock()

	for _, h := range handlers {
		r.safeInvoke("error", func() { h(err, kind) })
	}
}

// safeInvoke isolates a panicking listener so the rest still run.
func (r *listenerRegistry) safeInvoke(eventType string, fn func()) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err := errors.ListenerPanic(eventType, recovered)
			r.log.WithError(err).Error("listener panicked")
		}
	}()
	fn()
}
