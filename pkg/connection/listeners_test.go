package connection

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/caiogn-dev/realtime-go/pkg/logging"
	"github.com/caiogn-dev/realtime-go/pkg/transport"
)

func TestListenerIsolation(t *testing.T) {
	registry := newListenerRegistry(logging.Nop())

	var secondCalled bool
	registry.addEvent("order_created", func(map[string]interface{}) {
		panic("broken subscriber")
	})
	registry.addEvent("order_created", func(map[string]interface{}) {
		secondCalled = true
	})

	registry.dispatchEvent("order_created", map[string]interface{}{"id": "1"})

	assert.True(t, secondCalled, "a panicking listener must not starve the others")
}

func TestUnsubscribeRemovesExactlyOne(t *testing.T) {
	registry := newListenerRegistry(logging.Nop())

	calls := 0
	handler := func(map[string]interface{}) { calls++ }

	first := registry.addEvent("message_created", handler)
	registry.addEvent("message_created", handler)

	registry.dispatchEvent("message_created", nil)
	assert.Equal(t, 2, calls, "duplicate registrations are independent subscriptions")

	first()
	registry.dispatchEvent("message_created", nil)
	assert.Equal(t, 3, calls, "removing one subscription leaves the other active")

	// Unsubscribing twice is harmless.
	first()
	registry.dispatchEvent("message_created", nil)
	assert.Equal(t, 4, calls)
}

func TestDispatchOrderExactThenWildcardThenGlobal(t *testing.T) {
	registry := newListenerRegistry(logging.Nop())

	var order []string
	registry.addEvent("order_updated", func(map[string]interface{}) {
		order = append(order, "exact")
	})
	registry.addEvent(Wildcard, func(map[string]interface{}) {
		order = append(order, "wildcard")
	})
	registry.addGlobal(func(string, map[string]interface{}) {
		order = append(order, "global")
	})

	registry.dispatchEvent("order_updated", nil)

	assert.Equal(t, []string{"exact", "wildcard", "global"}, order)
}

func TestWildcardDoesNotReceiveOwnKeyLiterally(t *testing.T) {
	registry := newListenerRegistry(logging.Nop())

	exactHits := 0
	registry.addEvent("message_status", func(map[string]interface{}) { exactHits++ })

	registry.dispatchEvent("campaign_metrics", nil)
	assert.Zero(t, exactHits, "exact listeners only fire for their own type")
}

func TestUnsubscribeDuringDispatch(t *testing.T) {
	registry := newListenerRegistry(logging.Nop())

	var unsub Subscription
	calls := 0
	unsub = registry.addEvent("message_created", func(map[string]interface{}) {
		calls++
		unsub()
	})

	registry.dispatchEvent("message_created", nil)
	registry.dispatchEvent("message_created", nil)

	assert.Equal(t, 1, calls, "a handler may remove itself while running")
}

func TestStatusAndErrorRegistries(t *testing.T) {
	registry := newListenerRegistry(logging.Nop())

	var gotStatus Status
	var gotKind transport.Kind
	unsubStatus := registry.addStatus(func(status Status, kind transport.Kind) {
		gotStatus = status
		gotKind = kind
	})

	errCount := 0
	registry.addError(func(error, transport.Kind) { errCount++ })

	registry.dispatchStatus(StatusConnected, transport.KindWebSocket)
	assert.Equal(t, StatusConnected, gotStatus)
	assert.Equal(t, transport.KindWebSocket, gotKind)

	registry.dispatchError(nil, transport.KindSSE)
	assert.Equal(t, 1, errCount)

	unsubStatus()
	registry.dispatchStatus(StatusDisconnected, "")
	assert.Equal(t, StatusConnected, gotStatus, "removed status listener must not fire")
}
