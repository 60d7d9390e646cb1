package transport

import (
	"testing"

	"github.com/caiogn-dev/realtime-go/pkg/errors"
)

func TestDecodeEvent(t *testing.T) {
	ev, err := decodeEvent(KindWebSocket, []byte(`{"type":"order_created","order_id":"o-1","total":129.9}`))
	if err != nil {
		t.Fatalf("decodeEvent failed: %v", err)
	}
	if ev.Type != "order_created" {
		t.Errorf("Type = %q, want order_created", ev.Type)
	}
	if ev.Payload["order_id"] != "o-1" {
		t.Errorf("order_id = %v", ev.Payload["order_id"])
	}
	if _, present := ev.Payload["type"]; present {
		t.Error("type discriminator must be stripped from the payload")
	}
	if ev.ReceivedAt.IsZero() {
		t.Error("ReceivedAt should be set")
	}
}

func TestDecodeEventWithoutType(t *testing.T) {
	ev, err := decodeEvent(KindSSE, []byte(`{"order_id":"o-2"}`))
	if err != nil {
		t.Fatalf("decodeEvent failed: %v", err)
	}
	if ev.Type != "" {
		t.Errorf("Type = %q, want empty", ev.Type)
	}
}

func TestDecodeEventMalformed(t *testing.T) {
	_, err := decodeEvent(KindWebSocket, []byte(`{"type":`))
	if err == nil {
		t.Fatal("expected error for malformed JSON")
	}
	if !errors.IsCode(err, errors.CodeMalformedPayload) {
		t.Errorf("expected malformed-payload code, got %v", err)
	}
}

func TestDecodeEventsSingleObject(t *testing.T) {
	events, err := decodeEvents(KindPolling, []byte(`{"type":"message_created","id":"m-1"}`))
	if err != nil {
		t.Fatalf("decodeEvents failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	if events[0].Type != "message_created" {
		t.Errorf("Type = %q", events[0].Type)
	}
}

func TestDecodeEventsArrayPreservesOrder(t *testing.T) {
	body := `[
		{"type":"message_created","seq":1},
		{"type":"message_status","seq":2},
		{"type":"order_updated","seq":3}
	]`
	events, err := decodeEvents(KindPolling, []byte(body))
	if err != nil {
		t.Fatalf("decodeEvents failed: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("got %d events, want 3", len(events))
	}
	wantTypes := []string{"message_created", "message_status", "order_updated"}
	for i, want := range wantTypes {
		if events[i].Type != want {
			t.Errorf("event %d: Type = %q, want %q", i, events[i].Type, want)
		}
		if events[i].Payload["seq"] != float64(i+1) {
			t.Errorf("event %d out of order: seq = %v", i, events[i].Payload["seq"])
		}
	}
}

func TestNewDriverKinds(t *testing.T) {
	cfg := Config{BaseURL: "http://localhost:8000", Token: "t", StoreID: "s"}

	for _, kind := range []Kind{KindWebSocket, KindSSE, KindPolling} {
		driver, err := New(kind, cfg)
		if err != nil {
			t.Fatalf("New(%s) failed: %v", kind, err)
		}
		if driver.Kind() != kind {
			t.Errorf("Kind() = %s, want %s", driver.Kind(), kind)
		}
	}

	if _, err := New(Kind("smoke-signal"), cfg); err == nil {
		t.Error("expected error for unknown kind")
	}
}
