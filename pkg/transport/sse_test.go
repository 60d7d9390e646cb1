package transport

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/caiogn-dev/realtime-go/pkg/errors"
)

func sseConfig(server *httptest.Server) Config {
	return Config{
		BaseURL:     server.URL,
		Token:       "test-token",
		StoreID:     "acme",
		DialTimeout: 5 * time.Second,
		BufferSize:  16,
	}
}

func sseHandler(write func(w http.ResponseWriter, flush func())) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		flusher := w.(http.Flusher)
		write(w, flusher.Flush)
	}
}

func TestSSEReceivesEvents(t *testing.T) {
	server := httptest.NewServer(sseHandler(func(w http.ResponseWriter, flush func()) {
		fmt.Fprint(w, "data: {\"type\":\"message_created\",\"id\":\"m-1\"}\n\n")
		fmt.Fprint(w, ": heartbeat\n\n")
		fmt.Fprint(w, "data: {\"type\":\"order_updated\",\"id\":\"o-1\"}\n\n")
		flush()
		time.Sleep(300 * time.Millisecond)
	}))
	defer server.Close()

	driver := NewSSEDriver(sseConfig(server))
	if err := driver.Open(context.Background()); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer driver.Close()

	timeout := time.After(time.Second)
	for i, wantType := range []string{"message_created", "order_updated"} {
		select {
		case ev := <-driver.Events():
			if ev.Type != wantType {
				t.Errorf("event %d: Type = %q, want %q", i, ev.Type, wantType)
			}
		case <-timeout:
			t.Fatalf("timeout waiting for event %d", i)
		}
	}
}

func TestSSENamedEventFillsMissingType(t *testing.T) {
	server := httptest.NewServer(sseHandler(func(w http.ResponseWriter, flush func()) {
		// Named-event framing with no type in the payload.
		fmt.Fprint(w, "event: campaign_status\ndata: {\"campaign_id\":\"c-1\"}\n\n")
		// Payload type wins over the stream's event name.
		fmt.Fprint(w, "event: ignored_name\ndata: {\"type\":\"order_created\",\"id\":\"o-2\"}\n\n")
		flush()
		time.Sleep(300 * time.Millisecond)
	}))
	defer server.Close()

	driver := NewSSEDriver(sseConfig(server))
	if err := driver.Open(context.Background()); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer driver.Close()

	timeout := time.After(time.Second)
	for i, wantType := range []string{"campaign_status", "order_created"} {
		select {
		case ev := <-driver.Events():
			if ev.Type != wantType {
				t.Errorf("event %d: Type = %q, want %q", i, ev.Type, wantType)
			}
		case <-timeout:
			t.Fatalf("timeout waiting for event %d", i)
		}
	}
}

func TestSSEMultiLineData(t *testing.T) {
	server := httptest.NewServer(sseHandler(func(w http.ResponseWriter, flush func()) {
		fmt.Fprint(w, "data: {\"type\":\"message_created\",\ndata:  \"body\":\"hi\"}\n\n")
		flush()
		time.Sleep(300 * time.Millisecond)
	}))
	defer server.Close()

	driver := NewSSEDriver(sseConfig(server))
	if err := driver.Open(context.Background()); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer driver.Close()

	select {
	case ev := <-driver.Events():
		if ev.Type != "message_created" {
			t.Errorf("Type = %q", ev.Type)
		}
		if ev.Payload["body"] != "hi" {
			t.Errorf("body = %v", ev.Payload["body"])
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for multi-line event")
	}
}

func TestSSERejectedStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer server.Close()

	driver := NewSSEDriver(sseConfig(server))
	err := driver.Open(context.Background())
	if err == nil {
		t.Fatal("expected open failure for 403")
	}
	if !errors.IsCode(err, errors.CodeStreamRejected) {
		t.Errorf("expected stream-rejected code, got %v", err)
	}
}

func TestSSEServerDropReported(t *testing.T) {
	server := httptest.NewServer(sseHandler(func(w http.ResponseWriter, flush func()) {
		fmt.Fprint(w, "data: {\"type\":\"connection_established\"}\n\n")
		flush()
		// Handler returns, closing the stream.
	}))
	defer server.Close()

	driver := NewSSEDriver(sseConfig(server))
	if err := driver.Open(context.Background()); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer driver.Close()

	select {
	case err := <-driver.Errors():
		if !errors.IsCode(err, errors.CodeConnectionLost) {
			t.Errorf("expected connection-lost code, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("stream drop never reported")
	}
}

func TestSSECloseDoesNotReportError(t *testing.T) {
	server := httptest.NewServer(sseHandler(func(w http.ResponseWriter, flush func()) {
		fmt.Fprint(w, "data: {\"type\":\"connection_established\"}\n\n")
		flush()
		time.Sleep(time.Second)
	}))
	defer server.Close()

	driver := NewSSEDriver(sseConfig(server))
	if err := driver.Open(context.Background()); err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	if err := driver.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	select {
	case err := <-driver.Errors():
		t.Errorf("intentional close surfaced as error: %v", err)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestSSESendUnsupported(t *testing.T) {
	driver := NewSSEDriver(Config{BaseURL: "http://localhost:1", Token: "t", StoreID: "s"})
	err := driver.Send([]byte("{}"))
	if !errors.IsCode(err, errors.CodeSendUnsupported) {
		t.Errorf("expected send-unsupported code, got %v", err)
	}
}

func TestSSERequestShape(t *testing.T) {
	got := make(chan *http.Request, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got <- r.Clone(context.Background())
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		w.(http.Flusher).Flush()
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	driver := NewSSEDriver(sseConfig(server))
	if err := driver.Open(context.Background()); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer driver.Close()

	r := <-got
	if r.URL.Path != "/api/sse/acme/events/" {
		t.Errorf("path = %q", r.URL.Path)
	}
	if r.URL.Query().Get("token") != "test-token" {
		t.Errorf("token missing: %q", r.URL.RawQuery)
	}
	if r.Header.Get("Accept") != "text/event-stream" {
		t.Errorf("Accept = %q", r.Header.Get("Accept"))
	}
}
