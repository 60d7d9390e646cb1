package transport

import (
	"testing"
)

func TestIsSecure(t *testing.T) {
	cases := []struct {
		baseURL string
		want    bool
	}{
		{"https://shop.example.com", true},
		{"http://shop.example.com", false},
		{"http://localhost:8000", false},
		{"wss://shop.example.com", true},
		{"http://acme-dashboard.herokuapp.com", true},
		{"http://acme.onrender.com", true},
		{"http://api.railway.app", true},
		{"http://commerce.fly.dev", true},
		{"http://flydev.example.com", false},
		{"://broken", false},
	}

	for _, tc := range cases {
		if got := IsSecure(tc.baseURL); got != tc.want {
			t.Errorf("IsSecure(%q) = %v, want %v", tc.baseURL, got, tc.want)
		}
	}
}

func TestSocketURL(t *testing.T) {
	cfg := Config{BaseURL: "https://shop.example.com", Token: "tok123", StoreID: "acme"}

	got, err := SocketURL(cfg)
	if err != nil {
		t.Fatalf("SocketURL failed: %v", err)
	}
	want := "wss://shop.example.com/ws/acme/?token=tok123"
	if got != want {
		t.Errorf("SocketURL = %q, want %q", got, want)
	}

	cfg.BaseURL = "http://localhost:8000"
	got, err = SocketURL(cfg)
	if err != nil {
		t.Fatalf("SocketURL failed: %v", err)
	}
	want = "ws://localhost:8000/ws/acme/?token=tok123"
	if got != want {
		t.Errorf("SocketURL = %q, want %q", got, want)
	}
}

func TestStreamAndPollURL(t *testing.T) {
	cfg := Config{BaseURL: "https://shop.example.com", Token: "tok123", StoreID: "acme"}

	stream, err := StreamURL(cfg)
	if err != nil {
		t.Fatalf("StreamURL failed: %v", err)
	}
	if want := "https://shop.example.com/api/sse/acme/events/?token=tok123"; stream != want {
		t.Errorf("StreamURL = %q, want %q", stream, want)
	}

	poll, err := PollURL(cfg)
	if err != nil {
		t.Fatalf("PollURL failed: %v", err)
	}
	if want := "https://shop.example.com/api/polling/acme/events/?token=tok123"; poll != want {
		t.Errorf("PollURL = %q, want %q", poll, want)
	}
}

func TestSchemeDecisionIsShared(t *testing.T) {
	// A secure-host base with a plain scheme must upgrade every endpoint.
	cfg := Config{BaseURL: "http://acme.herokuapp.com", Token: "t", StoreID: "s"}

	socket, _ := SocketURL(cfg)
	stream, _ := StreamURL(cfg)
	poll, _ := PollURL(cfg)

	if socket[:6] != "wss://" {
		t.Errorf("socket scheme not upgraded: %q", socket)
	}
	if stream[:8] != "https://" {
		t.Errorf("stream scheme not upgraded: %q", stream)
	}
	if poll[:8] != "https://" {
		t.Errorf("poll scheme not upgraded: %q", poll)
	}
}

func TestURLRequiresHost(t *testing.T) {
	if _, err := SocketURL(Config{BaseURL: "not a url"}); err == nil {
		t.Error("expected error for base URL without host")
	}
}
