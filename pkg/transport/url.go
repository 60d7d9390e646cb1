package transport

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/caiogn-dev/realtime-go/pkg/errors"
)

// secureHostSuffixes lists managed-hosting domains that always terminate TLS
// even when the configured base URL carries a plain scheme.
var secureHostSuffixes = []string{
	".herokuapp.com",
	".onrender.com",
	".railway.app",
	".fly.dev",
}

// IsSecure is the single scheme decision shared by every driver: a base URL
// is secure when its scheme is https (or wss) or its host matches a known
// secure-hosting pattern. Drivers must never make this call on their own.
func IsSecure(baseURL string) bool {
	u, err := url.Parse(baseURL)
	if err != nil {
		return false
	}
	switch strings.ToLower(u.Scheme) {
	case "https", "wss":
		return true
	}
	host := strings.ToLower(u.Hostname())
	for _, suffix := range secureHostSuffixes {
		if strings.HasSuffix(host, suffix) {
			return true
		}
	}
	return false
}

// parseHost extracts the host:port from a base URL.
func parseHost(baseURL string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", errors.InvalidConfiguration("BaseURL", fmt.Sprintf("cannot be parsed: %v", err))
	}
	if u.Host == "" {
		return "", errors.InvalidConfiguration("BaseURL", "has no host")
	}
	return u.Host, nil
}

// SocketURL builds the websocket endpoint:
// ws(s)://<host>/ws/<store>/?token=<token>
func SocketURL(cfg Config) (string, error) {
	host, err := parseHost(cfg.BaseURL)
	if err != nil {
		return "", err
	}
	scheme := "ws"
	if IsSecure(cfg.BaseURL) {
		scheme = "wss"
	}
	u := url.URL{
		Scheme:   scheme,
		Host:     host,
		Path:     fmt.Sprintf("/ws/%s/", cfg.StoreID),
		RawQuery: url.Values{"token": {cfg.Token}}.Encode(),
	}
	return u.String(), nil
}

// StreamURL builds the server-sent-events endpoint:
// http(s)://<host>/api/sse/<store>/events/?token=<token>
func StreamURL(cfg Config) (string, error) {
	return apiURL(cfg, "sse")
}

// PollURL builds the polling endpoint:
// http(s)://<host>/api/polling/<store>/events/?token=<token>
func PollURL(cfg Config) (string, error) {
	return apiURL(cfg, "polling")
}

func apiURL(cfg Config, channel string) (string, error) {
	host, err := parseHost(cfg.BaseURL)
	if err != nil {
		return "", err
	}
	scheme := "http"
	if IsSecure(cfg.BaseURL) {
		scheme = "https"
	}
	u := url.URL{
		Scheme:   scheme,
		Host:     host,
		Path:     fmt.Sprintf("/api/%s/%s/events/", channel, cfg.StoreID),
		RawQuery: url.Values{"token": {cfg.Token}}.Encode(),
	}
	return u.String(), nil
}
