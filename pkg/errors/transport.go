package errors

import (
	"fmt"
	"time"
)

// transportContext builds a Context for a transport-scoped error.
func transportContext(transport, endpoint, operation string) *Context {
	return &Context{
		Component: "transport",
		Transport: transport,
		Endpoint:  endpoint,
		Operation: operation,
		Timestamp: time.Now(),
	}
}

// ConnectionFailed indicates a transport could not establish its initial
// connection.
func ConnectionFailed(transport, endpoint string, cause error) RealtimeError {
	return Wrap(cause, CodeConnectionFailed,
		fmt.Sprintf("%s connection failed", transport),
		CategoryTransport, SeverityError).
		WithContext(transportContext(transport, endpoint, "open"))
}

// ConnectionLost indicates an established connection dropped mid-stream.
func ConnectionLost(transport, endpoint string, cause error) RealtimeError {
	return Wrap(cause, CodeConnectionLost,
		fmt.Sprintf("%s connection lost", transport),
		CategoryTransport, SeverityWarning).
		WithContext(transportContext(transport, endpoint, "read"))
}

// ConnectionTimeout indicates an open attempt exceeded its deadline.
func ConnectionTimeout(transport, endpoint string, timeout time.Duration) RealtimeError {
	return Newf(CodeConnectionTimeout, CategoryTimeout, SeverityError,
		"%s connection timed out after %s", transport, timeout).
		WithContext(transportContext(transport, endpoint, "open"))
}

// SendFailed indicates an outbound frame could not be written.
func SendFailed(transport string, cause error) RealtimeError {
	return Wrap(cause, CodeSendFailed,
		fmt.Sprintf("%s send failed", transport),
		CategoryTransport, SeverityError).
		WithContext(transportContext(transport, "", "send"))
}

// SendUnsupported indicates the active transport is one-way.
func SendUnsupported(transport string) RealtimeError {
	return New(CodeSendUnsupported,
		fmt.Sprintf("%s transport does not support sending", transport),
		CategoryTransport, SeverityInfo).
		WithContext(transportContext(transport, "", "send"))
}

// StreamRejected indicates the server answered a stream request with an
// unexpected status or content type.
func StreamRejected(transport, endpoint string, status int) RealtimeError {
	return Newf(CodeStreamRejected, CategoryTransport, SeverityError,
		"%s stream rejected with status %d", transport, status).
		WithContext(transportContext(transport, endpoint, "open")).
		WithData(map[string]interface{}{"status": status})
}

// NotConnected indicates an operation that requires an active connection.
func NotConnected() RealtimeError {
	return New(CodeNotConnected, MessageForCode(CodeNotConnected),
		CategoryTransport, SeverityWarning)
}

// RetriesExhausted indicates the reconnect ceiling was reached.
func RetriesExhausted(attempts int) RealtimeError {
	return Newf(CodeRetriesExhausted, CategoryTransport, SeverityCritical,
		"reconnect attempts exhausted after %d full cycles", attempts).
		WithData(map[string]interface{}{"attempts": attempts})
}

// KeepaliveFailed indicates a keepalive frame could not be delivered.
func KeepaliveFailed(transport string, cause error) RealtimeError {
	return Wrap(cause, CodeKeepaliveFailed,
		fmt.Sprintf("%s keepalive failed", transport),
		CategoryTransport, SeverityWarning).
		WithContext(transportContext(transport, "", "keepalive"))
}

// MalformedPayload indicates an inbound frame could not be decoded.
func MalformedPayload(transport string, cause error) RealtimeError {
	return Wrap(cause, CodeMalformedPayload, MessageForCode(CodeMalformedPayload),
		CategoryValidation, SeverityWarning).
		WithContext(transportContext(transport, "", "decode"))
}

// ListenerPanic indicates a registered callback panicked during dispatch.
func ListenerPanic(eventType string, recovered interface{}) RealtimeError {
	return Newf(CodeListenerPanic, CategoryInternal, SeverityError,
		"listener for %q panicked: %v", eventType, recovered).
		WithData(map[string]interface{}{"event_type": eventType})
}

// InvalidConfiguration indicates an option that cannot be used as given.
func InvalidConfiguration(param, reason string) RealtimeError {
	return Newf(CodeInvalidConfiguration, CategoryValidation, SeverityError,
		"invalid configuration: %s %s", param, reason).
		WithData(map[string]interface{}{"parameter": param})
}

// UnknownTransport indicates a transport kind outside the configured
// fallback order.
func UnknownTransport(kind string) RealtimeError {
	return Newf(CodeUnknownTransport, CategoryValidation, SeverityError,
		"unknown transport %q", kind).
		WithData(map[string]interface{}{"kind": kind})
}
