package errors

// Error codes grouped by concern. Transport failures occupy 1xx, lifecycle
// 2xx, payload handling 3xx and configuration 4xx.
const (
	// Transport failures (1xx)
	CodeConnectionFailed  = 100
	CodeConnectionLost    = 101
	CodeConnectionTimeout = 102
	CodeSendFailed        = 103
	CodeSendUnsupported   = 104
	CodeStreamRejected    = 105

	// Lifecycle (2xx)
	CodeNotConnected     = 200
	CodeRetriesExhausted = 201
	CodeKeepaliveFailed  = 202

	// Payload handling (3xx)
	CodeMalformedPayload = 300
	CodeListenerPanic    = 301

	// Configuration (4xx)
	CodeInvalidConfiguration = 400
	CodeUnknownTransport     = 401
)

// codeMessages maps error codes to their default human-readable messages.
var codeMessages = map[int]string{
	CodeConnectionFailed:     "connection failed",
	CodeConnectionLost:       "connection lost",
	CodeConnectionTimeout:    "connection timed out",
	CodeSendFailed:           "send failed",
	CodeSendUnsupported:      "transport does not support sending",
	CodeStreamRejected:       "stream rejected by server",
	CodeNotConnected:         "not connected",
	CodeRetriesExhausted:     "reconnect attempts exhausted",
	CodeKeepaliveFailed:      "keepalive failed",
	CodeMalformedPayload:     "malformed payload",
	CodeListenerPanic:        "listener panicked",
	CodeInvalidConfiguration: "invalid configuration",
	CodeUnknownTransport:     "unknown transport",
}

// MessageForCode returns the default message for a code, or a generic one
// when the code is unknown.
func MessageForCode(code int) string {
	if msg, ok := codeMessages[code]; ok {
		return msg
	}
	return "unknown error"
}
