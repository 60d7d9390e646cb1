// Package errors provides structured error handling for the realtime
// connection layer. Errors carry a numeric code, a category and a severity so
// that observers can react programmatically without string matching.
package errors

import (
	"encoding/json"
	"fmt"
	"time"
)

// Category classifies an error for handling decisions
type Category string

const (
	CategoryValidation Category = "validation"
	CategoryTransport  Category = "transport"
	CategoryInternal   Category = "internal"
	CategoryTimeout    Category = "timeout"
	CategoryCancelled  Category = "cancelled"
)

// Severity indicates how critical an error is
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

// Context records where and when an error occurred
type Context struct {
	Component string    `json:"component,omitempty"`
	Transport string    `json:"transport,omitempty"`
	Endpoint  string    `json:"endpoint,omitempty"`
	Operation string    `json:"operation,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// RealtimeError is the interface implemented by all errors produced by this
// module.
type RealtimeError interface {
	error

	// Code returns the numeric error code
	Code() int

	// Message returns a human-readable error message
	Message() string

	// Details returns a detailed technical description for debugging
	Details() string

	// Data returns structured error data for programmatic handling
	Data() interface{}

	// Category returns the error category for classification
	Category() Category

	// Severity returns the error severity level
	Severity() Severity

	// Context returns the error context information
	Context() *Context

	// WithContext returns a new error with the provided context
	WithContext(ctx *Context) RealtimeError

	// WithDetail returns a new error with additional detail
	WithDetail(detail string) RealtimeError

	// WithData returns a new error with structured data
	WithData(data interface{}) RealtimeError

	// Unwrap returns the underlying error for error chain traversal
	Unwrap() error

	// ToJSON returns the error as a JSON-serializable map
	ToJSON() map[string]interface{}
}

type baseError struct {
	code     int
	message  string
	details  string
	data     interface{}
	category Category
	severity Severity
	context  *Context
	cause    error
}

func (e *baseError) Error() string {
	if e.details != "" {
		return fmt.Sprintf("%s: %s", e.message, e.details)
	}
	return e.message
}

func (e *baseError) Code() int          { return e.code }
func (e *baseError) Message() string    { return e.message }
func (e *baseError) Details() string    { return e.details }
func (e *baseError) Data() interface{}  { return e.data }
func (e *baseError) Category() Category { return e.category }
func (e *baseError) Severity() Severity { return e.severity }
func (e *baseError) Context() *Context  { return e.context }
func (e *baseError) Unwrap() error      { return e.cause }

// WithContext returns a new error with the provided context
func (e *baseError) WithContext(ctx *Context) RealtimeError {
	newErr := *e
	newErr.context = ctx
	return &newErr
}

// WithDetail returns a new error with additional detail
func (e *baseError) WithDetail(detail string) RealtimeError {
	newErr := *e
	if newErr.details != "" {
		newErr.details = fmt.Sprintf("%s; %s", newErr.details, detail)
	} else {
		newErr.details = detail
	}
	return &newErr
}

// WithData returns a new error with structured data
func (e *baseError) WithData(data interface{}) RealtimeError {
	newErr := *e
	newErr.data = data
	return &newErr
}

// ToJSON returns the error as a JSON-serializable map
func (e *baseError) ToJSON() map[string]interface{} {
	result := map[string]interface{}{
		"code":     e.code,
		"message":  e.message,
		"category": string(e.category),
		"severity": string(e.severity),
	}

	if e.details != "" {
		result["details"] = e.details
	}
	if e.data != nil {
		result["data"] = e.data
	}
	if e.context != nil {
		result["context"] = e.context
	}
	if e.cause != nil {
		result["cause"] = e.cause.Error()
	}

	return result
}

// MarshalJSON makes errors loggable through JSON formatters.
func (e *baseError) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.ToJSON())
}

// New creates a new RealtimeError with the specified parameters
func New(code int, message string, category Category, severity Severity) RealtimeError {
	return &baseError{
		code:     code,
		message:  message,
		category: category,
		severity: severity,
		context: &Context{
			Timestamp: time.Now(),
		},
	}
}

// Newf creates a new RealtimeError with a formatted message
func Newf(code int, category Category, severity Severity, format string, args ...interface{}) RealtimeError {
	return New(code, fmt.Sprintf(format, args...), category, severity)
}

// Wrap wraps an existing error as a RealtimeError
func Wrap(err error, code int, message string, category Category, severity Severity) RealtimeError {
	return &baseError{
		code:     code,
		message:  message,
		category: category,
		severity: severity,
		cause:    err,
		context: &Context{
			Timestamp: time.Now(),
		},
	}
}

// AsRealtimeError extracts a RealtimeError from any error, reporting whether
// the extraction succeeded.
func AsRealtimeError(err error) (RealtimeError, bool) {
	if err == nil {
		return nil, false
	}
	rtErr, ok := err.(RealtimeError)
	return rtErr, ok
}

// IsCode reports whether err is a RealtimeError with the given code.
func IsCode(err error, code int) bool {
	rtErr, ok := AsRealtimeError(err)
	return ok && rtErr.Code() == code
}

// IsCategory reports whether err is a RealtimeError in the given category.
func IsCategory(err error, category Category) bool {
	rtErr, ok := AsRealtimeError(err)
	return ok && rtErr.Category() == category
}
