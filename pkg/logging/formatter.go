package logging

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// TextFormatter renders entries as human-readable lines.
type TextFormatter struct {
	// TimestampFormat controls how the entry timestamp is rendered.
	TimestampFormat string
	// DisableTimestamp omits the timestamp entirely.
	DisableTimestamp bool
}

// NewTextFormatter creates a text formatter with default settings
func NewTextFormatter() *TextFormatter {
	return &TextFormatter{
		TimestampFormat: time.RFC3339,
	}
}

// Format renders a single entry.
func (f *TextFormatter) Format(entry *Entry) ([]byte, error) {
	var buf bytes.Buffer

	if !f.DisableTimestamp {
		format := f.TimestampFormat
		if format == "" {
			format = time.RFC3339
		}
		buf.WriteString(entry.Timestamp.Format(format))
		buf.WriteByte(' ')
	}

	fmt.Fprintf(&buf, "[%s]", entry.Level)
	if entry.Component != "" {
		fmt.Fprintf(&buf, " [%s]", entry.Component)
	}
	buf.WriteByte(' ')
	buf.WriteString(entry.Message)

	// Stable field order keeps output diffable.
	keys := make([]string, 0, len(entry.Fields))
	for k := range entry.Fields {
		if k == "component" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		fmt.Fprintf(&buf, " %s=%v", k, entry.Fields[k])
	}

	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// JSONFormatter renders entries as JSON objects, one per line.
type JSONFormatter struct {
	// TimestampFormat controls how the entry timestamp is rendered.
	TimestampFormat string
}

// NewJSONFormatter creates a JSON formatter with default settings
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{
		TimestampFormat: time.RFC3339Nano,
	}
}

// Format renders a single entry.
func (f *JSONFormatter) Format(entry *Entry) ([]byte, error) {
	format := f.TimestampFormat
	if format == "" {
		format = time.RFC3339Nano
	}

	data := make(map[string]interface{}, len(entry.Fields)+3)
	for k, v := range entry.Fields {
		if err, ok := v.(error); ok {
			v = err.Error()
		}
		data[k] = v
	}
	data["level"] = entry.Level.String()
	data["message"] = entry.Message
	data["timestamp"] = entry.Timestamp.Format(format)

	out, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return append(out, '\n'), nil
}
