package logger

import (
	"time"
)

// Standard field keys used across blobgate logs.
const (
	FieldComponent   = "component"
	FieldRequestID   = "request_id"
	FieldTraceID     = "trace_id"
	FieldOperation   = "operation"
	FieldBackend     = "backend"
	FieldContainer   = "container"
	FieldFolder      = "folder"
	FieldKey         = "key"
	FieldBytes       = "bytes"
	FieldCount       = "count"
	FieldStatus      = "status"
	FieldError       = "error"
	FieldErrorCode   = "error_code"
	FieldDuration    = "duration_ms"
	FieldAccountName = "account_name"
)

// Fields builds a map from alternating key-value pairs. Non-string keys and a
// trailing key without a value are dropped. error values are stored as their
// message.
//
//	logger.Info("listed", logger.Fields("folder", "docs", "count", 3))
func Fields(kvs ...any) map[string]any {
	m := make(map[string]any, len(kvs)/2)
	for i := 0; i < len(kvs)-1; i += 2 {
		key, ok := kvs[i].(string)
		if !ok {
			continue
		}
		if err, isErr := kvs[i+1].(error); isErr && err != nil {
			m[key] = err.Error()
			continue
		}
		m[key] = kvs[i+1]
	}
	return m
}

// ErrorFields creates fields for an operation that failed.
func ErrorFields(op string, err error) map[string]any {
	return map[string]any{
		FieldOperation: op,
		FieldError:     err.Error(),
	}
}

// MergeWithDuration adds a duration field to an existing map.
func MergeWithDuration(fields map[string]any, d time.Duration) map[string]any {
	if fields == nil {
		fields = make(map[string]any)
	}
	fields[FieldDuration] = d.Milliseconds()
	return fields
}
