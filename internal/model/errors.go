package model

import (
	"errors"
	"fmt"
)

var (
	ErrSchemaNotFound  = errors.New("schema not found")
	ErrMissingField    = errors.New("missing required field")
	ErrDecodeFailed    = errors.New("decode failed")
	ErrInvalidRawEvent = errors.New("invalid raw event")
	ErrTypeMismatch    = errors.New("type mismatch")
	ErrUnsupportedType = errors.New("unsupported type")
	ErrSchemaExists    = errors.New("schema version already exists")
	ErrInvalidSchema   = errors.New("invalid schema")
)

// DecodeError is a typed failure for one event or one of its fields.
// Kind is one of the Err* sentinels above.
type DecodeError struct {
	Kind        error
	Field       string
	Fingerprint EventFingerprint
	Reason      string
}

func (e *DecodeError) Error() string {
	msg := e.Kind.Error()
	if e.Field != "" {
		msg += " " + e.Field
	}
	if e.Fingerprint != "" {
		msg += " (fingerprint " + string(e.Fingerprint) + ")"
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

func (e *DecodeError) Unwrap() error { return e.Kind }

// SchemaNotFound reports an unmatched fingerprint.
func SchemaNotFound(fp EventFingerprint) *DecodeError {
	return &DecodeError{Kind: ErrSchemaNotFound, Fingerprint: fp}
}

// MissingField reports a required field absent from the payload.
func MissingField(field string) *DecodeError {
	return &DecodeError{Kind: ErrMissingField, Field: field}
}

// DecodeFailed reports malformed data for a field or for the payload framing.
func DecodeFailed(field, format string, args ...interface{}) *DecodeError {
	return &DecodeError{Kind: ErrDecodeFailed, Field: field, Reason: fmt.Sprintf(format, args...)}
}

// InvalidRawEvent reports a raw event whose envelope cannot be interpreted.
func InvalidRawEvent(format string, args ...interface{}) *DecodeError {
	return &DecodeError{Kind: ErrInvalidRawEvent, Reason: fmt.Sprintf(format, args...)}
}

// BatchItemError wraps the failure of one batch item.
type BatchItemError struct {
	Index int
	Err   error
}

func (e *BatchItemError) Error() string {
	return fmt.Sprintf("batch item %d failed: %v", e.Index, e.Err)
}

func (e *BatchItemError) Unwrap() error { return e.Err }

// ConflictError reports a duplicate (name, version) insert.
type ConflictError struct {
	Name    string
	Version uint32
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("schema %s v%d already exists", e.Name, e.Version)
}

func (e *ConflictError) Unwrap() error { return ErrSchemaExists }

// ErrorType maps an error to a short label for logs and metrics.
func ErrorType(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrSchemaNotFound):
		return "schema_not_found"
	case errors.Is(err, ErrMissingField):
		return "missing_field"
	case errors.Is(err, ErrInvalidRawEvent):
		return "invalid_raw_event"
	case errors.Is(err, ErrTypeMismatch):
		return "type_mismatch"
	case errors.Is(err, ErrUnsupportedType):
		return "unsupported_type"
	case errors.Is(err, ErrDecodeFailed):
		return "decode_failed"
	default:
		return "other"
	}
}
