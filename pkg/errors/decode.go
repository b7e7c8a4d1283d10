package errors

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
)

// ErrorCode represents a classified failure.
type ErrorCode string

const (
	CodeMissingSection ErrorCode = "missing_section"
	CodeFormat         ErrorCode = "format_error"
	CodeMalformedRow   ErrorCode = "malformed_row"
	CodeInvalidConfig  ErrorCode = "invalid_config"
	CodeIO             ErrorCode = "io_error"
	CodeSink           ErrorCode = "sink_error"
	CodeCancelled      ErrorCode = "cancelled"
	CodeUnknown        ErrorCode = "unknown"
)

// DecodeError is a structured error for section decoding failures.
// Row and Field are zero-based; -1 means not applicable.
type DecodeError struct {
	Code    ErrorCode
	Section string
	Row     int
	Field   int
	Value   string
	Message string
	Cause   error
}

func (e *DecodeError) Error() string {
	msg := string(e.Code)
	if e.Section != "" {
		msg += ": " + e.Section
	}
	if e.Row >= 0 {
		msg += fmt.Sprintf(": row %d", e.Row)
	}
	if e.Field >= 0 {
		msg += fmt.Sprintf(" field %d", e.Field)
	}
	if e.Value != "" {
		msg += fmt.Sprintf(" (%q)", e.Value)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

func (e *DecodeError) Unwrap() error {
	return e.Cause
}

// Is matches the sentinel that corresponds to the error's code.
func (e *DecodeError) Is(target error) bool {
	switch e.Code {
	case CodeMissingSection:
		return target == ErrMissingSection
	case CodeFormat:
		return target == ErrFormat
	case CodeMalformedRow:
		return target == ErrMalformedRow
	case CodeInvalidConfig:
		return target == ErrInvalidConfig
	}
	return false
}

// MissingSection returns the error for a section whose heading was never seen.
func MissingSection(section string) *DecodeError {
	return &DecodeError{
		Code:    CodeMissingSection,
		Section: section,
		Row:     -1,
		Field:   -1,
		Message: "heading not found in export",
	}
}

// MalformedRow returns the error for a row that is absent or too short.
func MalformedRow(section string, row, have, want int) *DecodeError {
	msg := fmt.Sprintf("has %d fields, need %d", have, want)
	if have < 0 {
		msg = "row is past the end of the table"
	}
	return &DecodeError{
		Code:    CodeMalformedRow,
		Section: section,
		Row:     row,
		Field:   -1,
		Message: msg,
	}
}

// Format returns the error for a timestamp field that failed to parse.
func Format(section string, row, field int, value string, cause error) *DecodeError {
	return &DecodeError{
		Code:    CodeFormat,
		Section: section,
		Row:     row,
		Field:   field,
		Value:   value,
		Message: "timestamp does not match configured pattern",
		Cause:   cause,
	}
}

// CodeOf inspects an error and returns its ErrorCode.
// Errors that carry no classification return CodeUnknown.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ""
	}

	var de *DecodeError
	if errors.As(err, &de) {
		return de.Code
	}

	switch {
	case errors.Is(err, ErrMissingSection):
		return CodeMissingSection
	case errors.Is(err, ErrFormat):
		return CodeFormat
	case errors.Is(err, ErrMalformedRow):
		return CodeMalformedRow
	case errors.Is(err, ErrInvalidConfig):
		return CodeInvalidConfig
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return CodeCancelled
	case errors.Is(err, ErrNotFound), errors.Is(err, fs.ErrNotExist), errors.Is(err, fs.ErrPermission):
		return CodeIO
	}

	var sinkErr *SinkError
	if errors.As(err, &sinkErr) {
		return CodeSink
	}

	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		return CodeIO
	}

	return CodeUnknown
}

// SinkError wraps a failure to persist a qualification result.
type SinkError struct {
	Sink  string
	Cause error
}

func (e *SinkError) Error() string {
	return fmt.Sprintf("%s: %s sink: %v", CodeSink, e.Sink, e.Cause)
}

func (e *SinkError) Unwrap() error {
	return e.Cause
}
