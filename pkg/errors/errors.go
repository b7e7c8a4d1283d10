// Package errors provides the error taxonomy for attendance export decoding
// and qualification.
//
// Decoding failures are fatal and typed. Callers match them with errors.Is
// against the sentinels below, or use CodeOf to get the ErrorCode for
// reporting.
//
// Usage:
//
//	import aterrors "github.com/otherjamesbrown/attend-cli/pkg/errors"
//
//	if aterrors.IsMissingSection(err) {
//	    // the export has no such heading
//	}
package errors

import "errors"

// Domain errors - sentinel errors for decode and configuration conditions.
var (
	// ErrMissingSection indicates a required section heading was not found.
	ErrMissingSection = errors.New("missing section")

	// ErrFormat indicates a timestamp field did not match the configured pattern.
	ErrFormat = errors.New("format error")

	// ErrMalformedRow indicates a row lacks the fields its section requires.
	ErrMalformedRow = errors.New("malformed row")

	// ErrInvalidConfig indicates invalid configuration input.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrNotFound indicates a requested file or secret was not found.
	ErrNotFound = errors.New("not found")
)

// IsMissingSection reports whether any error in err's chain is ErrMissingSection.
func IsMissingSection(err error) bool {
	return errors.Is(err, ErrMissingSection)
}

// IsFormat reports whether any error in err's chain is ErrFormat.
func IsFormat(err error) bool {
	return errors.Is(err, ErrFormat)
}

// IsMalformedRow reports whether any error in err's chain is ErrMalformedRow.
func IsMalformedRow(err error) bool {
	return errors.Is(err, ErrMalformedRow)
}

// IsInvalidConfig reports whether any error in err's chain is ErrInvalidConfig.
func IsInvalidConfig(err error) bool {
	return errors.Is(err, ErrInvalidConfig)
}

// IsNotFound reports whether any error in err's chain is ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
