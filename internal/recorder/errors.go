package recorder

import (
	"errors"
	"strings"
)

var (
	// ErrHistoryRead is returned when the recorded purchases cannot be read
	// for the limit check.
	ErrHistoryRead = errors.New("failed to read purchase history")
	// ErrReceiptUpload is returned when the receipt cannot be stored. Nothing
	// is written in that case.
	ErrReceiptUpload = errors.New("failed to upload receipt")
	// ErrRemoteWrite is returned when the remote store rejects the rows.
	ErrRemoteWrite = errors.New("failed to write purchase rows")
)

// ValidationError lists every problem found in a submitted form.
type ValidationError struct {
	Errors []string
	// Err is the typed cause, if any (an *creditlimit.InsufficientLimitError).
	Err error
}

func (e *ValidationError) Error() string {
	return "invalid purchase: " + strings.Join(e.Errors, "; ")
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}
