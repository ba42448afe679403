package errors

import (
	"errors"
	"fmt"
	"time"
)

// Collection error taxonomy. Collectors and the operation runner branch
// on these kinds to decide whether a failure is permanent, may succeed
// on a later run, or aborts the current automation session.

// ErrInstrumentNotFound reports a permanent miss: the remote source has
// no page for the requested instrument. Callers record the gap and move
// on without retrying.
var ErrInstrumentNotFound = errors.New("instrument not found")

// ErrNoDataset reports that no collected dataset exists yet.
var ErrNoDataset = errors.New("no dataset collected yet")

// ErrOperationActive reports that a collection run is already in
// progress. Runs are serialized; concurrent triggers are rejected.
var ErrOperationActive = errors.New("collection operation already running")

// TransientFetchError wraps a network or HTTP failure that may succeed
// on a later attempt. Distinguished from ErrInstrumentNotFound so a bad
// day does not get recorded as a missing instrument.
type TransientFetchError struct {
	URL        string
	StatusCode int
	Cause      error
}

// Error implements the error interface
func (e *TransientFetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("transient fetch failure: %s returned HTTP %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("transient fetch failure: %s: %v", e.URL, e.Cause)
}

// Unwrap allows errors.Is and errors.As to reach the cause
func (e *TransientFetchError) Unwrap() error {
	return e.Cause
}

// NewTransientFetchError creates a transient fetch error
func NewTransientFetchError(url string, statusCode int, cause error) *TransientFetchError {
	return &TransientFetchError{URL: url, StatusCode: statusCode, Cause: cause}
}

// AutomationTimeoutError reports a guarded wait that did not come true
// within its deadline. State and Condition identify where in the export
// flow the session stalled; the session that raised it is abandoned.
type AutomationTimeoutError struct {
	State     string
	Condition string
	Timeout   time.Duration
}

// Error implements the error interface
func (e *AutomationTimeoutError) Error() string {
	return fmt.Sprintf("automation timeout in state %s: %s not satisfied within %s",
		e.State, e.Condition, e.Timeout)
}

// NewAutomationTimeoutError creates an automation timeout error
func NewAutomationTimeoutError(state, condition string, timeout time.Duration) *AutomationTimeoutError {
	return &AutomationTimeoutError{State: state, Condition: condition, Timeout: timeout}
}

// NoRecognizedColumnsError reports a table whose headers matched no
// standardization rule. Unlike a partially mapped table this is a hard
// error: the table carries nothing usable.
type NoRecognizedColumnsError struct {
	Columns []string
}

// Error implements the error interface
func (e *NoRecognizedColumnsError) Error() string {
	return fmt.Sprintf("no recognized columns in table headers %v", e.Columns)
}

// NewNoRecognizedColumnsError creates a no recognized columns error
func NewNoRecognizedColumnsError(columns []string) *NoRecognizedColumnsError {
	cols := make([]string, len(columns))
	copy(cols, columns)
	return &NoRecognizedColumnsError{Columns: cols}
}

// ParseFailureError reports an export file or response payload that
// could not be decoded into a table.
type ParseFailureError struct {
	Source string
	Cause  error
}

// Error implements the error interface
func (e *ParseFailureError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("parse failure in %s: %v", e.Source, e.Cause)
	}
	return fmt.Sprintf("parse failure in %s", e.Source)
}

// Unwrap allows errors.Is and errors.As to reach the cause
func (e *ParseFailureError) Unwrap() error {
	return e.Cause
}

// NewParseFailureError creates a parse failure error
func NewParseFailureError(source string, cause error) *ParseFailureError {
	return &ParseFailureError{Source: source, Cause: cause}
}

// IsTransient reports whether err is worth retrying on a later run.
func IsTransient(err error) bool {
	var t *TransientFetchError
	return errors.As(err, &t)
}

// IsNotFound reports whether err is a permanent instrument miss.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrInstrumentNotFound)
}

// IsAutomationTimeout reports whether err is a stalled portal session.
func IsAutomationTimeout(err error) bool {
	var t *AutomationTimeoutError
	return errors.As(err, &t)
}
