package domain

import "fmt"

// ErrorKind classifies a core error per the taxonomy in spec.md §7.
// The kind, not the Go type name, is the stable contract: callers switch on
// CoreError's Kind field rather than on distinct error types.
type ErrorKind string

const (
	KindInvalidInput        ErrorKind = "invalid_input"
	KindInvalidLedger       ErrorKind = "invalid_ledger"
	KindInvalidCalendar     ErrorKind = "invalid_calendar"
	KindForecastFailure     ErrorKind = "forecast_failure"
	KindIdempotencyConflict ErrorKind = "idempotency_conflict"
	KindConstraintViolation ErrorKind = "constraint_violation"
)

// CoreError is the common shape of every typed error the core raises.
// Reason is a short, translatable string suitable for surfacing to a user;
// it deliberately does not include Go-internal detail (that lives in the
// wrapped error, available via Unwrap).
type CoreError struct {
	Kind   ErrorKind
	Reason string
	Err    error
}

func (e *CoreError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
}

func (e *CoreError) Unwrap() error { return e.Err }

func newError(kind ErrorKind, reason string, err error) *CoreError {
	return &CoreError{Kind: kind, Reason: reason, Err: err}
}

// InvalidInputError flags a malformed SKU record, bad EAN, negative qty or
// an out-of-range percentage. Surfaced per-SKU; the batch continues.
func InvalidInputError(reason string, err error) *CoreError {
	return newError(KindInvalidInput, reason, err)
}

// InvalidLedgerError flags an unknown event kind or unparsable date.
// Folding halts for that SKU; the proposal carries Q=0 and this error.
func InvalidLedgerError(reason string, err error) *CoreError {
	return newError(KindInvalidLedger, reason, err)
}

// InvalidCalendarError flags a receipt override earlier than the planning
// date, a lane inconsistent with the order weekday, or an exhausted
// calendar. Halts for that SKU.
func InvalidCalendarError(reason string, err error) *CoreError {
	return newError(KindInvalidCalendar, reason, err)
}

// ForecastError flags a structurally malformed history (out-of-order dates,
// negative quantities). Never raised for low history — that is a
// forecast.Meta marker, not an error.
func ForecastError(reason string, err error) *CoreError {
	return newError(KindForecastFailure, reason, err)
}

// IdempotencyConflictError flags a duplicate document_id on receiving close.
func IdempotencyConflictError(reason string) *CoreError {
	return newError(KindIdempotencyConflict, reason, nil)
}

// ConstraintViolationError flags a misconfigured pack size or MOQ (0 or
// negative). Surfaced per-SKU; Q=0.
func ConstraintViolationError(reason string) *CoreError {
	return newError(KindConstraintViolation, reason, nil)
}
