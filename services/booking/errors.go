package booking

import (
	"errors"
	"fmt"
)

// ErrorKind classifies lifecycle failures so callers can map them to responses.
type ErrorKind string

const (
	KindNotFound          ErrorKind = "not_found"
	KindForbidden         ErrorKind = "forbidden"
	KindInvalidTransition ErrorKind = "invalid_transition"
	KindConflict          ErrorKind = "conflict"
	KindPolicyViolation   ErrorKind = "policy_violation"
	KindValidation        ErrorKind = "validation"
	KindPayment           ErrorKind = "payment"
)

// Machine-readable codes carried on Error.
const (
	CodeNotFound               = "not_found"
	CodeServiceNotFound        = "service_not_found"
	CodeForbidden              = "forbidden"
	CodeInvalidTransition      = "invalid_transition"
	CodeProviderUnavailable    = "provider_unavailable"
	CodeSlotTaken              = "slot_taken"
	CodeStaleBooking           = "stale_booking"
	CodeCancelWindowClosed     = "cancel_window_closed"
	CodeRescheduleWindowClosed = "reschedule_window_closed"
	CodeValidation             = "validation_failed"
	CodePaymentNotPending      = "payment_not_pending"
	CodePaymentFailed          = "payment_failed"
	CodeRefundNotPending       = "refund_not_pending"
)

// Error is returned by every lifecycle operation for expected failures.
type Error struct {
	Kind    ErrorKind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// IsKind reports whether err is a lifecycle Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var be *Error
	return errors.As(err, &be) && be.Kind == kind
}

// CodeOf returns the code of a lifecycle Error, or "" for anything else.
func CodeOf(err error) string {
	var be *Error
	if errors.As(err, &be) {
		return be.Code
	}
	return ""
}

func NewNotFoundError(what, id string) error {
	return &Error{Kind: KindNotFound, Code: CodeNotFound, Message: fmt.Sprintf("%s %s not found", what, id)}
}

func NewForbiddenError(msg string) error {
	return &Error{Kind: KindForbidden, Code: CodeForbidden, Message: msg}
}

func NewInvalidTransitionError(from, to string) error {
	return &Error{
		Kind:    KindInvalidTransition,
		Code:    CodeInvalidTransition,
		Message: fmt.Sprintf("cannot move booking from %s to %s", from, to),
	}
}

func NewConflictError(code, msg string, err error) error {
	return &Error{Kind: KindConflict, Code: code, Message: msg, Err: err}
}

func NewPolicyError(code, msg string) error {
	return &Error{Kind: KindPolicyViolation, Code: code, Message: msg}
}

func NewValidationError(msg string) error {
	return &Error{Kind: KindValidation, Code: CodeValidation, Message: msg}
}

func NewPaymentError(code, msg string, err error) error {
	return &Error{Kind: KindPayment, Code: code, Message: msg, Err: err}
}
