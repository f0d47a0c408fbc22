package taskloop

import (
	"errors"
	"fmt"
)

// Kind classifies a runtime failure. The numeric values are stable and form
// part of the wire/diagnostic contract; new kinds may be appended but
// existing values never change.
type Kind uint8

const (
	// KindOK is the zero kind; it never appears inside a non-nil error.
	KindOK Kind = 0
	// KindInvalidArgument indicates a malformed or out-of-domain argument.
	KindInvalidArgument Kind = 1
	// KindNotReady indicates an operation attempted before its precondition.
	KindNotReady Kind = 2
	// KindTimeout indicates a deadline elapsed.
	KindTimeout Kind = 3
	// KindCanceled indicates cooperative cancellation was observed.
	KindCanceled Kind = 4
	// KindClosed indicates the target resource was already closed.
	KindClosed Kind = 5
	// KindOverflow indicates a counter or buffer limit was exceeded.
	KindOverflow Kind = 6
	// KindStopped indicates the servicing component has shut down.
	KindStopped Kind = 7
	// KindQueueFull indicates a bounded queue rejected an enqueue.
	// Reserved: the v0 queues are unbounded.
	KindQueueFull Kind = 8
	// KindRejected indicates a submission was refused by policy.
	// Reserved: the v0 pool accepts all submissions.
	KindRejected Kind = 9
	// KindNotSupported indicates the platform lacks the facility.
	KindNotSupported Kind = 10
)

// String returns the canonical lower-case name of the kind.
func (k Kind) String() string {
	switch k {
	case KindOK:
		return "ok"
	case KindInvalidArgument:
		return "invalid_argument"
	case KindNotReady:
		return "not_ready"
	case KindTimeout:
		return "timeout"
	case KindCanceled:
		return "canceled"
	case KindClosed:
		return "closed"
	case KindOverflow:
		return "overflow"
	case KindStopped:
		return "stopped"
	case KindQueueFull:
		return "queue_full"
	case KindRejected:
		return "rejected"
	case KindNotSupported:
		return "not_supported"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Error is the runtime's failure value: a [Kind], a human-readable message,
// and an optional cause chain.
type Error struct {
	Cause   error
	Message string
	Kind    Kind
}

// NewError builds an *Error from a kind and message.
func NewError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Errorf builds an *Error from a kind and a format string. A trailing %w
// verb wraps the cause, as with [fmt.Errorf].
func Errorf(kind Kind, format string, args ...any) *Error {
	wrapped := fmt.Errorf(format, args...)
	return &Error{Kind: kind, Message: wrapped.Error(), Cause: errors.Unwrap(wrapped)}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Message == "" {
		return e.Kind.String()
	}
	return e.Kind.String() + ": " + e.Message
}

// Unwrap returns the underlying cause for use with [errors.Is] and
// [errors.As].
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches any *Error carrying the same kind, enabling
// errors.Is(err, NewError(KindCanceled, "")) style checks.
func (e *Error) Is(target error) bool {
	var te *Error
	if errors.As(target, &te) {
		return te.Kind == e.Kind
	}
	return false
}

// KindOf extracts the [Kind] from an error chain. Returns KindOK for nil and
// for errors that carry no *Error.
func KindOf(err error) Kind {
	var te *Error
	if errors.As(err, &te) {
		return te.Kind
	}
	return KindOK
}

// IsCanceled reports whether err carries KindCanceled.
func IsCanceled(err error) bool {
	return KindOf(err) == KindCanceled
}

// PanicError wraps a panic value recovered from a task body or an offloaded
// closure, surfacing it as an ordinary failure at the await site.
type PanicError struct {
	// Value is the recovered panic value (may be any type, including error).
	Value any
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("taskloop: panic: %v", e.Value)
}

// Unwrap returns the underlying error if the panic value is an error type,
// enabling [errors.Is] and [errors.As] through the cause chain.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
