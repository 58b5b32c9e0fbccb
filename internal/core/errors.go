package core

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a gateway failure. Every error crossing a component
// boundary carries one of these kinds so the dispatcher can log and render it
// without inspecting message text.
type ErrorKind string

// The failure classes the gateway distinguishes.
const (
	KindMissingField       ErrorKind = "missing_field"
	KindInvalidEncoding    ErrorKind = "invalid_encoding"
	KindModelLoadFailure   ErrorKind = "model_load_failure"
	KindGenerationFailure  ErrorKind = "generation_failure"
	KindUnsupportedFeature ErrorKind = "unsupported_feature"
	KindInternal           ErrorKind = "internal"
)

// Error is a tagged gateway error. Message is the exact client-facing string;
// Err, when set, is the underlying cause and is appended to the rendered
// message.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

// Error renders the client-facing message, with the cause appended when one
// exists.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}

	return e.Message
}

// Unwrap exposes the underlying cause to errors.Is and errors.As.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a tagged error with a fixed message.
func NewError(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message, Err: nil}
}

// WrapError creates a tagged error around an underlying cause.
func WrapError(kind ErrorKind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf reports the kind carried by err, or KindInternal for untagged
// errors (including nil-safe use at the dispatch boundary).
func KindOf(err error) ErrorKind {
	var gatewayErr *Error
	if errors.As(err, &gatewayErr) {
		return gatewayErr.Kind
	}

	return KindInternal
}
