package forms

import "errors"

var (
	// ErrUnknownPath is returned when a path does not resolve to a control.
	ErrUnknownPath = errors.New("forms: unknown path")
	// ErrNotField is returned when a leaf operation targets a group or array.
	ErrNotField = errors.New("forms: path does not address a field")
	// ErrNotArray is returned when an array operation targets another control.
	ErrNotArray = errors.New("forms: path does not address an array")
	// ErrIndexOutOfRange is returned by RemoveAt for invalid positions.
	ErrIndexOutOfRange = errors.New("forms: index out of range")
	// ErrClosed is returned by mutations after Close.
	ErrClosed = errors.New("forms: engine closed")
)

// ErrorAsyncUnavailable is recorded when an async check fails to complete
// (transport failure or timeout).
const ErrorAsyncUnavailable = "asyncUnavailable"
