package tui

import "errors"

var (
	// ErrAborted signals the user aborted input (e.g., Ctrl+C) or cancelled
	// the form.
	ErrAborted = errors.New("tui: aborted")
	// ErrNoFields is returned when the form model has nothing to prompt for.
	ErrNoFields = errors.New("tui: form has no fields")
)
