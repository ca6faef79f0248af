package forms

import "go.uber.org/zap"

// InputSanitizer rewrites raw text input before it reaches a field.
type InputSanitizer func(path, raw string) string

// OnFieldInput handles a keystroke-level input event.
func (e *Engine) OnFieldInput(path string, raw any) error {
	if text, ok := raw.(string); ok && e.sanitizer != nil {
		raw = e.sanitizer(path, text)
	}
	return e.SetValue(path, raw)
}

// OnFieldBlur handles a field losing focus.
func (e *Engine) OnFieldBlur(path string) error {
	return e.MarkTouched(path)
}

// OnSubmit touches every control to surface messages, then returns the form
// value when the tree is valid. An invalid or pending tree aborts with ok
// false; this is not an error.
func (e *Engine) OnSubmit() (value any, ok bool) {
	if err := e.MarkAllTouched(); err != nil {
		return nil, false
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, false
	}
	if status := e.root.base().status; status != StatusValid {
		e.logger.Info("form submission aborted",
			zap.Stringer("status", status),
			zap.Strings("invalid", invalidPaths(e.root)),
		)
		return nil, false
	}
	return e.root.Value(), true
}

// OnReset handles the reset button.
func (e *Engine) OnReset() error {
	return e.Reset("")
}

func invalidPaths(root Control) []string {
	var out []string
	walk(root, func(c Control) {
		if len(c.base().Errors()) > 0 {
			out = append(out, PathOf(c))
		}
	})
	return out
}
