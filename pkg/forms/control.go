package forms

import (
	"context"
	"sort"
)

// Status reports the validity of a control.
type Status int

const (
	StatusValid Status = iota
	StatusInvalid
	StatusPending
)

func (s Status) String() string {
	switch s {
	case StatusValid:
		return "VALID"
	case StatusInvalid:
		return "INVALID"
	case StatusPending:
		return "PENDING"
	default:
		return "UNKNOWN"
	}
}

// Errors maps an error code to optional detail (true when there is none).
// Every failing validator contributes its codes, so several may coexist.
type Errors map[string]any

// Has reports whether code is present.
func (e Errors) Has(code string) bool {
	if len(e) == 0 {
		return false
	}
	_, ok := e[code]
	return ok
}

// Codes returns the error codes in sorted order.
func (e Errors) Codes() []string {
	if len(e) == 0 {
		return nil
	}
	out := make([]string, 0, len(e))
	for code := range e {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}

func (e Errors) clone() Errors {
	if len(e) == 0 {
		return nil
	}
	out := make(Errors, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}

func mergeErrors(dst Errors, src Errors) Errors {
	if len(src) == 0 {
		return dst
	}
	if dst == nil {
		dst = make(Errors, len(src))
	}
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

// Validator inspects a control and returns nil when it passes. Validators may
// reach sibling controls through Parent.
type Validator func(c Control) Errors

// AsyncValidator checks a snapshot of a control's value off the event path.
// A non-nil error means the check itself could not complete.
type AsyncValidator func(ctx context.Context, value any) (Errors, error)

// Control is implemented by *Field, *Group and *Array.
//
// Reads are not synchronised; once a control is owned by an Engine, use the
// engine's query methods from other goroutines.
type Control interface {
	Value() any
	Status() Status
	Errors() Errors
	Touched() bool
	Dirty() bool
	Parent() Control
	// Get resolves a dotted path relative to the control.
	Get(path string) Control

	base() *node
	children() []Control
	resetValue()
}

// Option configures a control at construction.
type Option func(*node)

// WithValidators appends sync validators, run in declaration order.
func WithValidators(validators ...Validator) Option {
	return func(n *node) {
		for _, v := range validators {
			if v != nil {
				n.validators = append(n.validators, v)
			}
		}
	}
}

// WithAsyncValidators appends async validators. They only run once every sync
// validator of the control passes.
func WithAsyncValidators(validators ...AsyncValidator) Option {
	return func(n *node) {
		for _, v := range validators {
			if v != nil {
				n.asyncValidators = append(n.asyncValidators, v)
			}
		}
	}
}

type node struct {
	parent          Control
	validators      []Validator
	asyncValidators []AsyncValidator

	status       Status
	syncErrors   Errors
	asyncErrors  Errors
	asyncPending bool
	asyncGen     uint64
	cancelAsync  context.CancelFunc

	touched bool
	dirty   bool
}

func newNode(opts []Option) node {
	var n node
	for _, opt := range opts {
		if opt != nil {
			opt(&n)
		}
	}
	return n
}

func (n *node) Status() Status  { return n.status }
func (n *node) Touched() bool   { return n.touched }
func (n *node) Dirty() bool     { return n.dirty }
func (n *node) Parent() Control { return n.parent }
func (n *node) base() *node     { return n }

// Errors returns the control's own errors. Async errors only surface when the
// sync validators pass.
func (n *node) Errors() Errors {
	if len(n.syncErrors) > 0 {
		return n.syncErrors.clone()
	}
	return n.asyncErrors.clone()
}

func (n *node) stopAsync() {
	n.asyncGen++
	if n.cancelAsync != nil {
		n.cancelAsync()
		n.cancelAsync = nil
	}
	n.asyncPending = false
	n.asyncErrors = nil
}

func runValidators(c Control, validators []Validator) Errors {
	var out Errors
	for _, v := range validators {
		out = mergeErrors(out, v(c))
	}
	return out
}

// evaluate re-runs sync validators bottom-up and recomputes every status.
func evaluate(c Control) {
	for _, child := range c.children() {
		evaluate(child)
	}
	n := c.base()
	n.syncErrors = runValidators(c, n.validators)
	n.status = deriveStatus(c)
}

// refreshStatus recomputes statuses without running validators.
func refreshStatus(c Control) {
	for _, child := range c.children() {
		refreshStatus(child)
	}
	n := c.base()
	n.status = deriveStatus(c)
}

func deriveStatus(c Control) Status {
	n := c.base()
	if len(n.syncErrors) > 0 {
		return StatusInvalid
	}
	if n.asyncPending {
		return StatusPending
	}
	if len(n.asyncErrors) > 0 {
		return StatusInvalid
	}
	status := StatusValid
	for _, child := range c.children() {
		switch child.base().status {
		case StatusInvalid:
			return StatusInvalid
		case StatusPending:
			status = StatusPending
		}
	}
	return status
}

func walk(c Control, fn func(Control)) {
	fn(c)
	for _, child := range c.children() {
		walk(child, fn)
	}
}

// ancestors returns c followed by each parent up to the root.
func ancestors(c Control) []Control {
	var out []Control
	for cur := c; cur != nil; cur = cur.Parent() {
		out = append(out, cur)
	}
	return out
}

// syncFlags recomputes touched/dirty of c from its children.
func syncFlags(c Control) {
	kids := c.children()
	if len(kids) == 0 {
		return
	}
	n := c.base()
	n.touched, n.dirty = false, false
	for _, child := range kids {
		cb := child.base()
		n.touched = n.touched || cb.touched
		n.dirty = n.dirty || cb.dirty
	}
}
