package forms

import "fmt"

// Field holds a single value.
type Field struct {
	node
	value   any
	initial any
}

// NewField constructs a leaf with its initial (and reset) value.
func NewField(initial any, opts ...Option) *Field {
	return &Field{
		node:    newNode(opts),
		value:   initial,
		initial: initial,
	}
}

// Value returns the current value.
func (f *Field) Value() any { return f.value }

// Initial returns the value restored by a reset.
func (f *Field) Initial() any { return f.initial }

// Get returns f for an empty path and nil otherwise.
func (f *Field) Get(path string) Control {
	if path == "" {
		return f
	}
	return nil
}

func (f *Field) children() []Control { return nil }

func (f *Field) resetValue() { f.value = f.initial }

// Child pairs a key with the control stored under it.
type Child struct {
	Key     string
	Control Control
}

// Named is shorthand for a Child literal.
func Named(key string, c Control) Child {
	return Child{Key: key, Control: c}
}

// Group is an ordered set of named controls.
type Group struct {
	node
	keys     []string
	controls map[string]Control
}

// NewGroup builds a group, keeping children in declaration order. It panics
// on empty or duplicate keys and on controls that already have a parent.
func NewGroup(children []Child, opts ...Option) *Group {
	g := &Group{
		node:     newNode(opts),
		controls: make(map[string]Control, len(children)),
	}
	for _, child := range children {
		if child.Key == "" {
			panic("forms: group child key is empty")
		}
		if _, exists := g.controls[child.Key]; exists {
			panic(fmt.Sprintf("forms: duplicate group key %q", child.Key))
		}
		adopt(g, child.Control)
		g.keys = append(g.keys, child.Key)
		g.controls[child.Key] = child.Control
	}
	return g
}

// Keys returns child keys in declaration order.
func (g *Group) Keys() []string {
	return append([]string(nil), g.keys...)
}

// Control returns the direct child stored under key.
func (g *Group) Control(key string) Control {
	return g.controls[key]
}

// Value returns a fresh map of child values.
func (g *Group) Value() any {
	out := make(map[string]any, len(g.keys))
	for _, key := range g.keys {
		out[key] = g.controls[key].Value()
	}
	return out
}

// Get resolves a dotted path below the group.
func (g *Group) Get(path string) Control {
	return resolve(g, path)
}

func (g *Group) children() []Control {
	out := make([]Control, 0, len(g.keys))
	for _, key := range g.keys {
		out = append(out, g.controls[key])
	}
	return out
}

func (g *Group) resetValue() {
	for _, c := range g.controls {
		c.resetValue()
	}
}

// Array is an ordered list of controls addressed by index.
type Array struct {
	node
	items []Control
}

// NewArray builds an array from its initial items.
func NewArray(items []Control, opts ...Option) *Array {
	a := &Array{node: newNode(opts)}
	for _, item := range items {
		adopt(a, item)
		a.items = append(a.items, item)
	}
	return a
}

// Len returns the number of items.
func (a *Array) Len() int { return len(a.items) }

// At returns the item at index i or nil when out of range.
func (a *Array) At(i int) Control {
	if i < 0 || i >= len(a.items) {
		return nil
	}
	return a.items[i]
}

// Value returns a fresh slice of item values.
func (a *Array) Value() any {
	out := make([]any, len(a.items))
	for i, item := range a.items {
		out[i] = item.Value()
	}
	return out
}

// Get resolves a dotted path below the array.
func (a *Array) Get(path string) Control {
	return resolve(a, path)
}

func (a *Array) children() []Control {
	return append([]Control(nil), a.items...)
}

func (a *Array) resetValue() {
	for _, item := range a.items {
		item.resetValue()
	}
}

func (a *Array) push(c Control) {
	adopt(a, c)
	a.items = append(a.items, c)
}

func (a *Array) removeAt(i int) Control {
	removed := a.items[i]
	a.items = append(a.items[:i], a.items[i+1:]...)
	removed.base().parent = nil
	return removed
}

func adopt(parent Control, child Control) {
	if child == nil {
		panic("forms: nil child control")
	}
	if child.Parent() != nil {
		panic("forms: control already attached to a parent")
	}
	child.base().parent = parent
}
