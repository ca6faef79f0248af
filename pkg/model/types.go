package model

import (
	"strconv"
	"strings"
)

// FieldType is the input kind a front end renders.
type FieldType string

const (
	FieldTypeString  FieldType = "string"
	FieldTypeBoolean FieldType = "boolean"
	FieldTypeArray   FieldType = "array"
	FieldTypeObject  FieldType = "object"
)

// Formats refining FieldTypeString.
const (
	FormatEmail    = "email"
	FormatPassword = "password"
)

// Gate names the interaction flags that must all be set before a front end
// shows a field's errors, alongside the field being invalid.
type Gate string

const (
	GateTouched Gate = "touched"
	GateDirty   Gate = "dirty"
)

// Option is a selectable value with a display label.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Field mirrors one control of the tree. Name is the key inside its parent;
// Nested holds group members and Items the members of an array, in order.
type Field struct {
	Name        string            `json:"name"`
	Type        FieldType         `json:"type"`
	Format      string            `json:"format,omitempty"`
	Required    bool              `json:"required"`
	Label       string            `json:"label,omitempty"`
	Placeholder string            `json:"placeholder,omitempty"`
	Description string            `json:"description,omitempty"`
	Options     []Option          `json:"options,omitempty"`
	Nested      []Field           `json:"nested,omitempty"`
	Items       []Field           `json:"items,omitempty"`
	ErrorGate   []Gate            `json:"errorGate,omitempty"`
	Messages    map[string]string `json:"messages,omitempty"`
}

// FormModel is the top-level presentation of a form.
type FormModel struct {
	ID          string  `json:"id"`
	Summary     string  `json:"summary,omitempty"`
	Description string  `json:"description,omitempty"`
	Fields      []Field `json:"fields"`
	// ResetOnSubmit clears the form after a successful submission.
	ResetOnSubmit bool `json:"resetOnSubmit,omitempty"`
}

// DefaultErrorGate applies when a field does not declare its own.
var DefaultErrorGate = []Gate{GateTouched, GateDirty}

// Gates returns the field's error gate, falling back to DefaultErrorGate.
func (f Field) Gates() []Gate {
	if len(f.ErrorGate) == 0 {
		return DefaultErrorGate
	}
	return f.ErrorGate
}

// DisplayLabel returns Label or a label derived from Name.
func (f Field) DisplayLabel() string {
	if strings.TrimSpace(f.Label) != "" {
		return f.Label
	}
	return DefaultLabeler(f.Name)
}

// Message returns the text for an error code, falling back to the code.
func (f Field) Message(code string) string {
	if msg, ok := f.Messages[code]; ok && msg != "" {
		return msg
	}
	return code
}

// Leaf pairs a leaf field with its dotted path.
type Leaf struct {
	Path  string
	Field Field
}

// Leaves flattens the model into prompt order. Arrays whose items are all
// booleans are kept whole so they can be presented as a multi-select.
func (m FormModel) Leaves() []Leaf {
	var out []Leaf
	collectLeaves(m.Fields, "", &out)
	return out
}

func collectLeaves(fields []Field, prefix string, dest *[]Leaf) {
	for _, field := range fields {
		name := strings.TrimSpace(field.Name)
		if name == "" {
			continue
		}
		path := joinPath(prefix, name)
		switch field.Type {
		case FieldTypeObject:
			collectLeaves(field.Nested, path, dest)
		case FieldTypeArray:
			if field.IsChoiceList() {
				*dest = append(*dest, Leaf{Path: path, Field: field})
				continue
			}
			for i, item := range field.Items {
				item.Name = strconv.Itoa(i)
				collectLeaves([]Field{item}, path, dest)
			}
		default:
			*dest = append(*dest, Leaf{Path: path, Field: field})
		}
	}
}

// IsChoiceList reports whether an array field is a fixed list of checkboxes.
func (f Field) IsChoiceList() bool {
	if f.Type != FieldTypeArray || len(f.Items) == 0 {
		return false
	}
	for _, item := range f.Items {
		if item.Type != FieldTypeBoolean {
			return false
		}
	}
	return true
}

func joinPath(parent, child string) string {
	if parent == "" {
		return child
	}
	return parent + "." + child
}
