package openapi

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-formstate/pkg/forms"
	"github.com/goliatone/go-formstate/pkg/model"
	"github.com/goliatone/go-formstate/pkg/validators"
)

var (
	// ErrSchemaNotFound is returned when components.schemas lacks the name.
	ErrSchemaNotFound = errors.New("openapi: schema not found")
	// ErrUnsupportedSchema is returned for shapes a form cannot represent.
	ErrUnsupportedSchema = errors.New("openapi: unsupported schema")
)

const ruleUniqueEmail = "unique-email"

// Result is a form built from a schema.
type Result struct {
	Root    *forms.Group
	Model   model.FormModel
	Secrets []string
}

// Build loads a JSON or YAML OpenAPI document and builds the object schema
// registered under components.schemas[name].
func Build(ctx context.Context, raw []byte, name string, opts ...Option) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if len(raw) == 0 {
		return Result{}, errors.New("openapi: document is empty")
	}

	loader := &openapi3.Loader{Context: ctx}
	doc, err := loader.LoadFromData(raw)
	if err != nil {
		return Result{}, fmt.Errorf("openapi: load document: %w", err)
	}
	if doc.Components == nil {
		return Result{}, fmt.Errorf("%w: %q", ErrSchemaNotFound, name)
	}
	ref, ok := doc.Components.Schemas[name]
	if !ok || ref == nil || ref.Value == nil {
		return Result{}, fmt.Errorf("%w: %q", ErrSchemaNotFound, name)
	}
	schema := ref.Value
	if typeOf(schema) != "object" {
		return Result{}, fmt.Errorf("%w: %q is not an object", ErrUnsupportedSchema, name)
	}

	b := &builder{options: newOptions(opts...), rules: builtinRules()}
	for key, rule := range b.options.Rules {
		b.rules[key] = rule
	}

	children, fields, err := b.object(schema, "")
	if err != nil {
		return Result{}, err
	}
	own, _, err := b.namedRules(schema, "")
	if err != nil {
		return Result{}, err
	}

	return Result{
		Root:    forms.NewGroup(children, forms.WithValidators(own...)),
		Secrets: b.secrets,
		Model: model.FormModel{
			ID:            name,
			Summary:       schema.Title,
			Description:   schema.Description,
			Fields:        fields,
			ResetOnSubmit: boolExtension(schema, "x-formstate-reset-on-submit"),
		},
	}, nil
}

type builder struct {
	options Options
	rules   map[string]forms.Validator
	secrets []string
}

func (b *builder) object(schema *openapi3.Schema, prefix string) ([]forms.Child, []model.Field, error) {
	required := make(map[string]bool, len(schema.Required))
	for _, key := range schema.Required {
		required[key] = true
	}

	var (
		children []forms.Child
		fields   []model.Field
	)
	for _, key := range propertyOrder(schema) {
		prop := schema.Properties[key]
		path := forms.JoinPath(prefix, key)
		if prop == nil || prop.Value == nil {
			return nil, nil, fmt.Errorf("%w: property %q has no schema", ErrUnsupportedSchema, path)
		}
		ctrl, field, err := b.property(key, path, prop.Value, required[key])
		if err != nil {
			return nil, nil, err
		}
		children = append(children, forms.Named(key, ctrl))
		fields = append(fields, field)
	}
	return children, fields, nil
}

func (b *builder) property(key, path string, schema *openapi3.Schema, required bool) (forms.Control, model.Field, error) {
	field := model.Field{
		Name:        key,
		Required:    required,
		Label:       labelOf(schema, key),
		Description: schema.Description,
		Messages:    messagesExtension(schema),
		ErrorGate:   gateExtension(schema),
	}

	named, async, err := b.namedRules(schema, path)
	if err != nil {
		return nil, model.Field{}, err
	}

	switch typeOf(schema) {
	case "object":
		children, nested, err := b.object(schema, path)
		if err != nil {
			return nil, model.Field{}, err
		}
		field.Type = model.FieldTypeObject
		field.Nested = nested
		return forms.NewGroup(children, forms.WithValidators(named...), forms.WithAsyncValidators(async...)), field, nil

	case "array":
		return b.choiceList(field, path, schema, named)

	case "boolean":
		field.Type = model.FieldTypeBoolean
		initial, _ := schema.Default.(bool)
		var rules []forms.Validator
		if required {
			rules = append(rules, validators.Required)
		}
		rules = append(rules, named...)
		return forms.NewField(initial, forms.WithValidators(rules...), forms.WithAsyncValidators(async...)), field, nil

	case "string", "":
		field.Type = model.FieldTypeString
		field.Format = schema.Format
		if field.Format == model.FormatPassword {
			b.secrets = append(b.secrets, path)
		}
		rules, err := stringRules(schema, path, required)
		if err != nil {
			return nil, model.Field{}, err
		}
		for _, value := range schema.Enum {
			if s, ok := value.(string); ok && s != "" {
				field.Options = append(field.Options, model.Option{Value: s, Label: model.DefaultLabeler(s)})
			}
		}
		rules = append(rules, named...)
		initial, _ := schema.Default.(string)
		return forms.NewField(initial, forms.WithValidators(rules...), forms.WithAsyncValidators(async...)), field, nil

	default:
		return nil, model.Field{}, fmt.Errorf("%w: %q has type %q", ErrUnsupportedSchema, path, typeOf(schema))
	}
}

func (b *builder) choiceList(field model.Field, path string, schema *openapi3.Schema, named []forms.Validator) (forms.Control, model.Field, error) {
	if schema.Items == nil || schema.Items.Value == nil || typeOf(schema.Items.Value) != "boolean" {
		return nil, model.Field{}, fmt.Errorf("%w: array %q must hold booleans", ErrUnsupportedSchema, path)
	}
	options := optionsExtension(schema)
	for i := len(options); i < int(schema.MinItems); i++ {
		options = append(options, model.Option{Value: fmt.Sprintf("item%d", i), Label: fmt.Sprintf("Option %d", i+1)})
	}
	if len(options) == 0 {
		return nil, model.Field{}, fmt.Errorf("%w: array %q declares no options", ErrUnsupportedSchema, path)
	}

	items := make([]forms.Control, len(options))
	field.Type = model.FieldTypeArray
	for i, opt := range options {
		items[i] = forms.NewField(false)
		field.Items = append(field.Items, model.Field{Name: opt.Value, Type: model.FieldTypeBoolean, Label: opt.Label})
	}
	return forms.NewArray(items, forms.WithValidators(named...)), field, nil
}

func stringRules(schema *openapi3.Schema, path string, required bool) ([]forms.Validator, error) {
	var rules []forms.Validator
	if required {
		rules = append(rules, validators.Required)
	}
	if schema.Format == "email" {
		rules = append(rules, validators.Email)
	}
	if schema.MinLength > 0 {
		rules = append(rules, validators.MinLength(int(schema.MinLength)))
	}
	if schema.Pattern != "" {
		rule, err := validators.Pattern(schema.Pattern)
		if err != nil {
			return nil, fmt.Errorf("openapi: pattern for %q: %w", path, err)
		}
		rules = append(rules, rule)
	}
	if len(schema.Enum) > 0 {
		var options []string
		for _, value := range schema.Enum {
			if s, ok := value.(string); ok && s != "" {
				options = append(options, s)
			}
		}
		rules = append(rules, validators.OneOf(options...))
	}
	return rules, nil
}

func (b *builder) namedRules(schema *openapi3.Schema, path string) ([]forms.Validator, []forms.AsyncValidator, error) {
	var (
		rules []forms.Validator
		async []forms.AsyncValidator
	)
	for _, name := range stringsExtension(schema, ExtensionValidators) {
		if name == ruleUniqueEmail {
			async = append(async, validators.UniqueEmail(b.options.Checker))
			continue
		}
		rule, ok := b.rules[name]
		if !ok {
			return nil, nil, fmt.Errorf("openapi: unknown rule %q on %q", name, path)
		}
		rules = append(rules, rule)
	}
	return rules, async, nil
}

func typeOf(schema *openapi3.Schema) string {
	if schema == nil || schema.Type == nil || len(*schema.Type) == 0 {
		return ""
	}
	return (*schema.Type)[0]
}

// propertyOrder honours x-formstate-order, then appends remaining keys in
// lexical order since decoded properties carry no order.
func propertyOrder(schema *openapi3.Schema) []string {
	seen := make(map[string]bool, len(schema.Properties))
	var out []string
	for _, key := range stringsExtension(schema, ExtensionOrder) {
		if _, ok := schema.Properties[key]; ok && !seen[key] {
			seen[key] = true
			out = append(out, key)
		}
	}
	var rest []string
	for key := range schema.Properties {
		if !seen[key] {
			rest = append(rest, key)
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}

func labelOf(schema *openapi3.Schema, key string) string {
	if label, ok := schema.Extensions[ExtensionLabel].(string); ok && strings.TrimSpace(label) != "" {
		return label
	}
	if schema.Title != "" {
		return schema.Title
	}
	return model.DefaultLabeler(key)
}

func stringsExtension(schema *openapi3.Schema, key string) []string {
	raw, ok := schema.Extensions[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
			out = append(out, strings.TrimSpace(s))
		}
	}
	return out
}

func boolExtension(schema *openapi3.Schema, key string) bool {
	v, _ := schema.Extensions[key].(bool)
	return v
}

func messagesExtension(schema *openapi3.Schema) map[string]string {
	raw, ok := schema.Extensions[ExtensionMessages].(map[string]any)
	if !ok || len(raw) == 0 {
		return nil
	}
	out := make(map[string]string, len(raw))
	for code, msg := range raw {
		if s, ok := msg.(string); ok {
			out[code] = s
		}
	}
	return out
}

func gateExtension(schema *openapi3.Schema) []model.Gate {
	var out []model.Gate
	for _, name := range stringsExtension(schema, ExtensionErrorGate) {
		out = append(out, model.Gate(name))
	}
	return out
}

func optionsExtension(schema *openapi3.Schema) []model.Option {
	raw, ok := schema.Extensions[ExtensionOptions].([]any)
	if !ok {
		return nil
	}
	var out []model.Option
	for _, item := range raw {
		switch typed := item.(type) {
		case string:
			out = append(out, model.Option{Value: typed, Label: model.DefaultLabeler(typed)})
		case map[string]any:
			value, _ := typed["value"].(string)
			label, _ := typed["label"].(string)
			if value == "" {
				continue
			}
			if label == "" {
				label = model.DefaultLabeler(value)
			}
			out = append(out, model.Option{Value: value, Label: label})
		}
	}
	return out
}
