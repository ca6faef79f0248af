package tui

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/goliatone/go-formstate/pkg/forms"
	"github.com/goliatone/go-formstate/pkg/model"
)

// DefaultCheckTimeout bounds the wait for async checks between prompts.
const DefaultCheckTimeout = 5 * time.Second

// Menu entries offered once every field has been prompted.
const (
	ActionSubmit = "Submit"
	ActionEdit   = "Edit a field"
	ActionReset  = "Reset"
	ActionCancel = "Cancel"
)

var actions = []string{ActionSubmit, ActionEdit, ActionReset, ActionCancel}

// Session walks a form in the terminal, feeding every answer to the engine
// as input and blur events and reporting messages the way a browser would.
type Session struct {
	engine            *forms.Engine
	form              model.FormModel
	leaves            []model.Leaf
	driver            PromptDriver
	outputFormat      OutputFormat
	submitTransformer SubmitTransformer
	theme             Theme
	logger            *zap.Logger
	checkTimeout      time.Duration
}

// NewSession binds a form model to the engine holding its control tree.
func NewSession(engine *forms.Engine, form model.FormModel, opts ...Option) (*Session, error) {
	if engine == nil {
		return nil, errors.New("tui: engine is required")
	}
	s := &Session{
		engine:       engine,
		form:         form,
		leaves:       form.Leaves(),
		outputFormat: OutputFormatJSON,
		logger:       zap.NewNop(),
		checkTimeout: DefaultCheckTimeout,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.driver == nil {
		s.driver = NewSurveyDriver()
	}
	if len(s.leaves) == 0 {
		return nil, ErrNoFields
	}
	return s, nil
}

// ContentType reports the serialization format used by Run.
func (s *Session) ContentType() string {
	switch s.outputFormat {
	case OutputFormatFormURLEncoded:
		return "application/x-www-form-urlencoded"
	case OutputFormatPrettyText:
		return "text/plain"
	default:
		return "application/json"
	}
}

// Run prompts every field once, then loops over the action menu until the
// form is submitted or cancelled. The submitted value is returned serialized.
func (s *Session) Run(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.form.Summary != "" {
		if err := s.driver.Info(ctx, s.theme.InfoPrefix+s.form.Summary); err != nil {
			return nil, err
		}
	}

	for _, leaf := range s.leaves {
		if err := s.ask(ctx, leaf); err != nil {
			return nil, err
		}
	}

	for {
		choice, err := s.driver.Select(ctx, SelectConfig{Message: "What next?", Options: actions})
		if err != nil {
			return nil, err
		}
		if choice < 0 || choice >= len(actions) {
			continue
		}

		switch actions[choice] {
		case ActionSubmit:
			out, done, err := s.submit(ctx)
			if err != nil || done {
				return out, err
			}
		case ActionEdit:
			if err := s.edit(ctx); err != nil {
				return nil, err
			}
		case ActionReset:
			if err := s.engine.OnReset(); err != nil {
				return nil, err
			}
			if err := s.driver.Info(ctx, s.theme.InfoPrefix+"Form reset."); err != nil {
				return nil, err
			}
		case ActionCancel:
			return nil, ErrAborted
		}
	}
}

func (s *Session) edit(ctx context.Context) error {
	labels := make([]string, len(s.leaves))
	for i, leaf := range s.leaves {
		labels[i] = leaf.Field.DisplayLabel()
	}
	idx, err := s.driver.Select(ctx, SelectConfig{Message: "Which field?", Options: labels})
	if err != nil {
		return err
	}
	if idx < 0 || idx >= len(s.leaves) {
		return nil
	}
	return s.ask(ctx, s.leaves[idx])
}

func (s *Session) submit(ctx context.Context) ([]byte, bool, error) {
	s.settle(ctx)

	value, ok := s.engine.OnSubmit()
	if !ok {
		var invalid []string
		for _, leaf := range s.leaves {
			if !s.engine.IsValid(leaf.Path) {
				invalid = append(invalid, leaf.Field.DisplayLabel())
			}
		}
		msg := "The form cannot be submitted yet."
		if len(invalid) > 0 {
			msg = "Please review: " + strings.Join(invalid, ", ")
		}
		return nil, false, s.driver.Info(ctx, s.theme.ErrorPrefix+msg)
	}

	values, _ := value.(map[string]any)
	if s.form.ResetOnSubmit {
		if err := s.engine.OnReset(); err != nil {
			return nil, false, err
		}
	}
	if s.submitTransformer != nil {
		var err error
		if values, err = s.submitTransformer(values); err != nil {
			return nil, false, fmt.Errorf("tui: transform submission: %w", err)
		}
	}
	out, err := s.serialize(values)
	if err != nil {
		return nil, false, err
	}
	s.logger.Info("form submitted", zap.String("form", s.form.ID))
	return out, true, nil
}

func (s *Session) ask(ctx context.Context, leaf model.Leaf) error {
	field := leaf.Field
	current, err := s.engine.Value(leaf.Path)
	if err != nil {
		return err
	}
	label := field.DisplayLabel()

	switch {
	case field.IsChoiceList():
		if err := s.askChoices(ctx, leaf, current); err != nil {
			return err
		}
	case field.Type == model.FieldTypeBoolean:
		def, _ := current.(bool)
		answer, err := s.driver.Confirm(ctx, ConfirmConfig{Message: label, Default: def, Help: field.Description})
		if err != nil {
			return err
		}
		if err := s.engine.OnFieldInput(leaf.Path, answer); err != nil {
			return err
		}
	case len(field.Options) > 0:
		options := make([]string, len(field.Options))
		def := -1
		for i, opt := range field.Options {
			options[i] = opt.Label
			if opt.Value == current {
				def = i
			}
		}
		idx, err := s.driver.Select(ctx, SelectConfig{Message: label, Options: options, DefaultIndex: def, Help: field.Description})
		if err != nil {
			return err
		}
		answer := ""
		if idx >= 0 && idx < len(field.Options) {
			answer = field.Options[idx].Value
		}
		if err := s.engine.OnFieldInput(leaf.Path, answer); err != nil {
			return err
		}
	default:
		def, _ := current.(string)
		cfg := InputConfig{Message: label, Default: def, Help: field.Description}
		var answer string
		if field.Format == model.FormatPassword {
			cfg.Default = ""
			answer, err = s.driver.Password(ctx, cfg)
		} else {
			answer, err = s.driver.Input(ctx, cfg)
		}
		if err != nil {
			return err
		}
		if err := s.engine.OnFieldInput(leaf.Path, answer); err != nil {
			return err
		}
	}

	if err := s.engine.OnFieldBlur(leaf.Path); err != nil {
		return err
	}
	return s.report(ctx, leaf)
}

func (s *Session) askChoices(ctx context.Context, leaf model.Leaf, current any) error {
	items := leaf.Field.Items
	options := make([]string, len(items))
	for i, item := range items {
		options[i] = item.DisplayLabel()
	}
	var defaults []int
	if values, ok := current.([]any); ok {
		for i, v := range values {
			if checked, _ := v.(bool); checked {
				defaults = append(defaults, i)
			}
		}
	}
	picked, err := s.driver.MultiSelect(ctx, SelectConfig{
		Message:  leaf.Field.DisplayLabel(),
		Options:  options,
		Defaults: defaults,
		Help:     leaf.Field.Description,
	})
	if err != nil {
		return err
	}
	selected := make(map[int]bool, len(picked))
	for _, idx := range picked {
		selected[idx] = true
	}
	for i := range items {
		path := forms.JoinPath(leaf.Path, strconv.Itoa(i))
		if err := s.engine.OnFieldInput(path, selected[i]); err != nil {
			return err
		}
		if err := s.engine.OnFieldBlur(path); err != nil {
			return err
		}
	}
	return nil
}

// report prints the messages a field currently shows. A field shows its
// errors only while invalid and once every gate it declares is satisfied.
func (s *Session) report(ctx context.Context, leaf model.Leaf) error {
	s.settle(ctx)

	status, err := s.engine.Status(leaf.Path)
	if err != nil {
		return err
	}
	label := leaf.Field.DisplayLabel()
	if status == forms.StatusPending {
		return s.driver.Info(ctx, s.theme.InfoPrefix+label+": still checking...")
	}
	for _, msg := range s.Messages(leaf) {
		if err := s.driver.Info(ctx, s.theme.ErrorPrefix+label+": "+msg); err != nil {
			return err
		}
	}
	return nil
}

// Messages returns the visible error messages for leaf, ordered by code.
func (s *Session) Messages(leaf model.Leaf) []string {
	if s.engine.IsValid(leaf.Path) || !s.gatesOpen(leaf) {
		return nil
	}
	errs := s.engine.Errors(leaf.Path)
	out := make([]string, 0, len(errs))
	for _, code := range errs.Codes() {
		out = append(out, leaf.Field.Message(code))
	}
	return out
}

func (s *Session) gatesOpen(leaf model.Leaf) bool {
	for _, gate := range leaf.Field.Gates() {
		switch gate {
		case model.GateTouched:
			if !s.engine.Touched(leaf.Path) {
				return false
			}
		case model.GateDirty:
			if !s.engine.Dirty(leaf.Path) {
				return false
			}
		}
	}
	return true
}

func (s *Session) settle(ctx context.Context) {
	waitCtx, cancel := context.WithTimeout(ctx, s.checkTimeout)
	defer cancel()
	if err := s.engine.Wait(waitCtx); err != nil {
		s.logger.Debug("async checks still pending", zap.Error(err))
	}
}

func (s *Session) serialize(values map[string]any) ([]byte, error) {
	switch s.outputFormat {
	case OutputFormatFormURLEncoded:
		return []byte(flattenForm(values)), nil
	case OutputFormatPrettyText:
		return []byte(prettyPrint(values)), nil
	default:
		return json.Marshal(values)
	}
}

func flattenForm(values map[string]any) string {
	flattened := url.Values{}
	flatten("", values, flattened)
	return flattened.Encode()
}

func flatten(prefix string, value any, out url.Values) {
	switch v := value.(type) {
	case map[string]any:
		for key, val := range v {
			flatten(forms.JoinPath(prefix, key), val, out)
		}
	case []any:
		for _, val := range v {
			out.Add(prefix+"[]", fmt.Sprint(val))
		}
	default:
		out.Set(prefix, fmt.Sprint(v))
	}
}

func prettyPrint(values map[string]any) string {
	var b strings.Builder
	writePretty(&b, "", values)
	return b.String()
}

func writePretty(b *strings.Builder, prefix string, value any) {
	switch v := value.(type) {
	case map[string]any:
		keys := make([]string, 0, len(v))
		for key := range v {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			writePretty(b, forms.JoinPath(prefix, key), v[key])
		}
	case []any:
		for idx, val := range v {
			writePretty(b, fmt.Sprintf("%s[%d]", prefix, idx), val)
		}
	default:
		if prefix != "" {
			fmt.Fprintf(b, "%s=%v\n", prefix, v)
		}
	}
}
