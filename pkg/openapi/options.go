package openapi

import (
	"github.com/goliatone/go-formstate/pkg/forms"
	"github.com/goliatone/go-formstate/pkg/validators"
)

// Extension keys read from schemas.
const (
	ExtensionValidators = "x-formstate-validators"
	ExtensionOrder      = "x-formstate-order"
	ExtensionLabel      = "x-formstate-label"
	ExtensionMessages   = "x-formstate-messages"
	ExtensionErrorGate  = "x-formstate-error-gate"
	ExtensionOptions    = "x-formstate-options"
)

// Options configures Build.
type Options struct {
	// Checker backs the "unique-email" async rule.
	Checker validators.EmailChecker
	// Rules adds or overrides named sync rules.
	Rules map[string]forms.Validator
}

// Option mutates Options.
type Option func(*Options)

// WithEmailChecker sets the checker for "unique-email".
func WithEmailChecker(checker validators.EmailChecker) Option {
	return func(o *Options) {
		o.Checker = checker
	}
}

// WithRule registers a named sync rule usable from x-formstate-validators.
func WithRule(name string, rule forms.Validator) Option {
	return func(o *Options) {
		if name == "" || rule == nil {
			return
		}
		if o.Rules == nil {
			o.Rules = make(map[string]forms.Validator)
		}
		o.Rules[name] = rule
	}
}

func newOptions(opts ...Option) Options {
	cfg := Options{Checker: validators.DefaultReserved}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

func builtinRules() map[string]forms.Validator {
	return map[string]forms.Validator{
		"ampersand":        validators.ContainsAmpersand,
		"confirm-password": validators.ConfirmPassword,
		"role":             validators.Role,
		"must-be-true":     validators.Agree,
	}
}
