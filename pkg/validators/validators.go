// Package validators provides the field rules used by the login and signup
// forms. Every rule except Required lets empty values through so a field only
// reports "required" while it is blank.
package validators

import (
	"reflect"
	"regexp"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"github.com/goliatone/go-formstate/pkg/forms"
)

// Error codes.
const (
	CodeRequired            = "required"
	CodeEmail               = "email"
	CodeMinLength           = "minlength"
	CodeAmpersandRequired   = "ampersandRequired"
	CodePasswordsDoNotMatch = "passwordsDoNotMatch"
	CodeRoleRequired        = "roleRequired"
	CodeAgreeRequired       = "agreeRequired"
	CodeEmailTaken          = "emailTaken"
	CodeOneOf               = "oneOf"
	CodePattern             = "pattern"
)

var (
	shapeOnce sync.Once
	shape     *validator.Validate
)

func shapeValidator() *validator.Validate {
	shapeOnce.Do(func() {
		shape = validator.New()
	})
	return shape
}

// Required fails for nil, empty strings and empty slices or maps. A boolean
// false is a concrete value and passes.
func Required(c forms.Control) forms.Errors {
	if isEmpty(c.Value()) {
		return forms.Errors{CodeRequired: true}
	}
	return nil
}

// Email fails for non-empty strings that are not a well-formed address.
func Email(c forms.Control) forms.Errors {
	value, ok := c.Value().(string)
	if !ok || value == "" {
		return nil
	}
	if err := shapeValidator().Var(value, "email"); err != nil {
		return forms.Errors{CodeEmail: true}
	}
	return nil
}

// MinLength fails for non-empty strings shorter than n characters.
func MinLength(n int) forms.Validator {
	return func(c forms.Control) forms.Errors {
		value, ok := c.Value().(string)
		if !ok || value == "" {
			return nil
		}
		if length := utf8.RuneCountInString(value); length < n {
			return forms.Errors{CodeMinLength: map[string]int{
				"requiredLength": n,
				"actualLength":   length,
			}}
		}
		return nil
	}
}

// ContainsAmpersand fails for non-empty strings without a literal '&'.
func ContainsAmpersand(c forms.Control) forms.Errors {
	value, ok := c.Value().(string)
	if !ok || value == "" {
		return nil
	}
	if !strings.Contains(value, "&") {
		return forms.Errors{CodeAmpersandRequired: true}
	}
	return nil
}

// MatchesSibling fails with code when the control's value differs from the
// sibling stored under key. A detached control always passes.
func MatchesSibling(key, code string) forms.Validator {
	return func(c forms.Control) forms.Errors {
		parent := c.Parent()
		if parent == nil {
			return nil
		}
		sibling := parent.Get(key)
		if sibling != nil && reflect.DeepEqual(c.Value(), sibling.Value()) {
			return nil
		}
		return forms.Errors{code: true}
	}
}

// ConfirmPassword compares against the sibling "password" field.
var ConfirmPassword = MatchesSibling("password", CodePasswordsDoNotMatch)

// NonEmptyString fails with code when the value is exactly "".
func NonEmptyString(code string) forms.Validator {
	return func(c forms.Control) forms.Errors {
		if value, ok := c.Value().(string); ok && value == "" {
			return forms.Errors{code: true}
		}
		return nil
	}
}

// Role guards the role select against its empty placeholder.
var Role = NonEmptyString(CodeRoleRequired)

// MustBeTrue fails with code unless the value is the boolean true.
func MustBeTrue(code string) forms.Validator {
	return func(c forms.Control) forms.Errors {
		if value, ok := c.Value().(bool); ok && value {
			return nil
		}
		return forms.Errors{code: true}
	}
}

// Agree guards the consent checkbox.
var Agree = MustBeTrue(CodeAgreeRequired)

// OneOf fails when a non-empty value is not one of options.
func OneOf(options ...string) forms.Validator {
	allowed := make(map[string]struct{}, len(options))
	for _, option := range options {
		allowed[option] = struct{}{}
	}
	return func(c forms.Control) forms.Errors {
		value, ok := c.Value().(string)
		if !ok || value == "" {
			return nil
		}
		if _, ok := allowed[value]; ok {
			return nil
		}
		return forms.Errors{CodeOneOf: options}
	}
}

// Pattern fails when a non-empty string does not match expr. The expression
// is anchored to the whole value.
func Pattern(expr string) (forms.Validator, error) {
	re, err := regexp.Compile("^(?:" + expr + ")$")
	if err != nil {
		return nil, err
	}
	return func(c forms.Control) forms.Errors {
		value, ok := c.Value().(string)
		if !ok || value == "" {
			return nil
		}
		if !re.MatchString(value) {
			return forms.Errors{CodePattern: expr}
		}
		return nil
	}, nil
}

func isEmpty(value any) bool {
	if value == nil {
		return true
	}
	switch typed := value.(type) {
	case string:
		return typed == ""
	case []any:
		return len(typed) == 0
	case map[string]any:
		return len(typed) == 0
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() == 0
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
