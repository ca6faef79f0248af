// Package authforms defines the login and signup forms: their control trees,
// validators and presentation models.
package authforms

import (
	"github.com/goliatone/go-formstate/pkg/forms"
	"github.com/goliatone/go-formstate/pkg/model"
	"github.com/goliatone/go-formstate/pkg/validators"
)

// EmailPath addresses the email field in every form of this package. It is
// the only value persisted as a draft.
const EmailPath = "email"

// Form bundles a control tree with its presentation.
type Form struct {
	Model model.FormModel
	Root  *forms.Group
	// Secrets are paths kept verbatim by the input sanitizer.
	Secrets []string
}

// Sanitizer strips markup from every text input except secrets.
func (f Form) Sanitizer() forms.InputSanitizer {
	return forms.MarkupSanitizer(f.Secrets...)
}

var emailMessages = map[string]string{
	validators.CodeRequired:     "Please enter your email address.",
	validators.CodeEmail:        "Please enter a valid email address.",
	validators.CodeEmailTaken:   "This email address is already registered.",
	forms.ErrorAsyncUnavailable: "The email address could not be checked, try again.",
}

var passwordMessages = map[string]string{
	validators.CodeRequired:          "Please enter a password.",
	validators.CodeMinLength:         "The password must be at least 6 characters long.",
	validators.CodeAmpersandRequired: "The password must contain an ampersand (&).",
}

// Login is the two-field login form. The password must contain '&'.
func Login() Form {
	root := forms.NewGroup([]forms.Child{
		forms.Named("email", forms.NewField("",
			forms.WithValidators(validators.Required, validators.Email),
		)),
		forms.Named("password", forms.NewField("",
			forms.WithValidators(validators.Required, validators.MinLength(6), validators.ContainsAmpersand),
		)),
	})

	return Form{
		Root:    root,
		Secrets: []string{"password"},
		Model: model.FormModel{
			ID:            "login",
			Summary:       "Login",
			ResetOnSubmit: true,
			Fields: []model.Field{
				{
					Name:     "email",
					Type:     model.FieldTypeString,
					Format:   model.FormatEmail,
					Required: true,
					Label:    "Email",
					Messages: emailMessages,
				},
				{
					Name:     "password",
					Type:     model.FieldTypeString,
					Format:   model.FormatPassword,
					Required: true,
					Label:    "Password",
					Messages: passwordMessages,
				},
			},
		},
	}
}
