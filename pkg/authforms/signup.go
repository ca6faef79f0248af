package authforms

import (
	"github.com/goliatone/go-formstate/pkg/forms"
	"github.com/goliatone/go-formstate/pkg/model"
	"github.com/goliatone/go-formstate/pkg/validators"
)

// Roles offered by the signup form. The empty placeholder is the initial
// value and is rejected by validators.Role.
var Roles = []model.Option{
	{Value: "student", Label: "Student"},
	{Value: "teacher", Label: "Teacher"},
	{Value: "employee", Label: "Employee"},
	{Value: "founder", Label: "Founder"},
	{Value: "other", Label: "Other"},
}

// Sources are the "how did you find us" checkboxes, in array order.
var Sources = []model.Option{
	{Value: "google", Label: "Google"},
	{Value: "friend", Label: "Referred by friend"},
	{Value: "other", Label: "Other"},
}

func required() forms.Option {
	return forms.WithValidators(validators.Required)
}

func requiredText(name, label string) model.Field {
	return model.Field{
		Name:     name,
		Type:     model.FieldTypeString,
		Required: true,
		Label:    label,
		Messages: map[string]string{validators.CodeRequired: label + " is required."},
	}
}

// Signup is the nested signup form. checker backs the async email
// uniqueness check; nil uses validators.DefaultReserved.
func Signup(checker validators.EmailChecker) Form {
	sources := make([]forms.Control, len(Sources))
	sourceFields := make([]model.Field, len(Sources))
	for i, src := range Sources {
		sources[i] = forms.NewField(false)
		sourceFields[i] = model.Field{Name: src.Value, Type: model.FieldTypeBoolean, Label: src.Label}
	}

	root := forms.NewGroup([]forms.Child{
		forms.Named("email", forms.NewField("",
			forms.WithValidators(validators.Email, validators.Required),
			forms.WithAsyncValidators(validators.UniqueEmail(checker)),
		)),
		forms.Named("passwords", forms.NewGroup([]forms.Child{
			forms.Named("password", forms.NewField("",
				forms.WithValidators(validators.Required, validators.MinLength(6)),
			)),
			forms.Named("confirmPassword", forms.NewField("",
				forms.WithValidators(validators.Required, validators.MinLength(6), validators.ConfirmPassword),
			)),
		})),
		forms.Named("name", forms.NewGroup([]forms.Child{
			forms.Named("firstName", forms.NewField("", required())),
			forms.Named("lastName", forms.NewField("", required())),
		})),
		forms.Named("address", forms.NewGroup([]forms.Child{
			forms.Named("street", forms.NewField("", required())),
			forms.Named("city", forms.NewField("", required())),
			forms.Named("state", forms.NewField("", required())),
			forms.Named("zipCode", forms.NewField("", required())),
		})),
		forms.Named("role", forms.NewField("",
			forms.WithValidators(validators.Required, validators.Role),
		)),
		forms.Named("sources", forms.NewArray(sources)),
		forms.Named("agree", forms.NewField(false,
			forms.WithValidators(validators.Required, validators.Agree),
		)),
	})

	confirmMessages := map[string]string{
		validators.CodeRequired:            "Please confirm your password.",
		validators.CodeMinLength:           "The password must be at least 6 characters long.",
		validators.CodePasswordsDoNotMatch: "The passwords do not match.",
	}

	return Form{
		Root:    root,
		Secrets: []string{"passwords.password", "passwords.confirmPassword"},
		Model: model.FormModel{
			ID:      "signup",
			Summary: "Welcome on board!",
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
					Name: "passwords",
					Type: model.FieldTypeObject,
					Nested: []model.Field{
						{
							Name:     "password",
							Type:     model.FieldTypeString,
							Format:   model.FormatPassword,
							Required: true,
							Label:    "Password",
							Messages: map[string]string{
								validators.CodeRequired:  passwordMessages[validators.CodeRequired],
								validators.CodeMinLength: passwordMessages[validators.CodeMinLength],
							},
						},
						{
							Name:     "confirmPassword",
							Type:     model.FieldTypeString,
							Format:   model.FormatPassword,
							Required: true,
							Label:    "Confirm Password",
							Messages: confirmMessages,
						},
					},
				},
				{
					Name: "name",
					Type: model.FieldTypeObject,
					Nested: []model.Field{
						requiredText("firstName", "First Name"),
						requiredText("lastName", "Last Name"),
					},
				},
				{
					Name: "address",
					Type: model.FieldTypeObject,
					Nested: []model.Field{
						requiredText("street", "Street"),
						requiredText("city", "City"),
						requiredText("state", "State"),
						requiredText("zipCode", "Postal Code"),
					},
				},
				{
					Name:      "role",
					Type:      model.FieldTypeString,
					Required:  true,
					Label:     "What best describes your role?",
					Options:   Roles,
					ErrorGate: []model.Gate{model.GateTouched},
					Messages: map[string]string{
						validators.CodeRequired:     "Please select your role.",
						validators.CodeRoleRequired: "Please select your role.",
					},
				},
				{
					Name:  "sources",
					Type:  model.FieldTypeArray,
					Label: "How did you find us?",
					Items: sourceFields,
				},
				{
					Name:      "agree",
					Type:      model.FieldTypeBoolean,
					Required:  true,
					Label:     "I agree to the terms and conditions",
					ErrorGate: []model.Gate{model.GateDirty},
					Messages: map[string]string{
						validators.CodeAgreeRequired: "You must agree to the terms and conditions.",
					},
				},
			},
		},
	}
}
