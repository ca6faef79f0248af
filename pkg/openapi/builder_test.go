package openapi_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formstate/pkg/forms"
	"github.com/goliatone/go-formstate/pkg/model"
	"github.com/goliatone/go-formstate/pkg/openapi"
	"github.com/goliatone/go-formstate/pkg/testsupport"
	"github.com/goliatone/go-formstate/pkg/validators"
)

const signupDoc = `
openapi: 3.0.3
info: {title: signup, version: 1.0.0}
paths: {}
components:
  schemas:
    Signup:
      type: object
      title: Welcome on board!
      x-formstate-order: [email, passwords, role, sources, agree]
      required: [email, role, agree]
      properties:
        zip:
          type: string
          pattern: "[0-9]{5}"
        email:
          type: string
          format: email
          x-formstate-validators: [unique-email]
        passwords:
          type: object
          required: [password, confirmPassword]
          x-formstate-order: [password, confirmPassword]
          properties:
            password:
              type: string
              format: password
              minLength: 6
            confirmPassword:
              type: string
              format: password
              title: Confirm Password
              x-formstate-validators: [confirm-password]
        role:
          type: string
          enum: [student, teacher]
          default: ""
          x-formstate-error-gate: [touched]
          x-formstate-validators: [role]
        sources:
          type: array
          items: {type: boolean}
          x-formstate-options:
            - google
            - {value: friend, label: Referred by friend}
        agree:
          type: boolean
          x-formstate-label: I agree
          x-formstate-validators: [must-be-true]
          x-formstate-error-gate: [dirty]
`

func build(t *testing.T, doc string, opts ...openapi.Option) openapi.Result {
	t.Helper()
	res, err := openapi.Build(context.Background(), []byte(doc), "Signup", opts...)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return res
}

func TestBuild_Structure(t *testing.T) {
	res := build(t, signupDoc)

	var paths []string
	for _, leaf := range res.Model.Leaves() {
		paths = append(paths, leaf.Path)
	}
	want := []string{"email", "passwords.password", "passwords.confirmPassword", "role", "sources", "agree", "zip"}
	if diff := cmp.Diff(want, paths); diff != "" {
		t.Fatalf("leaves (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"passwords.password", "passwords.confirmPassword"}, res.Secrets); diff != "" {
		t.Fatalf("secrets (-want +got):\n%s", diff)
	}
	if res.Model.Summary != "Welcome on board!" || res.Model.ID != "Signup" {
		t.Fatalf("unexpected model header %+v", res.Model)
	}

	byName := map[string]model.Field{}
	for _, f := range res.Model.Fields {
		byName[f.Name] = f
	}
	if got := byName["agree"].Label; got != "I agree" {
		t.Fatalf("agree label = %q", got)
	}
	if diff := cmp.Diff([]model.Gate{model.GateDirty}, byName["agree"].Gates()); diff != "" {
		t.Fatalf("agree gates (-want +got):\n%s", diff)
	}
	wantRoles := []model.Option{{Value: "student", Label: "Student"}, {Value: "teacher", Label: "Teacher"}}
	if diff := cmp.Diff(wantRoles, byName["role"].Options); diff != "" {
		t.Fatalf("role options (-want +got):\n%s", diff)
	}
	sources := byName["sources"]
	if !sources.IsChoiceList() || len(sources.Items) != 2 || sources.Items[1].Label != "Referred by friend" {
		t.Fatalf("unexpected sources field %+v", sources)
	}
	if got := byName["passwords"].Nested[1].Label; got != "Confirm Password" {
		t.Fatalf("confirm label = %q", got)
	}
}

func TestBuild_Validation(t *testing.T) {
	res := build(t, signupDoc)
	e := forms.New(res.Root)
	defer e.Close()

	set := func(path string, v any) {
		t.Helper()
		if err := e.SetValue(path, v); err != nil {
			t.Fatalf("SetValue(%q): %v", path, err)
		}
	}

	if diff := cmp.Diff([]string{validators.CodeRequired, validators.CodeRoleRequired}, e.Errors("role").Codes()); diff != "" {
		t.Fatalf("role codes (-want +got):\n%s", diff)
	}
	set("role", "admin")
	if !e.Errors("role").Has(validators.CodeOneOf) {
		t.Fatalf("enum must reject unlisted values")
	}
	set("role", "teacher")

	set("passwords.password", "abc")
	if !e.Errors("passwords.password").Has(validators.CodeMinLength) {
		t.Fatalf("minLength must map to minlength")
	}
	set("passwords.password", "abcdef")
	set("passwords.confirmPassword", "abcdeg")
	if !e.Errors("passwords.confirmPassword").Has(validators.CodePasswordsDoNotMatch) {
		t.Fatalf("confirm-password rule missing")
	}
	set("passwords.confirmPassword", "abcdef")

	set("zip", "1234")
	if !e.Errors("zip").Has(validators.CodePattern) {
		t.Fatalf("pattern must be enforced")
	}
	set("zip", "12345")

	if !e.Errors("agree").Has(validators.CodeAgreeRequired) {
		t.Fatalf("must-be-true rule missing")
	}
	set("agree", true)

	set("email", validators.ReservedEmail)
	testsupport.Settle(t, e)
	if !e.Errors("email").Has(validators.CodeEmailTaken) {
		t.Fatalf("unique-email must run the async check, got %v", e.Errors("email"))
	}
	set("email", "fresh@example.com")
	testsupport.Settle(t, e)
	if !e.IsValid("") {
		t.Fatalf("expected valid form, invalid role=%v email=%v", e.Errors("role"), e.Errors("email"))
	}
}

func TestBuild_CustomRuleAndChecker(t *testing.T) {
	doc := strings.Replace(signupDoc, "x-formstate-validators: [role]", "x-formstate-validators: [role, no-admin]", 1)
	noAdmin := func(c forms.Control) forms.Errors {
		if c.Value() == "teacher" {
			return forms.Errors{"noTeacher": true}
		}
		return nil
	}
	res := build(t, doc,
		openapi.WithRule("no-admin", noAdmin),
		openapi.WithEmailChecker(validators.ReservedEmails{"taken@example.com"}),
	)
	e := forms.New(res.Root)
	defer e.Close()

	if err := e.SetValue("role", "teacher"); err != nil {
		t.Fatal(err)
	}
	if !e.Errors("role").Has("noTeacher") {
		t.Fatalf("custom rule not applied: %v", e.Errors("role"))
	}
	if err := e.SetValue("email", "taken@example.com"); err != nil {
		t.Fatal(err)
	}
	testsupport.Settle(t, e)
	if !e.Errors("email").Has(validators.CodeEmailTaken) {
		t.Fatalf("custom checker not used: %v", e.Errors("email"))
	}
}

func TestBuild_JSONDocument(t *testing.T) {
	doc := `{"openapi":"3.0.3","info":{"title":"t","version":"1"},"paths":{},
	"components":{"schemas":{"Signup":{"type":"object","required":["email"],
	"properties":{"email":{"type":"string","format":"email","default":"a@b.com"}}}}}}`
	res := build(t, doc)
	e := forms.New(res.Root)
	defer e.Close()
	if v, _ := e.Value("email"); v != "a@b.com" {
		t.Fatalf("default not applied, got %v", v)
	}
	if !e.IsValid("") {
		t.Fatalf("expected valid default")
	}
}

func TestBuild_Errors(t *testing.T) {
	ctx := context.Background()
	header := "openapi: 3.0.3\ninfo: {title: t, version: '1'}\npaths: {}\n"

	cases := []struct {
		name   string
		doc    string
		target error
	}{
		{"missing schema", header + "components:\n  schemas: {}\n", openapi.ErrSchemaNotFound},
		{"no components", header, openapi.ErrSchemaNotFound},
		{"not object", header + "components:\n  schemas:\n    Signup: {type: string}\n", openapi.ErrUnsupportedSchema},
		{"integer field", header + "components:\n  schemas:\n    Signup:\n      type: object\n      properties:\n        age: {type: integer}\n", openapi.ErrUnsupportedSchema},
		{"array of strings", header + "components:\n  schemas:\n    Signup:\n      type: object\n      properties:\n        tags: {type: array, items: {type: string}}\n", openapi.ErrUnsupportedSchema},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := openapi.Build(ctx, []byte(tc.doc), "Signup")
			if !errors.Is(err, tc.target) {
				t.Fatalf("expected %v, got %v", tc.target, err)
			}
		})
	}

	unknown := header + "components:\n  schemas:\n    Signup:\n      type: object\n      properties:\n        a: {type: string, x-formstate-validators: [nope]}\n"
	if _, err := openapi.Build(ctx, []byte(unknown), "Signup"); err == nil || !strings.Contains(err.Error(), "unknown rule") {
		t.Fatalf("expected unknown rule error, got %v", err)
	}
	if _, err := openapi.Build(ctx, nil, "Signup"); err == nil {
		t.Fatalf("expected error for empty document")
	}
}
