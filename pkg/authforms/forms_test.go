package authforms_test

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formstate/pkg/authforms"
	"github.com/goliatone/go-formstate/pkg/forms"
	"github.com/goliatone/go-formstate/pkg/model"
	"github.com/goliatone/go-formstate/pkg/testsupport"
	"github.com/goliatone/go-formstate/pkg/validators"
)

func leafPaths(m model.FormModel) []string {
	var out []string
	for _, leaf := range m.Leaves() {
		out = append(out, leaf.Path)
	}
	return out
}

func TestLogin(t *testing.T) {
	form := authforms.Login()
	e := forms.New(form.Root)
	defer e.Close()

	if diff := cmp.Diff([]string{"email", "password"}, leafPaths(form.Model)); diff != "" {
		t.Fatalf("leaves (-want +got):\n%s", diff)
	}
	if !form.Model.ResetOnSubmit {
		t.Fatalf("login resets after submit")
	}

	cases := []struct {
		email, password string
		emailCodes      []string
		passwordCodes   []string
	}{
		{"", "", []string{validators.CodeRequired}, []string{validators.CodeRequired}},
		{"nope", "abc", []string{validators.CodeEmail}, []string{validators.CodeAmpersandRequired, validators.CodeMinLength}},
		{"a@b.com", "abcdefg", nil, []string{validators.CodeAmpersandRequired}},
		{"a@b.com", "abc&def", nil, nil},
	}
	for _, tc := range cases {
		if err := e.SetValue("email", tc.email); err != nil {
			t.Fatal(err)
		}
		if err := e.SetValue("password", tc.password); err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff(tc.emailCodes, e.Errors("email").Codes()); diff != "" {
			t.Errorf("email %q codes (-want +got):\n%s", tc.email, diff)
		}
		if diff := cmp.Diff(tc.passwordCodes, e.Errors("password").Codes()); diff != "" {
			t.Errorf("password %q codes (-want +got):\n%s", tc.password, diff)
		}
	}
	if !e.IsValid("") {
		t.Fatalf("last case must leave the form valid")
	}
}

func TestLogin_SanitizerKeepsPassword(t *testing.T) {
	sanitize := authforms.Login().Sanitizer()
	if got := sanitize("email", "<b>a@b.com</b>"); got != "a@b.com" {
		t.Fatalf("email sanitised to %q", got)
	}
	if got := sanitize("password", "<b>&</b>"); got != "<b>&</b>" {
		t.Fatalf("password must stay verbatim, got %q", got)
	}
}

func TestSignup_Structure(t *testing.T) {
	form := authforms.Signup(nil)

	want := []string{
		"email",
		"passwords.password", "passwords.confirmPassword",
		"name.firstName", "name.lastName",
		"address.street", "address.city", "address.state", "address.zipCode",
		"role", "sources", "agree",
	}
	if diff := cmp.Diff(want, leafPaths(form.Model)); diff != "" {
		t.Fatalf("leaves (-want +got):\n%s", diff)
	}

	e := forms.New(form.Root)
	defer e.Close()
	value, err := e.Value("")
	if err != nil {
		t.Fatal(err)
	}
	initial := map[string]any{
		"email":     "",
		"passwords": map[string]any{"password": "", "confirmPassword": ""},
		"name":      map[string]any{"firstName": "", "lastName": ""},
		"address":   map[string]any{"street": "", "city": "", "state": "", "zipCode": ""},
		"role":      "",
		"sources":   []any{false, false, false},
		"agree":     false,
	}
	if diff := cmp.Diff(initial, value); diff != "" {
		t.Fatalf("initial value (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"passwords.password", "passwords.confirmPassword"}, form.Secrets); diff != "" {
		t.Fatalf("secrets (-want +got):\n%s", diff)
	}
}

func fillSignup(t *testing.T, e *forms.Engine, email string) {
	t.Helper()
	values := map[string]any{
		"email":                     email,
		"passwords.password":        "secret1",
		"passwords.confirmPassword": "secret1",
		"name.firstName":            "Ada",
		"name.lastName":             "Lovelace",
		"address.street":            "1 Main St",
		"address.city":              "London",
		"address.state":             "LDN",
		"address.zipCode":           "N1",
		"role":                      "founder",
		"agree":                     true,
	}
	for path, v := range values {
		if err := e.SetValue(path, v); err != nil {
			t.Fatalf("SetValue(%q): %v", path, err)
		}
	}
}

func TestSignup_Validation(t *testing.T) {
	e := forms.New(authforms.Signup(nil).Root)
	defer e.Close()

	fillSignup(t, e, "new@example.com")
	testsupport.Settle(t, e)
	if !e.IsValid("") {
		t.Fatalf("filled form must be valid")
	}

	if err := e.SetValue("agree", false); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{validators.CodeAgreeRequired}, e.Errors("agree").Codes()); diff != "" {
		t.Fatalf("agree codes (-want +got):\n%s", diff)
	}
	if err := e.SetValue("agree", true); err != nil {
		t.Fatal(err)
	}

	if err := e.SetValue("role", ""); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{validators.CodeRequired, validators.CodeRoleRequired}, e.Errors("role").Codes()); diff != "" {
		t.Fatalf("role codes (-want +got):\n%s", diff)
	}
	if err := e.SetValue("role", "student"); err != nil {
		t.Fatal(err)
	}

	if err := e.SetValue("passwords.password", "secret2"); err != nil {
		t.Fatal(err)
	}
	if !e.Errors("passwords.confirmPassword").Has(validators.CodePasswordsDoNotMatch) {
		t.Fatalf("editing password must re-evaluate the confirmation")
	}
	if err := e.SetValue("passwords.confirmPassword", "secret2"); err != nil {
		t.Fatal(err)
	}

	// sources carry no rules
	if err := e.SetValue("sources.1", true); err != nil {
		t.Fatal(err)
	}
	testsupport.Settle(t, e)
	if !e.IsValid("") {
		t.Fatalf("expected valid form again")
	}
}

func TestSignup_ReservedEmail(t *testing.T) {
	e := forms.New(authforms.Signup(nil).Root)
	defer e.Close()

	fillSignup(t, e, validators.ReservedEmail)
	testsupport.Settle(t, e)
	if diff := cmp.Diff([]string{validators.CodeEmailTaken}, e.Errors("email").Codes()); diff != "" {
		t.Fatalf("email codes (-want +got):\n%s", diff)
	}
	if _, ok := e.OnSubmit(); ok {
		t.Fatalf("taken email must block submission")
	}
}

func TestLoginFromSchema_MatchesLogin(t *testing.T) {
	schemaForm, err := authforms.LoginFromSchema(context.Background())
	if err != nil {
		t.Fatalf("LoginFromSchema: %v", err)
	}
	codeForm := authforms.Login()

	if schemaForm.Model.ID != "login-schema" {
		t.Fatalf("unexpected id %q", schemaForm.Model.ID)
	}
	if diff := cmp.Diff(leafPaths(codeForm.Model), leafPaths(schemaForm.Model)); diff != "" {
		t.Fatalf("leaves (-code +schema):\n%s", diff)
	}
	if diff := cmp.Diff(codeForm.Secrets, schemaForm.Secrets); diff != "" {
		t.Fatalf("secrets (-code +schema):\n%s", diff)
	}
	if schemaForm.Model.ResetOnSubmit != codeForm.Model.ResetOnSubmit {
		t.Fatalf("reset-on-submit differs")
	}

	code := forms.New(codeForm.Root)
	defer code.Close()
	schema := forms.New(schemaForm.Root)
	defer schema.Close()

	inputs := []struct{ email, password string }{
		{"", ""},
		{"nope", "abc"},
		{"a@b.com", "abcdefg"},
		{"a@b.com", "abc&def"},
	}
	for _, in := range inputs {
		for _, e := range []*forms.Engine{code, schema} {
			_ = e.SetValue("email", in.email)
			_ = e.SetValue("password", in.password)
		}
		for _, path := range []string{"email", "password"} {
			if diff := cmp.Diff(code.Errors(path), schema.Errors(path)); diff != "" {
				t.Errorf("%s errors for %+v (-code +schema):\n%s", path, in, diff)
			}
		}
	}

	for i, f := range schemaForm.Model.Fields {
		want := codeForm.Model.Fields[i]
		if f.Label != want.Label || f.Format != want.Format || f.Required != want.Required {
			t.Errorf("field %q presentation differs: %+v vs %+v", f.Name, f, want)
		}
		for key, msg := range f.Messages {
			if want.Messages[key] != msg {
				t.Errorf("field %q message %q = %q, want %q", f.Name, key, msg, want.Messages[key])
			}
		}
	}
}
