package validators

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formstate/pkg/forms"
)

func codes(errs forms.Errors) []string {
	return errs.Codes()
}

func TestRequired(t *testing.T) {
	cases := []struct {
		value any
		fails bool
	}{
		{nil, true},
		{"", true},
		{[]any{}, true},
		{map[string]any{}, true},
		{[]string{}, true},
		{"x", false},
		{false, false},
		{0, false},
		{[]any{false}, false},
	}
	for _, tc := range cases {
		got := Required(forms.NewField(tc.value))
		if got.Has(CodeRequired) != tc.fails {
			t.Errorf("Required(%#v) = %v, want fails=%v", tc.value, got, tc.fails)
		}
	}
}

func TestEmail(t *testing.T) {
	valid := []string{"", "a@b.com", "first.last@example.co.uk"}
	invalid := []string{"a", "a@", "@b.com", "a b@c.com"}
	for _, v := range valid {
		if errs := Email(forms.NewField(v)); errs != nil {
			t.Errorf("Email(%q) = %v, want valid", v, errs)
		}
	}
	for _, v := range invalid {
		if errs := Email(forms.NewField(v)); !errs.Has(CodeEmail) {
			t.Errorf("Email(%q) = %v, want email error", v, errs)
		}
	}
}

func TestMinLength(t *testing.T) {
	rule := MinLength(6)
	if errs := rule(forms.NewField("")); errs != nil {
		t.Fatalf("empty value must pass, got %v", errs)
	}
	if errs := rule(forms.NewField("abcdef")); errs != nil {
		t.Fatalf("six characters must pass, got %v", errs)
	}
	if errs := rule(forms.NewField("héllo")); errs == nil {
		t.Fatalf("five runes must fail")
	}
	want := forms.Errors{CodeMinLength: map[string]int{"requiredLength": 6, "actualLength": 3}}
	if diff := cmp.Diff(want, rule(forms.NewField("abc"))); diff != "" {
		t.Fatalf("detail (-want +got):\n%s", diff)
	}
}

func TestContainsAmpersand(t *testing.T) {
	if errs := ContainsAmpersand(forms.NewField("")); errs != nil {
		t.Fatalf("empty value must pass")
	}
	if errs := ContainsAmpersand(forms.NewField("abc&def")); errs != nil {
		t.Fatalf("value with ampersand must pass")
	}
	if diff := cmp.Diff([]string{CodeAmpersandRequired}, codes(ContainsAmpersand(forms.NewField("abcdef")))); diff != "" {
		t.Fatalf("codes (-want +got):\n%s", diff)
	}
}

func TestConfirmPassword(t *testing.T) {
	confirm := forms.NewField("secret1")
	forms.NewGroup([]forms.Child{
		forms.Named("password", forms.NewField("secret1")),
		forms.Named("confirmPassword", confirm),
	})
	if errs := ConfirmPassword(confirm); errs != nil {
		t.Fatalf("matching values must pass, got %v", errs)
	}

	mismatch := forms.NewField("secret2")
	forms.NewGroup([]forms.Child{
		forms.Named("password", forms.NewField("secret1")),
		forms.Named("confirmPassword", mismatch),
	})
	if !ConfirmPassword(mismatch).Has(CodePasswordsDoNotMatch) {
		t.Fatalf("expected mismatch")
	}

	if errs := ConfirmPassword(forms.NewField("detached")); errs != nil {
		t.Fatalf("detached control must pass, got %v", errs)
	}
}

func TestRoleAndAgree(t *testing.T) {
	if !Role(forms.NewField("")).Has(CodeRoleRequired) {
		t.Fatalf("placeholder role must fail")
	}
	if Role(forms.NewField("teacher")) != nil {
		t.Fatalf("chosen role must pass")
	}
	for _, v := range []any{false, nil, "true", 1} {
		if !Agree(forms.NewField(v)).Has(CodeAgreeRequired) {
			t.Errorf("Agree(%#v) must fail", v)
		}
	}
	if Agree(forms.NewField(true)) != nil {
		t.Fatalf("true must pass")
	}
}

func TestOneOf(t *testing.T) {
	rule := OneOf("a", "b")
	if rule(forms.NewField("")) != nil || rule(forms.NewField("b")) != nil {
		t.Fatalf("empty and listed values must pass")
	}
	if diff := cmp.Diff(forms.Errors{CodeOneOf: []string{"a", "b"}}, rule(forms.NewField("c"))); diff != "" {
		t.Fatalf("detail (-want +got):\n%s", diff)
	}
}

func TestPattern(t *testing.T) {
	rule, err := Pattern(`[0-9]{5}`)
	if err != nil {
		t.Fatal(err)
	}
	if rule(forms.NewField("12345")) != nil || rule(forms.NewField("")) != nil {
		t.Fatalf("matching and empty values must pass")
	}
	if !rule(forms.NewField("123456")).Has(CodePattern) {
		t.Fatalf("pattern must be anchored")
	}
	if _, err := Pattern("("); err == nil {
		t.Fatalf("expected compile error")
	}
}

type stubChecker struct {
	taken map[string]bool
	err   error
}

func (s stubChecker) Taken(_ context.Context, email string) (bool, error) {
	return s.taken[email], s.err
}

func TestUniqueEmail(t *testing.T) {
	ctx := context.Background()

	check := UniqueEmail(nil)
	errs, err := check(ctx, ReservedEmail)
	if err != nil || !errs.Has(CodeEmailTaken) {
		t.Fatalf("reserved email must be taken, got %v %v", errs, err)
	}
	if errs, err := check(ctx, "free@example.com"); err != nil || errs != nil {
		t.Fatalf("free email must pass, got %v %v", errs, err)
	}
	if errs, err := check(ctx, "  "); err != nil || errs != nil {
		t.Fatalf("blank email must be skipped, got %v %v", errs, err)
	}

	boom := errors.New("boom")
	if _, err := UniqueEmail(stubChecker{err: boom})(ctx, "a@b.com"); !errors.Is(err, boom) {
		t.Fatalf("expected checker error, got %v", err)
	}
	if errs, _ := UniqueEmail(stubChecker{taken: map[string]bool{"a@b.com": true}})(ctx, "a@b.com"); !errs.Has(CodeEmailTaken) {
		t.Fatalf("custom checker must be honoured")
	}
}

func TestReservedEmails_HonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := DefaultReserved.Taken(ctx, ReservedEmail); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
