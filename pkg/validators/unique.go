package validators

import (
	"context"
	"strings"

	"github.com/goliatone/go-formstate/pkg/forms"
)

// ReservedEmail is the address the demo treats as already registered.
const ReservedEmail = "admin@example.com"

// EmailChecker reports whether an address is already in use.
type EmailChecker interface {
	Taken(ctx context.Context, email string) (bool, error)
}

// ReservedEmails is an in-memory EmailChecker. Lookups are exact and answer
// immediately; any latency comes from the engine's async delay.
type ReservedEmails []string

// Taken implements EmailChecker.
func (r ReservedEmails) Taken(ctx context.Context, email string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	for _, reserved := range r {
		if email == reserved {
			return true, nil
		}
	}
	return false, nil
}

// DefaultReserved holds ReservedEmail only.
var DefaultReserved = ReservedEmails{ReservedEmail}

// UniqueEmail builds an async validator reporting CodeEmailTaken for taken
// addresses. Blank values are skipped.
func UniqueEmail(checker EmailChecker) forms.AsyncValidator {
	if checker == nil {
		checker = DefaultReserved
	}
	return func(ctx context.Context, value any) (forms.Errors, error) {
		email, ok := value.(string)
		if !ok || strings.TrimSpace(email) == "" {
			return nil, nil
		}
		taken, err := checker.Taken(ctx, email)
		if err != nil {
			return nil, err
		}
		if taken {
			return forms.Errors{CodeEmailTaken: true}, nil
		}
		return nil, nil
	}
}
