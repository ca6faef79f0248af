package authforms

import (
	"context"
	_ "embed"

	"github.com/goliatone/go-formstate/pkg/openapi"
)

//go:embed schemas/login.yaml
var loginSchema []byte

// LoginFromSchema builds the login form from its declarative definition
// rather than in code. The result behaves like Login.
func LoginFromSchema(ctx context.Context) (Form, error) {
	res, err := openapi.Build(ctx, loginSchema, "Login")
	if err != nil {
		return Form{}, err
	}
	res.Model.ID = "login-schema"
	return Form{Root: res.Root, Model: res.Model, Secrets: res.Secrets}, nil
}
