// Package openapi builds form control trees from OpenAPI component schemas,
// so a form can be declared in a document instead of in code. Objects become
// groups, arrays of booleans become arrays of checkbox fields, and standard
// keywords (required, format: email, minLength, pattern, enum, default) map to
// the rules in package validators. Rules without a keyword are named in the
// x-formstate-validators extension.
package openapi
