// Package validation turns raw request input into typed, validated values.
//
// A Schema parses one kind of raw input (JSON body bytes, query values) into
// a Go type. Struct tags are enforced by go-playground/validator, and failures
// come back as errs.NewValidationError with one Issue per problem.
package validation
