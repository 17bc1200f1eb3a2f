package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/deppfellow/guardrail-api/internal/errs"
)

// JSON returns a schema that decodes a JSON request body into T and
// validates it. Unknown fields are ignored. An empty body is an issue.
func JSON[T any]() Schema[[]byte, T] {
	return SchemaFunc[[]byte, T](func(raw []byte) (T, error) {
		var zero, out T

		if len(bytes.TrimSpace(raw)) == 0 {
			return zero, errs.NewValidationError([]errs.Issue{{
				Code:    "invalid_type",
				Path:    []string{},
				Message: "request body is required",
			}})
		}

		if err := json.Unmarshal(raw, &out); err != nil {
			return zero, errs.NewValidationError(decodeIssues(err))
		}

		if err := validateValue(bodyValidate, &out); err != nil {
			return zero, err
		}

		return out, nil
	})
}

func decodeIssues(err error) []errs.Issue {
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return []errs.Issue{{
			Code:    "invalid_json",
			Path:    []string{},
			Message: fmt.Sprintf("malformed JSON at offset %d", syntaxErr.Offset),
		}}
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		path := []string{}
		if typeErr.Field != "" {
			path = strings.Split(typeErr.Field, ".")
		}
		return []errs.Issue{{
			Code:    "invalid_type",
			Path:    path,
			Message: fmt.Sprintf("expected %s, received %s", typeErr.Type.String(), typeErr.Value),
		}}
	}

	return []errs.Issue{{Code: "invalid_type", Path: []string{}, Message: err.Error()}}
}
