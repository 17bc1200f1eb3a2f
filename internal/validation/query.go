package validation

import (
	"net/url"
	"time"

	"github.com/deppfellow/guardrail-api/internal/errs"
	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"
)

// Query returns a schema that coerces query parameters into T.
//
// Fields are matched by their `query` tag. Strings are weakly converted to the
// field type ("2" -> 2, "true" -> true), RFC3339 strings become time.Time, and
// a comma-separated value fills a slice. Repeated keys also fill a slice.
func Query[T any]() Schema[url.Values, T] {
	return SchemaFunc[url.Values, T](func(values url.Values) (T, error) {
		var zero, out T

		input := make(map[string]any, len(values))
		for key, vals := range values {
			switch len(vals) {
			case 0:
				continue
			case 1:
				input[key] = vals[0]
			default:
				input[key] = vals
			}
		}

		decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			TagName:          "query",
			WeaklyTypedInput: true,
			Result:           &out,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeHookFunc(time.RFC3339),
				mapstructure.StringToSliceHookFunc(","),
			),
		})
		if err != nil {
			return zero, errors.Wrap(err, "failed to build query decoder")
		}

		if err := decoder.Decode(input); err != nil {
			return zero, errs.NewValidationError([]errs.Issue{{
				Code:    "invalid_type",
				Path:    []string{},
				Message: err.Error(),
			}})
		}

		if err := validateValue(queryValidate, &out); err != nil {
			return zero, err
		}

		return out, nil
	})
}
