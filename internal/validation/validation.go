package validation

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/deppfellow/guardrail-api/internal/errs"
	"github.com/go-playground/validator/v10"
)

// Schema parses raw input of type In into a validated Out.
//
// Parse returns an *errs.HTTPError of KindValidation when the input is invalid.
type Schema[In, Out any] interface {
	Parse(in In) (Out, error)
}

// SchemaFunc adapts a plain function to Schema.
type SchemaFunc[In, Out any] func(in In) (Out, error)

// Parse calls f(in).
func (f SchemaFunc[In, Out]) Parse(in In) (Out, error) {
	return f(in)
}

// Validatable is implemented by payload types with rules that struct tags
// cannot express. It runs after tag validation succeeds.
type Validatable interface {
	Validate() error
}

// CustomValidationError is a single issue reported by a Validatable.
type CustomValidationError struct {
	Field   string
	Message string
}

// CustomValidationErrors is what Validatable.Validate returns on failure.
type CustomValidationErrors []CustomValidationError

func (c CustomValidationErrors) Error() string {
	return "Validation failed"
}

// uuidRegex matches xxxxxxxx-xxxx-xxxx-xxxx-xxxxxxxxxxxx.
var uuidRegex = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// IsValidUUID checks UUID format only, not version or variant.
func IsValidUUID(uuid string) bool {
	return uuidRegex.MatchString(uuid)
}

// newValidator builds a validator whose field names come from tagName, so
// issue paths match what the client sent ("due_date", not "DueDate").
func newValidator(tagName string) *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get(tagName), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return field.Name
		}
		return name
	})

	// uuidList: comma-separated UUIDs in a single string.
	_ = v.RegisterValidation("uuidList", func(fl validator.FieldLevel) bool {
		raw := fl.Field().String()
		if raw == "" {
			return true
		}
		for _, part := range strings.Split(raw, ",") {
			if !IsValidUUID(strings.TrimSpace(part)) {
				return false
			}
		}
		return true
	})

	return v
}

var (
	bodyValidate  = newValidator("json")
	queryValidate = newValidator("query")
)

// validateValue runs tag validation and then Validatable. target must be a
// pointer to the decoded value, so methods with pointer receivers are found.
func validateValue(v *validator.Validate, target any) error {
	rv := reflect.ValueOf(target)
	for rv.Elem().Kind() == reflect.Pointer {
		if rv.Elem().IsNil() {
			return nil
		}
		rv = rv.Elem()
	}

	if rv.Elem().Kind() == reflect.Struct {
		if err := v.Struct(rv.Interface()); err != nil {
			return errs.NewValidationError(extractValidationIssues(err))
		}
	}

	if validatable, ok := rv.Interface().(Validatable); ok {
		if err := validatable.Validate(); err != nil {
			return errs.NewValidationError(extractValidationIssues(err))
		}
	}

	return nil
}

func extractValidationIssues(err error) []errs.Issue {
	var issues []errs.Issue

	if custom, ok := err.(CustomValidationErrors); ok {
		for _, c := range custom {
			issues = append(issues, errs.Issue{
				Code:    "custom",
				Path:    splitPath(c.Field),
				Message: c.Message,
			})
		}
		return issues
	}

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return []errs.Issue{{Code: "custom", Path: []string{}, Message: err.Error()}}
	}

	for _, fe := range validationErrors {
		issues = append(issues, errs.Issue{
			Code:    fe.Tag(),
			Path:    namespacePath(fe.Namespace()),
			Message: issueMessage(fe),
		})
	}

	return issues
}

func issueMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must not exceed %s characters", fe.Param())
		}
		return fmt.Sprintf("must not exceed %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "email":
		return "must be a valid email address"
	case "e164":
		return "must be a valid phone number with country code"
	case "uuid":
		return "must be a valid UUID"
	case "uuidList":
		return "must be a comma-separated list of valid UUIDs"
	case "dive":
		return "some items are invalid"
	}

	if fe.Param() != "" {
		return fmt.Sprintf("%s: %s:%s", fe.Field(), fe.Tag(), fe.Param())
	}
	return fmt.Sprintf("%s: %s", fe.Field(), fe.Tag())
}

// namespacePath drops the root struct name: "createTodoRequest.due_date" -> ["due_date"].
func namespacePath(namespace string) []string {
	parts := strings.Split(namespace, ".")
	if len(parts) > 1 {
		return parts[1:]
	}
	return parts
}

func splitPath(field string) []string {
	if field == "" {
		return []string{}
	}
	return strings.Split(field, ".")
}
