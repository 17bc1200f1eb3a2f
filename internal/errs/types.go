package errs

import (
	"net/http"
	"strings"
)

// Kind enumerates the closed set of failure variants.
type Kind int

const (
	// KindUnauthorized: the route needs an authenticated user and there is none.
	KindUnauthorized Kind = iota + 1

	// KindForbidden: the user is known but the access check said no.
	KindForbidden

	// KindValidation: query or body input failed its schema. Carries Issues.
	KindValidation

	// KindApplication: a failure the application declared on purpose, with a
	// status and a message that are safe to show the client verbatim.
	KindApplication

	// KindInternal: anything else. Logged, and hidden from the client unless Public.
	KindInternal
)

// String returns the label used in logs and metrics.
func (k Kind) String() string {
	switch k {
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindValidation:
		return "validation"
	case KindApplication:
		return "application"
	case KindInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// Issue is a single validation problem.
//
// Example:
//
//	{ "code": "required", "path": ["title"], "message": "is required" }
type Issue struct {
	// Code is the machine-readable rule that failed (validator tag or decode error class).
	Code string `json:"code"`

	// Path locates the offending value, one element per nesting level.
	Path []string `json:"path"`

	// Message is the human-readable explanation.
	Message string `json:"message"`
}

// MessageBody is the response body for every non-validation failure.
type MessageBody struct {
	Message string `json:"message"`
}

// ValidationBody is the response body for validation failures.
type ValidationBody struct {
	Errors []Issue `json:"errors"`
}

// HTTPError is the tagged failure type.
//
// Fields:
//   - Kind: which variant this is; decides status and body shape.
//   - Code: machine-friendly code (e.g. "NOT_FOUND"), used in logs.
//   - Message: human-friendly message.
//   - Status: HTTP status for KindApplication and KindInternal. Ignored for the
//     fixed-status kinds.
//   - Public: for KindInternal, whether Message may be shown to the client.
//   - Issues: validation issues for KindValidation.
type HTTPError struct {
	Kind    Kind
	Code    string
	Message string
	Status  int
	Public  bool
	Issues  []Issue

	cause error
}

// Error returns the message, falling back to the wrapped cause.
func (e *HTTPError) Error() string {
	if e.Message == "" && e.cause != nil {
		return e.cause.Error()
	}
	return e.Message
}

// Unwrap exposes the wrapped cause to errors.Is / errors.As.
func (e *HTTPError) Unwrap() error {
	return e.cause
}

// Is matches another *HTTPError of the same kind and status, so
// errors.Is(err, errs.NewNotFoundError("", nil)) finds any 404 application
// failure but not a 403. Messages are not compared.
func (e *HTTPError) Is(target error) bool {
	t, ok := target.(*HTTPError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.StatusCode() == t.StatusCode()
}

// StatusCode is the HTTP status written for this failure.
func (e *HTTPError) StatusCode() int {
	switch e.Kind {
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindValidation:
		return http.StatusBadRequest
	}

	if e.Status == 0 {
		return http.StatusInternalServerError
	}
	return e.Status
}

// PublicMessage is the message the client is allowed to see.
//
// Internal failures expose their message only when explicitly marked public
// and the message is non-empty.
func (e *HTTPError) PublicMessage() string {
	if e.Kind == KindInternal && (!e.Public || e.Message == "") {
		return http.StatusText(http.StatusInternalServerError)
	}
	return e.Message
}

// Body is the JSON response body for this failure.
func (e *HTTPError) Body() any {
	if e.Kind == KindValidation {
		issues := e.Issues
		if issues == nil {
			issues = []Issue{}
		}
		return ValidationBody{Errors: issues}
	}
	return MessageBody{Message: e.PublicMessage()}
}

// WithMessage returns a copy with Message replaced.
func (e *HTTPError) WithMessage(message string) *HTTPError {
	cp := *e
	cp.Message = message
	return &cp
}

// MakeUpperCaseWithUnderscores turns "Bad Request" into "BAD_REQUEST".
func MakeUpperCaseWithUnderscores(str string) string {
	return strings.ToUpper(strings.ReplaceAll(str, " ", "_"))
}
