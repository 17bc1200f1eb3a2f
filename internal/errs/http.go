package errs

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

const (
	// MessageUnauthorized is the client message for KindUnauthorized.
	MessageUnauthorized = "unauthorized"

	// MessageForbidden is the client message for KindForbidden.
	MessageForbidden = "forbidden"
)

func statusCode(status int) string {
	return MakeUpperCaseWithUnderscores(http.StatusText(status))
}

// NewUnauthorizedError creates a 401 failure. An empty message falls back to
// MessageUnauthorized.
func NewUnauthorizedError(message string) *HTTPError {
	if message == "" {
		message = MessageUnauthorized
	}
	return &HTTPError{
		Kind:    KindUnauthorized,
		Code:    statusCode(http.StatusUnauthorized),
		Message: message,
		Status:  http.StatusUnauthorized,
	}
}

// NewForbiddenError creates a 403 failure. An empty message falls back to
// MessageForbidden.
func NewForbiddenError(message string) *HTTPError {
	if message == "" {
		message = MessageForbidden
	}
	return &HTTPError{
		Kind:    KindForbidden,
		Code:    statusCode(http.StatusForbidden),
		Message: message,
		Status:  http.StatusForbidden,
	}
}

// NewValidationError creates a 400 failure carrying schema issues.
func NewValidationError(issues []Issue) *HTTPError {
	return &HTTPError{
		Kind:    KindValidation,
		Code:    "VALIDATION_FAILED",
		Message: "Validation failed",
		Status:  http.StatusBadRequest,
		Issues:  issues,
	}
}

// New creates an application failure whose status and message reach the
// client verbatim.
func New(status int, message string) *HTTPError {
	return &HTTPError{
		Kind:    KindApplication,
		Code:    statusCode(status),
		Message: message,
		Status:  status,
	}
}

// NewBadRequestError creates a 400 application failure. code overrides the
// default "BAD_REQUEST" when non-nil.
func NewBadRequestError(message string, code *string) *HTTPError {
	e := New(http.StatusBadRequest, message)
	if code != nil {
		e.Code = *code
	}
	return e
}

// NewNotFoundError creates a 404 application failure.
func NewNotFoundError(message string, code *string) *HTTPError {
	e := New(http.StatusNotFound, message)
	if code != nil {
		e.Code = *code
	}
	return e
}

// NewConflictError creates a 409 application failure.
func NewConflictError(message string, code *string) *HTTPError {
	e := New(http.StatusConflict, message)
	if code != nil {
		e.Code = *code
	}
	return e
}

// NewInternalServerError creates a generic, non-public 500.
func NewInternalServerError() *HTTPError {
	return &HTTPError{
		Kind:    KindInternal,
		Code:    statusCode(http.StatusInternalServerError),
		Message: http.StatusText(http.StatusInternalServerError),
		Status:  http.StatusInternalServerError,
	}
}

// InternalOption customizes an internal failure built by Wrap.
type InternalOption func(*HTTPError)

// WithStatus sets the status an internal failure responds with.
func WithStatus(status int) InternalOption {
	return func(e *HTTPError) {
		e.Status = status
		e.Code = statusCode(status)
	}
}

// WithPublic marks the internal failure's message as safe for clients.
func WithPublic() InternalOption {
	return func(e *HTTPError) {
		e.Public = true
	}
}

// WithMessage overrides the message of an internal failure. Without it the
// cause's message is used.
func WithMessage(message string) InternalOption {
	return func(e *HTTPError) {
		e.Message = message
	}
}

// Wrap turns an arbitrary error into an internal failure. By default it
// responds 500 and hides the message.
func Wrap(err error, opts ...InternalOption) *HTTPError {
	e := &HTTPError{
		Kind:   KindInternal,
		Code:   statusCode(http.StatusInternalServerError),
		Status: http.StatusInternalServerError,
		cause:  err,
	}
	if err != nil {
		e.Message = err.Error()
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Classify maps any error onto the taxonomy.
//
//   - an *HTTPError anywhere in the chain is returned as is
//   - an *echo.HTTPError with a 4xx code is the client's fault (body too
//     large, rate limited, unknown route) and becomes an application failure
//   - an *echo.HTTPError with any other code becomes a public internal failure
//     with echo's status
//   - everything else becomes a non-public internal 500 wrapping err
func Classify(err error) *HTTPError {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}

	var echoErr *echo.HTTPError
	if errors.As(err, &echoErr) {
		message, ok := echoErr.Message.(string)
		if !ok {
			message = http.StatusText(echoErr.Code)
		}
		if echoErr.Code >= http.StatusBadRequest && echoErr.Code < http.StatusInternalServerError {
			failure := New(echoErr.Code, message)
			failure.cause = err
			return failure
		}
		return Wrap(err, WithStatus(echoErr.Code), WithMessage(message), WithPublic())
	}

	return Wrap(err)
}
