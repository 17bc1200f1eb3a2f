// Package errs defines the failure taxonomy shared by every HTTP handler.
//
// Every failure that reaches a client is an *HTTPError with an explicit Kind,
// so the response shape (status, message, validation issues) is decided by the
// kind rather than by probing ad hoc fields on arbitrary errors.
package errs
