// Package middleware holds the echo middleware the API runs on every request:
// request ids, New Relic tracing, Clerk authentication, the per-request logger,
// the per-request dependency scope, rate limiting and the global error handler.
package middleware
