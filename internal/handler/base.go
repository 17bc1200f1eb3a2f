package handler

import (
	"context"
	"io"
	"net/url"
	"time"

	"github.com/deppfellow/guardrail-api/internal/container"
	"github.com/deppfellow/guardrail-api/internal/errs"
	"github.com/deppfellow/guardrail-api/internal/metrics"
	"github.com/deppfellow/guardrail-api/internal/middleware"
	"github.com/deppfellow/guardrail-api/internal/server"
	"github.com/deppfellow/guardrail-api/internal/validation"
	"github.com/labstack/echo/v4"
	"github.com/newrelic/go-agent/v3/integrations/nrpkgerrors"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Handler carries the shared dependencies concrete handlers embed.
type Handler struct {
	server *server.Server
}

func NewHandler(s *server.Server) Handler {
	return Handler{server: s}
}

// Request is what a business callback receives. Body and Query hold the
// parsed values when the route configures a schema for them and are zero
// otherwise; the raw query stays available through QueryParams and the raw
// body is left unread.
type Request[B, Q any] struct {
	echo.Context

	// ID is the :id route parameter, empty when the route has none.
	ID    string
	Body  B
	Query Q

	// User is nil for anonymous requests.
	User *middleware.User
}

// Ctx is the request's context.Context.
func (r *Request[B, Q]) Ctx() context.Context {
	return r.Request().Context()
}

// Scope is the request's dependency scope.
func (r *Request[B, Q]) Scope() *container.Scope {
	return middleware.GetScope(r.Context)
}

// Log is the request logger.
func (r *Request[B, Q]) Log() *zerolog.Logger {
	return middleware.GetLogger(r.Context)
}

// Empty is the Body or Query type of routes that have none.
type Empty struct{}

// HandlerFunc is the business callback for routes that respond with a body.
type HandlerFunc[B, Q, R any] func(req *Request[B, Q]) (R, error)

// HandlerFuncNoContent is the business callback for bodiless responses.
type HandlerFuncNoContent[B, Q any] func(req *Request[B, Q]) error

// AccessInput is what an access check sees.
type AccessInput struct {
	ID      string
	User    *middleware.User
	Context echo.Context
}

// AccessFunc decides whether an authenticated user may proceed. It only runs
// when a user is present. Returning false responds 403; returning an error
// maps the error like any other failure.
type AccessFunc func(ctx context.Context, in AccessInput) (bool, error)

// Options configures the pipeline stages of a route. Every field is optional.
type Options[B, Q any] struct {
	Access AccessFunc
	Query  validation.Schema[url.Values, Q]
	Body   validation.Schema[[]byte, B]
}

// ResponseHandler writes a successful result.
type ResponseHandler interface {
	Handle(c echo.Context, result any) error
	GetOperation() string
}

type JSONResponseHandler struct {
	status int
}

func (h JSONResponseHandler) Handle(c echo.Context, result any) error {
	return c.JSON(h.status, result)
}

func (h JSONResponseHandler) GetOperation() string {
	return "handler"
}

type NoContentResponseHandler struct {
	status int
}

func (h NoContentResponseHandler) Handle(c echo.Context, _ any) error {
	return c.NoContent(h.status)
}

func (h NoContentResponseHandler) GetOperation() string {
	return "handler_no_content"
}

// Handle wraps a business callback in the request pipeline:
//
//  1. read :id
//  2. access check when opts.Access is set (401 without a user, 403 on false)
//  3. parse the query when opts.Query is set
//  4. read and parse the body when opts.Body is set
//  5. call fn and write its result as JSON with status
//
// Any failure in 2-5, including a panic, is mapped to exactly one response:
// validation failures become 400 {"errors": [...]}, application failures keep
// their status and message, and everything else is logged and answered with
// its own status (500 by default) and "Internal Server Error" unless marked
// public. The returned error is non-nil only when writing the response fails.
func Handle[B, Q, R any](h Handler, fn HandlerFunc[B, Q, R], status int, opts Options[B, Q]) echo.HandlerFunc {
	return func(c echo.Context) error {
		return handleRequest(h, c, opts, func(req *Request[B, Q]) (any, error) {
			return fn(req)
		}, JSONResponseHandler{status: status})
	}
}

// HandleNoContent is Handle for callbacks without a response body.
func HandleNoContent[B, Q any](h Handler, fn HandlerFuncNoContent[B, Q], status int, opts Options[B, Q]) echo.HandlerFunc {
	return func(c echo.Context) error {
		return handleRequest(h, c, opts, func(req *Request[B, Q]) (any, error) {
			return nil, fn(req)
		}, NoContentResponseHandler{status: status})
	}
}

func handleRequest[B, Q any](
	h Handler,
	c echo.Context,
	opts Options[B, Q],
	call func(req *Request[B, Q]) (any, error),
	responseHandler ResponseHandler,
) error {
	start := time.Now()
	method := c.Request().Method
	route := c.Path()

	txn := newrelic.FromContext(c.Request().Context())
	if txn != nil {
		txn.AddAttribute("handler.name", route)
	}

	logger := middleware.GetLogger(c).With().
		Str("operation", responseHandler.GetOperation()).
		Str("route", route).
		Logger()

	logger.Debug().Msg("handling request")

	result, err := runPipeline(c, opts, call)
	if err != nil {
		return h.respondError(c, &logger, txn, err, start)
	}

	// The callback may have written its own response.
	if !c.Response().Committed {
		if err := responseHandler.Handle(c, result); err != nil {
			logger.Error().Err(err).Msg("failed to write response")
			return err
		}
	}

	elapsed := time.Since(start)
	h.server.Metrics.ObserveHandler(route, method, metrics.OutcomeSuccess, c.Response().Status, elapsed)
	if txn != nil {
		txn.AddAttribute("handler.status", "success")
		txn.AddAttribute("handler.duration_ms", elapsed.Milliseconds())
	}

	logger.Debug().Dur("duration", elapsed).Msg("request completed successfully")
	return nil
}

// runPipeline executes the stages in order and stops at the first failure.
func runPipeline[B, Q any](
	c echo.Context,
	opts Options[B, Q],
	call func(req *Request[B, Q]) (any, error),
) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			result, err = nil, panicError(r)
		}
	}()

	req := &Request[B, Q]{
		Context: c,
		ID:      c.Param("id"),
		User:    middleware.GetUser(c),
	}

	if opts.Access != nil {
		if req.User == nil {
			return nil, errs.NewUnauthorizedError("")
		}

		allowed, err := opts.Access(c.Request().Context(), AccessInput{
			ID:      req.ID,
			User:    req.User,
			Context: c,
		})
		if err != nil {
			return nil, err
		}
		if !allowed {
			return nil, errs.NewForbiddenError("")
		}
	}

	if opts.Query != nil {
		query, err := opts.Query.Parse(c.QueryParams())
		if err != nil {
			return nil, err
		}
		req.Query = query
	}

	if opts.Body != nil {
		raw, err := io.ReadAll(c.Request().Body)
		if err != nil {
			return nil, errors.Wrap(err, "reading request body")
		}

		body, err := opts.Body.Parse(raw)
		if err != nil {
			return nil, err
		}
		req.Body = body
	}

	return call(req)
}

func panicError(r any) error {
	if err, ok := r.(error); ok {
		return errors.Wrap(err, "panic")
	}
	return errors.Errorf("panic: %v", r)
}

func (h Handler) respondError(c echo.Context, logger *zerolog.Logger, txn *newrelic.Transaction, err error, start time.Time) error {
	failure := errs.Classify(err)
	status := failure.StatusCode()
	elapsed := time.Since(start)

	if failure.Kind == errs.KindInternal {
		logger.Error().
			Stack().
			Err(err).
			Int("status", status).
			Dur("duration", elapsed).
			Msg("handler execution failed")

		if txn != nil {
			txn.NoticeError(nrpkgerrors.Wrap(err))
		}
	} else {
		logger.Debug().
			Err(err).
			Str("kind", failure.Kind.String()).
			Int("status", status).
			Msg("request rejected")
	}

	if txn != nil {
		txn.AddAttribute("handler.status", failure.Kind.String())
		txn.AddAttribute("handler.duration_ms", elapsed.Milliseconds())
	}
	h.server.Metrics.ObserveHandler(c.Path(), c.Request().Method, outcome(failure.Kind), status, elapsed)

	if c.Response().Committed {
		logger.Warn().Int("status", status).Msg("response already written, dropping error response")
		return nil
	}

	if err := c.JSON(status, failure.Body()); err != nil {
		logger.Error().Err(err).Msg("failed to write error response")
		return errors.Wrap(err, "write error response")
	}
	return nil
}

func outcome(kind errs.Kind) string {
	switch kind {
	case errs.KindUnauthorized:
		return metrics.OutcomeUnauthorized
	case errs.KindForbidden:
		return metrics.OutcomeForbidden
	case errs.KindValidation:
		return metrics.OutcomeValidation
	case errs.KindApplication:
		return metrics.OutcomeApplication
	default:
		return metrics.OutcomeInternal
	}
}
