package middleware

import (
	"fmt"
	"net/http"

	"github.com/deppfellow/guardrail-api/internal/errs"
	"github.com/deppfellow/guardrail-api/internal/server"
	"github.com/deppfellow/guardrail-api/internal/sqlerr"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// GlobalMiddlewares wraps echo's built-in middleware with this service's
// config, plus the global error handler.
//
// Everything here applies to every route, including /status and /metrics:
//   - CORS, Secure, BodyLimit: protocol-level protection
//   - RequestLogger: one access-log line per request
//   - Recover: panics outside handler.Handle
//   - GlobalErrorHandler: errors that reach echo instead of being mapped by
//     the handler pipeline
type GlobalMiddlewares struct {
	server *server.Server
}

func NewGlobalMiddlewares(s *server.Server) *GlobalMiddlewares {
	return &GlobalMiddlewares{server: s}
}

// CORS allows the configured origins and exposes X-Request-ID so browser
// clients can read it.
func (global *GlobalMiddlewares) CORS() echo.MiddlewareFunc {
	return middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:  global.server.Config.Server.CORSAllowedOrigins,
		ExposeHeaders: []string{RequestIDHeader},
	})
}

// Secure sets the usual hardening headers (X-XSS-Protection,
// X-Content-Type-Options, X-Frame-Options) with echo's defaults.
func (global *GlobalMiddlewares) Secure() echo.MiddlewareFunc {
	return middleware.Secure()
}

// BodyLimit rejects request bodies above server.body_limit with 413.
//
// A body with a Content-Length over the limit is rejected before the handler
// runs. A chunked body is cut off while it is read, so the 413 then surfaces
// from the reader inside the handler pipeline.
func (global *GlobalMiddlewares) BodyLimit() echo.MiddlewareFunc {
	return middleware.BodyLimit(global.server.Config.Server.BodyLimit)
}

// RequestLogger writes one line per request at a level picked from the status.
//
// Levels:
//   - 5xx: error, with the error attached
//   - 4xx: warn
//   - everything else: info
//
// It uses the request logger from the context enhancer, so each line also
// carries request_id, user_id and trace ids.
func (global *GlobalMiddlewares) RequestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:     true,
		LogStatus:  true,
		LogError:   true,
		LogLatency: true,
		LogHost:    true,
		LogMethod:  true,
		LogURIPath: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			status := v.Status

			// The error handler has not written the response yet when an
			// error is returned, so take the status from the error.
			if v.Error != nil {
				status = errs.Classify(v.Error).StatusCode()
			}

			logger := GetLogger(c)

			var e *zerolog.Event
			switch {
			case status >= http.StatusInternalServerError:
				e = logger.Error().Err(v.Error)
			case status >= http.StatusBadRequest:
				e = logger.Warn()
			default:
				e = logger.Info()
			}

			e.
				Dur("latency", v.Latency).
				Int("status", status).
				Str("uri", v.URI).
				Str("host", v.Host).
				Str("user_agent", c.Request().UserAgent()).
				Msg("API")

			return nil
		},
	})
}

// Recover turns panics outside the handler pipeline into errors for the
// global error handler.
func (global *GlobalMiddlewares) Recover() echo.MiddlewareFunc {
	return middleware.RecoverWithConfig(middleware.RecoverConfig{
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			GetLogger(c).Error().
				Err(err).
				Bytes("stack", stack).
				Msg("recovered from panic")
			return errors.Wrap(err, "panic")
		},
	})
}

// GlobalErrorHandler renders errors returned to echo: unknown routes, body
// limit and rate limit rejections, and any route not wrapped by
// handler.Handle. Responses use the same shapes as the handler pipeline.
//
// Steps:
//  1. echo's 404 becomes "Route not found"; other echo errors keep their code
//  2. database errors go through sqlerr, so a constraint violation is a 4xx
//  3. errs.Classify picks the failure kind, status and public message
//  4. 5xx is logged at error level with a stack, everything else at warn
//  5. the JSON body is written unless a response was already committed
func (global *GlobalMiddlewares) GlobalErrorHandler(err error, c echo.Context) {
	original := err

	var echoErr *echo.HTTPError
	if errors.As(err, &echoErr) {
		if echoErr.Code == http.StatusNotFound {
			err = errs.NewNotFoundError("Route not found", nil)
		}
	} else {
		err = sqlerr.HandleError(err)
	}

	failure := errs.Classify(err)
	status := failure.StatusCode()

	logger := GetLogger(c)
	var e *zerolog.Event
	if status >= http.StatusInternalServerError {
		e = logger.Error().Stack()
	} else {
		e = logger.Warn()
	}
	e.Err(original).
		Int("status", status).
		Str("error_code", failure.Code).
		Str("kind", failure.Kind.String()).
		Msg(fmt.Sprintf("request failed: %s", failure.PublicMessage()))

	if c.Response().Committed {
		return
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, failure.Body())
	}
	if err != nil {
		logger.Error().Err(err).Msg("failed to write error response")
	}
}
