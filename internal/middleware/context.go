package middleware

import (
	"github.com/deppfellow/guardrail-api/internal/logger"
	"github.com/deppfellow/guardrail-api/internal/server"
	"github.com/labstack/echo/v4"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/rs/zerolog"
)

// LoggerKey stores the request logger in the echo context.
const LoggerKey = "logger"

// ContextEnhancer derives a request logger from the server logger.
//
// Fields added to every line logged for the request:
//   - request_id: from the RequestID middleware
//   - method, path: path is the route pattern (/api/v1/todos/:id), not the URL
//   - ip: client IP as echo resolves it
//   - trace and span ids: when a New Relic transaction is active
//   - user_id, user_role: when AttachUser found a valid session
//
// The logger is stored twice: in the echo context for handlers and
// middleware (GetLogger), and in the request context.Context for code below
// the HTTP layer (logger.FromContext), such as services and repositories.
type ContextEnhancer struct {
	server *server.Server
}

func NewContextEnhancer(s *server.Server) *ContextEnhancer {
	return &ContextEnhancer{server: s}
}

// EnhanceContext must run after RequestID, the New Relic middleware and
// AttachUser so their values end up on the logger.
func (ce *ContextEnhancer) EnhanceContext() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()

			contextLogger := ce.server.Logger.With().
				Str("request_id", GetRequestID(c)).
				Str("method", req.Method).
				Str("path", c.Path()).
				Str("ip", c.RealIP()).
				Logger()

			// nil when New Relic is disabled or NewRelicMiddleware has not run.
			if txn := newrelic.FromContext(req.Context()); txn != nil {
				contextLogger = logger.WithTraceContext(contextLogger, txn)
			}

			// Anonymous requests simply get no user fields.
			if user := GetUser(c); user != nil {
				b := contextLogger.With().Str("user_id", user.ID)
				if user.Role != "" {
					b = b.Str("user_role", user.Role)
				}
				contextLogger = b.Logger()
			}

			// Store for echo-aware code, then for context.Context-aware code.
			c.Set(LoggerKey, &contextLogger)
			c.SetRequest(req.WithContext(contextLogger.WithContext(req.Context())))

			return next(c)
		}
	}
}

// GetLogger returns the request logger, or a no-op logger when EnhanceContext
// did not run.
func GetLogger(c echo.Context) *zerolog.Logger {
	if l, ok := c.Get(LoggerKey).(*zerolog.Logger); ok {
		return l
	}
	l := zerolog.Nop()
	return &l
}
