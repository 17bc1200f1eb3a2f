package router

import (
	"github.com/deppfellow/guardrail-api/internal/handler"
	"github.com/deppfellow/guardrail-api/internal/server"
	"github.com/labstack/echo/v4"
)

// registerSystemRoutes registers the endpoints that are not business logic.
// Both are exempt from rate limiting.
func registerSystemRoutes(r *echo.Echo, s *server.Server, h *handler.Handlers) {
	r.GET("/status", h.Health.CheckHealth)
	r.GET("/metrics", echo.WrapHandler(s.Metrics.Handler()))
}
