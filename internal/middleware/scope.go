package middleware

import (
	"github.com/deppfellow/guardrail-api/internal/container"
	"github.com/labstack/echo/v4"
)

// ScopeKey stores the request's *container.Scope in the echo context.
const ScopeKey = "scope"

// ScopeFactory creates request scopes. *container.Container implements it.
type ScopeFactory interface {
	CreateScope() *container.Scope
}

// ScopeInjector gives every request its own dependency scope.
type ScopeInjector struct {
	factory ScopeFactory
}

func NewScopeInjector(factory ScopeFactory) *ScopeInjector {
	return &ScopeInjector{factory: factory}
}

// InjectScope creates a fresh scope per request and makes it reachable from
// both the echo context (GetScope) and the request context
// (container.ScopeFromContext). next always runs.
func (si *ScopeInjector) InjectScope() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			scope := si.factory.CreateScope()

			c.Set(ScopeKey, scope)
			req := c.Request()
			c.SetRequest(req.WithContext(container.WithScope(req.Context(), scope)))

			return next(c)
		}
	}
}

// GetScope returns the request scope, or nil when InjectScope did not run.
func GetScope(c echo.Context) *container.Scope {
	scope, _ := c.Get(ScopeKey).(*container.Scope)
	return scope
}
