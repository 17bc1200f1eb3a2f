// Package router initializes the HTTP router (using Echo).
//
// It registers the middlewares and defines the API route groups,
// mapping specific paths to their corresponding handlers
package router

import (
	"github.com/deppfellow/guardrail-api/internal/handler"
	"github.com/deppfellow/guardrail-api/internal/middleware"
	"github.com/deppfellow/guardrail-api/internal/server"
	"github.com/labstack/echo/v4"
)

func NewRouter(s *server.Server, h *handler.Handlers) *echo.Echo {
	middlewares := middleware.NewMiddlewares(s)

	router := echo.New()
	router.HideBanner = true
	router.HTTPErrorHandler = middlewares.Global.GlobalErrorHandler

	router.Use(
		middlewares.RateLimit.RateLimit(),
		middlewares.Global.CORS(),
		middlewares.Global.Secure(),
		middlewares.Global.BodyLimit(),
		middleware.RequestID(),
		middlewares.Tracing.NewRelicMiddleware(),
		middlewares.Tracing.EnhanceTracing(),
		middlewares.Auth.AttachUser(),
		middlewares.ContextEnhancer.EnhanceContext(),
		middlewares.Global.RequestLogger(),
		middlewares.Global.Recover(),
		middlewares.Scope.InjectScope(),
	)

	registerSystemRoutes(router, s, h)

	v1 := router.Group("/api/v1")
	registerTodoRoutes(v1, h.Todo)

	return router
}

func registerTodoRoutes(g *echo.Group, h *handler.TodoHandler) {
	todos := g.Group("/todos")
	todos.GET("", h.ListTodos())
	todos.POST("", h.CreateTodo())
	todos.GET("/:id", h.GetTodo())
	todos.PATCH("/:id", h.UpdateTodo())
	todos.DELETE("/:id", h.DeleteTodo())
}
