// Package handler is the first layer after the router.
//
// Every business route goes through Handle or HandleNoContent, which run the
// access check, query and body validation, and error mapping before and
// after the callback.
package handler

import (
	"github.com/deppfellow/guardrail-api/internal/server"
	"github.com/deppfellow/guardrail-api/internal/service"
)

type Handlers struct {
	Health *HealthHandler
	Todo   *TodoHandler
}

func NewHandlers(s *server.Server, _ *service.Services) *Handlers {
	return &Handlers{
		Health: NewHealthHandler(s),
		Todo:   NewTodoHandler(s),
	}
}
