package handler

import (
	"context"
	"net/http"

	"github.com/deppfellow/guardrail-api/internal/container"
	"github.com/deppfellow/guardrail-api/internal/middleware"
	"github.com/deppfellow/guardrail-api/internal/model"
	"github.com/deppfellow/guardrail-api/internal/server"
	"github.com/deppfellow/guardrail-api/internal/service"
	"github.com/deppfellow/guardrail-api/internal/validation"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// TodoHandler serves /api/v1/todos. The todo service is resolved from each
// request's scope.
type TodoHandler struct {
	Handler
}

func NewTodoHandler(s *server.Server) *TodoHandler {
	return &TodoHandler{Handler: NewHandler(s)}
}

// requireUser admits any authenticated user; the pipeline answers 401 when
// there is none.
func requireUser(context.Context, AccessInput) (bool, error) {
	return true, nil
}

func ownsTodo(ctx context.Context, in AccessInput) (bool, error) {
	svc, err := todoService(middleware.GetScope(in.Context))
	if err != nil {
		return false, err
	}
	return svc.Owns(ctx, in.User.ID, in.ID)
}

func todoService(scope *container.Scope) (*service.TodoService, error) {
	if scope == nil {
		return nil, errors.New("request scope missing")
	}
	return container.Resolve[*service.TodoService](scope, service.KeyTodoService)
}

func (h *TodoHandler) ListTodos() echo.HandlerFunc {
	return Handle(h.Handler,
		func(req *Request[Empty, model.ListTodosQuery]) (*model.PaginatedResponse[model.Todo], error) {
			svc, err := todoService(req.Scope())
			if err != nil {
				return nil, err
			}
			return svc.List(req.Ctx(), req.User.ID, req.Query)
		},
		http.StatusOK,
		Options[Empty, model.ListTodosQuery]{
			Access: requireUser,
			Query:  validation.Query[model.ListTodosQuery](),
		},
	)
}

func (h *TodoHandler) CreateTodo() echo.HandlerFunc {
	return Handle(h.Handler,
		func(req *Request[model.CreateTodoRequest, Empty]) (*model.Todo, error) {
			svc, err := todoService(req.Scope())
			if err != nil {
				return nil, err
			}
			return svc.Create(req.Ctx(), req.User.ID, &req.Body)
		},
		http.StatusCreated,
		Options[model.CreateTodoRequest, Empty]{
			Access: requireUser,
			Body:   validation.JSON[model.CreateTodoRequest](),
		},
	)
}

func (h *TodoHandler) GetTodo() echo.HandlerFunc {
	return Handle(h.Handler,
		func(req *Request[Empty, Empty]) (*model.Todo, error) {
			svc, err := todoService(req.Scope())
			if err != nil {
				return nil, err
			}
			return svc.Get(req.Ctx(), req.User.ID, req.ID)
		},
		http.StatusOK,
		Options[Empty, Empty]{Access: ownsTodo},
	)
}

func (h *TodoHandler) UpdateTodo() echo.HandlerFunc {
	return Handle(h.Handler,
		func(req *Request[model.UpdateTodoRequest, Empty]) (*model.Todo, error) {
			svc, err := todoService(req.Scope())
			if err != nil {
				return nil, err
			}
			return svc.Update(req.Ctx(), req.User.ID, req.ID, &req.Body)
		},
		http.StatusOK,
		Options[model.UpdateTodoRequest, Empty]{
			Access: ownsTodo,
			Body:   validation.JSON[model.UpdateTodoRequest](),
		},
	)
}

func (h *TodoHandler) DeleteTodo() echo.HandlerFunc {
	return HandleNoContent(h.Handler,
		func(req *Request[Empty, Empty]) error {
			svc, err := todoService(req.Scope())
			if err != nil {
				return err
			}
			return svc.Delete(req.Ctx(), req.User.ID, req.ID)
		},
		http.StatusNoContent,
		Options[Empty, Empty]{Access: ownsTodo},
	)
}
