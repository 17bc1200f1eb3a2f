package handler_test

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/deppfellow/guardrail-api/internal/errs"
	"github.com/deppfellow/guardrail-api/internal/handler"
	"github.com/deppfellow/guardrail-api/internal/middleware"
	"github.com/deppfellow/guardrail-api/internal/model"
	"github.com/deppfellow/guardrail-api/internal/service"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	mu    sync.Mutex
	todos map[uuid.UUID]model.Todo
}

func (s *memoryStore) Create(_ context.Context, userID string, req *model.CreateTodoRequest) (*model.Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := model.Todo{ID: uuid.New(), UserID: userID, Title: req.Title, Description: req.Description}
	s.todos[t.ID] = t
	return &t, nil
}

func (s *memoryStore) GetByID(_ context.Context, id uuid.UUID) (*model.Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.todos[id]
	if !ok {
		return nil, errs.NewNotFoundError("Todo not found", nil)
	}
	return &t, nil
}

func (s *memoryStore) List(_ context.Context, userID string, _ model.ListTodosQuery) ([]model.Todo, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Todo
	for _, t := range s.todos {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	return out, len(out), nil
}

func (s *memoryStore) Update(_ context.Context, id uuid.UUID, req *model.UpdateTodoRequest) (*model.Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.todos[id]
	if req.Title != nil {
		t.Title = *req.Title
	}
	if req.Completed != nil {
		t.Completed = *req.Completed
	}
	s.todos[id] = t
	return &t, nil
}

func (s *memoryStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.todos, id)
	return nil
}

func newTodoHarness(t *testing.T, seed ...model.Todo) (*harness, *handler.TodoHandler, *memoryStore) {
	t.Helper()

	store := &memoryStore{todos: map[uuid.UUID]model.Todo{}}
	for _, todo := range seed {
		store.todos[todo.ID] = todo
	}

	h := newHarness()
	require.NoError(t, service.Register(h.server.Container, store, nil))
	return h, handler.NewTodoHandler(h.server), store
}

var bob = &middleware.User{ID: "user_bob", Role: "member"}

func TestTodoHandler_Create(t *testing.T) {
	h, todos, store := newTodoHarness(t)

	rec := h.serve(t, todos.CreateTodo(), request{
		method: http.MethodPost,
		body:   strings.NewReader(`{"title":"Buy milk","description":"2L"}`),
		user:   alice,
	})

	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode[model.Todo](t, rec)
	assert.Equal(t, "Buy milk", created.Title)
	assert.Equal(t, alice.ID, created.UserID)
	assert.Len(t, store.todos, 1)

	rec = h.serve(t, todos.CreateTodo(), request{method: http.MethodPost, body: strings.NewReader(`{"title":"x"}`)})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = h.serve(t, todos.CreateTodo(), request{method: http.MethodPost, body: strings.NewReader(`{"title":"  "}`), user: alice})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Len(t, store.todos, 1)
}

func TestTodoHandler_Get(t *testing.T) {
	mine := model.Todo{ID: uuid.New(), UserID: alice.ID, Title: "Buy milk"}
	h, todos, _ := newTodoHarness(t, mine)

	rec := h.serve(t, todos.GetTodo(), request{id: mine.ID.String(), user: alice})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, mine.ID, decode[model.Todo](t, rec).ID)

	rec = h.serve(t, todos.GetTodo(), request{id: mine.ID.String(), user: bob})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = h.serve(t, todos.GetTodo(), request{id: uuid.NewString(), user: alice})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"message":"Todo not found"}`, rec.Body.String())

	rec = h.serve(t, todos.GetTodo(), request{id: "nope", user: alice})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, []string{"id"}, decode[errs.ValidationBody](t, rec).Errors[0].Path)
}

func TestTodoHandler_List(t *testing.T) {
	h, todos, _ := newTodoHarness(t,
		model.Todo{ID: uuid.New(), UserID: alice.ID, Title: "a"},
		model.Todo{ID: uuid.New(), UserID: bob.ID, Title: "b"},
	)

	rec := h.serve(t, todos.ListTodos(), request{target: "/todos?page=1&limit=5", user: alice})
	require.Equal(t, http.StatusOK, rec.Code)

	page := decode[model.PaginatedResponse[model.Todo]](t, rec)
	assert.Len(t, page.Data, 1)
	assert.Equal(t, 5, page.Limit)

	rec = h.serve(t, todos.ListTodos(), request{target: "/todos?sort=owner", user: alice})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTodoHandler_UpdateAndDelete(t *testing.T) {
	mine := model.Todo{ID: uuid.New(), UserID: alice.ID, Title: "Buy milk"}
	h, todos, store := newTodoHarness(t, mine)

	rec := h.serve(t, todos.UpdateTodo(), request{
		method: http.MethodPatch,
		id:     mine.ID.String(),
		body:   strings.NewReader(`{"completed":true}`),
		user:   alice,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[model.Todo](t, rec).Completed)

	rec = h.serve(t, todos.UpdateTodo(), request{
		method: http.MethodPatch,
		id:     mine.ID.String(),
		body:   strings.NewReader(`{}`),
		user:   alice,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.serve(t, todos.DeleteTodo(), request{method: http.MethodDelete, id: mine.ID.String(), user: bob})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Len(t, store.todos, 1)

	rec = h.serve(t, todos.DeleteTodo(), request{method: http.MethodDelete, id: mine.ID.String(), user: alice})
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, store.todos)
}
