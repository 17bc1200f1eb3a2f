package service_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/deppfellow/guardrail-api/internal/config"
	"github.com/deppfellow/guardrail-api/internal/container"
	"github.com/deppfellow/guardrail-api/internal/errs"
	"github.com/deppfellow/guardrail-api/internal/lib/job"
	"github.com/deppfellow/guardrail-api/internal/model"
	"github.com/deppfellow/guardrail-api/internal/repository"
	"github.com/deppfellow/guardrail-api/internal/server"
	"github.com/deppfellow/guardrail-api/internal/service"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	todos    map[uuid.UUID]*model.Todo
	getCalls int
}

func newFakeStore(todos ...*model.Todo) *fakeStore {
	s := &fakeStore{todos: map[uuid.UUID]*model.Todo{}}
	for _, t := range todos {
		s.todos[t.ID] = t
	}
	return s
}

func (s *fakeStore) Create(_ context.Context, userID string, req *model.CreateTodoRequest) (*model.Todo, error) {
	t := &model.Todo{ID: uuid.New(), UserID: userID, Title: req.Title, Description: req.Description, DueDate: req.DueDate}
	s.todos[t.ID] = t
	return t, nil
}

func (s *fakeStore) GetByID(_ context.Context, id uuid.UUID) (*model.Todo, error) {
	s.getCalls++
	t, ok := s.todos[id]
	if !ok {
		return nil, errs.NewNotFoundError("Todo not found", nil)
	}
	return t, nil
}

func (s *fakeStore) List(_ context.Context, userID string, _ model.ListTodosQuery) ([]model.Todo, int, error) {
	var out []model.Todo
	for _, t := range s.todos {
		if t.UserID == userID {
			out = append(out, *t)
		}
	}
	return out, len(out), nil
}

func (s *fakeStore) Update(_ context.Context, id uuid.UUID, req *model.UpdateTodoRequest) (*model.Todo, error) {
	t := *s.todos[id]
	if req.Completed != nil {
		t.Completed = *req.Completed
	}
	s.todos[id] = &t
	return &t, nil
}

func (s *fakeStore) Delete(_ context.Context, id uuid.UUID) error {
	delete(s.todos, id)
	return nil
}

type fakeEnqueuer struct {
	tasks []*asynq.Task
	err   error
}

func (e *fakeEnqueuer) EnqueueContext(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	if e.err != nil {
		return nil, e.err
	}
	e.tasks = append(e.tasks, task)
	return &asynq.TaskInfo{ID: "task-1"}, nil
}

func ownedTodo(userID string) *model.Todo {
	return &model.Todo{ID: uuid.New(), UserID: userID, Title: "Buy milk"}
}

func TestTodoService_CreateEnqueuesNotification(t *testing.T) {
	enq := &fakeEnqueuer{}
	svc := service.NewTodoService(newFakeStore(), enq)

	todo, err := svc.Create(context.Background(), "user_1", &model.CreateTodoRequest{Title: "Write docs", NotifyEmail: "me@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "user_1", todo.UserID)

	require.Len(t, enq.tasks, 1)
	assert.Equal(t, job.TaskTodoCreated, enq.tasks[0].Type())

	var payload job.TodoCreatedPayload
	require.NoError(t, json.Unmarshal(enq.tasks[0].Payload(), &payload))
	assert.Equal(t, "me@example.com", payload.To)
	assert.Equal(t, todo.ID.String(), payload.TodoID)
}

func TestTodoService_CreateWithoutNotifyEmail(t *testing.T) {
	enq := &fakeEnqueuer{}
	svc := service.NewTodoService(newFakeStore(), enq)

	_, err := svc.Create(context.Background(), "user_1", &model.CreateTodoRequest{Title: "Write docs"})
	require.NoError(t, err)
	assert.Empty(t, enq.tasks)
}

func TestTodoService_EnqueueFailureIsLogged(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf)
	ctx := log.WithContext(context.Background())

	svc := service.NewTodoService(newFakeStore(), &fakeEnqueuer{err: errors.New("redis down")})

	todo, err := svc.Create(ctx, "user_1", &model.CreateTodoRequest{Title: "Write docs", NotifyEmail: "me@example.com"})
	require.NoError(t, err)
	require.NotNil(t, todo)
	assert.Contains(t, buf.String(), "failed to enqueue todo created task")

	svc = service.NewTodoService(newFakeStore(), nil)
	_, err = svc.Create(ctx, "user_1", &model.CreateTodoRequest{Title: "Other", NotifyEmail: "me@example.com"})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "background jobs disabled")
}

func TestTodoService_Owns(t *testing.T) {
	mine := ownedTodo("user_1")
	store := newFakeStore(mine)
	svc := service.NewTodoService(store, nil)
	ctx := context.Background()

	ok, err := svc.Owns(ctx, "user_1", mine.ID.String())
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.Owns(ctx, "user_2", mine.ID.String())
	require.NoError(t, err)
	assert.False(t, ok)

	// the second check and the Get below reuse the loaded todo
	got, err := svc.Get(ctx, "user_1", mine.ID.String())
	require.NoError(t, err)
	assert.Equal(t, mine, got)
	assert.Equal(t, 1, store.getCalls)

	_, err = svc.Owns(ctx, "user_1", uuid.NewString())
	var httpErr *errs.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusNotFound, httpErr.StatusCode())

	_, err = svc.Owns(ctx, "user_1", "not-a-uuid")
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, errs.KindValidation, httpErr.Kind)
	assert.Equal(t, []string{"id"}, httpErr.Issues[0].Path)
}

func TestTodoService_UpdateAndDelete(t *testing.T) {
	mine := ownedTodo("user_1")
	store := newFakeStore(mine)
	svc := service.NewTodoService(store, nil)
	ctx := context.Background()

	done := true
	updated, err := svc.Update(ctx, "user_1", mine.ID.String(), &model.UpdateTodoRequest{Completed: &done})
	require.NoError(t, err)
	assert.True(t, updated.Completed)

	_, err = svc.Update(ctx, "user_2", mine.ID.String(), &model.UpdateTodoRequest{Completed: &done})
	var httpErr *errs.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, errs.KindForbidden, httpErr.Kind)

	require.NoError(t, svc.Delete(ctx, "user_1", mine.ID.String()))
	assert.Empty(t, store.todos)

	_, err = svc.Get(ctx, "user_1", mine.ID.String())
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusNotFound, httpErr.StatusCode())
}

func TestTodoService_List(t *testing.T) {
	store := newFakeStore(ownedTodo("user_1"), ownedTodo("user_1"), ownedTodo("user_2"))
	svc := service.NewTodoService(store, nil)

	resp, err := svc.List(context.Background(), "user_1", model.ListTodosQuery{})
	require.NoError(t, err)
	assert.Len(t, resp.Data, 2)
	assert.Equal(t, 2, resp.Total)
	assert.Equal(t, model.DefaultTodoPage, resp.Page)
	assert.Equal(t, model.DefaultTodoLimit, resp.Limit)
	assert.Equal(t, 1, resp.TotalPages)
}

func TestRegister_ScopedTodoService(t *testing.T) {
	c := container.New()
	require.NoError(t, service.Register(c, newFakeStore(), &fakeEnqueuer{}))

	_, err := c.Resolve(service.KeyTodoService)
	assert.ErrorAs(t, err, &container.ScopeRequiredError{})

	first, second := c.CreateScope(), c.CreateScope()

	a := container.MustResolve[*service.TodoService](first, service.KeyTodoService)
	b := container.MustResolve[*service.TodoService](first, service.KeyTodoService)
	other := container.MustResolve[*service.TodoService](second, service.KeyTodoService)

	assert.Same(t, a, b)
	assert.NotSame(t, a, other)
}

func TestRegister_WithoutEnqueuer(t *testing.T) {
	c := container.New()
	require.NoError(t, service.Register(c, newFakeStore(), nil))
	assert.False(t, c.Has(service.KeyTaskEnqueuer))

	svc, err := container.Resolve[*service.TodoService](c.CreateScope(), service.KeyTodoService)
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), "user_1", &model.CreateTodoRequest{Title: "x", NotifyEmail: "me@example.com"})
	require.NoError(t, err)
}

func TestNewService_WithoutJobs(t *testing.T) {
	s := &server.Server{Config: &config.Config{}, Container: container.New()}
	repos := &repository.Repositories{Todo: repository.NewTodoRepository(nil)}

	services, err := service.NewService(s, repos)
	require.NoError(t, err)
	assert.Nil(t, services.Job)
	assert.False(t, services.Auth.Configured())
	assert.False(t, s.Container.Has(service.KeyTaskEnqueuer))
	assert.True(t, s.Container.Has(service.KeyTodoService))
}
