package service

import (
	"context"
	"sync"

	"github.com/deppfellow/guardrail-api/internal/errs"
	"github.com/deppfellow/guardrail-api/internal/lib/job"
	"github.com/deppfellow/guardrail-api/internal/logger"
	"github.com/deppfellow/guardrail-api/internal/model"
	"github.com/google/uuid"
)

// TodoStore is implemented by *repository.TodoRepository.
type TodoStore interface {
	Create(ctx context.Context, userID string, req *model.CreateTodoRequest) (*model.Todo, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Todo, error)
	List(ctx context.Context, userID string, q model.ListTodosQuery) ([]model.Todo, int, error)
	Update(ctx context.Context, id uuid.UUID, req *model.UpdateTodoRequest) (*model.Todo, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// TodoService is request scoped. Todos loaded by an ownership check are
// remembered so the handler that follows does not query them again.
type TodoService struct {
	store    TodoStore
	enqueuer TaskEnqueuer

	mu     sync.Mutex
	loaded map[uuid.UUID]*model.Todo
}

func NewTodoService(store TodoStore, enqueuer TaskEnqueuer) *TodoService {
	return &TodoService{
		store:    store,
		enqueuer: enqueuer,
		loaded:   make(map[uuid.UUID]*model.Todo),
	}
}

func (s *TodoService) Create(ctx context.Context, userID string, req *model.CreateTodoRequest) (*model.Todo, error) {
	todo, err := s.store.Create(ctx, userID, req)
	if err != nil {
		return nil, err
	}

	if req.NotifyEmail != "" {
		s.notifyCreated(ctx, req.NotifyEmail, todo)
	}

	return todo, nil
}

// notifyCreated never fails the request; the todo is already stored.
func (s *TodoService) notifyCreated(ctx context.Context, to string, todo *model.Todo) {
	log := logger.FromContext(ctx)

	if s.enqueuer == nil {
		log.Warn().Str("todo_id", todo.ID.String()).Msg("background jobs disabled, skipping todo notification")
		return
	}

	task, err := job.NewTodoCreatedTask(job.TodoCreatedPayload{
		To:          to,
		TodoID:      todo.ID.String(),
		Title:       todo.Title,
		Description: todo.Description,
		DueDate:     todo.DueDate,
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to build todo created task")
		return
	}

	info, err := s.enqueuer.EnqueueContext(ctx, task)
	if err != nil {
		log.Error().Err(err).Str("todo_id", todo.ID.String()).Msg("failed to enqueue todo created task")
		return
	}

	log.Info().Str("task_id", info.ID).Str("todo_id", todo.ID.String()).Msg("enqueued todo created task")
}

func (s *TodoService) List(ctx context.Context, userID string, q model.ListTodosQuery) (*model.PaginatedResponse[model.Todo], error) {
	todos, total, err := s.store.List(ctx, userID, q)
	if err != nil {
		return nil, err
	}

	page, limit := q.PageAndLimit()
	return model.NewPaginatedResponse(todos, page, limit, total), nil
}

// Owns reports whether the todo with id belongs to userID. A malformed id is
// a validation failure and an unknown id is a 404.
func (s *TodoService) Owns(ctx context.Context, userID, id string) (bool, error) {
	todo, err := s.load(ctx, id)
	if err != nil {
		return false, err
	}
	return todo.UserID == userID, nil
}

func (s *TodoService) Get(ctx context.Context, userID, id string) (*model.Todo, error) {
	return s.owned(ctx, userID, id)
}

func (s *TodoService) Update(ctx context.Context, userID, id string, req *model.UpdateTodoRequest) (*model.Todo, error) {
	todo, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	updated, err := s.store.Update(ctx, todo.ID, req)
	if err != nil {
		return nil, err
	}

	s.remember(updated)
	return updated, nil
}

func (s *TodoService) Delete(ctx context.Context, userID, id string) error {
	todo, err := s.owned(ctx, userID, id)
	if err != nil {
		return err
	}

	if err := s.store.Delete(ctx, todo.ID); err != nil {
		return err
	}

	s.mu.Lock()
	delete(s.loaded, todo.ID)
	s.mu.Unlock()
	return nil
}

func (s *TodoService) owned(ctx context.Context, userID, id string) (*model.Todo, error) {
	todo, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if todo.UserID != userID {
		return nil, errs.NewForbiddenError("")
	}
	return todo, nil
}

func (s *TodoService) load(ctx context.Context, id string) (*model.Todo, error) {
	todoID, err := ParseID(id)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	todo, ok := s.loaded[todoID]
	s.mu.Unlock()
	if ok {
		return todo, nil
	}

	todo, err = s.store.GetByID(ctx, todoID)
	if err != nil {
		return nil, err
	}

	s.remember(todo)
	return todo, nil
}

func (s *TodoService) remember(todo *model.Todo) {
	s.mu.Lock()
	s.loaded[todo.ID] = todo
	s.mu.Unlock()
}

// ParseID parses a path id, failing with a validation issue on "id".
func ParseID(id string) (uuid.UUID, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, errs.NewValidationError([]errs.Issue{{
			Code:    "uuid",
			Path:    []string{"id"},
			Message: "must be a valid UUID",
		}})
	}
	return parsed, nil
}

