package service

import (
	"github.com/deppfellow/guardrail-api/internal/container"
	"github.com/deppfellow/guardrail-api/internal/lib/job"
	"github.com/deppfellow/guardrail-api/internal/repository"
	"github.com/deppfellow/guardrail-api/internal/server"
	"github.com/pkg/errors"
)

// Container keys.
const (
	KeyTodoRepository = "repository.todo"
	KeyTaskEnqueuer   = "job.enqueuer"
	KeyTodoService    = "service.todo"
)

type Services struct {
	Auth *AuthService
	Job  *job.JobService
}

// NewService sets up the services that live for the whole process and
// registers the request-scoped ones in s.Container.
func NewService(s *server.Server, repos *repository.Repositories) (*Services, error) {
	var enqueuer TaskEnqueuer
	if s.Job != nil {
		enqueuer = s.Job.Client
	}

	if err := Register(s.Container, repos.Todo, enqueuer); err != nil {
		return nil, err
	}

	return &Services{
		Auth: NewAuthService(s.Config.Auth),
		Job:  s.Job,
	}, nil
}

// Register adds the todo repository and job client as singletons and the
// todo service as a scoped dependency. enqueuer may be nil.
func Register(c *container.Container, store TodoStore, enqueuer TaskEnqueuer) error {
	if err := c.RegisterValue(KeyTodoRepository, store); err != nil {
		return errors.Wrap(err, "registering todo repository")
	}
	if enqueuer != nil {
		if err := c.RegisterValue(KeyTaskEnqueuer, enqueuer); err != nil {
			return errors.Wrap(err, "registering task enqueuer")
		}
	}

	err := c.Register(KeyTodoService, container.Scoped, func(r container.Resolver) (any, error) {
		store, err := container.Resolve[TodoStore](r, KeyTodoRepository)
		if err != nil {
			return nil, err
		}

		// Missing when jobs are disabled; notifications are skipped then.
		enqueuer, _ := container.Resolve[TaskEnqueuer](r, KeyTaskEnqueuer)

		return NewTodoService(store, enqueuer), nil
	})
	return errors.Wrap(err, "registering todo service")
}
