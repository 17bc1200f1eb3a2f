package repository

import (
	"github.com/deppfellow/guardrail-api/internal/server"
)

// Repositories holds every repository instance.
type Repositories struct {
	Todo *TodoRepository
}

func NewRepositories(s *server.Server) *Repositories {
	return &Repositories{
		Todo: NewTodoRepository(s.DB.Pool),
	}
}
