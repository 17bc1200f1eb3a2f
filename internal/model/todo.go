package model

import (
	"strings"
	"time"

	"github.com/deppfellow/guardrail-api/internal/validation"
	"github.com/google/uuid"
)

type Todo struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	UserID      string     `json:"user_id" db:"user_id"`
	Title       string     `json:"title" db:"title"`
	Description string     `json:"description" db:"description"`
	Completed   bool       `json:"completed" db:"completed"`
	DueDate     *time.Time `json:"due_date" db:"due_date"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

const (
	DefaultTodoPage  = 1
	DefaultTodoLimit = 20

	// MaxTodoPage keeps (page-1)*limit far from int overflow; the OFFSET sent to
	// PostgreSQL must never go negative.
	MaxTodoPage = 100000
)

// ListTodosQuery is the query string of GET /api/v1/todos.
type ListTodosQuery struct {
	Page      *int   `query:"page" validate:"omitempty,min=1,max=100000"`
	Limit     *int   `query:"limit" validate:"omitempty,min=1,max=100"`
	Completed *bool  `query:"completed"`
	Search    string `query:"search" validate:"max=100"`
	Sort      string `query:"sort" validate:"omitempty,oneof=created_at due_date title"`
	Order     string `query:"order" validate:"omitempty,oneof=asc desc"`
}

// PageAndLimit applies the defaults.
func (q ListTodosQuery) PageAndLimit() (int, int) {
	page, limit := DefaultTodoPage, DefaultTodoLimit
	if q.Page != nil {
		page = *q.Page
	}
	if q.Limit != nil {
		limit = *q.Limit
	}
	return page, limit
}

type CreateTodoRequest struct {
	Title       string     `json:"title" validate:"required,max=255"`
	Description string     `json:"description" validate:"max=1000"`
	DueDate     *time.Time `json:"due_date"`

	// NotifyEmail receives a confirmation once the todo is stored.
	NotifyEmail string `json:"notify_email" validate:"omitempty,email"`
}

func (r *CreateTodoRequest) Validate() error {
	var issues validation.CustomValidationErrors

	if strings.TrimSpace(r.Title) == "" {
		issues = append(issues, validation.CustomValidationError{Field: "title", Message: "must not be blank"})
	}
	if r.DueDate != nil && r.DueDate.Before(time.Now().Add(-24*time.Hour)) {
		issues = append(issues, validation.CustomValidationError{Field: "due_date", Message: "must not be in the past"})
	}

	if len(issues) > 0 {
		return issues
	}
	return nil
}

// UpdateTodoRequest is a partial update; nil fields are left unchanged.
type UpdateTodoRequest struct {
	Title       *string    `json:"title" validate:"omitempty,min=1,max=255"`
	Description *string    `json:"description" validate:"omitempty,max=1000"`
	Completed   *bool      `json:"completed"`
	DueDate     *time.Time `json:"due_date"`
}

func (r *UpdateTodoRequest) Validate() error {
	if r.Title == nil && r.Description == nil && r.Completed == nil && r.DueDate == nil {
		return validation.CustomValidationErrors{{Message: "at least one field must be provided"}}
	}
	if r.Title != nil && strings.TrimSpace(*r.Title) == "" {
		return validation.CustomValidationErrors{{Field: "title", Message: "must not be blank"}}
	}
	return nil
}
