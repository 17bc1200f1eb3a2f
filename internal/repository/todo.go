package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/deppfellow/guardrail-api/internal/model"
	"github.com/deppfellow/guardrail-api/internal/sqlerr"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

const todoColumns = `id, user_id, title, description, completed, due_date, created_at, updated_at`

var errTodoNotFound = errors.Wrap(pgx.ErrNoRows, sqlerr.TablePrefix+"todos")

type TodoRepository struct {
	db DBTX
}

func NewTodoRepository(db DBTX) *TodoRepository {
	return &TodoRepository{db: db}
}

func (r *TodoRepository) Create(ctx context.Context, userID string, req *model.CreateTodoRequest) (*model.Todo, error) {
	stmt := `
		INSERT INTO todos (id, user_id, title, description, due_date)
		VALUES (@id, @user_id, @title, @description, @due_date)
		RETURNING ` + todoColumns

	rows, err := r.db.Query(ctx, stmt, pgx.NamedArgs{
		"id":          uuid.New(),
		"user_id":     userID,
		"title":       strings.TrimSpace(req.Title),
		"description": req.Description,
		"due_date":    req.DueDate,
	})
	if err != nil {
		return nil, sqlerr.HandleError(errors.Wrap(err, "failed to insert todo"))
	}

	return collectTodo(rows)
}

// GetByID returns the todo with id regardless of owner.
func (r *TodoRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Todo, error) {
	rows, err := r.db.Query(ctx, `SELECT `+todoColumns+` FROM todos WHERE id = @id`, pgx.NamedArgs{"id": id})
	if err != nil {
		return nil, errors.Wrap(err, "failed to query todo")
	}

	return collectTodo(rows)
}

func (r *TodoRepository) List(ctx context.Context, userID string, q model.ListTodosQuery) ([]model.Todo, int, error) {
	where, args := listFilter(userID, q)

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM todos `+where, args).Scan(&total); err != nil {
		return nil, 0, errors.Wrap(err, "failed to count todos")
	}

	page, limit := q.PageAndLimit()
	args["limit"] = limit
	args["offset"] = (page - 1) * limit

	stmt := fmt.Sprintf(`SELECT %s FROM todos %s ORDER BY %s LIMIT @limit OFFSET @offset`,
		todoColumns, where, listOrder(q))

	rows, err := r.db.Query(ctx, stmt, args)
	if err != nil {
		return nil, 0, errors.Wrap(err, "failed to list todos")
	}

	todos, err := pgx.CollectRows(rows, pgx.RowToStructByName[model.Todo])
	if err != nil {
		return nil, 0, errors.Wrap(err, "failed to scan todos")
	}

	return todos, total, nil
}

func (r *TodoRepository) Update(ctx context.Context, id uuid.UUID, req *model.UpdateTodoRequest) (*model.Todo, error) {
	var title *string
	if req.Title != nil {
		trimmed := strings.TrimSpace(*req.Title)
		title = &trimmed
	}

	stmt := `
		UPDATE todos SET
			title       = COALESCE(@title, title),
			description = COALESCE(@description, description),
			completed   = COALESCE(@completed, completed),
			due_date    = COALESCE(@due_date, due_date),
			updated_at  = NOW()
		WHERE id = @id
		RETURNING ` + todoColumns

	rows, err := r.db.Query(ctx, stmt, pgx.NamedArgs{
		"id":          id,
		"title":       title,
		"description": req.Description,
		"completed":   req.Completed,
		"due_date":    req.DueDate,
	})
	if err != nil {
		return nil, sqlerr.HandleError(errors.Wrap(err, "failed to update todo"))
	}

	return collectTodo(rows)
}

func (r *TodoRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM todos WHERE id = @id`, pgx.NamedArgs{"id": id})
	if err != nil {
		return errors.Wrap(err, "failed to delete todo")
	}
	if tag.RowsAffected() == 0 {
		return sqlerr.HandleError(errTodoNotFound)
	}
	return nil
}

func collectTodo(rows pgx.Rows) (*model.Todo, error) {
	todo, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[model.Todo])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sqlerr.HandleError(errTodoNotFound)
		}
		return nil, sqlerr.HandleError(errors.Wrap(err, "failed to scan todo"))
	}
	return todo, nil
}

// listFilter builds the WHERE clause shared by the count and page queries.
func listFilter(userID string, q model.ListTodosQuery) (string, pgx.NamedArgs) {
	clauses := []string{"user_id = @user_id"}
	args := pgx.NamedArgs{"user_id": userID}

	if q.Completed != nil {
		clauses = append(clauses, "completed = @completed")
		args["completed"] = *q.Completed
	}
	if search := strings.TrimSpace(q.Search); search != "" {
		clauses = append(clauses, "(title ILIKE @search OR description ILIKE @search)")
		args["search"] = "%" + search + "%"
	}

	return "WHERE " + strings.Join(clauses, " AND "), args
}

// listOrder only ever emits whitelisted column names.
func listOrder(q model.ListTodosQuery) string {
	column := "created_at"
	switch q.Sort {
	case "due_date", "title":
		column = q.Sort
	}

	direction := "DESC"
	if strings.EqualFold(q.Order, "asc") {
		direction = "ASC"
	}

	return column + " " + direction + ", id " + direction
}
