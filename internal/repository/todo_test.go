package repository

import (
	"net/http"
	"testing"

	"github.com/deppfellow/guardrail-api/internal/errs"
	"github.com/deppfellow/guardrail-api/internal/model"
	"github.com/deppfellow/guardrail-api/internal/sqlerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListFilter(t *testing.T) {
	completed := true
	where, args := listFilter("user_1", model.ListTodosQuery{Completed: &completed, Search: "  milk "})

	assert.Equal(t, "WHERE user_id = @user_id AND completed = @completed AND (title ILIKE @search OR description ILIKE @search)", where)
	assert.Equal(t, "user_1", args["user_id"])
	assert.Equal(t, true, args["completed"])
	assert.Equal(t, "%milk%", args["search"])

	where, args = listFilter("user_1", model.ListTodosQuery{})
	assert.Equal(t, "WHERE user_id = @user_id", where)
	assert.Len(t, args, 1)
}

func TestListOrder(t *testing.T) {
	tests := []struct {
		sort, order string
		want        string
	}{
		{"", "", "created_at DESC, id DESC"},
		{"title", "asc", "title ASC, id ASC"},
		{"due_date", "DESC", "due_date DESC, id DESC"},
		{"id; DROP TABLE todos", "asc", "created_at ASC, id ASC"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, listOrder(model.ListTodosQuery{Sort: tt.sort, Order: tt.order}))
	}
}

func TestErrTodoNotFound(t *testing.T) {
	err := sqlerr.HandleError(errTodoNotFound)

	var httpErr *errs.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusNotFound, httpErr.StatusCode())
	assert.Equal(t, "Todo not found", httpErr.Message)
}
