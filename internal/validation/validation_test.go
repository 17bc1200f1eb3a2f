package validation_test

import (
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/deppfellow/guardrail-api/internal/errs"
	"github.com/deppfellow/guardrail-api/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type createNote struct {
	Title    string   `json:"title" validate:"required,max=10"`
	Email    string   `json:"email" validate:"omitempty,email"`
	Priority int      `json:"priority" validate:"omitempty,oneof=1 2 3"`
	Tags     []string `json:"tags" validate:"omitempty,dive,min=2"`
}

type window struct {
	From string `json:"from"`
	To   string `json:"to"`
}

func (w *window) Validate() error {
	if w.From > w.To {
		return validation.CustomValidationErrors{{Field: "to", Message: "must not be before from"}}
	}
	return nil
}

type listQuery struct {
	Page      int        `query:"page" validate:"omitempty,min=1"`
	Limit     int        `query:"limit" validate:"omitempty,min=1,max=100"`
	Completed *bool      `query:"completed"`
	IDs       []string   `query:"ids" validate:"omitempty,dive,uuid"`
	Since     *time.Time `query:"since"`
}

func requireIssues(t *testing.T, err error) []errs.Issue {
	t.Helper()

	var httpErr *errs.HTTPError
	require.True(t, errors.As(err, &httpErr), "expected *errs.HTTPError, got %T", err)
	require.Equal(t, errs.KindValidation, httpErr.Kind)
	return httpErr.Issues
}

func TestJSON_Valid(t *testing.T) {
	t.Parallel()

	got, err := validation.JSON[createNote]().Parse([]byte(`{"title":"milk","priority":2,"extra":true}`))
	require.NoError(t, err)
	assert.Equal(t, createNote{Title: "milk", Priority: 2}, got)
}

func TestJSON_TagFailures(t *testing.T) {
	t.Parallel()

	_, err := validation.JSON[createNote]().Parse([]byte(`{"email":"nope","priority":9}`))
	issues := requireIssues(t, err)

	require.Len(t, issues, 3)
	assert.Equal(t, errs.Issue{Code: "required", Path: []string{"title"}, Message: "is required"}, issues[0])
	assert.Equal(t, errs.Issue{Code: "email", Path: []string{"email"}, Message: "must be a valid email address"}, issues[1])
	assert.Equal(t, errs.Issue{Code: "oneof", Path: []string{"priority"}, Message: "must be one of: 1 2 3"}, issues[2])
}

func TestJSON_StringLengthMessages(t *testing.T) {
	t.Parallel()

	_, err := validation.JSON[createNote]().Parse([]byte(`{"title":"far too long a title"}`))
	issues := requireIssues(t, err)

	require.Len(t, issues, 1)
	assert.Equal(t, "must not exceed 10 characters", issues[0].Message)
}

func TestJSON_DecodeFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		body     string
		wantCode string
		wantPath []string
	}{
		{name: "empty body", body: "  ", wantCode: "invalid_type", wantPath: []string{}},
		{name: "truncated", body: `{"title":`, wantCode: "invalid_json", wantPath: []string{}},
		{name: "syntax error", body: `{"title" "x"}`, wantCode: "invalid_json", wantPath: []string{}},
		{name: "wrong type", body: `{"title":42}`, wantCode: "invalid_type", wantPath: []string{"title"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := validation.JSON[createNote]().Parse([]byte(tt.body))
			issues := requireIssues(t, err)

			require.Len(t, issues, 1)
			assert.Equal(t, tt.wantCode, issues[0].Code)
			assert.Equal(t, tt.wantPath, issues[0].Path)
		})
	}
}

func TestJSON_Validatable(t *testing.T) {
	t.Parallel()

	_, err := validation.JSON[window]().Parse([]byte(`{"from":"b","to":"a"}`))
	issues := requireIssues(t, err)

	require.Len(t, issues, 1)
	assert.Equal(t, errs.Issue{Code: "custom", Path: []string{"to"}, Message: "must not be before from"}, issues[0])

	got, err := validation.JSON[*window]().Parse([]byte(`{"from":"a","to":"b"}`))
	require.NoError(t, err)
	assert.Equal(t, &window{From: "a", To: "b"}, got)
}

func TestQuery_Coerces(t *testing.T) {
	t.Parallel()

	id1 := "0b7c2f5e-3f7a-4b5e-9a43-1f4cfe0b2a11"
	id2 := "6a1f0c3d-8e2b-4d7a-b1e9-5c2a7f9d3b40"
	values := url.Values{
		"page":      {"2"},
		"limit":     {"50"},
		"completed": {"true"},
		"ids":       {id1 + "," + id2},
		"since":     {"2026-01-02T03:04:05Z"},
	}

	got, err := validation.Query[listQuery]().Parse(values)
	require.NoError(t, err)

	assert.Equal(t, 2, got.Page)
	assert.Equal(t, 50, got.Limit)
	require.NotNil(t, got.Completed)
	assert.True(t, *got.Completed)
	assert.Equal(t, []string{id1, id2}, got.IDs)
	require.NotNil(t, got.Since)
	assert.Equal(t, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC), got.Since.UTC())
}

func TestQuery_Empty(t *testing.T) {
	t.Parallel()

	got, err := validation.Query[listQuery]().Parse(url.Values{})
	require.NoError(t, err)
	assert.Equal(t, listQuery{}, got)
}

func TestQuery_Failures(t *testing.T) {
	t.Parallel()

	_, err := validation.Query[listQuery]().Parse(url.Values{"page": {"two"}})
	issues := requireIssues(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, "invalid_type", issues[0].Code)

	_, err = validation.Query[listQuery]().Parse(url.Values{"limit": {"500"}})
	issues = requireIssues(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, errs.Issue{Code: "max", Path: []string{"limit"}, Message: "must not exceed 100"}, issues[0])
}

func TestSchemaFunc(t *testing.T) {
	t.Parallel()

	upper := validation.SchemaFunc[string, int](func(in string) (int, error) {
		return len(in), nil
	})

	got, err := upper.Parse("four")
	require.NoError(t, err)
	assert.Equal(t, 4, got)
}

func TestIsValidUUID(t *testing.T) {
	t.Parallel()

	assert.True(t, validation.IsValidUUID("0b7c2f5e-3f7a-4b5e-9a43-1f4cfe0b2a11"))
	assert.False(t, validation.IsValidUUID("not-a-uuid"))
}
