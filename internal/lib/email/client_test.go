package email

import (
	"context"
	"testing"

	"github.com/deppfellow/guardrail-api/internal/config"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender_TodoCreated(t *testing.T) {
	html, err := Render(TemplateTodoCreated, TodoCreatedData{
		TodoID:  "7d3f",
		Title:   "Ship <release>",
		DueDate: "2026-11-01",
	})
	require.NoError(t, err)

	assert.Contains(t, html, "New todo: Ship &lt;release&gt;")
	assert.Contains(t, html, "Due 2026-11-01")
	assert.Contains(t, html, "Todo 7d3f")
	assert.NotContains(t, html, "<p></p>")
}

func TestRender_UnknownTemplate(t *testing.T) {
	_, err := Render(Template("missing"), nil)
	assert.ErrorContains(t, err, "failed to execute email template missing")
}

func TestSendEmail_WithoutAPIKey(t *testing.T) {
	logger := zerolog.Nop()
	c := NewClient(&config.Config{}, &logger)

	err := c.SendTodoCreatedEmail(context.Background(), "someone@example.com", TodoCreatedData{Title: "t"})
	assert.NoError(t, err)
}
