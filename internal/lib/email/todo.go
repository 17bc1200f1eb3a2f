package email

import "context"

// TodoCreatedData is the template data for TemplateTodoCreated.
type TodoCreatedData struct {
	TodoID      string
	Title       string
	Description string
	DueDate     string
}

func (c *Client) SendTodoCreatedEmail(ctx context.Context, to string, data TodoCreatedData) error {
	return c.SendEmail(ctx, to, "New todo: "+data.Title, TemplateTodoCreated, data)
}
