package job

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
	"github.com/pkg/errors"
)

const TaskTodoCreated = "email:todo_created"

// TodoCreatedPayload is stored in Redis as JSON.
type TodoCreatedPayload struct {
	To          string     `json:"to"`
	TodoID      string     `json:"todo_id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
}

func NewTodoCreatedTask(p TodoCreatedPayload) (*asynq.Task, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, errors.Wrap(err, "marshalling todo created payload")
	}

	return asynq.NewTask(
		TaskTodoCreated,
		payload,
		asynq.MaxRetry(3),
		asynq.Queue("default"),
		asynq.Timeout(30*time.Second),
	), nil
}
