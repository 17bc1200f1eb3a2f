package job

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/deppfellow/guardrail-api/internal/lib/email"
	"github.com/hibiken/asynq"
)

func (j *JobService) handleTodoCreatedTask(ctx context.Context, t *asynq.Task) error {
	var p TodoCreatedPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		// Malformed payloads never succeed on retry.
		return fmt.Errorf("unmarshal todo created payload: %v: %w", err, asynq.SkipRetry)
	}

	log := j.logger.With().
		Str("type", TaskTodoCreated).
		Str("todo_id", p.TodoID).
		Str("to", p.To).
		Logger()

	log.Info().Msg("processing todo created email task")

	data := email.TodoCreatedData{
		TodoID:      p.TodoID,
		Title:       p.Title,
		Description: p.Description,
	}
	if p.DueDate != nil {
		data.DueDate = p.DueDate.Format(time.RFC1123)
	}

	if err := j.email.SendTodoCreatedEmail(ctx, p.To, data); err != nil {
		log.Error().Err(err).Msg("failed to send todo created email")
		return err
	}

	log.Info().Msg("sent todo created email")
	return nil
}
