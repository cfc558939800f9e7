package tasks

import (
	"encoding/json"
	"fmt"
	"time"

	"appointly/models"

	"github.com/hibiken/asynq"
)

const TypeSendReminder = "reminder:send"

// ReminderTaskID is stable per booking slot, so re-enqueueing the same slot
// is a no-op while a moved booking gets a new task.
func ReminderTaskID(b *models.Booking) string {
	return fmt.Sprintf("reminder:%s:%s:%s", b.ID, b.AppointmentDate, b.StartTime)
}

func NewReminderTask(payload models.ReminderPayload, fireAt time.Time, taskID string) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeSendReminder, b)
	opts := []asynq.Option{
		asynq.ProcessAt(fireAt),
		asynq.TaskID(taskID),
		asynq.MaxRetry(5),
		asynq.Retention(24 * time.Hour),
	}
	return task, opts, nil
}

// ParseReminderPayload decodes a reminder task body.
func ParseReminderPayload(task *asynq.Task) (models.ReminderPayload, error) {
	var p models.ReminderPayload
	if err := json.Unmarshal(task.Payload(), &p); err != nil {
		return p, fmt.Errorf("invalid reminder payload: %w", err)
	}
	if p.BookingID == "" {
		return p, fmt.Errorf("invalid reminder payload: missing booking id")
	}
	return p, nil
}
