package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"appointly/models"
	"appointly/services/policy"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// ReminderScheduler arranges appointment reminders.
type ReminderScheduler interface {
	ScheduleReminder(ctx context.Context, booking *models.Booking) error
	CancelReminder(ctx context.Context, booking *models.Booking) error
}

// Enqueuer is the part of *asynq.Client the scheduler needs.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// TaskDeleter is the part of *asynq.Inspector used to drop a scheduled reminder.
type TaskDeleter interface {
	DeleteTask(queue, id string) error
}

// AsynqReminderScheduler enqueues a reminder LeadTime before each confirmed appointment.
type AsynqReminderScheduler struct {
	Client    Enqueuer
	Inspector TaskDeleter
	LeadTime  time.Duration
	Queue     string
	Now       func() time.Time
	Logger    *zap.Logger
}

// NewAsynqReminderScheduler wires a scheduler on an asynq client and inspector.
func NewAsynqReminderScheduler(client Enqueuer, inspector TaskDeleter, lead time.Duration, logger *zap.Logger) *AsynqReminderScheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AsynqReminderScheduler{
		Client:    client,
		Inspector: inspector,
		LeadTime:  lead,
		Queue:     "default",
		Now:       time.Now,
		Logger:    logger,
	}
}

// ReminderTime returns when the reminder should fire, and false when that
// moment has already passed.
func ReminderTime(b *models.Booking, lead time.Duration, now time.Time) (time.Time, bool, error) {
	at, err := policy.AppointmentTime(b)
	if err != nil {
		return time.Time{}, false, err
	}
	fireAt := at.Add(-lead)
	return fireAt, fireAt.After(now), nil
}

func (s *AsynqReminderScheduler) ScheduleReminder(ctx context.Context, b *models.Booking) error {
	fireAt, ok, err := ReminderTime(b, s.LeadTime, s.Now())
	if err != nil {
		return err
	}
	if !ok {
		s.Logger.Debug("Reminder window already passed", zap.String("bookingId", b.ID))
		return nil
	}

	payload := models.ReminderPayload{
		BookingID:       b.ID,
		AppointmentDate: b.AppointmentDate,
		StartTime:       b.StartTime,
		FireDate:        fireAt.UTC().Format(time.RFC3339),
	}
	task, opts, err := NewReminderTask(payload, fireAt, ReminderTaskID(b))
	if err != nil {
		return fmt.Errorf("build reminder task: %w", err)
	}
	opts = append(opts, asynq.Queue(s.Queue))

	if _, err := s.Client.EnqueueContext(ctx, task, opts...); err != nil {
		if errors.Is(err, asynq.ErrTaskIDConflict) || errors.Is(err, asynq.ErrDuplicateTask) {
			return nil
		}
		return fmt.Errorf("enqueue reminder for booking %s: %w", b.ID, err)
	}
	s.Logger.Info("Reminder scheduled", zap.String("bookingId", b.ID), zap.Time("fireAt", fireAt))
	return nil
}

// CancelReminder drops the pending reminder for the booking's current slot.
// The worker re-checks the booking, so a missed delete only costs a no-op run.
func (s *AsynqReminderScheduler) CancelReminder(_ context.Context, b *models.Booking) error {
	if s.Inspector == nil {
		return nil
	}
	err := s.Inspector.DeleteTask(s.Queue, ReminderTaskID(b))
	if err != nil && !errors.Is(err, asynq.ErrTaskNotFound) && !errors.Is(err, asynq.ErrQueueNotFound) {
		return fmt.Errorf("delete reminder for booking %s: %w", b.ID, err)
	}
	return nil
}
