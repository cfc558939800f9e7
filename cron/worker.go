package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"appointly/config"
	"appointly/database/repository"
	"appointly/models"
	"appointly/services/notification"
	"appointly/services/tasks"

	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// BookingReader loads the booking a reminder refers to.
type BookingReader interface {
	GetByID(ctx context.Context, id string) (*models.Booking, error)
}

// ReminderWorker consumes reminder tasks from the queue.
type ReminderWorker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	logger *zap.Logger
}

// RedisOpt builds the asynq connection from config.
func RedisOpt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	}
}

// NewReminderWorker wires the reminder handler onto an asynq server.
func NewReminderWorker(opt asynq.RedisClientOpt, bookings BookingReader, notifier notification.Notifier, logger *zap.Logger) *ReminderWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	srv := asynq.NewServer(opt, asynq.Config{
		Concurrency: 10,
		Queues: map[string]int{
			"default": 1,
		},
	})
	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeSendReminder, HandleReminderTask(bookings, notifier, logger))
	return &ReminderWorker{server: srv, mux: mux, logger: logger}
}

// Start runs the worker in the background, retrying startup with backoff.
func (w *ReminderWorker) Start() {
	go func() {
		w.logger.Info("Starting reminder worker")
		const maxAttempts = 5

		for attempt := 1; attempt <= maxAttempts; attempt++ {
			err := w.server.Start(w.mux)
			if err == nil {
				return
			}
			w.logger.Error("Reminder worker failed to start",
				zap.Int("attempt", attempt),
				zap.Int("maxAttempts", maxAttempts),
				zap.Error(err))
			if attempt == maxAttempts {
				w.logger.Error("Giving up on reminder worker; reminders will not be sent")
				return
			}
			time.Sleep(time.Duration(attempt*2) * time.Second)
		}
	}()
}

// Shutdown waits for in-flight reminders and stops the worker.
func (w *ReminderWorker) Shutdown() {
	w.server.Shutdown()
}

// HandleReminderTask sends the reminder if the booking is still confirmed at
// the slot the reminder was scheduled for. Anything else is a stale task.
func HandleReminderTask(bookings BookingReader, notifier notification.Notifier, logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		p, err := tasks.ParseReminderPayload(task)
		if err != nil {
			logger.Error("Dropping malformed reminder", zap.Error(err))
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}

		b, err := bookings.GetByID(ctx, p.BookingID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				logger.Warn("Reminder for unknown booking", zap.String("bookingId", p.BookingID))
				return nil
			}
			return fmt.Errorf("load booking %s: %w", p.BookingID, err)
		}

		if b.Status != models.BookingStatusConfirmed || b.AppointmentDate != p.AppointmentDate || b.StartTime != p.StartTime {
			logger.Debug("Skipping stale reminder",
				zap.String("bookingId", b.ID),
				zap.String("status", b.Status))
			return nil
		}

		if err := notifier.SendReminder(ctx, b); err != nil {
			logger.Error("Failed to send reminder", zap.String("bookingId", b.ID), zap.Error(err))
			return err
		}
		logger.Info("Reminder sent", zap.String("bookingId", b.ID), zap.String("fireDate", p.FireDate))
		return nil
	}
}

// MonitorRedisConnection pings the queue's Redis until ctx is done.
func MonitorRedisConnection(ctx context.Context, client *redis.Client, interval time.Duration, logger *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := client.Ping(ctx).Err(); err != nil && ctx.Err() == nil {
				logger.Warn("Queue Redis connection lost", zap.Error(err))
			}
		}
	}
}
