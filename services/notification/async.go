package notification

import (
	"context"
	"sync"
	"time"

	"appointly/models"

	"go.uber.org/zap"
)

// AsyncNotifier runs booking notifications in the background. Failures are
// logged and never reach the caller. OTP delivery stays synchronous because
// the caller has to know whether the code went out.
type AsyncNotifier struct {
	next    Notifier
	logger  *zap.Logger
	timeout time.Duration
	observe func(event string, err error)
	wg      sync.WaitGroup
}

// NewAsyncNotifier wraps next. observe may be nil.
func NewAsyncNotifier(next Notifier, logger *zap.Logger, observe func(event string, err error)) *AsyncNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AsyncNotifier{next: next, logger: logger, timeout: 30 * time.Second, observe: observe}
}

func (a *AsyncNotifier) dispatch(event string, b *models.Booking, send func(context.Context, *models.Booking) error) {
	snapshot := *b
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
		defer cancel()

		err := send(ctx, &snapshot)
		if a.observe != nil {
			a.observe(event, err)
		}
		if err != nil {
			a.logger.Error("Notification failed",
				zap.String("event", event),
				zap.String("bookingId", snapshot.ID),
				zap.Error(err))
			return
		}
		a.logger.Debug("Notification sent", zap.String("event", event), zap.String("bookingId", snapshot.ID))
	}()
}

// Wait blocks until every dispatched notification has finished.
func (a *AsyncNotifier) Wait() { a.wg.Wait() }

func (a *AsyncNotifier) SendBookingConfirmation(_ context.Context, b *models.Booking) error {
	a.dispatch("confirmation", b, a.next.SendBookingConfirmation)
	return nil
}

func (a *AsyncNotifier) SendBookingCancellation(_ context.Context, b *models.Booking) error {
	a.dispatch("cancellation", b, a.next.SendBookingCancellation)
	return nil
}

func (a *AsyncNotifier) SendBookingRescheduled(_ context.Context, b *models.Booking) error {
	a.dispatch("rescheduled", b, a.next.SendBookingRescheduled)
	return nil
}

func (a *AsyncNotifier) SendReminder(ctx context.Context, b *models.Booking) error {
	// Reminders already run on the queue worker, which retries on error.
	return a.next.SendReminder(ctx, b)
}

func (a *AsyncNotifier) SendOTP(ctx context.Context, phone, code string, ttl time.Duration) error {
	return a.next.SendOTP(ctx, phone, code, ttl)
}
