package booking

import (
	"context"
	"time"

	bookingRepo "appointly/database/repository/booking"
	"appointly/models"
	"appointly/services/notification"
	"appointly/services/payment"
	"appointly/services/tasks"

	"go.uber.org/zap"
)

// BookingService is the booking lifecycle: creation, payment, status changes,
// cancellation, rescheduling and the read-side queries around them.
type BookingService interface {
	Create(ctx context.Context, req CreateRequest) (*models.Booking, error)
	CreatePaymentIntent(ctx context.Context, bookingID string, actor models.Actor) (*payment.Intent, error)
	ConfirmPayment(ctx context.Context, reference string) (*models.Booking, error)
	FailPayment(ctx context.Context, reference, reason string) (*models.Booking, error)
	SyncPayment(ctx context.Context, bookingID string, actor models.Actor) (*models.Booking, error)
	UpdateStatus(ctx context.Context, bookingID, newStatus string, actor models.Actor) (*models.Booking, error)
	Cancel(ctx context.Context, bookingID string, actor models.Actor, reason string) (*models.Booking, error)
	ProcessRefund(ctx context.Context, bookingID string, actor models.Actor) (*models.Booking, error)
	Reschedule(ctx context.Context, bookingID string, actor models.Actor, newDate, newStartTime, reason string) (*models.Booking, error)

	GetByID(ctx context.Context, bookingID string, actor models.Actor) (*models.Booking, error)
	ListForCustomer(ctx context.Context, actor models.Actor, filter models.BookingFilter) ([]models.Booking, error)
	ListForProvider(ctx context.Context, actor models.Actor, filter models.BookingFilter) ([]models.Booking, error)
	GetAvailableSlots(ctx context.Context, providerID, date string) ([]models.TimeSlot, error)
	IsAvailableAt(ctx context.Context, providerID, date, startTime string) (bool, error)
	HasConflict(ctx context.Context, providerID, date, startTime, excludeID string) (bool, error)
	RefundQuote(ctx context.Context, bookingID string, actor models.Actor) (*models.RefundQuote, error)
}

// CreateRequest is a customer's request for a new appointment.
type CreateRequest struct {
	CustomerID  string
	ProviderID  string
	ServiceName string
	Date        string // YYYY-MM-DD
	StartTime   string // HH:MM
	Notes       string
}

// ProviderLookup reads provider profiles.
type ProviderLookup interface {
	GetByID(ctx context.Context, id string) (*models.Provider, error)
	GetByOwnerID(ctx context.Context, ownerID string) (*models.Provider, error)
}

// CustomerLookup reads customer accounts.
type CustomerLookup interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// Recorder counts lifecycle outcomes.
type Recorder interface {
	ObserveOperation(operation, outcome string)
}

// DefaultBookingService implements BookingService.
type DefaultBookingService struct {
	Bookings  bookingRepo.BookingRepository
	Providers ProviderLookup
	Customers CustomerLookup // optional
	Payments  payment.Gateway
	Notifier  notification.Notifier
	Reminders tasks.ReminderScheduler // optional
	Logger    *zap.Logger
	Metrics   Recorder // optional

	Now         func() time.Time
	SlotMinutes int
	Currency    string
}

const (
	defaultSlotMinutes = 30
	defaultCurrency    = "usd"
)

func (s *DefaultBookingService) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

func (s *DefaultBookingService) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

func (s *DefaultBookingService) slotMinutes() int {
	if s.SlotMinutes <= 0 {
		return defaultSlotMinutes
	}
	return s.SlotMinutes
}

func (s *DefaultBookingService) currency() string {
	if s.Currency == "" {
		return defaultCurrency
	}
	return s.Currency
}

// observe records the outcome of op; call it deferred with the named error.
func (s *DefaultBookingService) observe(op string, err error) {
	if s.Metrics == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = CodeOf(err)
		if outcome == "" {
			outcome = "error"
		}
	}
	s.Metrics.ObserveOperation(op, outcome)
}
