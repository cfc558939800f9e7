package bookingRepo

import (
	"context"

	"appointly/models"
)

// BookingRepository defines methods for booking data access.
type BookingRepository interface {
	// Create inserts a new booking. A booking that would double-book an
	// active slot fails with repository.ErrDuplicate.
	Create(ctx context.Context, booking *models.Booking) error
	// GetByID retrieves a booking by its unique ID.
	GetByID(ctx context.Context, id string) (*models.Booking, error)
	// GetByPaymentReference retrieves the booking paid through the given gateway reference.
	GetByPaymentReference(ctx context.Context, reference string) (*models.Booking, error)
	// Update replaces the booking if its version still matches, then bumps the version.
	// A lost race fails with repository.ErrVersionConflict.
	Update(ctx context.Context, booking *models.Booking) error
	// ExistsActiveAt reports whether a pending or confirmed booking already
	// starts at the given provider/date/time, ignoring excludeID.
	ExistsActiveAt(ctx context.Context, providerID, date, startTime, excludeID string) (bool, error)
	// ActiveStartTimes lists the start times held on a provider's date.
	ActiveStartTimes(ctx context.Context, providerID, date string) ([]string, error)
	// List returns bookings matching the filter, newest appointment first.
	List(ctx context.Context, filter models.BookingFilter) ([]models.Booking, error)
	// CountByStatus groups all bookings by status.
	CountByStatus(ctx context.Context) (map[string]int64, error)
	// PaymentTotals sums succeeded payments and processed refunds.
	PaymentTotals(ctx context.Context) (revenue float64, refunded float64, err error)
}
