package booking

import (
	"context"
	"errors"
	"fmt"

	"appointly/database/repository"
	"appointly/models"
	"appointly/services/availability"
	"appointly/services/policy"
)

const maxListLimit = 100

func (s *DefaultBookingService) GetByID(ctx context.Context, bookingID string, actor models.Actor) (*models.Booking, error) {
	b, err := s.loadBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if actor.IsAdmin() {
		return b, nil
	}
	if _, err := s.requireParty(ctx, b, actor); err != nil {
		return nil, err
	}
	return b, nil
}

func clampFilter(f models.BookingFilter) (models.BookingFilter, error) {
	if f.Status != "" && !models.ValidBookingStatus(f.Status) {
		return f, NewValidationError(fmt.Sprintf("unknown status %q", f.Status))
	}
	if f.Date != "" {
		if _, err := availability.ParseDate(f.Date); err != nil {
			return f, NewValidationError(err.Error())
		}
	}
	if f.Limit <= 0 || f.Limit > maxListLimit {
		f.Limit = maxListLimit
	}
	if f.Skip < 0 {
		f.Skip = 0
	}
	return f, nil
}

// ListForCustomer returns the actor's own bookings.
func (s *DefaultBookingService) ListForCustomer(ctx context.Context, actor models.Actor, filter models.BookingFilter) ([]models.Booking, error) {
	if actor.UserID == "" {
		return nil, NewForbiddenError("sign in to list bookings")
	}
	filter, err := clampFilter(filter)
	if err != nil {
		return nil, err
	}
	filter.CustomerID = actor.UserID
	filter.ProviderID = ""
	return s.list(ctx, filter)
}

// ListForProvider returns the bookings made with the actor's provider profile.
func (s *DefaultBookingService) ListForProvider(ctx context.Context, actor models.Actor, filter models.BookingFilter) ([]models.Booking, error) {
	p, err := s.Providers.GetByOwnerID(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, NewForbiddenError("you do not have a provider profile")
		}
		return nil, fmt.Errorf("load provider for owner %s: %w", actor.UserID, err)
	}
	filter, err = clampFilter(filter)
	if err != nil {
		return nil, err
	}
	filter.ProviderID = p.ID
	filter.CustomerID = ""
	return s.list(ctx, filter)
}

func (s *DefaultBookingService) list(ctx context.Context, filter models.BookingFilter) ([]models.Booking, error) {
	out, err := s.Bookings.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	if out == nil {
		out = []models.Booking{}
	}
	return out, nil
}

// GetAvailableSlots lists the provider's slots on date, marking those already held.
func (s *DefaultBookingService) GetAvailableSlots(ctx context.Context, providerID, date string) ([]models.TimeSlot, error) {
	day, err := availability.ParseDate(date)
	if err != nil {
		return nil, NewValidationError(err.Error())
	}
	p, err := s.loadProvider(ctx, providerID)
	if err != nil {
		return nil, err
	}
	slots := availability.ComputeSlots(p.WorkingHours, p.BlockedDates, day, s.slotMinutes())
	if len(slots) == 0 {
		return slots, nil
	}
	held, err := s.Bookings.ActiveStartTimes(ctx, p.ID, date)
	if err != nil {
		return nil, fmt.Errorf("load booked times: %w", err)
	}
	return availability.MarkBooked(slots, held), nil
}

// IsAvailableAt reports whether the provider works at startTime on date.
// It does not look at existing bookings; see HasConflict.
func (s *DefaultBookingService) IsAvailableAt(ctx context.Context, providerID, date, startTime string) (bool, error) {
	day, err := availability.ParseDate(date)
	if err != nil {
		return false, NewValidationError(err.Error())
	}
	if _, err := availability.ParseClock(startTime); err != nil {
		return false, NewValidationError(err.Error())
	}
	p, err := s.loadProvider(ctx, providerID)
	if err != nil {
		return false, err
	}
	return availability.IsAvailableAt(p.WorkingHours, p.BlockedDates, day, startTime), nil
}

// HasConflict reports whether a pending or confirmed booking other than
// excludeID already starts at the same provider, date and time.
func (s *DefaultBookingService) HasConflict(ctx context.Context, providerID, date, startTime, excludeID string) (bool, error) {
	taken, err := s.Bookings.ExistsActiveAt(ctx, providerID, date, startTime, excludeID)
	if err != nil {
		return false, fmt.Errorf("check slot %s %s: %w", date, startTime, err)
	}
	return taken, nil
}

// RefundQuote reports what cancelling or rescheduling would mean right now.
func (s *DefaultBookingService) RefundQuote(ctx context.Context, bookingID string, actor models.Actor) (*models.RefundQuote, error) {
	b, err := s.GetByID(ctx, bookingID, actor)
	if err != nil {
		return nil, err
	}
	q := policy.Quote(b, s.now())
	return &q, nil
}
