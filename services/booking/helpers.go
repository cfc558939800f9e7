package booking

import (
	"context"
	"errors"
	"fmt"

	"appointly/database/repository"
	"appointly/models"

	"go.uber.org/zap"
)

func (s *DefaultBookingService) loadBooking(ctx context.Context, id string) (*models.Booking, error) {
	if id == "" {
		return nil, NewValidationError("booking id is required")
	}
	b, err := s.Bookings.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, NewNotFoundError("booking", id)
		}
		return nil, fmt.Errorf("load booking %s: %w", id, err)
	}
	return b, nil
}

func (s *DefaultBookingService) loadProvider(ctx context.Context, id string) (*models.Provider, error) {
	p, err := s.Providers.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, NewNotFoundError("provider", id)
		}
		return nil, fmt.Errorf("load provider %s: %w", id, err)
	}
	return p, nil
}

// save writes b back, translating repository races into lifecycle errors.
func (s *DefaultBookingService) save(ctx context.Context, b *models.Booking) error {
	b.UpdatedAt = s.now()
	err := s.Bookings.Update(ctx, b)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrVersionConflict):
		return NewConflictError(CodeStaleBooking, "booking was changed by another request, reload and retry", err)
	case errors.Is(err, repository.ErrDuplicate):
		return NewConflictError(CodeSlotTaken, "that time is already booked", err)
	case errors.Is(err, repository.ErrNotFound):
		return NewNotFoundError("booking", b.ID)
	default:
		return fmt.Errorf("save booking %s: %w", b.ID, err)
	}
}

// ownsProvider reports whether the actor owns the booking's provider profile.
func (s *DefaultBookingService) ownsProvider(ctx context.Context, b *models.Booking, actor models.Actor) (bool, error) {
	if actor.UserID == "" {
		return false, nil
	}
	p, err := s.Providers.GetByID(ctx, b.ProviderID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("load provider %s: %w", b.ProviderID, err)
	}
	return p.OwnerID == actor.UserID, nil
}

// partyRole returns "customer" or "provider" for the actor's side of b, or "".
func (s *DefaultBookingService) partyRole(ctx context.Context, b *models.Booking, actor models.Actor) (string, error) {
	if actor.UserID != "" && b.CustomerID == actor.UserID {
		return models.RoleCustomer, nil
	}
	owns, err := s.ownsProvider(ctx, b, actor)
	if err != nil {
		return "", err
	}
	if owns {
		return models.RoleProvider, nil
	}
	return "", nil
}

func (s *DefaultBookingService) requireParty(ctx context.Context, b *models.Booking, actor models.Actor) (string, error) {
	role, err := s.partyRole(ctx, b, actor)
	if err != nil {
		return "", err
	}
	if role == "" {
		return "", NewForbiddenError("only the customer or provider of this booking may do that")
	}
	return role, nil
}

func (s *DefaultBookingService) requireProvider(ctx context.Context, b *models.Booking, actor models.Actor) error {
	owns, err := s.ownsProvider(ctx, b, actor)
	if err != nil {
		return err
	}
	if !owns {
		return NewForbiddenError("only the provider of this booking may do that")
	}
	return nil
}

const (
	eventConfirmation = "confirmation"
	eventCancellation = "cancellation"
	eventRescheduled  = "rescheduled"
)

// notify sends a booking event. Failures are logged; they never undo a
// committed transition.
func (s *DefaultBookingService) notify(ctx context.Context, event string, b *models.Booking) {
	if s.Notifier == nil {
		return
	}
	var err error
	switch event {
	case eventConfirmation:
		err = s.Notifier.SendBookingConfirmation(ctx, b)
	case eventCancellation:
		err = s.Notifier.SendBookingCancellation(ctx, b)
	case eventRescheduled:
		err = s.Notifier.SendBookingRescheduled(ctx, b)
	default:
		err = fmt.Errorf("unknown booking event %q", event)
	}
	if err != nil {
		s.logger().Warn("Booking notification failed",
			zap.String("event", event),
			zap.String("bookingId", b.ID),
			zap.Error(err))
	}
}

func (s *DefaultBookingService) scheduleReminder(ctx context.Context, b *models.Booking) {
	if s.Reminders == nil {
		return
	}
	if err := s.Reminders.ScheduleReminder(ctx, b); err != nil {
		s.logger().Warn("Failed to schedule reminder", zap.String("bookingId", b.ID), zap.Error(err))
	}
}

func (s *DefaultBookingService) cancelReminder(ctx context.Context, b *models.Booking) {
	if s.Reminders == nil {
		return
	}
	if err := s.Reminders.CancelReminder(ctx, b); err != nil {
		s.logger().Warn("Failed to cancel reminder", zap.String("bookingId", b.ID), zap.Error(err))
	}
}
