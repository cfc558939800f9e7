package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"appointly/database/repository"
	"appointly/models"
	"appointly/services/availability"
	"appointly/services/policy"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// slotRequest is a validated date and start time against a provider.
type slotRequest struct {
	date      string
	startTime string
	endTime   string
}

// checkSlot validates a prospective slot for provider p: well formed, in the
// future, inside working hours, and not already held by another booking.
func (s *DefaultBookingService) checkSlot(ctx context.Context, p *models.Provider, date, startTime string, durationMinutes int, excludeID string) (*slotRequest, error) {
	day, err := availability.ParseDate(date)
	if err != nil {
		return nil, NewValidationError(err.Error())
	}
	minutes, err := availability.ParseClock(startTime)
	if err != nil {
		return nil, NewValidationError(err.Error())
	}
	startTime = availability.FormatClock(minutes)

	at, err := policy.AppointmentAt(date, startTime, p.Timezone)
	if err != nil {
		return nil, NewValidationError(err.Error())
	}
	if !at.After(s.now()) {
		return nil, NewValidationError("appointment must be in the future")
	}

	endTime, err := availability.AddMinutes(startTime, durationMinutes)
	if err != nil {
		return nil, NewValidationError(fmt.Sprintf("service does not fit in the day: %v", err))
	}

	if !availability.IsAvailableAt(p.WorkingHours, p.BlockedDates, day, startTime) {
		return nil, NewConflictError(CodeProviderUnavailable,
			fmt.Sprintf("provider is not working on %s at %s", date, startTime), nil)
	}

	taken, err := s.HasConflict(ctx, p.ID, date, startTime, excludeID)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, NewConflictError(CodeSlotTaken, fmt.Sprintf("%s at %s is already booked", date, startTime), nil)
	}

	return &slotRequest{date: date, startTime: startTime, endTime: endTime}, nil
}

func validateCreate(req CreateRequest) error {
	var missing []string
	if req.CustomerID == "" {
		missing = append(missing, "customerId")
	}
	if req.ProviderID == "" {
		missing = append(missing, "providerId")
	}
	if strings.TrimSpace(req.ServiceName) == "" {
		missing = append(missing, "serviceName")
	}
	if req.Date == "" {
		missing = append(missing, "date")
	}
	if req.StartTime == "" {
		missing = append(missing, "startTime")
	}
	if len(missing) > 0 {
		return NewValidationError("missing required fields: " + strings.Join(missing, ", "))
	}
	return nil
}

// Create books a pending appointment for a provider's active service.
func (s *DefaultBookingService) Create(ctx context.Context, req CreateRequest) (_ *models.Booking, err error) {
	defer func() { s.observe("create", err) }()

	if err := validateCreate(req); err != nil {
		return nil, err
	}

	provider, err := s.loadProvider(ctx, req.ProviderID)
	if err != nil {
		return nil, err
	}
	if provider.OwnerID == req.CustomerID {
		return nil, NewValidationError("providers cannot book their own services")
	}

	if s.Customers != nil {
		if _, err := s.Customers.GetByID(ctx, req.CustomerID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, NewNotFoundError("customer", req.CustomerID)
			}
			return nil, fmt.Errorf("load customer %s: %w", req.CustomerID, err)
		}
	}

	svc, ok := provider.ActiveService(strings.TrimSpace(req.ServiceName))
	if !ok {
		return nil, &Error{
			Kind:    KindNotFound,
			Code:    CodeServiceNotFound,
			Message: fmt.Sprintf("provider does not offer %q", req.ServiceName),
		}
	}

	slot, err := s.checkSlot(ctx, provider, req.Date, req.StartTime, svc.DurationMinutes, "")
	if err != nil {
		return nil, err
	}

	now := s.now()
	b := &models.Booking{
		ID:         uuid.New().String(),
		CustomerID: req.CustomerID,
		ProviderID: provider.ID,
		Service: models.ServiceSnapshot{
			Name:            svc.Name,
			DurationMinutes: svc.DurationMinutes,
			Price:           svc.Price,
		},
		AppointmentDate: slot.date,
		StartTime:       slot.startTime,
		EndTime:         slot.endTime,
		Timezone:        provider.Timezone,
		Status:          models.BookingStatusPending,
		Payment: models.PaymentRecord{
			Status:   models.PaymentStatusPending,
			Amount:   svc.Price,
			Currency: s.currency(),
		},
		Notes:     strings.TrimSpace(req.Notes),
		SlotHeld:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.Bookings.Create(ctx, b); err != nil {
		// Lost the race to a concurrent request for the same slot.
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, NewConflictError(CodeSlotTaken, fmt.Sprintf("%s at %s is already booked", slot.date, slot.startTime), err)
		}
		return nil, fmt.Errorf("create booking: %w", err)
	}

	s.logger().Info("Booking created",
		zap.String("bookingId", b.ID),
		zap.String("providerId", b.ProviderID),
		zap.String("date", b.AppointmentDate),
		zap.String("startTime", b.StartTime))
	return b, nil
}
