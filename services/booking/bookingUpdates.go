package booking

import (
	"context"
	"errors"
	"fmt"

	"appointly/models"
	"appointly/services/policy"

	"go.uber.org/zap"
)

// transitions lists the statuses a provider may move a booking to.
// confirmed -> cancelled is reachable only through Cancel, which applies the
// cancellation policy.
var transitions = map[string][]string{
	models.BookingStatusPending:    {models.BookingStatusConfirmed, models.BookingStatusCancelled},
	models.BookingStatusConfirmed:  {models.BookingStatusInProgress, models.BookingStatusCompleted, models.BookingStatusNoShow},
	models.BookingStatusInProgress: {models.BookingStatusCompleted},
}

// CanTransition reports whether UpdateStatus accepts from -> to.
func CanTransition(from, to string) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// UpdateStatus moves a booking along the lifecycle on behalf of its provider.
func (s *DefaultBookingService) UpdateStatus(ctx context.Context, bookingID, newStatus string, actor models.Actor) (_ *models.Booking, err error) {
	defer func() { s.observe("update_status", err) }()

	if !models.ValidBookingStatus(newStatus) {
		return nil, NewValidationError(fmt.Sprintf("unknown status %q", newStatus))
	}
	b, err := s.loadBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := s.requireProvider(ctx, b, actor); err != nil {
		return nil, err
	}
	if !CanTransition(b.Status, newStatus) {
		return nil, NewInvalidTransitionError(b.Status, newStatus)
	}

	from := b.Status
	b.Status = newStatus
	if newStatus == models.BookingStatusCancelled {
		b.Cancellation = &models.CancellationRecord{
			CancelledBy:     actor.UserID,
			CancelledByRole: models.RoleProvider,
			Reason:          "declined by provider",
			CancelledAt:     s.now(),
			RefundStatus:    models.RefundStatusNone,
		}
	}
	if err := s.save(ctx, b); err != nil {
		return nil, err
	}

	s.logger().Info("Booking status updated",
		zap.String("bookingId", b.ID),
		zap.String("from", from),
		zap.String("to", newStatus))

	switch newStatus {
	case models.BookingStatusConfirmed:
		s.notify(ctx, eventConfirmation, b)
		s.scheduleReminder(ctx, b)
	case models.BookingStatusCancelled:
		s.notify(ctx, eventCancellation, b)
	case models.BookingStatusNoShow, models.BookingStatusCompleted:
		s.cancelReminder(ctx, b)
	}
	return b, nil
}

// Cancel cancels a confirmed booking for its customer or provider, releasing
// the slot and recording what is owed back.
func (s *DefaultBookingService) Cancel(ctx context.Context, bookingID string, actor models.Actor, reason string) (_ *models.Booking, err error) {
	defer func() { s.observe("cancel", err) }()

	b, err := s.loadBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	role, err := s.requireParty(ctx, b, actor)
	if err != nil {
		return nil, err
	}
	if b.Status != models.BookingStatusConfirmed {
		return nil, NewInvalidTransitionError(b.Status, models.BookingStatusCancelled)
	}

	now := s.now()
	if !policy.CanCancel(b, now) {
		return nil, NewPolicyError(CodeCancelWindowClosed,
			fmt.Sprintf("bookings can only be cancelled more than %.0f hours before the start", policy.CancelWindow.Hours()))
	}

	var refund float64
	if b.Payment.Status == models.PaymentStatusSucceeded {
		refund = policy.RefundAmount(b, now)
	}
	refundStatus := models.RefundStatusPending
	if refund == 0 {
		refundStatus = models.RefundStatusNone
	}

	b.Status = models.BookingStatusCancelled
	b.Cancellation = &models.CancellationRecord{
		CancelledBy:     actor.UserID,
		CancelledByRole: role,
		Reason:          reason,
		CancelledAt:     now,
		RefundAmount:    refund,
		RefundStatus:    refundStatus,
	}
	if err := s.save(ctx, b); err != nil {
		return nil, err
	}

	s.logger().Info("Booking cancelled",
		zap.String("bookingId", b.ID),
		zap.String("by", role),
		zap.Float64("refund", refund))
	s.notify(ctx, eventCancellation, b)
	s.cancelReminder(ctx, b)
	return b, nil
}

// ProcessRefund pays out a pending refund through the gateway.
func (s *DefaultBookingService) ProcessRefund(ctx context.Context, bookingID string, actor models.Actor) (_ *models.Booking, err error) {
	defer func() { s.observe("refund", err) }()

	b, err := s.loadBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() {
		if err := s.requireProvider(ctx, b, actor); err != nil {
			return nil, err
		}
	}
	if b.Cancellation == nil || b.Cancellation.RefundStatus != models.RefundStatusPending {
		return nil, NewPaymentError(CodeRefundNotPending, "booking has no pending refund", nil)
	}
	if b.Payment.Reference == "" {
		return nil, NewPaymentError(CodeRefundNotPending, "booking has no gateway payment to refund", nil)
	}
	if s.Payments == nil {
		return nil, errors.New("payments are not configured")
	}

	refundID, err := s.Payments.CreateRefund(ctx, b.Payment.Reference, b.Cancellation.RefundAmount, "refund-"+b.ID)
	if err != nil {
		return nil, NewPaymentError(CodePaymentFailed, "refund was rejected by the payment gateway", err)
	}

	now := s.now()
	b.Cancellation.RefundID = refundID
	b.Cancellation.RefundStatus = models.RefundStatusProcessed
	b.Cancellation.RefundedAt = &now
	if err := s.save(ctx, b); err != nil {
		// The gateway already moved the money; the idempotency key makes a retry safe.
		s.logger().Error("Refund issued but booking not updated",
			zap.String("bookingId", b.ID),
			zap.String("refundId", refundID),
			zap.Error(err))
		return nil, err
	}
	s.logger().Info("Refund processed", zap.String("bookingId", b.ID), zap.String("refundId", refundID))
	return b, nil
}

// Reschedule moves a confirmed booking to a new date and start time. The
// service duration is kept, so the end time moves with the start.
func (s *DefaultBookingService) Reschedule(ctx context.Context, bookingID string, actor models.Actor, newDate, newStartTime, reason string) (_ *models.Booking, err error) {
	defer func() { s.observe("reschedule", err) }()

	if newDate == "" || newStartTime == "" {
		return nil, NewValidationError("new date and start time are required")
	}
	b, err := s.loadBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if _, err := s.requireParty(ctx, b, actor); err != nil {
		return nil, err
	}
	if b.Status != models.BookingStatusConfirmed {
		return nil, NewInvalidTransitionError(b.Status, "rescheduled")
	}
	now := s.now()
	if !policy.CanReschedule(b, now) {
		return nil, NewPolicyError(CodeRescheduleWindowClosed,
			fmt.Sprintf("bookings can only be rescheduled more than %.0f hours before the start", policy.RescheduleWindow.Hours()))
	}
	provider, err := s.loadProvider(ctx, b.ProviderID)
	if err != nil {
		return nil, err
	}
	slot, err := s.checkSlot(ctx, provider, newDate, newStartTime, b.Service.DurationMinutes, b.ID)
	if err != nil {
		return nil, err
	}
	if slot.date == b.AppointmentDate && slot.startTime == b.StartTime {
		return nil, NewValidationError("booking is already at that time")
	}

	previous := *b
	b.RescheduleHistory = append(b.RescheduleHistory, models.RescheduleEntry{
		FromDate:      b.AppointmentDate,
		FromStartTime: b.StartTime,
		ToDate:        slot.date,
		ToStartTime:   slot.startTime,
		Reason:        reason,
		RescheduledBy: actor.UserID,
		RescheduledAt: now,
	})
	b.AppointmentDate = slot.date
	b.StartTime = slot.startTime
	b.EndTime = slot.endTime
	b.Timezone = provider.Timezone
	if err := s.save(ctx, b); err != nil {
		return nil, err
	}

	s.logger().Info("Booking rescheduled",
		zap.String("bookingId", b.ID),
		zap.String("from", previous.AppointmentDate+" "+previous.StartTime),
		zap.String("to", b.AppointmentDate+" "+b.StartTime))
	s.cancelReminder(ctx, &previous)
	s.scheduleReminder(ctx, b)
	s.notify(ctx, eventRescheduled, b)
	return b, nil
}
