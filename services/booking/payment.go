package booking

import (
	"context"
	"errors"
	"fmt"

	"appointly/database/repository"
	"appointly/models"
	"appointly/services/payment"

	"go.uber.org/zap"
)

// awaitingPayment reports whether the booking still needs money. A failed
// attempt can be retried against the same intent, so it counts.
func awaitingPayment(b *models.Booking) bool {
	return b.Payment.Status == models.PaymentStatusPending || b.Payment.Status == models.PaymentStatusFailed
}

// CreatePaymentIntent opens a gateway payment for the booking's price and
// stores its reference on the booking. A booking the provider already
// confirmed by hand can still be paid.
func (s *DefaultBookingService) CreatePaymentIntent(ctx context.Context, bookingID string, actor models.Actor) (_ *payment.Intent, err error) {
	defer func() { s.observe("payment_intent", err) }()

	b, err := s.loadBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.CustomerID != actor.UserID {
		return nil, NewForbiddenError("only the customer can pay for this booking")
	}
	if !awaitingPayment(b) {
		return nil, NewPaymentError(CodePaymentNotPending, "booking is already paid", nil)
	}
	if b.Status != models.BookingStatusPending && b.Status != models.BookingStatusConfirmed {
		return nil, NewInvalidTransitionError(b.Status, models.BookingStatusConfirmed)
	}
	if b.Payment.Amount <= 0 {
		return nil, NewValidationError("booking has nothing to pay")
	}
	if s.Payments == nil {
		return nil, errors.New("payments are not configured")
	}

	intent, err := s.Payments.CreatePaymentIntent(ctx, payment.IntentRequest{
		BookingID:   b.ID,
		CustomerID:  b.CustomerID,
		ProviderID:  b.ProviderID,
		Amount:      b.Payment.Amount,
		Currency:    b.Payment.Currency,
		Description: fmt.Sprintf("%s on %s at %s", b.Service.Name, b.AppointmentDate, b.StartTime),
	})
	if err != nil {
		return nil, NewPaymentError(CodePaymentFailed, "could not start payment", err)
	}

	b.Payment.Reference = intent.Reference
	b.Payment.Status = models.PaymentStatusPending
	b.Payment.FailureReason = ""
	if err := s.save(ctx, b); err != nil {
		return nil, err
	}
	return intent, nil
}

func (s *DefaultBookingService) loadByReference(ctx context.Context, reference string) (*models.Booking, error) {
	if reference == "" {
		return nil, NewValidationError("payment reference is required")
	}
	b, err := s.Bookings.GetByPaymentReference(ctx, reference)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, NewNotFoundError("payment", reference)
		}
		return nil, fmt.Errorf("load booking for payment %s: %w", reference, err)
	}
	return b, nil
}

// ConfirmPayment marks the payment behind reference as succeeded and
// confirms its booking. The payment may be pending or failed: Stripe lets a
// declined intent be retried. A payment that lands on a booking already
// cancelled is recorded and queued for a full refund instead.
func (s *DefaultBookingService) ConfirmPayment(ctx context.Context, reference string) (_ *models.Booking, err error) {
	defer func() { s.observe("confirm_payment", err) }()

	b, err := s.loadByReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	if !awaitingPayment(b) {
		return nil, NewPaymentError(CodePaymentNotPending,
			fmt.Sprintf("payment for booking %s is %s", b.ID, b.Payment.Status), nil)
	}

	now := s.now()
	b.Payment.Status = models.PaymentStatusSucceeded
	b.Payment.PaidAt = &now
	b.Payment.FailureReason = ""

	if b.Status == models.BookingStatusConfirmed {
		if err := s.save(ctx, b); err != nil {
			return nil, err
		}
		s.logger().Info("Payment received for a confirmed booking", zap.String("bookingId", b.ID), zap.String("reference", reference))
		return b, nil
	}
	if b.Status != models.BookingStatusPending {
		if b.Status == models.BookingStatusCancelled && b.Cancellation != nil {
			b.Cancellation.RefundAmount = b.Payment.Amount
			b.Cancellation.RefundStatus = models.RefundStatusPending
		}
		if err := s.save(ctx, b); err != nil {
			return nil, err
		}
		s.logger().Warn("Payment received for a booking that is no longer pending",
			zap.String("bookingId", b.ID),
			zap.String("status", b.Status))
		return b, nil
	}

	b.Status = models.BookingStatusConfirmed
	if err := s.save(ctx, b); err != nil {
		return nil, err
	}

	s.logger().Info("Booking confirmed by payment", zap.String("bookingId", b.ID), zap.String("reference", reference))
	s.notify(ctx, eventConfirmation, b)
	s.scheduleReminder(ctx, b)
	return b, nil
}

// FailPayment records a failed attempt. The booking stays pending so the
// customer can retry.
func (s *DefaultBookingService) FailPayment(ctx context.Context, reference, reason string) (_ *models.Booking, err error) {
	defer func() { s.observe("fail_payment", err) }()

	b, err := s.loadByReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	if b.Payment.Status != models.PaymentStatusPending {
		return nil, NewPaymentError(CodePaymentNotPending,
			fmt.Sprintf("payment for booking %s is %s", b.ID, b.Payment.Status), nil)
	}
	if reason == "" {
		reason = "payment failed"
	}
	b.Payment.Status = models.PaymentStatusFailed
	b.Payment.FailureReason = reason
	if err := s.save(ctx, b); err != nil {
		return nil, err
	}
	s.logger().Info("Payment failed", zap.String("bookingId", b.ID), zap.String("reason", reason))
	return b, nil
}

// SyncPayment asks the gateway for the current state of the booking's
// payment and applies it.
func (s *DefaultBookingService) SyncPayment(ctx context.Context, bookingID string, actor models.Actor) (_ *models.Booking, err error) {
	defer func() { s.observe("sync_payment", err) }()

	b, err := s.loadBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.CustomerID != actor.UserID && !actor.IsAdmin() {
		return nil, NewForbiddenError("only the customer can sync this payment")
	}
	if b.Payment.Reference == "" {
		return nil, NewValidationError("no payment has been started for this booking")
	}
	if b.Payment.Status == models.PaymentStatusSucceeded {
		return b, nil
	}
	if s.Payments == nil {
		return nil, errors.New("payments are not configured")
	}

	status, reason, err := s.Payments.RetrieveStatus(ctx, b.Payment.Reference)
	if err != nil {
		return nil, NewPaymentError(CodePaymentFailed, "could not reach the payment gateway", err)
	}
	switch status {
	case models.PaymentStatusSucceeded:
		return s.ConfirmPayment(ctx, b.Payment.Reference)
	case models.PaymentStatusFailed:
		if b.Payment.Status == models.PaymentStatusFailed {
			return b, nil
		}
		return s.FailPayment(ctx, b.Payment.Reference, reason)
	default:
		return b, nil
	}
}
