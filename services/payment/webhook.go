package payment

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"
)

// Handled webhook event types.
const (
	EventPaymentSucceeded = "payment_intent.succeeded"
	EventPaymentFailed    = "payment_intent.payment_failed"
)

// ErrInvalidSignature is returned when a webhook payload fails verification.
var ErrInvalidSignature = errors.New("invalid webhook signature")

// WebhookEvent is the part of a processor event the booking lifecycle reacts to.
type WebhookEvent struct {
	ID            string
	Type          string
	Reference     string
	BookingID     string
	FailureReason string
}

// Handled reports whether the event type affects bookings.
func (e *WebhookEvent) Handled() bool {
	return e.Type == EventPaymentSucceeded || e.Type == EventPaymentFailed
}

// ParseWebhook verifies the Stripe-Signature header and decodes the event.
// Events of other types come back with only ID and Type set.
func ParseWebhook(payload []byte, sigHeader, secret string) (*WebhookEvent, error) {
	evt, err := webhook.ConstructEvent(payload, sigHeader, secret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	out := &WebhookEvent{ID: evt.ID, Type: string(evt.Type)}
	if !out.Handled() {
		return out, nil
	}

	var pi stripe.PaymentIntent
	if err := json.Unmarshal(evt.Data.Raw, &pi); err != nil {
		return nil, fmt.Errorf("failed to decode payment intent from event %s: %w", evt.ID, err)
	}
	out.Reference = pi.ID
	out.BookingID = pi.Metadata["bookingId"]
	if out.Type == EventPaymentFailed {
		out.FailureReason = "payment failed"
		if pi.LastPaymentError != nil && pi.LastPaymentError.Msg != "" {
			out.FailureReason = pi.LastPaymentError.Msg
		}
	}
	return out, nil
}
