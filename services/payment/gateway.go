// Package payment talks to the card processor.
package payment

import (
	"context"
	"fmt"
	"math"
	"strings"

	"appointly/models"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/paymentintent"
	"github.com/stripe/stripe-go/v76/refund"
	"go.uber.org/zap"
)

// IntentRequest describes a payment to collect for a booking.
type IntentRequest struct {
	BookingID   string
	CustomerID  string
	ProviderID  string
	Amount      float64
	Currency    string
	Description string
}

// Intent is a created payment the client completes with ClientSecret.
type Intent struct {
	Reference    string `json:"reference"`
	ClientSecret string `json:"clientSecret"`
	Status       string `json:"status"`
}

// Gateway is the card processor as seen by the booking lifecycle.
type Gateway interface {
	CreatePaymentIntent(ctx context.Context, req IntentRequest) (*Intent, error)
	// RetrieveStatus maps the processor's state onto a models.PaymentStatus* value.
	RetrieveStatus(ctx context.Context, reference string) (status string, failureReason string, err error)
	CreateRefund(ctx context.Context, reference string, amount float64, idempotencyKey string) (refundID string, err error)
}

// StripeGateway implements Gateway with PaymentIntents. stripe.Key must be set.
type StripeGateway struct {
	logger *zap.Logger
}

// NewStripeGateway creates a StripeGateway.
func NewStripeGateway(logger *zap.Logger) *StripeGateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StripeGateway{logger: logger}
}

// ToMinorUnits converts an amount to cents.
func ToMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

func (g *StripeGateway) CreatePaymentIntent(ctx context.Context, req IntentRequest) (*Intent, error) {
	if req.Amount <= 0 {
		return nil, fmt.Errorf("payment amount must be positive, got %.2f", req.Amount)
	}
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(ToMinorUnits(req.Amount)),
		Currency: stripe.String(strings.ToLower(req.Currency)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	if req.Description != "" {
		params.Description = stripe.String(req.Description)
	}
	params.Context = ctx
	params.SetIdempotencyKey("booking-intent-" + req.BookingID)
	params.AddMetadata("bookingId", req.BookingID)
	params.AddMetadata("customerId", req.CustomerID)
	params.AddMetadata("providerId", req.ProviderID)

	pi, err := paymentintent.New(params)
	if err != nil {
		g.logger.Error("Stripe payment intent creation failed", zap.String("bookingId", req.BookingID), zap.Error(err))
		return nil, fmt.Errorf("failed to create payment intent: %w", err)
	}
	g.logger.Info("Stripe payment intent created", zap.String("bookingId", req.BookingID), zap.String("reference", pi.ID))
	return &Intent{Reference: pi.ID, ClientSecret: pi.ClientSecret, Status: string(pi.Status)}, nil
}

func (g *StripeGateway) RetrieveStatus(ctx context.Context, reference string) (string, string, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	pi, err := paymentintent.Get(reference, params)
	if err != nil {
		return "", "", fmt.Errorf("failed to retrieve payment intent %s: %w", reference, err)
	}
	status, reason := MapIntentStatus(pi)
	return status, reason, nil
}

func (g *StripeGateway) CreateRefund(ctx context.Context, reference string, amount float64, idempotencyKey string) (string, error) {
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(reference),
		Amount:        stripe.Int64(ToMinorUnits(amount)),
	}
	params.Context = ctx
	if idempotencyKey != "" {
		params.SetIdempotencyKey(idempotencyKey)
	}
	r, err := refund.New(params)
	if err != nil {
		g.logger.Error("Stripe refund failed", zap.String("reference", reference), zap.Error(err))
		return "", fmt.Errorf("failed to refund payment %s: %w", reference, err)
	}
	g.logger.Info("Stripe refund created", zap.String("reference", reference), zap.String("refundId", r.ID))
	return r.ID, nil
}

// MapIntentStatus reduces a PaymentIntent to pending, succeeded or failed.
func MapIntentStatus(pi *stripe.PaymentIntent) (string, string) {
	switch pi.Status {
	case stripe.PaymentIntentStatusSucceeded:
		return models.PaymentStatusSucceeded, ""
	case stripe.PaymentIntentStatusCanceled:
		return models.PaymentStatusFailed, "payment intent canceled"
	case stripe.PaymentIntentStatusRequiresPaymentMethod:
		// A fresh intent also sits here; only a recorded error means the attempt failed.
		if pi.LastPaymentError != nil {
			return models.PaymentStatusFailed, pi.LastPaymentError.Msg
		}
	}
	return models.PaymentStatusPending, ""
}
