package handlers

import (
	"errors"
	"io"
	"net/http"

	"appointly/services/booking"
	"appointly/services/payment"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const maxWebhookBytes = int64(1 << 20)

// PaymentWebhookHandler turns processor events into payment confirmations.
type PaymentWebhookHandler struct {
	Bookings booking.BookingService
	Secret   string
}

func NewPaymentWebhookHandler(bs booking.BookingService, secret string) *PaymentWebhookHandler {
	return &PaymentWebhookHandler{Bookings: bs, Secret: secret}
}

// HandleWebhook verifies the signature and applies the event. Expected
// lifecycle failures are acknowledged so the processor stops retrying; only
// unexpected errors return 500.
func (h *PaymentWebhookHandler) HandleWebhook(c *gin.Context) {
	logger := getLogger(c)

	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBytes+1))
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "failed to read body"})
		return
	}
	if int64(len(payload)) > maxWebhookBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "payload too large"})
		return
	}

	evt, err := payment.ParseWebhook(payload, c.GetHeader("Stripe-Signature"), h.Secret)
	if err != nil {
		logger.Warn("Rejected webhook", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid webhook"})
		return
	}
	if !evt.Handled() {
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	ctx := c.Request.Context()
	switch evt.Type {
	case payment.EventPaymentSucceeded:
		_, err = h.Bookings.ConfirmPayment(ctx, evt.Reference)
	case payment.EventPaymentFailed:
		_, err = h.Bookings.FailPayment(ctx, evt.Reference, evt.FailureReason)
	}

	fields := []zap.Field{
		zap.String("eventId", evt.ID),
		zap.String("type", evt.Type),
		zap.String("reference", evt.Reference),
		zap.String("bookingId", evt.BookingID),
	}
	var be *booking.Error
	switch {
	case err == nil:
		logger.Info("Webhook applied", fields...)
	case errors.As(err, &be):
		logger.Warn("Webhook not applied", append(fields, zap.String("code", be.Code))...)
	default:
		logger.Error("Webhook failed", append(fields, zap.Error(err))...)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to apply event"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}
