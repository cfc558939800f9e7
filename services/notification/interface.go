package notification

import (
	"context"
	"time"

	"appointly/models"
)

// Notifier tells customers and providers about booking events.
type Notifier interface {
	SendBookingConfirmation(ctx context.Context, booking *models.Booking) error
	SendBookingCancellation(ctx context.Context, booking *models.Booking) error
	SendBookingRescheduled(ctx context.Context, booking *models.Booking) error
	SendReminder(ctx context.Context, booking *models.Booking) error
	SendOTP(ctx context.Context, phone, code string, ttl time.Duration) error
}

// SMSSender delivers a text message.
type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) error
}

// EmailSender delivers an HTML email.
type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, htmlBody string) error
}

// UserLookup resolves booking participants to contact details.
type UserLookup interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// ProviderLookup resolves a provider to contact details.
type ProviderLookup interface {
	GetByID(ctx context.Context, id string) (*models.Provider, error)
}
