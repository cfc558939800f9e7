package notification

import (
	"context"
	"errors"
	"fmt"
	"html"
	"time"

	"appointly/models"

	"go.uber.org/zap"
)

// MultiChannelNotifier sends each booking event by SMS and email to the
// customer and by email to the provider. Nil channels are skipped.
type MultiChannelNotifier struct {
	Users     UserLookup
	Providers ProviderLookup
	SMS       SMSSender
	Email     EmailSender
	Logger    *zap.Logger
}

type message struct {
	subject string
	text    string
}

type parties struct {
	customer *models.User
	provider *models.Provider
}

func (n *MultiChannelNotifier) logger() *zap.Logger {
	if n.Logger == nil {
		return zap.NewNop()
	}
	return n.Logger
}

func (n *MultiChannelNotifier) lookup(ctx context.Context, b *models.Booking) (parties, error) {
	var p parties
	customer, err := n.Users.GetByID(ctx, b.CustomerID)
	if err != nil {
		return p, fmt.Errorf("notification: load customer %s: %w", b.CustomerID, err)
	}
	provider, err := n.Providers.GetByID(ctx, b.ProviderID)
	if err != nil {
		return p, fmt.Errorf("notification: load provider %s: %w", b.ProviderID, err)
	}
	p.customer, p.provider = customer, provider
	return p, nil
}

func when(b *models.Booking) string {
	return fmt.Sprintf("%s at %s", b.AppointmentDate, b.StartTime)
}

func (n *MultiChannelNotifier) deliver(ctx context.Context, b *models.Booking, toCustomer, toProvider message) error {
	p, err := n.lookup(ctx, b)
	if err != nil {
		return err
	}

	var errs []error
	if n.SMS != nil && p.customer.Phone != "" {
		if err := n.SMS.SendSMS(ctx, p.customer.Phone, toCustomer.text); err != nil {
			errs = append(errs, err)
		}
	}
	if n.Email != nil {
		if p.customer.Email != "" {
			if err := n.Email.SendEmail(ctx, p.customer.Email, toCustomer.subject, htmlBody(toCustomer.text)); err != nil {
				errs = append(errs, err)
			}
		}
		if p.provider.Email != "" && toProvider.text != "" {
			if err := n.Email.SendEmail(ctx, p.provider.Email, toProvider.subject, htmlBody(toProvider.text)); err != nil {
				errs = append(errs, err)
			}
		}
	}
	if len(errs) > 0 {
		n.logger().Warn("Some notifications failed", zap.String("bookingId", b.ID), zap.Int("failures", len(errs)))
	}
	return errors.Join(errs...)
}

func htmlBody(text string) string {
	return "<p>" + html.EscapeString(text) + "</p>"
}

func (n *MultiChannelNotifier) SendBookingConfirmation(ctx context.Context, b *models.Booking) error {
	return n.deliver(ctx, b,
		message{
			subject: "Your booking is confirmed",
			text:    fmt.Sprintf("Your %s appointment on %s is confirmed. Booking ref %s.", b.Service.Name, when(b), b.ID),
		},
		message{
			subject: "New confirmed booking",
			text:    fmt.Sprintf("New %s booking on %s (ref %s).", b.Service.Name, when(b), b.ID),
		},
	)
}

func (n *MultiChannelNotifier) SendBookingCancellation(ctx context.Context, b *models.Booking) error {
	refund := ""
	if b.Cancellation != nil && b.Cancellation.RefundAmount > 0 {
		refund = fmt.Sprintf(" A refund of %.2f %s is on its way.", b.Cancellation.RefundAmount, b.Payment.Currency)
	}
	return n.deliver(ctx, b,
		message{
			subject: "Your booking was cancelled",
			text:    fmt.Sprintf("Your %s appointment on %s was cancelled.%s", b.Service.Name, when(b), refund),
		},
		message{
			subject: "Booking cancelled",
			text:    fmt.Sprintf("The %s booking on %s (ref %s) was cancelled.", b.Service.Name, when(b), b.ID),
		},
	)
}

func (n *MultiChannelNotifier) SendBookingRescheduled(ctx context.Context, b *models.Booking) error {
	return n.deliver(ctx, b,
		message{
			subject: "Your booking was moved",
			text:    fmt.Sprintf("Your %s appointment is now on %s.", b.Service.Name, when(b)),
		},
		message{
			subject: "Booking rescheduled",
			text:    fmt.Sprintf("Booking %s for %s moved to %s.", b.ID, b.Service.Name, when(b)),
		},
	)
}

func (n *MultiChannelNotifier) SendReminder(ctx context.Context, b *models.Booking) error {
	return n.deliver(ctx, b,
		message{
			subject: "Appointment reminder",
			text:    fmt.Sprintf("Reminder: your %s appointment is on %s.", b.Service.Name, when(b)),
		},
		message{},
	)
}

func (n *MultiChannelNotifier) SendOTP(ctx context.Context, phone, code string, ttl time.Duration) error {
	if n.SMS == nil {
		return errors.New("notification: no SMS channel for OTP")
	}
	body := fmt.Sprintf("Your Appointly code is %s. It expires in %d minutes.", code, int(ttl.Minutes()))
	return n.SMS.SendSMS(ctx, phone, body)
}
