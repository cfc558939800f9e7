// Package policy decides whether a booking may be cancelled or rescheduled
// and how much of the payment is returned.
package policy

import (
	"fmt"
	"math"
	"time"

	"appointly/models"
)

const (
	CancelWindow     = 2 * time.Hour
	RescheduleWindow = 4 * time.Hour
	FullRefundWindow = 24 * time.Hour
)

// DefaultLocation is used for bookings that carry no timezone.
var DefaultLocation = time.UTC

// SetDefaultTimezone sets DefaultLocation from an IANA name.
func SetDefaultTimezone(name string) error {
	if name == "" {
		return nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return fmt.Errorf("policy: unknown timezone %q: %w", name, err)
	}
	DefaultLocation = loc
	return nil
}

// Location resolves a timezone name, falling back to DefaultLocation.
func Location(name string) *time.Location {
	if name == "" {
		return DefaultLocation
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return DefaultLocation
	}
	return loc
}

// AppointmentAt combines a calendar date and an "HH:MM" start in tz.
func AppointmentAt(date, startTime, tz string) (time.Time, error) {
	t, err := time.ParseInLocation(models.DateLayout+" "+models.ClockLayout, date+" "+startTime, Location(tz))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid appointment time %s %s: %w", date, startTime, err)
	}
	return t, nil
}

// AppointmentTime returns the instant a booking starts.
func AppointmentTime(b *models.Booking) (time.Time, error) {
	return AppointmentAt(b.AppointmentDate, b.StartTime, b.Timezone)
}

// Until is the time left before the appointment starts. Negative once it has started.
func Until(b *models.Booking, now time.Time) (time.Duration, error) {
	at, err := AppointmentTime(b)
	if err != nil {
		return 0, err
	}
	return at.Sub(now), nil
}

// CanCancel: confirmed bookings more than two hours out.
func CanCancel(b *models.Booking, now time.Time) bool {
	if b.Status != models.BookingStatusConfirmed {
		return false
	}
	until, err := Until(b, now)
	return err == nil && until > CancelWindow
}

// CanReschedule: confirmed bookings more than four hours out.
func CanReschedule(b *models.Booking, now time.Time) bool {
	if b.Status != models.BookingStatusConfirmed {
		return false
	}
	until, err := Until(b, now)
	return err == nil && until > RescheduleWindow
}

// RefundAmount returns the share of the payment amount owed back on
// cancellation at now: everything beyond 24h, half between 2h and 24h
// inclusive of 24h, nothing at 2h or later. Rounded to cents.
func RefundAmount(b *models.Booking, now time.Time) float64 {
	until, err := Until(b, now)
	if err != nil {
		return 0
	}
	var share float64
	switch {
	case until > FullRefundWindow:
		share = 1
	case until > CancelWindow:
		share = 0.5
	default:
		return 0
	}
	return roundCents(b.Payment.Amount * share)
}

// Quote evaluates every rule at once.
func Quote(b *models.Booking, now time.Time) models.RefundQuote {
	q := models.RefundQuote{
		CanCancel:     CanCancel(b, now),
		CanReschedule: CanReschedule(b, now),
		Currency:      b.Payment.Currency,
		QuotedAt:      now,
	}
	if until, err := Until(b, now); err == nil {
		q.HoursUntil = math.Round(until.Hours()*100) / 100
	}
	if q.CanCancel && b.Payment.Status == models.PaymentStatusSucceeded {
		q.RefundAmount = RefundAmount(b, now)
	}
	return q
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
