package policy

import (
	"testing"
	"time"
	_ "time/tzdata"

	"appointly/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var appointment = time.Date(2030, 1, 7, 10, 0, 0, 0, time.UTC)

func confirmedBooking(amount float64) *models.Booking {
	return &models.Booking{
		AppointmentDate: "2030-01-07",
		StartTime:       "10:00",
		EndTime:         "10:30",
		Timezone:        "UTC",
		Status:          models.BookingStatusConfirmed,
		Payment: models.PaymentRecord{
			Status:   models.PaymentStatusSucceeded,
			Amount:   amount,
			Currency: "usd",
		},
	}
}

func TestRefundAmount_Tiers(t *testing.T) {
	b := confirmedBooking(100)

	assert.Equal(t, 100.0, RefundAmount(b, appointment.Add(-25*time.Hour)))
	assert.Equal(t, 50.0, RefundAmount(b, appointment.Add(-10*time.Hour)))
	assert.Equal(t, 0.0, RefundAmount(b, appointment.Add(-1*time.Hour)))
}

func TestRefundAmount_Boundaries(t *testing.T) {
	b := confirmedBooking(100)

	assert.Equal(t, 100.0, RefundAmount(b, appointment.Add(-24*time.Hour-time.Second)))
	assert.Equal(t, 50.0, RefundAmount(b, appointment.Add(-24*time.Hour)), "exactly 24h is the half tier")
	assert.Equal(t, 50.0, RefundAmount(b, appointment.Add(-2*time.Hour-time.Second)))
	assert.Equal(t, 0.0, RefundAmount(b, appointment.Add(-2*time.Hour)), "exactly 2h refunds nothing")
	assert.Equal(t, 0.0, RefundAmount(b, appointment.Add(time.Hour)), "past appointments refund nothing")
}

func TestRefundAmount_HalfOfCents(t *testing.T) {
	b := confirmedBooking(12.34)
	assert.Equal(t, 6.17, RefundAmount(b, appointment.Add(-10*time.Hour)))
}

func TestCanCancel_Window(t *testing.T) {
	b := confirmedBooking(100)

	assert.True(t, CanCancel(b, appointment.Add(-2*time.Hour-time.Second)))
	assert.False(t, CanCancel(b, appointment.Add(-2*time.Hour)))
	assert.False(t, CanCancel(b, appointment.Add(-2*time.Hour+time.Second)))
}

func TestCanCancel_RequiresConfirmed(t *testing.T) {
	b := confirmedBooking(100)
	b.Status = models.BookingStatusPending

	assert.False(t, CanCancel(b, appointment.Add(-48*time.Hour)))
	assert.False(t, CanReschedule(b, appointment.Add(-48*time.Hour)))
}

func TestCanReschedule_Window(t *testing.T) {
	b := confirmedBooking(100)

	assert.True(t, CanReschedule(b, appointment.Add(-4*time.Hour-time.Second)))
	assert.False(t, CanReschedule(b, appointment.Add(-4*time.Hour)))
}

func TestThreeHoursOut(t *testing.T) {
	b := confirmedBooking(80)
	now := appointment.Add(-3 * time.Hour)

	assert.True(t, CanCancel(b, now))
	assert.False(t, CanReschedule(b, now))
	assert.Equal(t, 40.0, RefundAmount(b, now))

	q := Quote(b, now)
	assert.True(t, q.CanCancel)
	assert.False(t, q.CanReschedule)
	assert.Equal(t, 40.0, q.RefundAmount)
	assert.Equal(t, 3.0, q.HoursUntil)
}

func TestQuote_NoRefundWhenUnpaid(t *testing.T) {
	b := confirmedBooking(80)
	b.Payment.Status = models.PaymentStatusPending

	q := Quote(b, appointment.Add(-30*time.Hour))
	assert.True(t, q.CanCancel)
	assert.Zero(t, q.RefundAmount)
}

func TestAppointmentTime_UsesBookingTimezone(t *testing.T) {
	b := confirmedBooking(100)
	b.Timezone = "Africa/Nairobi" // UTC+3

	at, err := AppointmentTime(b)
	require.NoError(t, err)
	assert.True(t, at.Equal(appointment.Add(-3*time.Hour)))

	// 3h before 10:00 UTC is exactly 10:00 Nairobi, so nothing is left.
	assert.False(t, CanCancel(b, appointment.Add(-3*time.Hour)))
}

func TestAppointmentTime_FallsBackToDefault(t *testing.T) {
	b := confirmedBooking(100)
	b.Timezone = ""

	at, err := AppointmentTime(b)
	require.NoError(t, err)
	assert.True(t, at.Equal(appointment))

	b.StartTime = "bad"
	_, err = AppointmentTime(b)
	assert.Error(t, err)
	assert.False(t, CanCancel(b, appointment.Add(-48*time.Hour)))
}
