package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"appointly/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 2030-01-01 is a Tuesday; 2030-01-07 a Monday, 2030-01-06 a Sunday.
var testNow = time.Date(2030, 1, 1, 9, 0, 0, 0, time.UTC)

var (
	customerA = models.Actor{UserID: "cust-a", Role: models.RoleCustomer}
	customerB = models.Actor{UserID: "cust-b", Role: models.RoleCustomer}
	owner     = models.Actor{UserID: "owner-1", Role: models.RoleProvider}
	stranger  = models.Actor{UserID: "someone", Role: models.RoleProvider}
	admin     = models.Actor{UserID: "admin-1", Role: models.RoleAdmin}
)

type harness struct {
	svc       *DefaultBookingService
	repo      *memoryBookings
	gateway   *fakeGateway
	notifier  *recordingNotifier
	reminders *recordingReminders
	metrics   *recordingMetrics
}

func testProvider() *models.Provider {
	return &models.Provider{
		ID:       "prov-1",
		OwnerID:  "owner-1",
		Timezone: "UTC",
		Services: []models.Service{
			{ID: "s1", Name: "Haircut", DurationMinutes: 30, Price: 40, Active: true},
			{ID: "s2", Name: "Coloring", DurationMinutes: 90, Price: 120, Active: true},
			{ID: "s3", Name: "Massage", DurationMinutes: 60, Price: 70, Active: false},
		},
		WorkingHours: []models.WorkingDayTemplate{
			{Day: models.Monday, StartTime: "09:00", EndTime: "17:00", Available: true},
			{Day: models.Tuesday, StartTime: "09:00", EndTime: "17:00", Available: true},
			{Day: models.Wednesday, StartTime: "09:00", EndTime: "17:00", Available: false},
		},
		BlockedDates: []models.BlockedDate{{Date: "2030-01-14", Reason: "holiday"}},
	}
}

func newHarness() *harness {
	h := &harness{
		repo:      newMemoryBookings(),
		gateway:   &fakeGateway{},
		notifier:  &recordingNotifier{},
		reminders: &recordingReminders{},
		metrics:   &recordingMetrics{},
	}
	h.svc = &DefaultBookingService{
		Bookings:  h.repo,
		Providers: staticProviders{"prov-1": testProvider()},
		Customers: staticCustomers{
			"cust-a":  {ID: "cust-a"},
			"cust-b":  {ID: "cust-b"},
			"owner-1": {ID: "owner-1"},
		},
		Payments:    h.gateway,
		Notifier:    h.notifier,
		Reminders:   h.reminders,
		Metrics:     h.metrics,
		Now:         func() time.Time { return testNow },
		SlotMinutes: 30,
		Currency:    "usd",
	}
	return h
}

func haircut(customer, date, start string) CreateRequest {
	return CreateRequest{CustomerID: customer, ProviderID: "prov-1", ServiceName: "Haircut", Date: date, StartTime: start}
}

// confirmedBooking seeds a paid, confirmed booking at date/start.
func (h *harness) confirmedBooking(id, date, start string, amount float64) models.Booking {
	b := models.Booking{
		ID:              id,
		CustomerID:      "cust-a",
		ProviderID:      "prov-1",
		Service:         models.ServiceSnapshot{Name: "Coloring", DurationMinutes: 90, Price: amount},
		AppointmentDate: date,
		StartTime:       start,
		Timezone:        "UTC",
		Status:          models.BookingStatusConfirmed,
		Payment: models.PaymentRecord{
			Status:    models.PaymentStatusSucceeded,
			Amount:    amount,
			Currency:  "usd",
			Reference: "pi_" + id,
		},
	}
	h.repo.seed(b)
	return b
}

func requireKind(t *testing.T, err error, kind ErrorKind, code string) {
	t.Helper()
	require.Error(t, err)
	var be *Error
	require.True(t, errors.As(err, &be), "expected *booking.Error, got %T: %v", err, err)
	assert.Equal(t, kind, be.Kind)
	if code != "" {
		assert.Equal(t, code, be.Code)
	}
}

func TestCreate_PendingBookingHoldsSlot(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	b, err := h.svc.Create(ctx, haircut("cust-a", "2030-01-07", "10:00"))
	require.NoError(t, err)

	assert.Equal(t, models.BookingStatusPending, b.Status)
	assert.Equal(t, "10:30", b.EndTime)
	assert.Equal(t, "UTC", b.Timezone)
	assert.Equal(t, models.PaymentRecord{Status: models.PaymentStatusPending, Amount: 40, Currency: "usd"}, b.Payment)
	assert.Equal(t, models.ServiceSnapshot{Name: "Haircut", DurationMinutes: 30, Price: 40}, b.Service)

	taken, err := h.svc.HasConflict(ctx, "prov-1", "2030-01-07", "10:00", "")
	require.NoError(t, err)
	assert.True(t, taken)

	taken, err = h.svc.HasConflict(ctx, "prov-1", "2030-01-07", "10:00", b.ID)
	require.NoError(t, err)
	assert.False(t, taken, "a booking never conflicts with itself")

	assert.Equal(t, 1, h.metrics.outcomes["create:ok"])
}

func TestCreate_NormalizesStartTime(t *testing.T) {
	h := newHarness()
	b, err := h.svc.Create(context.Background(), haircut("cust-a", "2030-01-07", "9:30"))
	require.NoError(t, err)
	assert.Equal(t, "09:30", b.StartTime)
	assert.Equal(t, "10:00", b.EndTime)
}

func TestCreate_PendingBookingBlocksOthers(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	_, err := h.svc.Create(ctx, haircut("cust-a", "2030-01-07", "10:00"))
	require.NoError(t, err)

	_, err = h.svc.Create(ctx, haircut("cust-b", "2030-01-07", "10:00"))
	requireKind(t, err, KindConflict, CodeSlotTaken)
	assert.Equal(t, 1, h.metrics.outcomes["create:slot_taken"])
}

// Customer A books and pays, B is turned away, A cancels, B gets the slot.
func TestCreate_ConflictCancelRetry(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	first, err := h.svc.Create(ctx, haircut("cust-a", "2030-01-07", "10:00"))
	require.NoError(t, err)
	intent, err := h.svc.CreatePaymentIntent(ctx, first.ID, customerA)
	require.NoError(t, err)
	_, err = h.svc.ConfirmPayment(ctx, intent.Reference)
	require.NoError(t, err)

	_, err = h.svc.Create(ctx, haircut("cust-b", "2030-01-07", "10:00"))
	requireKind(t, err, KindConflict, CodeSlotTaken)

	cancelled, err := h.svc.Cancel(ctx, first.ID, customerA, "change of plans")
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusCancelled, cancelled.Status)
	require.NotNil(t, cancelled.Cancellation)
	assert.Equal(t, 40.0, cancelled.Cancellation.RefundAmount)
	assert.Equal(t, models.RefundStatusPending, cancelled.Cancellation.RefundStatus)
	assert.Equal(t, models.RoleCustomer, cancelled.Cancellation.CancelledByRole)
	assert.False(t, h.repo.get(first.ID).SlotHeld)

	second, err := h.svc.Create(ctx, haircut("cust-b", "2030-01-07", "10:00"))
	require.NoError(t, err)
	assert.Equal(t, "cust-b", second.CustomerID)
}

// Only identical starts collide: a 90 minute booking at 10:00 leaves 10:30 open.
func TestCreate_ExactStartConflictPolicy(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	_, err := h.svc.Create(ctx, CreateRequest{
		CustomerID: "cust-a", ProviderID: "prov-1", ServiceName: "Coloring",
		Date: "2030-01-07", StartTime: "10:00",
	})
	require.NoError(t, err)

	_, err = h.svc.Create(ctx, haircut("cust-b", "2030-01-07", "10:30"))
	assert.NoError(t, err)
}

func TestCreate_IndexRaceMapsToSlotTaken(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	h.repo.skipExistsCheck = true

	_, err := h.svc.Create(ctx, haircut("cust-a", "2030-01-07", "10:00"))
	require.NoError(t, err)

	_, err = h.svc.Create(ctx, haircut("cust-b", "2030-01-07", "10:00"))
	requireKind(t, err, KindConflict, CodeSlotTaken)
}

func TestCreate_Rejections(t *testing.T) {
	tests := []struct {
		name string
		req  CreateRequest
		kind ErrorKind
		code string
	}{
		{"missing fields", CreateRequest{CustomerID: "cust-a"}, KindValidation, CodeValidation},
		{"unknown provider", CreateRequest{CustomerID: "cust-a", ProviderID: "nope", ServiceName: "Haircut", Date: "2030-01-07", StartTime: "10:00"}, KindNotFound, CodeNotFound},
		{"unknown customer", haircut("ghost", "2030-01-07", "10:00"), KindNotFound, CodeNotFound},
		{"unknown service", CreateRequest{CustomerID: "cust-a", ProviderID: "prov-1", ServiceName: "Shave", Date: "2030-01-07", StartTime: "10:00"}, KindNotFound, CodeServiceNotFound},
		{"inactive service", CreateRequest{CustomerID: "cust-a", ProviderID: "prov-1", ServiceName: "Massage", Date: "2030-01-07", StartTime: "10:00"}, KindNotFound, CodeServiceNotFound},
		{"provider books self", haircut("owner-1", "2030-01-07", "10:00"), KindValidation, CodeValidation},
		{"bad date", haircut("cust-a", "07/01/2030", "10:00"), KindValidation, CodeValidation},
		{"bad time", haircut("cust-a", "2030-01-07", "ten"), KindValidation, CodeValidation},
		{"in the past", haircut("cust-a", "2029-12-31", "10:00"), KindValidation, CodeValidation},
		{"earlier today", haircut("cust-a", "2030-01-01", "08:30"), KindValidation, CodeValidation},
		{"no template on sunday", haircut("cust-a", "2030-01-06", "10:00"), KindConflict, CodeProviderUnavailable},
		{"day marked unavailable", haircut("cust-a", "2030-01-02", "10:00"), KindConflict, CodeProviderUnavailable},
		{"blocked date", haircut("cust-a", "2030-01-14", "10:00"), KindConflict, CodeProviderUnavailable},
		{"closing time", haircut("cust-a", "2030-01-07", "17:00"), KindConflict, CodeProviderUnavailable},
		{"before opening", haircut("cust-a", "2030-01-07", "08:30"), KindConflict, CodeProviderUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness()
			_, err := h.svc.Create(context.Background(), tt.req)
			requireKind(t, err, tt.kind, tt.code)
		})
	}
}

func TestGetAvailableSlots_MondayNineToFive(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	_, err := h.svc.Create(ctx, haircut("cust-a", "2030-01-07", "10:00"))
	require.NoError(t, err)

	slots, err := h.svc.GetAvailableSlots(ctx, "prov-1", "2030-01-07")
	require.NoError(t, err)
	require.Len(t, slots, 16)
	assert.Equal(t, "09:00", slots[0].StartTime)
	assert.Equal(t, "17:00", slots[15].EndTime)
	for i, s := range slots {
		assert.Equal(t, s.StartTime == "10:00", s.Booked, "slot %d %s", i, s.StartTime)
	}
}

func TestGetAvailableSlots_EmptyAndInvalid(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	slots, err := h.svc.GetAvailableSlots(ctx, "prov-1", "2030-01-14")
	require.NoError(t, err)
	assert.NotNil(t, slots)
	assert.Empty(t, slots)

	_, err = h.svc.GetAvailableSlots(ctx, "prov-1", "someday")
	requireKind(t, err, KindValidation, "")

	_, err = h.svc.GetAvailableSlots(ctx, "missing", "2030-01-07")
	requireKind(t, err, KindNotFound, "")
}

func TestIsAvailableAt(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	ok, err := h.svc.IsAvailableAt(ctx, "prov-1", "2030-01-07", "16:59")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.svc.IsAvailableAt(ctx, "prov-1", "2030-01-07", "17:00")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = h.svc.IsAvailableAt(ctx, "prov-1", "2030-01-06", "10:00")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestConfirmPayment(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	b, err := h.svc.Create(ctx, haircut("cust-a", "2030-01-07", "10:00"))
	require.NoError(t, err)

	_, err = h.svc.CreatePaymentIntent(ctx, b.ID, customerB)
	requireKind(t, err, KindForbidden, "")

	intent, err := h.svc.CreatePaymentIntent(ctx, b.ID, customerA)
	require.NoError(t, err)
	assert.Equal(t, "pi_1_secret", intent.ClientSecret)
	require.Len(t, h.gateway.intents, 1)
	assert.Equal(t, 40.0, h.gateway.intents[0].Amount)
	assert.Equal(t, b.ID, h.gateway.intents[0].BookingID)

	confirmed, err := h.svc.ConfirmPayment(ctx, intent.Reference)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusConfirmed, confirmed.Status)
	assert.Equal(t, models.PaymentStatusSucceeded, confirmed.Payment.Status)
	require.NotNil(t, confirmed.Payment.PaidAt)
	assert.True(t, confirmed.Payment.PaidAt.Equal(testNow))

	assert.Equal(t, []string{"confirmation:" + b.ID}, h.notifier.events)
	assert.Equal(t, []string{b.ID + "@2030-01-07 10:00"}, h.reminders.scheduled)

	_, err = h.svc.ConfirmPayment(ctx, intent.Reference)
	requireKind(t, err, KindPayment, CodePaymentNotPending)

	_, err = h.svc.ConfirmPayment(ctx, "pi_unknown")
	requireKind(t, err, KindNotFound, "")

	_, err = h.svc.CreatePaymentIntent(ctx, b.ID, customerA)
	requireKind(t, err, KindPayment, CodePaymentNotPending)
}

func TestConfirmPayment_NotificationFailureKeepsConfirmation(t *testing.T) {
	h := newHarness()
	h.notifier.err = errors.New("smtp down")
	ctx := context.Background()

	b, err := h.svc.Create(ctx, haircut("cust-a", "2030-01-07", "10:00"))
	require.NoError(t, err)
	intent, err := h.svc.CreatePaymentIntent(ctx, b.ID, customerA)
	require.NoError(t, err)

	confirmed, err := h.svc.ConfirmPayment(ctx, intent.Reference)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusConfirmed, h.repo.get(confirmed.ID).Status)
}

func TestFailPaymentThenRetry(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	b, err := h.svc.Create(ctx, haircut("cust-a", "2030-01-07", "10:00"))
	require.NoError(t, err)
	intent, err := h.svc.CreatePaymentIntent(ctx, b.ID, customerA)
	require.NoError(t, err)

	failed, err := h.svc.FailPayment(ctx, intent.Reference, "card_declined")
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusPending, failed.Status)
	assert.Equal(t, models.PaymentStatusFailed, failed.Payment.Status)
	assert.Equal(t, "card_declined", failed.Payment.FailureReason)

	_, err = h.svc.FailPayment(ctx, intent.Reference, "again")
	requireKind(t, err, KindPayment, CodePaymentNotPending)

	confirmed, err := h.svc.ConfirmPayment(ctx, intent.Reference)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusConfirmed, confirmed.Status)
	assert.Empty(t, confirmed.Payment.FailureReason)
}

func TestConfirmPayment_AfterDeclineQueuesRefund(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	b, err := h.svc.Create(ctx, haircut("cust-a", "2030-01-07", "10:00"))
	require.NoError(t, err)
	intent, err := h.svc.CreatePaymentIntent(ctx, b.ID, customerA)
	require.NoError(t, err)
	_, err = h.svc.UpdateStatus(ctx, b.ID, models.BookingStatusCancelled, owner)
	require.NoError(t, err)

	late, err := h.svc.ConfirmPayment(ctx, intent.Reference)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusCancelled, late.Status)
	assert.Equal(t, models.PaymentStatusSucceeded, late.Payment.Status)
	assert.Equal(t, 40.0, late.Cancellation.RefundAmount)
	assert.Equal(t, models.RefundStatusPending, late.Cancellation.RefundStatus)
}

func TestPayAfterProviderConfirmation(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	b, err := h.svc.Create(ctx, haircut("cust-a", "2030-01-07", "10:00"))
	require.NoError(t, err)
	_, err = h.svc.UpdateStatus(ctx, b.ID, models.BookingStatusConfirmed, owner)
	require.NoError(t, err)

	intent, err := h.svc.CreatePaymentIntent(ctx, b.ID, customerA)
	require.NoError(t, err)

	paid, err := h.svc.ConfirmPayment(ctx, intent.Reference)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusConfirmed, paid.Status)
	assert.Equal(t, models.PaymentStatusSucceeded, paid.Payment.Status)
	assert.Len(t, h.reminders.scheduled, 1, "the reminder was scheduled by the provider's confirmation")

	cancelled, err := h.svc.Cancel(ctx, b.ID, customerA, "change of plans")
	require.NoError(t, err)
	require.NotNil(t, cancelled.Cancellation)
	assert.Equal(t, 40.0, cancelled.Cancellation.RefundAmount)
	assert.Equal(t, models.RefundStatusPending, cancelled.Cancellation.RefundStatus)

	_, err = h.svc.CreatePaymentIntent(ctx, b.ID, customerA)
	requireKind(t, err, KindPayment, CodePaymentNotPending)
}

func TestSyncPayment(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	b, err := h.svc.Create(ctx, haircut("cust-a", "2030-01-07", "10:00"))
	require.NoError(t, err)

	_, err = h.svc.SyncPayment(ctx, b.ID, customerA)
	requireKind(t, err, KindValidation, "")

	_, err = h.svc.CreatePaymentIntent(ctx, b.ID, customerA)
	require.NoError(t, err)

	h.gateway.status = models.PaymentStatusPending
	still, err := h.svc.SyncPayment(ctx, b.ID, customerA)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusPending, still.Status)

	h.gateway.status = models.PaymentStatusSucceeded
	synced, err := h.svc.SyncPayment(ctx, b.ID, customerA)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusConfirmed, synced.Status)

	_, err = h.svc.SyncPayment(ctx, b.ID, customerB)
	requireKind(t, err, KindForbidden, "")

	assert.Equal(t, 2, h.metrics.outcomes["sync_payment:ok"])
	assert.Equal(t, 1, h.metrics.outcomes["sync_payment:validation_failed"])
	assert.Equal(t, 1, h.metrics.outcomes["sync_payment:forbidden"])
}

func TestUpdateStatus_TransitionTable(t *testing.T) {
	all := []string{
		models.BookingStatusPending, models.BookingStatusConfirmed, models.BookingStatusInProgress,
		models.BookingStatusCompleted, models.BookingStatusCancelled, models.BookingStatusNoShow,
	}
	allowed := map[string]bool{
		"pending>confirmed":     true,
		"pending>cancelled":     true,
		"confirmed>in-progress": true,
		"confirmed>completed":   true,
		"confirmed>no-show":     true,
		"in-progress>completed": true,
	}

	for _, from := range all {
		for _, to := range all {
			name := from + ">" + to
			t.Run(name, func(t *testing.T) {
				h := newHarness()
				b := h.confirmedBooking("bk", "2030-01-07", "10:00", 80)
				b.Status = from
				h.repo.seed(b)

				got, err := h.svc.UpdateStatus(context.Background(), "bk", to, owner)
				if allowed[name] {
					require.NoError(t, err)
					assert.Equal(t, to, got.Status)
					assert.Equal(t, models.HoldsSlot(to), h.repo.get("bk").SlotHeld)
					return
				}
				requireKind(t, err, KindInvalidTransition, CodeInvalidTransition)
				assert.Equal(t, from, h.repo.get("bk").Status)
			})
		}
	}
}

func TestUpdateStatus_Guards(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	h.confirmedBooking("bk", "2030-01-07", "10:00", 80)

	_, err := h.svc.UpdateStatus(ctx, "bk", "finished", owner)
	requireKind(t, err, KindValidation, "")

	_, err = h.svc.UpdateStatus(ctx, "bk", models.BookingStatusCompleted, customerA)
	requireKind(t, err, KindForbidden, "")

	_, err = h.svc.UpdateStatus(ctx, "bk", models.BookingStatusCompleted, stranger)
	requireKind(t, err, KindForbidden, "")

	_, err = h.svc.UpdateStatus(ctx, "missing", models.BookingStatusCompleted, owner)
	requireKind(t, err, KindNotFound, "")
}

func TestUpdateStatus_ProviderConfirmationNotifies(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	b, err := h.svc.Create(ctx, haircut("cust-a", "2030-01-07", "10:00"))
	require.NoError(t, err)

	_, err = h.svc.UpdateStatus(ctx, b.ID, models.BookingStatusConfirmed, owner)
	require.NoError(t, err)
	assert.Equal(t, []string{"confirmation:" + b.ID}, h.notifier.events)
	assert.Len(t, h.reminders.scheduled, 1)
}

func TestUpdateStatus_StaleWriteIsRejected(t *testing.T) {
	h := newHarness()
	h.confirmedBooking("bk", "2030-01-07", "10:00", 80)
	h.repo.staleOnce = true

	_, err := h.svc.UpdateStatus(context.Background(), "bk", models.BookingStatusInProgress, owner)
	requireKind(t, err, KindConflict, CodeStaleBooking)
	assert.Equal(t, models.BookingStatusConfirmed, h.repo.get("bk").Status)
}

func TestCancel_RefundTiers(t *testing.T) {
	tests := []struct {
		name   string
		date   string
		start  string
		refund float64
		status string
	}{
		{"more than a day out", "2030-01-07", "10:00", 80, models.RefundStatusPending},
		{"exactly a day out", "2030-01-02", "09:00", 40, models.RefundStatusPending},
		{"three hours out", "2030-01-01", "12:00", 40, models.RefundStatusPending},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness()
			h.confirmedBooking("bk", tt.date, tt.start, 80)

			b, err := h.svc.Cancel(context.Background(), "bk", owner, "sick")
			require.NoError(t, err)
			assert.Equal(t, tt.refund, b.Cancellation.RefundAmount)
			assert.Equal(t, tt.status, b.Cancellation.RefundStatus)
			assert.Equal(t, models.RoleProvider, b.Cancellation.CancelledByRole)
			assert.Equal(t, []string{"cancellation:bk"}, h.notifier.events)
			assert.Len(t, h.reminders.cancelled, 1)
		})
	}
}

func TestCancel_Rejections(t *testing.T) {
	ctx := context.Background()

	h := newHarness()
	h.confirmedBooking("late", "2030-01-01", "10:30", 80)
	_, err := h.svc.Cancel(ctx, "late", customerA, "")
	requireKind(t, err, KindPolicyViolation, CodeCancelWindowClosed)

	h.confirmedBooking("edge", "2030-01-01", "11:00", 80)
	_, err = h.svc.Cancel(ctx, "edge", customerA, "")
	requireKind(t, err, KindPolicyViolation, CodeCancelWindowClosed)

	h.confirmedBooking("other", "2030-01-07", "11:00", 80)
	_, err = h.svc.Cancel(ctx, "other", customerB, "")
	requireKind(t, err, KindForbidden, "")
	_, err = h.svc.Cancel(ctx, "other", admin, "")
	requireKind(t, err, KindForbidden, "")

	pending, err := h.svc.Create(ctx, haircut("cust-b", "2030-01-07", "12:00"))
	require.NoError(t, err)
	_, err = h.svc.Cancel(ctx, pending.ID, customerB, "")
	requireKind(t, err, KindInvalidTransition, "")
}

func TestCancel_UnpaidBookingOwesNothing(t *testing.T) {
	h := newHarness()
	b := h.confirmedBooking("bk", "2030-01-07", "10:00", 80)
	b.Payment.Status = models.PaymentStatusPending
	h.repo.seed(b)

	got, err := h.svc.Cancel(context.Background(), "bk", customerA, "")
	require.NoError(t, err)
	assert.Zero(t, got.Cancellation.RefundAmount)
	assert.Equal(t, models.RefundStatusNone, got.Cancellation.RefundStatus)
}

func TestProcessRefund(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	h.confirmedBooking("bk", "2030-01-01", "12:00", 80)

	_, err := h.svc.ProcessRefund(ctx, "bk", owner)
	requireKind(t, err, KindPayment, CodeRefundNotPending)

	_, err = h.svc.Cancel(ctx, "bk", customerA, "")
	require.NoError(t, err)

	_, err = h.svc.ProcessRefund(ctx, "bk", customerA)
	requireKind(t, err, KindForbidden, "")

	got, err := h.svc.ProcessRefund(ctx, "bk", owner)
	require.NoError(t, err)
	assert.Equal(t, models.RefundStatusProcessed, got.Cancellation.RefundStatus)
	assert.Equal(t, "re_1", got.Cancellation.RefundID)
	require.Len(t, h.gateway.refunds, 1)
	assert.Equal(t, refundCall{reference: "pi_bk", amount: 40, key: "refund-bk"}, h.gateway.refunds[0])

	_, err = h.svc.ProcessRefund(ctx, "bk", admin)
	requireKind(t, err, KindPayment, CodeRefundNotPending)
}

func TestProcessRefund_GatewayFailureLeavesRefundPending(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	h.confirmedBooking("bk", "2030-01-07", "12:00", 80)
	_, err := h.svc.Cancel(ctx, "bk", customerA, "")
	require.NoError(t, err)

	h.gateway.err = errors.New("stripe unavailable")
	_, err = h.svc.ProcessRefund(ctx, "bk", admin)
	requireKind(t, err, KindPayment, CodePaymentFailed)
	assert.Equal(t, models.RefundStatusPending, h.repo.get("bk").Cancellation.RefundStatus)
}

func TestReschedule(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	h.confirmedBooking("bk", "2030-01-07", "10:00", 120)

	got, err := h.svc.Reschedule(ctx, "bk", customerA, "2030-01-08", "11:00", "conflict at work")
	require.NoError(t, err)
	assert.Equal(t, "2030-01-08", got.AppointmentDate)
	assert.Equal(t, "11:00", got.StartTime)
	assert.Equal(t, "12:30", got.EndTime, "end time moves with the start")
	assert.Equal(t, 90, got.Service.DurationMinutes)
	assert.Equal(t, models.BookingStatusConfirmed, got.Status)
	require.Len(t, got.RescheduleHistory, 1)
	assert.Equal(t, models.RescheduleEntry{
		FromDate: "2030-01-07", FromStartTime: "10:00",
		ToDate: "2030-01-08", ToStartTime: "11:00",
		Reason: "conflict at work", RescheduledBy: "cust-a", RescheduledAt: testNow,
	}, got.RescheduleHistory[0])

	taken, err := h.svc.HasConflict(ctx, "prov-1", "2030-01-07", "10:00", "")
	require.NoError(t, err)
	assert.False(t, taken, "old slot is released")

	assert.Equal(t, []string{"bk@2030-01-07 10:00"}, h.reminders.cancelled)
	assert.Equal(t, []string{"bk@2030-01-08 11:00"}, h.reminders.scheduled)
	assert.Equal(t, []string{"rescheduled:bk"}, h.notifier.events)
}

func TestReschedule_Rejections(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	h.confirmedBooking("bk", "2030-01-07", "10:00", 120)
	h.confirmedBooking("taken", "2030-01-08", "11:00", 40)
	h.confirmedBooking("soon", "2030-01-01", "12:00", 40)

	_, err := h.svc.Reschedule(ctx, "bk", customerA, "2030-01-08", "11:00", "")
	requireKind(t, err, KindConflict, CodeSlotTaken)

	_, err = h.svc.Reschedule(ctx, "bk", customerA, "2030-01-06", "11:00", "")
	requireKind(t, err, KindConflict, CodeProviderUnavailable)

	_, err = h.svc.Reschedule(ctx, "bk", customerA, "2030-01-07", "10:00", "")
	requireKind(t, err, KindValidation, "")

	_, err = h.svc.Reschedule(ctx, "bk", customerB, "2030-01-08", "12:00", "")
	requireKind(t, err, KindForbidden, "")

	_, err = h.svc.Reschedule(ctx, "soon", customerA, "2030-01-08", "12:00", "")
	requireKind(t, err, KindPolicyViolation, CodeRescheduleWindowClosed)

	pending, err := h.svc.Create(ctx, haircut("cust-b", "2030-01-07", "15:00"))
	require.NoError(t, err)
	_, err = h.svc.Reschedule(ctx, pending.ID, customerB, "2030-01-08", "15:00", "")
	requireKind(t, err, KindInvalidTransition, "")

	assert.Equal(t, "2030-01-07", h.repo.get("bk").AppointmentDate)
}

func TestGetByIDAndQuote(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	h.confirmedBooking("bk", "2030-01-01", "12:00", 80)

	_, err := h.svc.GetByID(ctx, "bk", customerB)
	requireKind(t, err, KindForbidden, "")

	for _, actor := range []models.Actor{customerA, owner, admin} {
		_, err := h.svc.GetByID(ctx, "bk", actor)
		assert.NoError(t, err, actor.UserID)
	}

	q, err := h.svc.RefundQuote(ctx, "bk", customerA)
	require.NoError(t, err)
	assert.True(t, q.CanCancel)
	assert.False(t, q.CanReschedule)
	assert.Equal(t, 40.0, q.RefundAmount)
	assert.Equal(t, 3.0, q.HoursUntil)
}

func TestListings(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	h.confirmedBooking("a1", "2030-01-07", "10:00", 80)
	_, err := h.svc.Create(ctx, haircut("cust-b", "2030-01-07", "11:00"))
	require.NoError(t, err)

	mine, err := h.svc.ListForCustomer(ctx, customerA, models.BookingFilter{})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "a1", mine[0].ID)

	all, err := h.svc.ListForProvider(ctx, owner, models.BookingFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	pendingOnly, err := h.svc.ListForProvider(ctx, owner, models.BookingFilter{Status: models.BookingStatusPending})
	require.NoError(t, err)
	assert.Len(t, pendingOnly, 1)

	_, err = h.svc.ListForProvider(ctx, customerA, models.BookingFilter{})
	requireKind(t, err, KindForbidden, "")

	_, err = h.svc.ListForCustomer(ctx, customerA, models.BookingFilter{Status: "bogus"})
	requireKind(t, err, KindValidation, "")
}
