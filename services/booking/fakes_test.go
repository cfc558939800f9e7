package booking

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"appointly/database/repository"
	"appointly/models"
	"appointly/services/payment"
)

// memoryBookings mimics the Mongo repository: the unique held-slot index
// and the optimistic version check.
type memoryBookings struct {
	mu    sync.Mutex
	items map[string]models.Booking

	// skipExistsCheck makes ExistsActiveAt blind, so a Create races into the index.
	skipExistsCheck bool
	// staleOnce bumps the stored version right before the next Update.
	staleOnce bool
}

func newMemoryBookings() *memoryBookings {
	return &memoryBookings{items: map[string]models.Booking{}}
}

func clone(b models.Booking) models.Booking {
	if b.Cancellation != nil {
		c := *b.Cancellation
		b.Cancellation = &c
	}
	if b.RescheduleHistory != nil {
		b.RescheduleHistory = append([]models.RescheduleEntry(nil), b.RescheduleHistory...)
	}
	return b
}

func (r *memoryBookings) heldBy(providerID, date, start, excludeID string) bool {
	for id, b := range r.items {
		if id == excludeID || !b.SlotHeld {
			continue
		}
		if b.ProviderID == providerID && b.AppointmentDate == date && b.StartTime == start {
			return true
		}
	}
	return false
}

func (r *memoryBookings) seed(b models.Booking) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b.SlotHeld = models.HoldsSlot(b.Status)
	r.items[b.ID] = clone(b)
}

func (r *memoryBookings) get(id string) models.Booking {
	r.mu.Lock()
	defer r.mu.Unlock()
	return clone(r.items[id])
}

func (r *memoryBookings) Create(_ context.Context, b *models.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b.SlotHeld = models.HoldsSlot(b.Status)
	if _, ok := r.items[b.ID]; ok {
		return repository.ErrDuplicate
	}
	if b.SlotHeld && r.heldBy(b.ProviderID, b.AppointmentDate, b.StartTime, "") {
		return repository.ErrDuplicate
	}
	r.items[b.ID] = clone(*b)
	return nil
}

func (r *memoryBookings) GetByID(_ context.Context, id string) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := clone(b)
	return &out, nil
}

func (r *memoryBookings) GetByPaymentReference(_ context.Context, reference string) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.items {
		if b.Payment.Reference == reference {
			out := clone(b)
			return &out, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memoryBookings) Update(_ context.Context, b *models.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.items[b.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if r.staleOnce {
		r.staleOnce = false
		current.Version++
		r.items[b.ID] = current
	}
	if current.Version != b.Version {
		return fmt.Errorf("failed to update booking %s: %w", b.ID, repository.ErrVersionConflict)
	}
	held := models.HoldsSlot(b.Status)
	if held && r.heldBy(b.ProviderID, b.AppointmentDate, b.StartTime, b.ID) {
		return repository.ErrDuplicate
	}
	b.Version++
	b.SlotHeld = held
	r.items[b.ID] = clone(*b)
	return nil
}

func (r *memoryBookings) ExistsActiveAt(_ context.Context, providerID, date, startTime, excludeID string) (bool, error) {
	if r.skipExistsCheck {
		return false, nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.heldBy(providerID, date, startTime, excludeID), nil
}

func (r *memoryBookings) ActiveStartTimes(_ context.Context, providerID, date string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, b := range r.items {
		if b.SlotHeld && b.ProviderID == providerID && b.AppointmentDate == date {
			out = append(out, b.StartTime)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (r *memoryBookings) List(_ context.Context, f models.BookingFilter) ([]models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Booking
	for _, b := range r.items {
		if f.CustomerID != "" && b.CustomerID != f.CustomerID {
			continue
		}
		if f.ProviderID != "" && b.ProviderID != f.ProviderID {
			continue
		}
		if f.Status != "" && b.Status != f.Status {
			continue
		}
		if f.Date != "" && b.AppointmentDate != f.Date {
			continue
		}
		out = append(out, clone(b))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memoryBookings) CountByStatus(_ context.Context) (map[string]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := map[string]int64{}
	for _, b := range r.items {
		out[b.Status]++
	}
	return out, nil
}

func (r *memoryBookings) PaymentTotals(_ context.Context) (float64, float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var revenue, refunded float64
	for _, b := range r.items {
		if b.Payment.Status == models.PaymentStatusSucceeded {
			revenue += b.Payment.Amount
		}
		if b.Cancellation != nil && b.Cancellation.RefundStatus == models.RefundStatusProcessed {
			refunded += b.Cancellation.RefundAmount
		}
	}
	return revenue, refunded, nil
}

type staticProviders map[string]*models.Provider

func (s staticProviders) GetByID(_ context.Context, id string) (*models.Provider, error) {
	if p, ok := s[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, repository.ErrNotFound
}

func (s staticProviders) GetByOwnerID(_ context.Context, ownerID string) (*models.Provider, error) {
	for _, p := range s {
		if p.OwnerID == ownerID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

type staticCustomers map[string]*models.User

func (s staticCustomers) GetByID(_ context.Context, id string) (*models.User, error) {
	if u, ok := s[id]; ok {
		return u, nil
	}
	return nil, repository.ErrNotFound
}

type refundCall struct {
	reference string
	amount    float64
	key       string
}

type fakeGateway struct {
	mu      sync.Mutex
	next    int
	status  string
	reason  string
	intents []payment.IntentRequest
	refunds []refundCall
	err     error
}

func (g *fakeGateway) CreatePaymentIntent(_ context.Context, req payment.IntentRequest) (*payment.Intent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return nil, g.err
	}
	g.next++
	g.intents = append(g.intents, req)
	ref := fmt.Sprintf("pi_%d", g.next)
	return &payment.Intent{Reference: ref, ClientSecret: ref + "_secret", Status: "requires_payment_method"}, nil
}

func (g *fakeGateway) RetrieveStatus(_ context.Context, _ string) (string, string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return "", "", g.err
	}
	return g.status, g.reason, nil
}

func (g *fakeGateway) CreateRefund(_ context.Context, reference string, amount float64, key string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return "", g.err
	}
	g.refunds = append(g.refunds, refundCall{reference, amount, key})
	return fmt.Sprintf("re_%d", len(g.refunds)), nil
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []string
	err    error
}

func (n *recordingNotifier) record(event string, b *models.Booking) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event+":"+b.ID)
	return n.err
}

func (n *recordingNotifier) SendBookingConfirmation(_ context.Context, b *models.Booking) error {
	return n.record("confirmation", b)
}

func (n *recordingNotifier) SendBookingCancellation(_ context.Context, b *models.Booking) error {
	return n.record("cancellation", b)
}

func (n *recordingNotifier) SendBookingRescheduled(_ context.Context, b *models.Booking) error {
	return n.record("rescheduled", b)
}

func (n *recordingNotifier) SendReminder(_ context.Context, b *models.Booking) error {
	return n.record("reminder", b)
}

func (n *recordingNotifier) SendOTP(context.Context, string, string, time.Duration) error {
	return nil
}

type recordingReminders struct {
	scheduled []string
	cancelled []string
}

func (r *recordingReminders) ScheduleReminder(_ context.Context, b *models.Booking) error {
	r.scheduled = append(r.scheduled, b.ID+"@"+b.AppointmentDate+" "+b.StartTime)
	return nil
}

func (r *recordingReminders) CancelReminder(_ context.Context, b *models.Booking) error {
	r.cancelled = append(r.cancelled, b.ID+"@"+b.AppointmentDate+" "+b.StartTime)
	return nil
}

type recordingMetrics struct {
	outcomes map[string]int
}

func (m *recordingMetrics) ObserveOperation(operation, outcome string) {
	if m.outcomes == nil {
		m.outcomes = map[string]int{}
	}
	m.outcomes[operation+":"+outcome]++
}
