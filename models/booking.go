package models

import "time"

// Booking status values.
const (
	BookingStatusPending    = "pending"
	BookingStatusConfirmed  = "confirmed"
	BookingStatusInProgress = "in-progress"
	BookingStatusCompleted  = "completed"
	BookingStatusCancelled  = "cancelled"
	BookingStatusNoShow     = "no-show"
)

// Payment status values.
const (
	PaymentStatusPending   = "pending"
	PaymentStatusSucceeded = "succeeded"
	PaymentStatusFailed    = "failed"
)

// Refund status values on a cancellation record.
const (
	RefundStatusNone      = "none"
	RefundStatusPending   = "pending"
	RefundStatusProcessed = "processed"
)

// ActiveBookingStatuses are the statuses that hold a provider's slot.
var ActiveBookingStatuses = []string{BookingStatusPending, BookingStatusConfirmed}

// ValidBookingStatus reports whether s is a known booking status.
func ValidBookingStatus(s string) bool {
	switch s {
	case BookingStatusPending, BookingStatusConfirmed, BookingStatusInProgress,
		BookingStatusCompleted, BookingStatusCancelled, BookingStatusNoShow:
		return true
	}
	return false
}

// HoldsSlot reports whether a booking in status s occupies its slot.
func HoldsSlot(s string) bool {
	return s == BookingStatusPending || s == BookingStatusConfirmed
}

// ServiceSnapshot freezes the booked service at creation time.
type ServiceSnapshot struct {
	Name            string  `bson:"name" json:"name"`
	DurationMinutes int     `bson:"durationMinutes" json:"durationMinutes"`
	Price           float64 `bson:"price" json:"price"`
}

// PaymentRecord tracks the gateway payment for a booking.
type PaymentRecord struct {
	Status        string     `bson:"status" json:"status"`
	Amount        float64    `bson:"amount" json:"amount"`
	Currency      string     `bson:"currency" json:"currency"`
	Reference     string     `bson:"reference,omitempty" json:"reference,omitempty"` // gateway payment intent id
	PaidAt        *time.Time `bson:"paidAt,omitempty" json:"paidAt,omitempty"`
	FailureReason string     `bson:"failureReason,omitempty" json:"failureReason,omitempty"`
}

// CancellationRecord is written once when a booking is cancelled.
type CancellationRecord struct {
	CancelledBy     string     `bson:"cancelledBy" json:"cancelledBy"`
	CancelledByRole string     `bson:"cancelledByRole" json:"cancelledByRole"`
	Reason          string     `bson:"reason,omitempty" json:"reason,omitempty"`
	CancelledAt     time.Time  `bson:"cancelledAt" json:"cancelledAt"`
	RefundAmount    float64    `bson:"refundAmount" json:"refundAmount"`
	RefundStatus    string     `bson:"refundStatus" json:"refundStatus"`
	RefundID        string     `bson:"refundId,omitempty" json:"refundId,omitempty"`
	RefundedAt      *time.Time `bson:"refundedAt,omitempty" json:"refundedAt,omitempty"`
}

// RescheduleEntry records one move of a booking.
type RescheduleEntry struct {
	FromDate      string    `bson:"fromDate" json:"fromDate"`
	FromStartTime string    `bson:"fromStartTime" json:"fromStartTime"`
	ToDate        string    `bson:"toDate" json:"toDate"`
	ToStartTime   string    `bson:"toStartTime" json:"toStartTime"`
	Reason        string    `bson:"reason,omitempty" json:"reason,omitempty"`
	RescheduledBy string    `bson:"rescheduledBy" json:"rescheduledBy"`
	RescheduledAt time.Time `bson:"rescheduledAt" json:"rescheduledAt"`
}

// Booking is a customer's appointment with a provider.
type Booking struct {
	ID                string              `bson:"id" json:"id"`
	CustomerID        string              `bson:"customerId" json:"customerId"`
	ProviderID        string              `bson:"providerId" json:"providerId"`
	Service           ServiceSnapshot     `bson:"service" json:"service"`
	AppointmentDate   string              `bson:"appointmentDate" json:"appointmentDate"` // "YYYY-MM-DD"
	StartTime         string              `bson:"startTime" json:"startTime"`             // "HH:MM"
	EndTime           string              `bson:"endTime" json:"endTime"`                 // "HH:MM"
	Timezone          string              `bson:"timezone,omitempty" json:"timezone,omitempty"`
	Status            string              `bson:"status" json:"status"`
	Payment           PaymentRecord       `bson:"payment" json:"payment"`
	Cancellation      *CancellationRecord `bson:"cancellation,omitempty" json:"cancellation,omitempty"`
	RescheduleHistory []RescheduleEntry   `bson:"rescheduleHistory,omitempty" json:"rescheduleHistory,omitempty"`
	Notes             string              `bson:"notes,omitempty" json:"notes,omitempty"`
	SlotHeld          bool                `bson:"slotHeld" json:"-"` // true while status is pending or confirmed; backs the unique slot index
	Version           int                 `bson:"version" json:"version"`
	CreatedAt         time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt         time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// BookingFilter narrows booking listings.
type BookingFilter struct {
	CustomerID string
	ProviderID string
	Status     string
	Date       string
	Limit      int64
	Skip       int64
}

// RefundQuote is what a cancellation would look like right now.
type RefundQuote struct {
	CanCancel     bool      `json:"canCancel"`
	CanReschedule bool      `json:"canReschedule"`
	RefundAmount  float64   `json:"refundAmount"`
	Currency      string    `json:"currency"`
	HoursUntil    float64   `json:"hoursUntil"`
	QuotedAt      time.Time `json:"quotedAt"`
}
