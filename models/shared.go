package models

import "time"

// ReminderPayload is the body of an appointment reminder task.
type ReminderPayload struct {
	BookingID       string `json:"bookingId"`
	AppointmentDate string `json:"appointmentDate"`
	StartTime       string `json:"startTime"`
	FireDate        string `json:"fireDate"` // RFC3339, informational
}

// DashboardStats is the admin overview.
type DashboardStats struct {
	UsersByRole       map[string]int64 `json:"usersByRole"`
	Providers         int64            `json:"providers"`
	VerifiedProviders int64            `json:"verifiedProviders"`
	BookingsByStatus  map[string]int64 `json:"bookingsByStatus"`
	Revenue           float64          `json:"revenue"` // sum of succeeded payments
	Refunded          float64          `json:"refunded"`
	GeneratedAt       time.Time        `json:"generatedAt"`
}
