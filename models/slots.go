package models

import "time"

// DayOfWeek names a weekday the way working-hour templates store it.
type DayOfWeek string

const (
	Monday    DayOfWeek = "monday"
	Tuesday   DayOfWeek = "tuesday"
	Wednesday DayOfWeek = "wednesday"
	Thursday  DayOfWeek = "thursday"
	Friday    DayOfWeek = "friday"
	Saturday  DayOfWeek = "saturday"
	Sunday    DayOfWeek = "sunday"
)

var weekdayNames = map[time.Weekday]DayOfWeek{
	time.Monday:    Monday,
	time.Tuesday:   Tuesday,
	time.Wednesday: Wednesday,
	time.Thursday:  Thursday,
	time.Friday:    Friday,
	time.Saturday:  Saturday,
	time.Sunday:    Sunday,
}

// DayOfWeekFor maps a time.Weekday onto the stored day name.
func DayOfWeekFor(d time.Weekday) DayOfWeek {
	return weekdayNames[d]
}

// Valid reports whether d is one of the seven known day names.
func (d DayOfWeek) Valid() bool {
	for _, name := range weekdayNames {
		if name == d {
			return true
		}
	}
	return false
}

// WorkingDayTemplate is a provider's recurring hours for one weekday.
type WorkingDayTemplate struct {
	Day       DayOfWeek `bson:"day" json:"day"`
	StartTime string    `bson:"startTime" json:"startTime"` // "HH:MM"
	EndTime   string    `bson:"endTime" json:"endTime"`     // "HH:MM"
	Available bool      `bson:"available" json:"available"`
}

// BlockedDate marks a calendar date on which the provider takes no bookings.
type BlockedDate struct {
	Date   string `bson:"date" json:"date"` // "YYYY-MM-DD"
	Reason string `bson:"reason,omitempty" json:"reason,omitempty"`
}

// TimeSlot is a derived, bookable window. It is computed per request and never stored.
type TimeSlot struct {
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	Booked    bool   `json:"booked"`
}

// DateLayout is the calendar date format used by bookings and blocked dates.
const DateLayout = "2006-01-02"

// ClockLayout is the wall-clock format used by templates and bookings.
const ClockLayout = "15:04"
