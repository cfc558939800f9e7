// Package availability turns a provider's weekly template and blocked dates
// into bookable slots. Everything here is pure and recomputed on every call.
package availability

import (
	"time"

	"appointly/models"
)

// TemplateFor returns the working-day template for the weekday of date.
func TemplateFor(templates []models.WorkingDayTemplate, date time.Time) (models.WorkingDayTemplate, bool) {
	day := models.DayOfWeekFor(date.Weekday())
	for _, tpl := range templates {
		if tpl.Day == day {
			return tpl, true
		}
	}
	return models.WorkingDayTemplate{}, false
}

// IsBlocked reports whether date appears in the blocked list.
func IsBlocked(blocked []models.BlockedDate, date time.Time) bool {
	key := date.Format(models.DateLayout)
	for _, b := range blocked {
		if b.Date == key {
			return true
		}
	}
	return false
}

// ComputeSlots lists the slots of slotMinutes length that fit inside the
// working hours of date. A trailing window shorter than slotMinutes is dropped.
// No template, an unavailable day, a blocked date or malformed hours all yield
// an empty list.
func ComputeSlots(templates []models.WorkingDayTemplate, blocked []models.BlockedDate, date time.Time, slotMinutes int) []models.TimeSlot {
	if slotMinutes <= 0 {
		return []models.TimeSlot{}
	}
	tpl, ok := TemplateFor(templates, date)
	if !ok || !tpl.Available || IsBlocked(blocked, date) {
		return []models.TimeSlot{}
	}
	start, err := ParseClock(tpl.StartTime)
	if err != nil {
		return []models.TimeSlot{}
	}
	end, err := ParseClock(tpl.EndTime)
	if err != nil || end <= start {
		return []models.TimeSlot{}
	}

	slots := make([]models.TimeSlot, 0, (end-start)/slotMinutes)
	for t := start; t+slotMinutes <= end; t += slotMinutes {
		slots = append(slots, models.TimeSlot{
			StartTime: FormatClock(t),
			EndTime:   FormatClock(t + slotMinutes),
		})
	}
	return slots
}

// IsAvailableAt reports whether the provider works at hhmm on date.
// Working hours are half-open: the end time itself is not bookable.
// A missing template means unavailable.
func IsAvailableAt(templates []models.WorkingDayTemplate, blocked []models.BlockedDate, date time.Time, hhmm string) bool {
	tpl, ok := TemplateFor(templates, date)
	if !ok || !tpl.Available || IsBlocked(blocked, date) {
		return false
	}
	t, err := ParseClock(hhmm)
	if err != nil {
		return false
	}
	start, err := ParseClock(tpl.StartTime)
	if err != nil {
		return false
	}
	end, err := ParseClock(tpl.EndTime)
	if err != nil {
		return false
	}
	return start <= t && t < end
}

// MarkBooked flags the slots whose start time is in bookedStarts.
func MarkBooked(slots []models.TimeSlot, bookedStarts []string) []models.TimeSlot {
	if len(bookedStarts) == 0 {
		return slots
	}
	taken := make(map[string]struct{}, len(bookedStarts))
	for _, s := range bookedStarts {
		taken[s] = struct{}{}
	}
	for i := range slots {
		if _, ok := taken[slots[i].StartTime]; ok {
			slots[i].Booked = true
		}
	}
	return slots
}
