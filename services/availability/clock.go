package availability

import (
	"fmt"
	"time"

	"appointly/models"
)

// ParseClock converts an "HH:MM" wall-clock string into minutes since midnight.
func ParseClock(hhmm string) (int, error) {
	t, err := time.Parse(models.ClockLayout, hhmm)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q: expected HH:MM", hhmm)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// FormatClock renders minutes since midnight as "HH:MM".
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// AddMinutes shifts an "HH:MM" value forward. The result must stay within the same day.
func AddMinutes(hhmm string, delta int) (string, error) {
	m, err := ParseClock(hhmm)
	if err != nil {
		return "", err
	}
	out := m + delta
	if out < 0 || out > 24*60-1 {
		return "", fmt.Errorf("time %s plus %d minutes leaves the day", hhmm, delta)
	}
	return FormatClock(out), nil
}

// ParseDate parses a "YYYY-MM-DD" calendar date at midnight UTC.
func ParseDate(date string) (time.Time, error) {
	d, err := time.Parse(models.DateLayout, date)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", date)
	}
	return d, nil
}
