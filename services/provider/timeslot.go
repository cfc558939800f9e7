package provider

import (
	"context"
	"sort"
	"strings"

	"appointly/models"
	"appointly/services/availability"
)

func validateWorkingHours(hours []models.WorkingDayTemplate) ([]models.WorkingDayTemplate, error) {
	seen := make(map[models.DayOfWeek]bool, len(hours))
	out := make([]models.WorkingDayTemplate, 0, len(hours))
	for _, h := range hours {
		h.Day = models.DayOfWeek(strings.ToLower(strings.TrimSpace(string(h.Day))))
		if !h.Day.Valid() {
			return nil, invalid("unknown day %q", h.Day)
		}
		if seen[h.Day] {
			return nil, invalid("%s appears more than once", h.Day)
		}
		seen[h.Day] = true

		if h.Available {
			start, err := availability.ParseClock(h.StartTime)
			if err != nil {
				return nil, invalid("%s: %v", h.Day, err)
			}
			end, err := availability.ParseClock(h.EndTime)
			if err != nil {
				return nil, invalid("%s: %v", h.Day, err)
			}
			if start >= end {
				return nil, invalid("%s: start time must be before end time", h.Day)
			}
			h.StartTime = availability.FormatClock(start)
			h.EndTime = availability.FormatClock(end)
		}
		out = append(out, h)
	}
	return out, nil
}

// SetWorkingHours replaces the weekly template. Days left out are closed.
// Existing bookings are not touched.
func (s *DefaultProviderService) SetWorkingHours(ctx context.Context, ownerID string, hours []models.WorkingDayTemplate) (*models.Provider, error) {
	validated, err := validateWorkingHours(hours)
	if err != nil {
		return nil, err
	}
	p, err := s.GetByOwnerID(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	p.WorkingHours = validated
	return s.save(ctx, p)
}

// AddBlockedDate blocks a date. Blocking an already blocked date updates its reason.
func (s *DefaultProviderService) AddBlockedDate(ctx context.Context, ownerID string, blocked models.BlockedDate) (*models.Provider, error) {
	d, err := availability.ParseDate(strings.TrimSpace(blocked.Date))
	if err != nil {
		return nil, invalid("%v", err)
	}
	blocked.Date = d.Format(models.DateLayout)
	blocked.Reason = strings.TrimSpace(blocked.Reason)

	p, err := s.GetByOwnerID(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	replaced := false
	for i := range p.BlockedDates {
		if p.BlockedDates[i].Date == blocked.Date {
			p.BlockedDates[i].Reason = blocked.Reason
			replaced = true
		}
	}
	if !replaced {
		p.BlockedDates = append(p.BlockedDates, blocked)
	}
	sort.Slice(p.BlockedDates, func(i, j int) bool { return p.BlockedDates[i].Date < p.BlockedDates[j].Date })
	return s.save(ctx, p)
}

// RemoveBlockedDate unblocks a date. The date is normalized the same way
// AddBlockedDate stores it.
func (s *DefaultProviderService) RemoveBlockedDate(ctx context.Context, ownerID, date string) (*models.Provider, error) {
	d, err := availability.ParseDate(strings.TrimSpace(date))
	if err != nil {
		return nil, invalid("%v", err)
	}
	date = d.Format(models.DateLayout)

	p, err := s.GetByOwnerID(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	kept := p.BlockedDates[:0]
	for _, b := range p.BlockedDates {
		if b.Date != date {
			kept = append(kept, b)
		}
	}
	if len(kept) == len(p.BlockedDates) {
		return nil, ErrBlockedDateAbsent
	}
	p.BlockedDates = kept
	return s.save(ctx, p)
}
