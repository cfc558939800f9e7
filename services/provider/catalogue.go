package provider

import (
	"context"
	"strings"

	"appointly/models"

	"github.com/google/uuid"
)

// UpsertServices replaces the catalogue. Entries keep their ID when supplied.
// Bookings already made keep the service snapshot taken at creation.
func (s *DefaultProviderService) UpsertServices(ctx context.Context, ownerID string, services []models.Service) (*models.Provider, error) {
	seen := make(map[string]bool, len(services))
	out := make([]models.Service, 0, len(services))
	for _, svc := range services {
		svc.Name = strings.TrimSpace(svc.Name)
		if svc.Name == "" {
			return nil, invalid("service name is required")
		}
		key := strings.ToLower(svc.Name)
		if seen[key] {
			return nil, invalid("service %q appears more than once", svc.Name)
		}
		seen[key] = true
		if svc.DurationMinutes <= 0 || svc.DurationMinutes > 24*60 {
			return nil, invalid("service %q: duration must be between 1 and 1440 minutes", svc.Name)
		}
		if svc.Price < 0 {
			return nil, invalid("service %q: price cannot be negative", svc.Name)
		}
		if svc.ID == "" {
			svc.ID = uuid.New().String()
		}
		svc.Description = strings.TrimSpace(svc.Description)
		out = append(out, svc)
	}

	p, err := s.GetByOwnerID(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	p.Services = out
	return s.save(ctx, p)
}
