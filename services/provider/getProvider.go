package provider

import (
	"context"
	"fmt"
	"strings"

	"appointly/models"
)

const (
	defaultSearchLimit = 20
	maxSearchLimit     = 100
)

func (s *DefaultProviderService) GetByID(ctx context.Context, id string) (*models.Provider, error) {
	p, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapLoadError(err)
	}
	return p, nil
}

func (s *DefaultProviderService) GetByOwnerID(ctx context.Context, ownerID string) (*models.Provider, error) {
	p, err := s.Repo.GetByOwnerID(ctx, ownerID)
	if err != nil {
		return nil, mapLoadError(err)
	}
	return p, nil
}

// Search normalizes the filters and pages the public listing.
func (s *DefaultProviderService) Search(ctx context.Context, criteria models.ProviderSearch) ([]models.Provider, error) {
	criteria.Query = strings.TrimSpace(criteria.Query)
	criteria.Category = strings.ToLower(strings.TrimSpace(criteria.Category))
	criteria.City = strings.TrimSpace(criteria.City)
	criteria.Service = strings.TrimSpace(criteria.Service)
	if criteria.MinRating < 0 || criteria.MinRating > 5 {
		return nil, invalid("minRating must be between 0 and 5")
	}
	if criteria.Limit <= 0 {
		criteria.Limit = defaultSearchLimit
	}
	if criteria.Limit > maxSearchLimit {
		criteria.Limit = maxSearchLimit
	}
	if criteria.Skip < 0 {
		criteria.Skip = 0
	}

	providers, err := s.Repo.Search(ctx, criteria)
	if err != nil {
		return nil, fmt.Errorf("failed to search providers: %w", err)
	}
	return providers, nil
}
