package provider

import (
	"context"
	"fmt"
	"strings"
	"time"

	"appointly/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

func (s *DefaultProviderService) save(ctx context.Context, p *models.Provider) (*models.Provider, error) {
	if err := s.Repo.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to save provider: %w", err)
	}
	return p, nil
}

// UpdateProfile applies the non-nil fields of upd to the caller's provider.
func (s *DefaultProviderService) UpdateProfile(ctx context.Context, ownerID string, upd models.ProviderUpdate) (*models.Provider, error) {
	p, err := s.GetByOwnerID(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	set := func(dst *string, v *string, required bool, field string) error {
		if v == nil {
			return nil
		}
		trimmed := strings.TrimSpace(*v)
		if required && trimmed == "" {
			return invalid("%s cannot be empty", field)
		}
		*dst = trimmed
		return nil
	}
	if err := set(&p.BusinessName, upd.BusinessName, true, "businessName"); err != nil {
		return nil, err
	}
	if err := set(&p.Category, upd.Category, true, "category"); err != nil {
		return nil, err
	}
	p.Category = strings.ToLower(p.Category)
	if err := set(&p.Description, upd.Description, false, "description"); err != nil {
		return nil, err
	}
	if err := set(&p.Email, upd.Email, true, "email"); err != nil {
		return nil, err
	}
	p.Email = strings.ToLower(p.Email)
	if err := set(&p.Phone, upd.Phone, true, "phone"); err != nil {
		return nil, err
	}
	if err := set(&p.Address, upd.Address, false, "address"); err != nil {
		return nil, err
	}
	if err := set(&p.City, upd.City, true, "city"); err != nil {
		return nil, err
	}
	if upd.Timezone != nil {
		tz := strings.TrimSpace(*upd.Timezone)
		if _, err := time.LoadLocation(tz); err != nil || tz == "" {
			return nil, invalid("unknown timezone %q", tz)
		}
		// Existing bookings keep the zone they were made in.
		p.Timezone = tz
	}

	return s.save(ctx, p)
}

// SetVerified marks a provider as vetted by an admin.
func (s *DefaultProviderService) SetVerified(ctx context.Context, providerID string, verified bool) (*models.Provider, error) {
	if err := s.Repo.UpdateWithDocument(ctx, providerID, bson.M{"$set": bson.M{"verified": verified}}); err != nil {
		return nil, mapLoadError(err)
	}
	s.logger().Info("Provider verification changed", zap.String("providerId", providerID), zap.Bool("verified", verified))
	return s.GetByID(ctx, providerID)
}
