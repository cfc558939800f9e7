package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"appointly/database/repository"
	"appointly/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Register creates the caller's provider profile and promotes the caller to
// the provider role. The profile starts with an empty catalogue and no
// working hours, so it has no slots until the owner sets them.
func (s *DefaultProviderService) Register(ctx context.Context, ownerID string, req models.ProviderRegistration) (*models.Provider, error) {
	if ownerID == "" {
		return nil, invalid("owner is required")
	}
	if strings.TrimSpace(req.BusinessName) == "" || strings.TrimSpace(req.Category) == "" || strings.TrimSpace(req.City) == "" {
		return nil, invalid("business name, category and city are required")
	}

	tz := strings.TrimSpace(req.Timezone)
	if tz == "" {
		tz = s.DefaultTimezone
	}
	if tz == "" {
		tz = "UTC"
	}
	if _, err := time.LoadLocation(tz); err != nil {
		return nil, invalid("unknown timezone %q", tz)
	}

	existing, err := s.Repo.GetByOwnerID(ctx, ownerID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to check existing provider: %w", err)
	}
	if existing != nil {
		return nil, ErrAlreadyRegistered
	}

	p := &models.Provider{
		ID:           uuid.New().String(),
		OwnerID:      ownerID,
		BusinessName: strings.TrimSpace(req.BusinessName),
		Category:     strings.ToLower(strings.TrimSpace(req.Category)),
		Description:  strings.TrimSpace(req.Description),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:        strings.TrimSpace(req.Phone),
		Address:      strings.TrimSpace(req.Address),
		City:         strings.TrimSpace(req.City),
		Timezone:     tz,
		Services:     []models.Service{},
		WorkingHours: []models.WorkingDayTemplate{},
		BlockedDates: []models.BlockedDate{},
	}
	if err := s.Repo.CreateForOwner(ctx, p); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			return nil, ErrAlreadyRegistered
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrOwnerNotFound
		}
		s.logger().Error("Provider registration failed", zap.String("ownerId", ownerID), zap.Error(err))
		return nil, fmt.Errorf("failed to register provider: %w", err)
	}

	s.logger().Info("Provider registered", zap.String("providerId", p.ID), zap.String("ownerId", ownerID))
	return p, nil
}
