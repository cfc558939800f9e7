package admin

import (
	"context"
	"fmt"

	"appointly/models"

	"go.uber.org/zap"
)

const maxListLimit = 100

func clampPage(limit, skip int64) (int64, int64) {
	if limit <= 0 || limit > maxListLimit {
		limit = maxListLimit
	}
	if skip < 0 {
		skip = 0
	}
	return limit, skip
}

// Stats collects the dashboard counters. Each figure is read independently,
// so the snapshot is not transactional.
func (a *DefaultAdminService) Stats(ctx context.Context) (*models.DashboardStats, error) {
	users, err := a.Users.CountByRole(ctx)
	if err != nil {
		a.logger().Error("Stats: failed to count users", zap.Error(err))
		return nil, fmt.Errorf("failed to count users: %w", err)
	}
	providers, err := a.Providers.Count(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("failed to count providers: %w", err)
	}
	verified, err := a.Providers.Count(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("failed to count verified providers: %w", err)
	}
	bookings, err := a.Bookings.CountByStatus(ctx)
	if err != nil {
		a.logger().Error("Stats: failed to count bookings", zap.Error(err))
		return nil, fmt.Errorf("failed to count bookings: %w", err)
	}
	revenue, refunded, err := a.Bookings.PaymentTotals(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to total payments: %w", err)
	}

	return &models.DashboardStats{
		UsersByRole:       users,
		Providers:         providers,
		VerifiedProviders: verified,
		BookingsByStatus:  bookings,
		Revenue:           revenue,
		Refunded:          refunded,
		GeneratedAt:       a.now().UTC(),
	}, nil
}

func (a *DefaultAdminService) ListUsers(ctx context.Context, role string, limit, skip int64) ([]models.User, error) {
	switch role {
	case "", models.RoleCustomer, models.RoleProvider, models.RoleAdmin:
	default:
		return nil, fmt.Errorf("unknown role %q", role)
	}
	limit, skip = clampPage(limit, skip)
	return a.Users.List(ctx, role, limit, skip)
}

func (a *DefaultAdminService) ListProviders(ctx context.Context, criteria models.ProviderSearch) ([]models.Provider, error) {
	criteria.Limit, criteria.Skip = clampPage(criteria.Limit, criteria.Skip)
	return a.Providers.Search(ctx, criteria)
}

func (a *DefaultAdminService) ListBookings(ctx context.Context, filter models.BookingFilter) ([]models.Booking, error) {
	if filter.Status != "" && !models.ValidBookingStatus(filter.Status) {
		return nil, fmt.Errorf("unknown booking status %q", filter.Status)
	}
	filter.Limit, filter.Skip = clampPage(filter.Limit, filter.Skip)
	return a.Bookings.List(ctx, filter)
}
