package admin

import (
	"context"
	"time"

	bookingRepo "appointly/database/repository/booking"
	providerRepo "appointly/database/repository/provider"
	userRepo "appointly/database/repository/user"
	"appointly/models"

	"go.uber.org/zap"
)

type AdminService interface {
	// Dashboard
	Stats(ctx context.Context) (*models.DashboardStats, error)
	ListUsers(ctx context.Context, role string, limit, skip int64) ([]models.User, error)
	ListProviders(ctx context.Context, criteria models.ProviderSearch) ([]models.Provider, error)
	ListBookings(ctx context.Context, filter models.BookingFilter) ([]models.Booking, error)

	// Published policies
	GetLegalSections() []models.LegalSection
	GetLegalSectionsFor(audience string) []models.LegalSection
}

// DefaultAdminService is the production implementation.
type DefaultAdminService struct {
	Users     userRepo.UserRepository
	Providers providerRepo.ProviderRepository
	Bookings  bookingRepo.BookingRepository
	Logger    *zap.Logger
	Now       func() time.Time
}

func (a *DefaultAdminService) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

func (a *DefaultAdminService) logger() *zap.Logger {
	if a.Logger == nil {
		return zap.NewNop()
	}
	return a.Logger
}
