package provider

import (
	"context"
	"errors"
	"io"

	providerRepo "appointly/database/repository/provider"
	"appointly/models"
	"appointly/services/storage"

	"go.uber.org/zap"
)

type ProviderService interface {
	// Registration
	Register(ctx context.Context, ownerID string, req models.ProviderRegistration) (*models.Provider, error)

	// Public profile
	GetByID(ctx context.Context, id string) (*models.Provider, error)
	GetByOwnerID(ctx context.Context, ownerID string) (*models.Provider, error)
	Search(ctx context.Context, criteria models.ProviderSearch) ([]models.Provider, error)

	// Account management, always scoped to the caller's own provider
	UpdateProfile(ctx context.Context, ownerID string, upd models.ProviderUpdate) (*models.Provider, error)
	UploadProfileImage(ctx context.Context, ownerID string, image io.Reader) (*models.Provider, error)

	// Schedule
	SetWorkingHours(ctx context.Context, ownerID string, hours []models.WorkingDayTemplate) (*models.Provider, error)
	AddBlockedDate(ctx context.Context, ownerID string, blocked models.BlockedDate) (*models.Provider, error)
	RemoveBlockedDate(ctx context.Context, ownerID, date string) (*models.Provider, error)

	// Catalogue
	UpsertServices(ctx context.Context, ownerID string, services []models.Service) (*models.Provider, error)

	// Admin
	SetVerified(ctx context.Context, providerID string, verified bool) (*models.Provider, error)
}

// DefaultProviderService is the production implementation.
type DefaultProviderService struct {
	Repo            providerRepo.ProviderRepository
	Images          storage.ImageStore // optional; image upload fails without it
	DefaultTimezone string
	Logger          *zap.Logger
}

func NewDefaultProviderService(repo providerRepo.ProviderRepository, images storage.ImageStore, defaultTZ string, logger *zap.Logger) *DefaultProviderService {
	return &DefaultProviderService{
		Repo:            repo,
		Images:          images,
		DefaultTimezone: defaultTZ,
		Logger:          logger,
	}
}

var (
	ErrProviderNotFound  = errors.New("provider not found")
	ErrAlreadyRegistered = errors.New("user already has a provider profile")
	ErrOwnerNotFound     = errors.New("owner account not found")
	ErrInvalidInput      = errors.New("invalid provider data")
	ErrBlockedDateAbsent = errors.New("date is not blocked")
	ErrStorageDisabled   = errors.New("image storage is not configured")
)

const profileImageFolder = "appointly/providers"

func (s *DefaultProviderService) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}
