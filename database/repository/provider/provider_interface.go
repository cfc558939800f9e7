package providerRepo

import (
	"context"

	"appointly/models"

	"go.mongodb.org/mongo-driver/bson"
)

// ProviderRepository defines methods for provider data access.
type ProviderRepository interface {
	// CreateForOwner inserts the provider and promotes its owner to the
	// provider role in one transaction.
	CreateForOwner(ctx context.Context, provider *models.Provider) error
	// GetByID retrieves a provider by its unique ID.
	GetByID(ctx context.Context, id string) (*models.Provider, error)
	// GetByOwnerID retrieves the provider registered by a user.
	GetByOwnerID(ctx context.Context, ownerID string) (*models.Provider, error)
	// Update replaces an existing provider record.
	Update(ctx context.Context, provider *models.Provider) error
	// UpdateWithDocument patches a provider document with the specified update document.
	UpdateWithDocument(ctx context.Context, id string, updateDoc bson.M) error
	// Search runs the public provider search.
	Search(ctx context.Context, criteria models.ProviderSearch) ([]models.Provider, error)
	// Count returns the number of providers, optionally only verified ones.
	Count(ctx context.Context, verifiedOnly bool) (int64, error)
}
