package userRepo

import (
	"context"

	"appointly/models"
)

// UserRepository defines methods for user data access.
type UserRepository interface {
	// Create inserts a new user record. Taken emails fail with repository.ErrDuplicate.
	Create(ctx context.Context, user *models.User) error
	// GetByID retrieves a user by its unique ID.
	GetByID(ctx context.Context, id string) (*models.User, error)
	// GetByEmail retrieves a user by its email address.
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	// Update modifies an existing user record.
	Update(ctx context.Context, user *models.User) error
	// List returns users, optionally of one role.
	List(ctx context.Context, role string, limit, skip int64) ([]models.User, error)
	// CountByRole groups all users by role.
	CountByRole(ctx context.Context) (map[string]int64, error)
}
