package provider

import (
	"context"
	"fmt"
	"io"

	"appointly/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

// UploadProfileImage stores the image under the provider's ID, replacing any
// earlier one, and records the returned URL.
func (s *DefaultProviderService) UploadProfileImage(ctx context.Context, ownerID string, image io.Reader) (*models.Provider, error) {
	if s.Images == nil {
		return nil, ErrStorageDisabled
	}
	p, err := s.GetByOwnerID(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	url, err := s.Images.UploadImage(ctx, image, profileImageFolder, p.ID)
	if err != nil {
		s.logger().Error("Profile image upload failed", zap.String("providerId", p.ID), zap.Error(err))
		return nil, fmt.Errorf("failed to upload image: %w", err)
	}
	if err := s.Repo.UpdateWithDocument(ctx, p.ID, bson.M{"$set": bson.M{"profileImage": url}}); err != nil {
		return nil, fmt.Errorf("failed to save image url: %w", err)
	}
	p.ProfileImage = url
	return p, nil
}
