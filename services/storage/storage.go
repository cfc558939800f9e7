// Package storage keeps provider media on Cloudinary.
package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// ImageStore uploads and removes images.
type ImageStore interface {
	// UploadImage stores the image under folder/publicID and returns its HTTPS URL.
	UploadImage(ctx context.Context, file io.Reader, folder, publicID string) (string, error)
	DeleteImage(ctx context.Context, folder, publicID string) error
}

// CloudinaryStore implements ImageStore.
type CloudinaryStore struct {
	cld *cloudinary.Cloudinary
}

// NewCloudinaryStore builds a store from account credentials.
func NewCloudinaryStore(cloudName, apiKey, apiSecret string) (*CloudinaryStore, error) {
	if cloudName == "" || apiKey == "" || apiSecret == "" {
		return nil, fmt.Errorf("cloudinary credentials not set in configuration")
	}
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cloudinary: %w", err)
	}
	cld.Config.URL.Secure = true
	return &CloudinaryStore{cld: cld}, nil
}

// NewCloudinaryStoreWithClient wraps an existing client.
func NewCloudinaryStoreWithClient(cld *cloudinary.Cloudinary) *CloudinaryStore {
	return &CloudinaryStore{cld: cld}
}

func (s *CloudinaryStore) UploadImage(ctx context.Context, file io.Reader, folder, publicID string) (string, error) {
	result, err := s.cld.Upload.Upload(ctx, file, uploader.UploadParams{
		Folder:         folder,
		PublicID:       publicID,
		Overwrite:      api.Bool(true),
		Invalidate:     api.Bool(true),
		Transformation: "c_fill,w_400,h_400",
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload image: %w", err)
	}
	if result.Error.Message != "" {
		return "", fmt.Errorf("cloudinary rejected upload: %s", result.Error.Message)
	}
	if result.SecureURL == "" {
		return "", fmt.Errorf("cloudinary returned no URL")
	}
	return result.SecureURL, nil
}

func (s *CloudinaryStore) DeleteImage(ctx context.Context, folder, publicID string) error {
	full := publicID
	if folder != "" {
		full = folder + "/" + publicID
	}
	result, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: full, Invalidate: api.Bool(true)})
	if err != nil {
		return fmt.Errorf("failed to delete image: %w", err)
	}
	if result.Error.Message != "" {
		return fmt.Errorf("cloudinary rejected delete: %s", result.Error.Message)
	}
	return nil
}
