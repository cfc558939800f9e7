package provider

import (
	"errors"
	"fmt"

	"appointly/database/repository"
)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

func mapLoadError(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrProviderNotFound
	}
	return fmt.Errorf("failed to load provider: %w", err)
}
