// Package repository holds the errors shared by the Mongo repositories.
package repository

import (
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
)

var (
	// ErrNotFound is returned when no document matches.
	ErrNotFound = errors.New("document not found")
	// ErrDuplicate is returned when a unique index rejects a write.
	ErrDuplicate = errors.New("duplicate document")
	// ErrVersionConflict is returned when an optimistic update loses a race.
	ErrVersionConflict = errors.New("document was modified concurrently")
)

// MapWriteError converts driver errors into the shared sentinels.
// Unknown errors are returned as-is.
func MapWriteError(err error) error {
	if err == nil {
		return nil
	}
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	return err
}

// MapFindError converts mongo.ErrNoDocuments into ErrNotFound.
func MapFindError(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return err
}
