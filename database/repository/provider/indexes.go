package providerRepo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ensureIndexes creates indexes for frequently used fields in queries.
func (r *MongoProviderRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Partial index: only providers with at least one active service show up in searches.
	activeServiceIdx := mongo.IndexModel{
		Keys: bson.D{{Key: "services.name", Value: 1}},
		Options: options.Index().SetPartialFilterExpression(bson.M{
			"services.active": true,
		}),
	}
	searchIdx := mongo.IndexModel{
		Keys: bson.D{
			{Key: "category", Value: 1},
			{Key: "city", Value: 1},
			{Key: "verified", Value: -1},
			{Key: "rating", Value: -1},
		},
	}

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "ownerId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		activeServiceIdx,
		searchIdx,
	}
	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}
