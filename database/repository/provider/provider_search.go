package providerRepo

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"appointly/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const defaultSearchLimit = 50

func containsInsensitive(s string) bson.M {
	return bson.M{"$regex": regexp.QuoteMeta(s), "$options": "i"}
}

func equalsInsensitive(s string) bson.M {
	return bson.M{"$regex": "^" + regexp.QuoteMeta(s) + "$", "$options": "i"}
}

// buildSearchFilter turns search criteria into a Mongo filter.
func buildSearchFilter(c models.ProviderSearch) bson.M {
	filter := bson.M{}
	if c.Query != "" {
		filter["$or"] = bson.A{
			bson.M{"businessName": containsInsensitive(c.Query)},
			bson.M{"description": containsInsensitive(c.Query)},
		}
	}
	if c.Category != "" {
		filter["category"] = equalsInsensitive(c.Category)
	}
	if c.City != "" {
		filter["city"] = equalsInsensitive(c.City)
	}
	if c.Service != "" {
		filter["services"] = bson.M{"$elemMatch": bson.M{
			"name":   containsInsensitive(c.Service),
			"active": true,
		}}
	}
	if c.MinRating > 0 {
		filter["rating"] = bson.M{"$gte": c.MinRating}
	}
	if c.Verified != nil {
		filter["verified"] = *c.Verified
	}
	return filter
}

func (r *MongoProviderRepo) Search(ctx context.Context, criteria models.ProviderSearch) ([]models.Provider, error) {
	ctx, cancel := newContext(ctx, 10*time.Second)
	defer cancel()

	limit := criteria.Limit
	if limit <= 0 || limit > 200 {
		limit = defaultSearchLimit
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "verified", Value: -1}, {Key: "rating", Value: -1}, {Key: "businessName", Value: 1}}).
		SetLimit(limit).
		SetSkip(criteria.Skip)

	cursor, err := r.coll.Find(ctx, buildSearchFilter(criteria), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to search providers: %w", err)
	}
	defer cursor.Close(ctx)

	providers := []models.Provider{}
	if err := cursor.All(ctx, &providers); err != nil {
		return nil, fmt.Errorf("failed to decode providers: %w", err)
	}
	return providers, nil
}
