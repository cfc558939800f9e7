package bookingRepo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ensureIndexes creates indexes for frequently used fields in queries.
func (r *MongoBookingRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Only bookings that hold their slot take part in the uniqueness check,
	// so a cancelled booking frees the time for a new one.
	slotIdx := mongo.IndexModel{
		Keys: bson.D{
			{Key: "providerId", Value: 1},
			{Key: "appointmentDate", Value: 1},
			{Key: "startTime", Value: 1},
		},
		Options: options.Index().
			SetName("unique_active_slot").
			SetUnique(true).
			SetPartialFilterExpression(bson.M{"slotHeld": true}),
	}
	paymentRefIdx := mongo.IndexModel{
		Keys: bson.D{{Key: "payment.reference", Value: 1}},
		Options: options.Index().SetPartialFilterExpression(bson.M{
			"payment.reference": bson.M{"$type": "string"},
		}),
	}

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "customerId", Value: 1}, {Key: "appointmentDate", Value: -1}}},
		{Keys: bson.D{{Key: "providerId", Value: 1}, {Key: "appointmentDate", Value: -1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
		slotIdx,
		paymentRefIdx,
	}
	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}
