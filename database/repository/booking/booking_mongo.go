package bookingRepo

import (
	"context"
	"fmt"
	"time"

	"appointly/database"
	"appointly/database/repository"
	"appointly/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const defaultListLimit = 100

// MongoBookingRepo implements BookingRepository using MongoDB.
type MongoBookingRepo struct {
	coll *mongo.Collection
}

// NewMongoBookingRepo creates a BookingRepository backed by the "bookings" collection.
func NewMongoBookingRepo() BookingRepository {
	repo := &MongoBookingRepo{coll: database.Database().Collection("bookings")}
	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create booking indexes: %v\n", err)
	}
	return repo
}

// NewMongoBookingRepoWithCollection wraps an existing collection without touching indexes.
func NewMongoBookingRepoWithCollection(coll *mongo.Collection) *MongoBookingRepo {
	return &MongoBookingRepo{coll: coll}
}

// newContext bounds a repository call.
func newContext(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, timeout)
}

func (r *MongoBookingRepo) Create(ctx context.Context, booking *models.Booking) error {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	now := time.Now()
	if booking.CreatedAt.IsZero() {
		booking.CreatedAt = now
	}
	if booking.UpdatedAt.IsZero() {
		booking.UpdatedAt = now
	}
	booking.SlotHeld = models.HoldsSlot(booking.Status)

	if _, err := r.coll.InsertOne(ctx, booking); err != nil {
		return fmt.Errorf("failed to create booking: %w", repository.MapWriteError(err))
	}
	return nil
}

func (r *MongoBookingRepo) findOne(ctx context.Context, filter bson.M) (*models.Booking, error) {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	var b models.Booking
	if err := r.coll.FindOne(ctx, filter).Decode(&b); err != nil {
		return nil, repository.MapFindError(err)
	}
	return &b, nil
}

func (r *MongoBookingRepo) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	b, err := r.findOne(ctx, bson.M{"id": id})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch booking with id %s: %w", id, err)
	}
	return b, nil
}

func (r *MongoBookingRepo) GetByPaymentReference(ctx context.Context, reference string) (*models.Booking, error) {
	b, err := r.findOne(ctx, bson.M{"payment.reference": reference})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch booking with payment reference %s: %w", reference, err)
	}
	return b, nil
}

func (r *MongoBookingRepo) Update(ctx context.Context, booking *models.Booking) error {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	expected := booking.Version
	booking.Version = expected + 1
	booking.SlotHeld = models.HoldsSlot(booking.Status)

	filter := bson.M{"id": booking.ID, "version": expected}
	res, err := r.coll.ReplaceOne(ctx, filter, booking)
	if err != nil {
		booking.Version = expected
		return fmt.Errorf("failed to update booking %s: %w", booking.ID, repository.MapWriteError(err))
	}
	if res.MatchedCount == 0 {
		booking.Version = expected
		return fmt.Errorf("failed to update booking %s: %w", booking.ID, repository.ErrVersionConflict)
	}
	return nil
}

func activeSlotFilter(providerID, date string) bson.M {
	return bson.M{
		"providerId":      providerID,
		"appointmentDate": date,
		"status":          bson.M{"$in": models.ActiveBookingStatuses},
	}
}

func (r *MongoBookingRepo) ExistsActiveAt(ctx context.Context, providerID, date, startTime, excludeID string) (bool, error) {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	filter := activeSlotFilter(providerID, date)
	filter["startTime"] = startTime
	if excludeID != "" {
		filter["id"] = bson.M{"$ne": excludeID}
	}

	opts := options.FindOne().SetProjection(bson.M{"id": 1})
	err := r.coll.FindOne(ctx, filter, opts).Err()
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check slot %s %s for provider %s: %w", date, startTime, providerID, err)
	}
	return true, nil
}

func (r *MongoBookingRepo) ActiveStartTimes(ctx context.Context, providerID, date string) ([]string, error) {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	values, err := r.coll.Distinct(ctx, "startTime", activeSlotFilter(providerID, date))
	if err != nil {
		return nil, fmt.Errorf("failed to list booked times for provider %s: %w", providerID, err)
	}
	starts := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok {
			starts = append(starts, s)
		}
	}
	return starts, nil
}

func (r *MongoBookingRepo) List(ctx context.Context, f models.BookingFilter) ([]models.Booking, error) {
	ctx, cancel := newContext(ctx, 10*time.Second)
	defer cancel()

	filter := bson.M{}
	if f.CustomerID != "" {
		filter["customerId"] = f.CustomerID
	}
	if f.ProviderID != "" {
		filter["providerId"] = f.ProviderID
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.Date != "" {
		filter["appointmentDate"] = f.Date
	}

	limit := f.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "appointmentDate", Value: -1}, {Key: "startTime", Value: -1}}).
		SetLimit(limit).
		SetSkip(f.Skip)

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer cursor.Close(ctx)

	bookings := []models.Booking{}
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode bookings: %w", err)
	}
	return bookings, nil
}

func (r *MongoBookingRepo) CountByStatus(ctx context.Context) (map[string]int64, error) {
	ctx, cancel := newContext(ctx, 10*time.Second)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$status"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}
	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to count bookings by status: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Status string `bson:"_id"`
		Count  int64  `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode booking counts: %w", err)
	}
	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

func (r *MongoBookingRepo) PaymentTotals(ctx context.Context) (float64, float64, error) {
	ctx, cancel := newContext(ctx, 10*time.Second)
	defer cancel()

	sumIf := func(field, value, amount string) bson.D {
		return bson.D{{Key: "$sum", Value: bson.D{{Key: "$cond", Value: bson.A{
			bson.D{{Key: "$eq", Value: bson.A{field, value}}},
			amount,
			0,
		}}}}}
	}
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "revenue", Value: sumIf("$payment.status", models.PaymentStatusSucceeded, "$payment.amount")},
			{Key: "refunded", Value: sumIf("$cancellation.refundStatus", models.RefundStatusProcessed, "$cancellation.refundAmount")},
		}}},
	}
	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to sum payments: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Revenue  float64 `bson:"revenue"`
		Refunded float64 `bson:"refunded"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return 0, 0, fmt.Errorf("failed to decode payment totals: %w", err)
	}
	if len(rows) == 0 {
		return 0, 0, nil
	}
	return rows[0].Revenue, rows[0].Refunded, nil
}
