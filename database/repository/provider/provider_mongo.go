package providerRepo

import (
	"context"
	"fmt"
	"time"

	"appointly/database"
	"appointly/database/repository"
	"appointly/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoProviderRepo implements ProviderRepository using MongoDB.
type MongoProviderRepo struct {
	coll      *mongo.Collection
	usersColl *mongo.Collection
}

// NewMongoProviderRepo creates a new instance of ProviderRepository using MongoDB.
func NewMongoProviderRepo() ProviderRepository {
	db := database.Database()
	repo := &MongoProviderRepo{
		coll:      db.Collection("providers"),
		usersColl: db.Collection("users"),
	}
	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create provider indexes: %v\n", err)
	}
	return repo
}

// NewMongoProviderRepoWithCollections wraps existing collections without touching indexes.
func NewMongoProviderRepoWithCollections(providers, users *mongo.Collection) *MongoProviderRepo {
	return &MongoProviderRepo{coll: providers, usersColl: users}
}

func newContext(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, timeout)
}

func (r *MongoProviderRepo) CreateForOwner(ctx context.Context, provider *models.Provider) error {
	ctx, cancel := newContext(ctx, 10*time.Second)
	defer cancel()

	now := time.Now()
	provider.CreatedAt = now
	provider.UpdatedAt = now

	sess, err := r.coll.Database().Client().StartSession()
	if err != nil {
		return fmt.Errorf("could not start mongo session: %w", err)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		if _, err := r.coll.InsertOne(sc, provider); err != nil {
			return nil, fmt.Errorf("insert provider failed: %w", repository.MapWriteError(err))
		}
		res, err := r.usersColl.UpdateOne(sc,
			bson.M{"id": provider.OwnerID},
			bson.M{"$set": bson.M{"role": models.RoleProvider, "updatedAt": now}},
		)
		if err != nil {
			return nil, fmt.Errorf("promote owner failed: %w", err)
		}
		if res.MatchedCount == 0 {
			return nil, fmt.Errorf("promote owner %s: %w", provider.OwnerID, repository.ErrNotFound)
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("provider registration transaction failed: %w", err)
	}
	return nil
}

func (r *MongoProviderRepo) findOne(ctx context.Context, filter bson.M) (*models.Provider, error) {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	var p models.Provider
	if err := r.coll.FindOne(ctx, filter).Decode(&p); err != nil {
		return nil, repository.MapFindError(err)
	}
	return &p, nil
}

func (r *MongoProviderRepo) GetByID(ctx context.Context, id string) (*models.Provider, error) {
	p, err := r.findOne(ctx, bson.M{"id": id})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch provider with id %s: %w", id, err)
	}
	return p, nil
}

func (r *MongoProviderRepo) GetByOwnerID(ctx context.Context, ownerID string) (*models.Provider, error) {
	p, err := r.findOne(ctx, bson.M{"ownerId": ownerID})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch provider for owner %s: %w", ownerID, err)
	}
	return p, nil
}

func (r *MongoProviderRepo) Update(ctx context.Context, provider *models.Provider) error {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	provider.UpdatedAt = time.Now()
	res, err := r.coll.ReplaceOne(ctx, bson.M{"id": provider.ID}, provider)
	if err != nil {
		return fmt.Errorf("failed to update provider %s: %w", provider.ID, repository.MapWriteError(err))
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("failed to update provider %s: %w", provider.ID, repository.ErrNotFound)
	}
	return nil
}

func (r *MongoProviderRepo) UpdateWithDocument(ctx context.Context, id string, updateDoc bson.M) error {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	set, _ := updateDoc["$set"].(bson.M)
	if set == nil {
		set = bson.M{}
		updateDoc["$set"] = set
	}
	set["updatedAt"] = time.Now()

	res, err := r.coll.UpdateOne(ctx, bson.M{"id": id}, updateDoc)
	if err != nil {
		return fmt.Errorf("failed to patch provider %s: %w", id, repository.MapWriteError(err))
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("failed to patch provider %s: %w", id, repository.ErrNotFound)
	}
	return nil
}

func (r *MongoProviderRepo) Count(ctx context.Context, verifiedOnly bool) (int64, error) {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{}
	if verifiedOnly {
		filter["verified"] = true
	}
	n, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to count providers: %w", err)
	}
	return n, nil
}
