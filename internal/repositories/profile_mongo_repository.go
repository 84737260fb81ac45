package repositories

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"unityhub/internal/models"
)

// MongoProfileRepository is a MongoDB implementation of ProfileRepository
// backed by the profiles collection. There is no uniqueness constraint on
// userId; one-profile-per-user is enforced only by the read-then-write flow
// in the service layer.
type MongoProfileRepository struct {
	collection *mongo.Collection
}

// NewMongoProfileRepository creates a new instance of MongoProfileRepository.
func NewMongoProfileRepository(db *mongo.Database) *MongoProfileRepository {
	return &MongoProfileRepository{
		collection: db.Collection("profiles"),
	}
}

// Create inserts a new profile and fills in its ID and timestamps.
func (r *MongoProfileRepository) Create(ctx context.Context, profile *models.Profile) error {
	now := time.Now()
	profile.CreatedAt = now
	profile.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, profile)
	if err != nil {
		return fmt.Errorf("failed to create profile: %w", err)
	}
	profile.ID = result.InsertedID.(primitive.ObjectID)
	return nil
}

// GetByUserID retrieves the profile owned by a user. Returns (nil, nil) when
// the user has no profile yet.
func (r *MongoProfileRepository) GetByUserID(ctx context.Context, userID primitive.ObjectID) (*models.Profile, error) {
	var profile models.Profile
	if err := r.collection.FindOne(ctx, bson.M{"userId": userID}).Decode(&profile); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return &profile, nil
}

// GetByUserIDs fetches profiles for a set of users, keyed by owning user ID.
// Users without a profile are simply absent from the result.
func (r *MongoProfileRepository) GetByUserIDs(ctx context.Context, userIDs []primitive.ObjectID) (map[primitive.ObjectID]models.Profile, error) {
	profiles := make(map[primitive.ObjectID]models.Profile, len(userIDs))
	if len(userIDs) == 0 {
		return profiles, nil
	}

	cursor, err := r.collection.Find(ctx, bson.M{"userId": bson.M{"$in": userIDs}})
	if err != nil {
		return nil, fmt.Errorf("failed to query profiles: %w", err)
	}
	defer cursor.Close(ctx)

	var results []models.Profile
	if err := cursor.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("failed to decode profiles: %w", err)
	}
	for _, profile := range results {
		profiles[profile.UserID] = profile
	}
	return profiles, nil
}

// Update replaces the user-settable fields of an existing profile and returns
// the updated document.
func (r *MongoProfileRepository) Update(ctx context.Context, userID primitive.ObjectID, input *models.Profile) (*models.Profile, error) {
	update := bson.M{
		"$set": bson.M{
			"displayName": input.DisplayName,
			"bio":         input.Bio,
			"country":     input.Country,
			"interests":   input.Interests,
			"avatarUrl":   input.AvatarURL,
			"updatedAt":   time.Now(),
		},
	}
	if _, err := r.collection.UpdateOne(ctx, bson.M{"userId": userID}, update); err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return r.GetByUserID(ctx, userID)
}
