package repositories

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"unityhub/internal/models"
)

// MongoArtifactRepository is a MongoDB implementation of ArtifactRepository
// backed by the artifacts collection. Likes and comments are embedded arrays
// mutated with per-document atomic updates, so no multi-document coordination
// is needed.
type MongoArtifactRepository struct {
	collection *mongo.Collection
}

// NewMongoArtifactRepository creates a new instance of MongoArtifactRepository.
func NewMongoArtifactRepository(db *mongo.Database) *MongoArtifactRepository {
	return &MongoArtifactRepository{
		collection: db.Collection("artifacts"),
	}
}

// Create inserts a new artifact and fills in its ID and timestamps.
func (r *MongoArtifactRepository) Create(ctx context.Context, artifact *models.Artifact) error {
	now := time.Now()
	artifact.CreatedAt = now
	artifact.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, artifact)
	if err != nil {
		return fmt.Errorf("failed to create artifact: %w", err)
	}
	artifact.ID = result.InsertedID.(primitive.ObjectID)
	return nil
}

// GetOwned retrieves an artifact by slug scoped to its owner. A missing
// artifact and a wrong owner are both (nil, nil).
func (r *MongoArtifactRepository) GetOwned(ctx context.Context, artifactID string, ownerID primitive.ObjectID) (*models.Artifact, error) {
	var artifact models.Artifact
	filter := bson.M{"artifactId": artifactID, "userId": ownerID}
	if err := r.collection.FindOne(ctx, filter).Decode(&artifact); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get artifact: %w", err)
	}
	return &artifact, nil
}

// GetPublished retrieves a published artifact by slug.
func (r *MongoArtifactRepository) GetPublished(ctx context.Context, artifactID string) (*models.Artifact, error) {
	var artifact models.Artifact
	filter := bson.M{"artifactId": artifactID, "status": models.StatusPublished}
	if err := r.collection.FindOne(ctx, filter).Decode(&artifact); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get published artifact: %w", err)
	}
	return &artifact, nil
}

// ListByOwner returns all of a user's artifacts, newest-updated first.
func (r *MongoArtifactRepository) ListByOwner(ctx context.Context, ownerID primitive.ObjectID) ([]models.Artifact, error) {
	opts := options.Find().SetSort(bson.D{{Key: "updatedAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"userId": ownerID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list artifacts: %w", err)
	}
	defer cursor.Close(ctx)

	var artifacts []models.Artifact
	if err := cursor.All(ctx, &artifacts); err != nil {
		return nil, fmt.Errorf("failed to decode artifacts: %w", err)
	}
	return artifacts, nil
}

// ListPublished returns a page of published artifacts, newest-published first.
func (r *MongoArtifactRepository) ListPublished(ctx context.Context, skip, limit int64) ([]models.Artifact, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "publishedAt", Value: -1}}).
		SetSkip(skip).
		SetLimit(limit)
	cursor, err := r.collection.Find(ctx, bson.M{"status": models.StatusPublished}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list published artifacts: %w", err)
	}
	defer cursor.Close(ctx)

	var artifacts []models.Artifact
	if err := cursor.All(ctx, &artifacts); err != nil {
		return nil, fmt.Errorf("failed to decode artifacts: %w", err)
	}
	return artifacts, nil
}

// SetImageURL stores the rendered image URL on an owner's artifact.
func (r *MongoArtifactRepository) SetImageURL(ctx context.Context, artifactID string, ownerID primitive.ObjectID, imageURL string) error {
	filter := bson.M{"artifactId": artifactID, "userId": ownerID}
	update := bson.M{"$set": bson.M{"imageUrl": imageURL, "updatedAt": time.Now()}}
	if _, err := r.collection.UpdateOne(ctx, filter, update); err != nil {
		return fmt.Errorf("failed to set image URL: %w", err)
	}
	return nil
}

// MarkPublished flips an owner's artifact to published at the given time.
func (r *MongoArtifactRepository) MarkPublished(ctx context.Context, artifactID string, ownerID primitive.ObjectID, at time.Time) error {
	filter := bson.M{"artifactId": artifactID, "userId": ownerID}
	update := bson.M{"$set": bson.M{
		"status":      models.StatusPublished,
		"publishedAt": at,
		"updatedAt":   at,
	}}
	if _, err := r.collection.UpdateOne(ctx, filter, update); err != nil {
		return fmt.Errorf("failed to publish artifact: %w", err)
	}
	return nil
}

// AddLike adds a user to the likes set. $addToSet keeps membership
// duplicate-free even under concurrent toggles.
func (r *MongoArtifactRepository) AddLike(ctx context.Context, artifactID string, userID primitive.ObjectID) error {
	update := bson.M{
		"$addToSet": bson.M{"likes": userID},
		"$set":      bson.M{"updatedAt": time.Now()},
	}
	if _, err := r.collection.UpdateOne(ctx, bson.M{"artifactId": artifactID}, update); err != nil {
		return fmt.Errorf("failed to add like: %w", err)
	}
	return nil
}

// RemoveLike removes a user from the likes set.
func (r *MongoArtifactRepository) RemoveLike(ctx context.Context, artifactID string, userID primitive.ObjectID) error {
	update := bson.M{
		"$pull": bson.M{"likes": userID},
		"$set":  bson.M{"updatedAt": time.Now()},
	}
	if _, err := r.collection.UpdateOne(ctx, bson.M{"artifactId": artifactID}, update); err != nil {
		return fmt.Errorf("failed to remove like: %w", err)
	}
	return nil
}

// AddComment appends a comment to the embedded comments array.
func (r *MongoArtifactRepository) AddComment(ctx context.Context, artifactID string, comment models.Comment) error {
	update := bson.M{
		"$push": bson.M{"comments": comment},
		"$set":  bson.M{"updatedAt": time.Now()},
	}
	if _, err := r.collection.UpdateOne(ctx, bson.M{"artifactId": artifactID}, update); err != nil {
		return fmt.Errorf("failed to add comment: %w", err)
	}
	return nil
}
