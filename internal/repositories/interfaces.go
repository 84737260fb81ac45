package repositories

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"unityhub/internal/models"
)

// UserRepository defines the interface for user data access. Lookup methods
// return (nil, nil) when no document matches.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}

// ProfileRepository defines the interface for profile data access.
type ProfileRepository interface {
	Create(ctx context.Context, profile *models.Profile) error
	GetByUserID(ctx context.Context, userID primitive.ObjectID) (*models.Profile, error)
	GetByUserIDs(ctx context.Context, userIDs []primitive.ObjectID) (map[primitive.ObjectID]models.Profile, error)
	Update(ctx context.Context, userID primitive.ObjectID, input *models.Profile) (*models.Profile, error)
}

// ArtifactRepository defines the interface for artifact data access. Artifacts
// are addressed by their slug; owner-scoped lookups return (nil, nil) for both
// a missing artifact and a wrong owner.
type ArtifactRepository interface {
	Create(ctx context.Context, artifact *models.Artifact) error
	GetOwned(ctx context.Context, artifactID string, ownerID primitive.ObjectID) (*models.Artifact, error)
	GetPublished(ctx context.Context, artifactID string) (*models.Artifact, error)
	ListByOwner(ctx context.Context, ownerID primitive.ObjectID) ([]models.Artifact, error)
	ListPublished(ctx context.Context, skip, limit int64) ([]models.Artifact, error)
	SetImageURL(ctx context.Context, artifactID string, ownerID primitive.ObjectID, imageURL string) error
	MarkPublished(ctx context.Context, artifactID string, ownerID primitive.ObjectID, at time.Time) error
	AddLike(ctx context.Context, artifactID string, userID primitive.ObjectID) error
	RemoveLike(ctx context.Context, artifactID string, userID primitive.ObjectID) error
	AddComment(ctx context.Context, artifactID string, comment models.Comment) error
}
