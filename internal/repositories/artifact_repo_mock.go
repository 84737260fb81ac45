package repositories

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"unityhub/internal/models"
)

// MockArtifactRepository is an in-memory implementation of ArtifactRepository,
// keyed by artifact slug. Like-set mutations mirror the store's $addToSet and
// $pull semantics.
type MockArtifactRepository struct {
	artifacts map[string]models.Artifact
	mu        sync.RWMutex
}

// NewMockArtifactRepository creates a new instance of MockArtifactRepository.
func NewMockArtifactRepository() *MockArtifactRepository {
	return &MockArtifactRepository{
		artifacts: make(map[string]models.Artifact),
	}
}

// Create stores a new artifact, assigning an ID and timestamps.
func (r *MockArtifactRepository) Create(_ context.Context, artifact *models.Artifact) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if artifact.ID.IsZero() {
		artifact.ID = primitive.NewObjectID()
	}
	now := time.Now()
	artifact.CreatedAt = now
	artifact.UpdatedAt = now
	r.artifacts[artifact.ArtifactID] = *artifact
	return nil
}

// GetOwned returns an artifact by slug if it belongs to the owner, or (nil, nil).
func (r *MockArtifactRepository) GetOwned(_ context.Context, artifactID string, ownerID primitive.ObjectID) (*models.Artifact, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	artifact, ok := r.artifacts[artifactID]
	if !ok || artifact.UserID != ownerID {
		return nil, nil
	}
	return &artifact, nil
}

// GetPublished returns a published artifact by slug, or (nil, nil).
func (r *MockArtifactRepository) GetPublished(_ context.Context, artifactID string) (*models.Artifact, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	artifact, ok := r.artifacts[artifactID]
	if !ok || artifact.Status != models.StatusPublished {
		return nil, nil
	}
	return &artifact, nil
}

// ListByOwner returns a user's artifacts, newest-updated first.
func (r *MockArtifactRepository) ListByOwner(_ context.Context, ownerID primitive.ObjectID) ([]models.Artifact, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var artifacts []models.Artifact
	for _, artifact := range r.artifacts {
		if artifact.UserID == ownerID {
			artifacts = append(artifacts, artifact)
		}
	}
	sort.Slice(artifacts, func(i, j int) bool {
		return artifacts[i].UpdatedAt.After(artifacts[j].UpdatedAt)
	})
	return artifacts, nil
}

// ListPublished returns a page of published artifacts, newest-published first.
func (r *MockArtifactRepository) ListPublished(_ context.Context, skip, limit int64) ([]models.Artifact, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var published []models.Artifact
	for _, artifact := range r.artifacts {
		if artifact.Status == models.StatusPublished {
			published = append(published, artifact)
		}
	}
	sort.Slice(published, func(i, j int) bool {
		return published[i].PublishedAt.After(*published[j].PublishedAt)
	})

	if skip >= int64(len(published)) {
		return nil, nil
	}
	published = published[skip:]
	if limit < int64(len(published)) {
		published = published[:limit]
	}
	return published, nil
}

// SetImageURL stores the rendered image URL on an owner's artifact.
func (r *MockArtifactRepository) SetImageURL(_ context.Context, artifactID string, ownerID primitive.ObjectID, imageURL string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	artifact, ok := r.artifacts[artifactID]
	if !ok || artifact.UserID != ownerID {
		return fmt.Errorf("artifact %s not found for update", artifactID)
	}
	artifact.ImageURL = imageURL
	artifact.UpdatedAt = time.Now()
	r.artifacts[artifactID] = artifact
	return nil
}

// MarkPublished flips an owner's artifact to published.
func (r *MockArtifactRepository) MarkPublished(_ context.Context, artifactID string, ownerID primitive.ObjectID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	artifact, ok := r.artifacts[artifactID]
	if !ok || artifact.UserID != ownerID {
		return fmt.Errorf("artifact %s not found for publish", artifactID)
	}
	artifact.Status = models.StatusPublished
	publishedAt := at
	artifact.PublishedAt = &publishedAt
	artifact.UpdatedAt = at
	r.artifacts[artifactID] = artifact
	return nil
}

// AddLike adds a user to the likes set, ignoring duplicates.
func (r *MockArtifactRepository) AddLike(_ context.Context, artifactID string, userID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	artifact, ok := r.artifacts[artifactID]
	if !ok {
		return fmt.Errorf("artifact %s not found for like", artifactID)
	}
	for _, id := range artifact.Likes {
		if id == userID {
			return nil
		}
	}
	artifact.Likes = append(artifact.Likes, userID)
	artifact.UpdatedAt = time.Now()
	r.artifacts[artifactID] = artifact
	return nil
}

// RemoveLike removes a user from the likes set.
func (r *MockArtifactRepository) RemoveLike(_ context.Context, artifactID string, userID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	artifact, ok := r.artifacts[artifactID]
	if !ok {
		return fmt.Errorf("artifact %s not found for unlike", artifactID)
	}
	likes := make([]primitive.ObjectID, 0, len(artifact.Likes))
	for _, id := range artifact.Likes {
		if id != userID {
			likes = append(likes, id)
		}
	}
	artifact.Likes = likes
	artifact.UpdatedAt = time.Now()
	r.artifacts[artifactID] = artifact
	return nil
}

// AddComment appends a comment to an artifact.
func (r *MockArtifactRepository) AddComment(_ context.Context, artifactID string, comment models.Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	artifact, ok := r.artifacts[artifactID]
	if !ok {
		return fmt.Errorf("artifact %s not found for comment", artifactID)
	}
	artifact.Comments = append(artifact.Comments, comment)
	artifact.UpdatedAt = time.Now()
	r.artifacts[artifactID] = artifact
	return nil
}
