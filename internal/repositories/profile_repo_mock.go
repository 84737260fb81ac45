package repositories

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"unityhub/internal/models"
)

// MockProfileRepository is an in-memory implementation of ProfileRepository,
// keyed by owning user ID.
type MockProfileRepository struct {
	profiles map[primitive.ObjectID]models.Profile
	mu       sync.RWMutex
}

// NewMockProfileRepository creates a new instance of MockProfileRepository.
func NewMockProfileRepository() *MockProfileRepository {
	return &MockProfileRepository{
		profiles: make(map[primitive.ObjectID]models.Profile),
	}
}

// Create stores a new profile, assigning an ID and timestamps.
func (r *MockProfileRepository) Create(_ context.Context, profile *models.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if profile.ID.IsZero() {
		profile.ID = primitive.NewObjectID()
	}
	now := time.Now()
	profile.CreatedAt = now
	profile.UpdatedAt = now
	r.profiles[profile.UserID] = *profile
	return nil
}

// GetByUserID returns the profile owned by a user, or (nil, nil).
func (r *MockProfileRepository) GetByUserID(_ context.Context, userID primitive.ObjectID) (*models.Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	profile, ok := r.profiles[userID]
	if !ok {
		return nil, nil
	}
	return &profile, nil
}

// GetByUserIDs returns the profiles owned by the given users, keyed by user ID.
func (r *MockProfileRepository) GetByUserIDs(_ context.Context, userIDs []primitive.ObjectID) (map[primitive.ObjectID]models.Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make(map[primitive.ObjectID]models.Profile, len(userIDs))
	for _, id := range userIDs {
		if profile, ok := r.profiles[id]; ok {
			result[id] = profile
		}
	}
	return result, nil
}

// Update replaces the user-settable fields of an existing profile.
func (r *MockProfileRepository) Update(_ context.Context, userID primitive.ObjectID, input *models.Profile) (*models.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	profile, ok := r.profiles[userID]
	if !ok {
		return nil, fmt.Errorf("profile for user %s not found for update", userID.Hex())
	}
	profile.DisplayName = input.DisplayName
	profile.Bio = input.Bio
	profile.Country = input.Country
	profile.Interests = input.Interests
	profile.AvatarURL = input.AvatarURL
	profile.UpdatedAt = time.Now()
	r.profiles[userID] = profile
	return &profile, nil
}
