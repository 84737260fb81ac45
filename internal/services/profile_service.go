package services

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"unityhub/internal/models"
	"unityhub/internal/repositories"
)

// ErrProfileNotFound is returned when a user has not set up a profile yet.
var ErrProfileNotFound = errors.New("profile not found")

// ProfileInput carries the fields a user may set on their profile.
type ProfileInput struct {
	DisplayName string   `json:"displayName" validate:"required,min=2,max=50"`
	Bio         string   `json:"bio" validate:"omitempty,max=500"`
	Country     string   `json:"country" validate:"omitempty,max=100"`
	Interests   []string `json:"interests" validate:"omitempty,max=10,dive,max=50"`
	AvatarURL   string   `json:"avatarUrl" validate:"omitempty,url"`
}

// ProfileService handles profile reads and the fetch-or-create upsert.
type ProfileService struct {
	profileRepo repositories.ProfileRepository
}

// NewProfileService creates a new ProfileService.
func NewProfileService(profileRepo repositories.ProfileRepository) *ProfileService {
	return &ProfileService{
		profileRepo: profileRepo,
	}
}

// Get returns a user's profile.
func (s *ProfileService) Get(ctx context.Context, userID primitive.ObjectID) (*models.Profile, error) {
	profile, err := s.profileRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	if profile == nil {
		return nil, ErrProfileNotFound
	}
	return profile, nil
}

// Upsert creates the profile on first update, otherwise replaces the provided
// fields. The returned bool reports whether a new profile was created.
// Two concurrent first-time upserts can both insert since the store carries
// no uniqueness constraint on the owning user; the window is accepted.
func (s *ProfileService) Upsert(ctx context.Context, userID primitive.ObjectID, input ProfileInput) (*models.Profile, bool, error) {
	existing, err := s.profileRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to look up profile: %w", err)
	}

	fields := &models.Profile{
		UserID:      userID,
		DisplayName: input.DisplayName,
		Bio:         input.Bio,
		Country:     input.Country,
		Interests:   input.Interests,
		AvatarURL:   input.AvatarURL,
	}

	if existing != nil {
		updated, err := s.profileRepo.Update(ctx, userID, fields)
		if err != nil {
			return nil, false, fmt.Errorf("failed to update profile: %w", err)
		}
		return updated, false, nil
	}

	if err := s.profileRepo.Create(ctx, fields); err != nil {
		return nil, false, fmt.Errorf("failed to create profile: %w", err)
	}
	return fields, true, nil
}
