package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"unityhub/internal/models"
	"unityhub/internal/repositories"
)

var (
	// ErrArtifactNotFound covers both a missing artifact and one owned by
	// someone else; callers cannot tell which.
	ErrArtifactNotFound = errors.New("artifact not found or access denied")
	// ErrAlreadyGenerated is returned when generating an artifact that
	// already has an image.
	ErrAlreadyGenerated = errors.New("artifact image already generated")
	// ErrNoImage is returned when publishing an artifact without an image.
	ErrNoImage = errors.New("cannot publish artifact without generated image")
	// ErrAlreadyPublished is returned on a second publish; the transition is
	// one-way and not idempotent.
	ErrAlreadyPublished = errors.New("artifact is already published")
	// ErrNotPublished is returned when liking or commenting on anything but a
	// published artifact.
	ErrNotPublished = errors.New("published artifact not found")
	// ErrRenderFailed wraps render service failures, including timeouts.
	ErrRenderFailed = errors.New("failed to generate artifact")
)

const defaultPageSize = 12

// Renderer turns an expression into a stored image and returns its URL.
// Implemented by pkg/rendering.
type Renderer interface {
	Render(ctx context.Context, expression, format, artifactID string) (string, error)
}

// EventPublisher delivers artifact lifecycle events to the message queue.
// Implemented by pkg/rabbitmq.
type EventPublisher interface {
	Publish(body []byte) error
}

// ArtifactInput carries the fields for creating a draft artifact.
type ArtifactInput struct {
	Title      string   `json:"title" validate:"required,min=1,max=100"`
	Expression string   `json:"expression" validate:"required,min=1,max=2000"`
	Format     string   `json:"format" validate:"omitempty,oneof=png gif"`
	Tags       []string `json:"tags" validate:"omitempty,max=10,dive,max=50"`
}

// ArtifactService coordinates the create, generate, publish lifecycle and the
// social operations on published artifacts.
type ArtifactService struct {
	artifactRepo repositories.ArtifactRepository
	profileRepo  repositories.ProfileRepository
	renderer     Renderer
	events       EventPublisher
}

// NewArtifactService creates a new ArtifactService. events may be nil, in
// which case lifecycle events are skipped.
func NewArtifactService(artifactRepo repositories.ArtifactRepository, profileRepo repositories.ProfileRepository, renderer Renderer, events EventPublisher) *ArtifactService {
	return &ArtifactService{
		artifactRepo: artifactRepo,
		profileRepo:  profileRepo,
		renderer:     renderer,
		events:       events,
	}
}

// Create stores a new draft artifact with a generated slug and no image.
func (s *ArtifactService) Create(ctx context.Context, ownerID primitive.ObjectID, input ArtifactInput) (*models.Artifact, error) {
	format := input.Format
	if format == "" {
		format = models.FormatPNG
	}

	// The slug prefix prefers the owner's display name; a failed profile
	// lookup only costs the nicer prefix.
	var displayName string
	if profile, err := s.profileRepo.GetByUserID(ctx, ownerID); err == nil && profile != nil {
		displayName = profile.DisplayName
	}

	artifact := &models.Artifact{
		ArtifactID: newArtifactID(ownerID, displayName),
		UserID:     ownerID,
		Title:      input.Title,
		Expression: input.Expression,
		Format:     format,
		Status:     models.StatusDraft,
		Likes:      []primitive.ObjectID{},
		Comments:   []models.Comment{},
		Tags:       input.Tags,
	}

	if err := s.artifactRepo.Create(ctx, artifact); err != nil {
		return nil, fmt.Errorf("failed to create artifact: %w", err)
	}

	s.publishEvent(map[string]interface{}{
		"event":      "artifact.created",
		"artifactId": artifact.ArtifactID,
		"userId":     ownerID.Hex(),
		"title":      artifact.Title,
		"format":     artifact.Format,
	})

	return artifact, nil
}

// Generate calls the render service and stores the resulting image URL. The
// artifact must belong to the caller and must not have an image yet. On any
// render failure nothing is written, so the call is safely retryable.
func (s *ArtifactService) Generate(ctx context.Context, ownerID primitive.ObjectID, artifactID string) (*models.Artifact, error) {
	artifact, err := s.artifactRepo.GetOwned(ctx, artifactID, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up artifact: %w", err)
	}
	if artifact == nil {
		return nil, ErrArtifactNotFound
	}
	if artifact.ImageURL != "" {
		return nil, ErrAlreadyGenerated
	}

	imageURL, err := s.renderer.Render(ctx, artifact.Expression, artifact.Format, artifact.ArtifactID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRenderFailed, err)
	}

	if err := s.artifactRepo.SetImageURL(ctx, artifactID, ownerID, imageURL); err != nil {
		return nil, fmt.Errorf("failed to store image URL: %w", err)
	}
	artifact.ImageURL = imageURL
	return artifact, nil
}

// Publish flips a generated artifact to published. The transition is one-way;
// publishing twice fails with ErrAlreadyPublished.
func (s *ArtifactService) Publish(ctx context.Context, ownerID primitive.ObjectID, artifactID string) error {
	artifact, err := s.artifactRepo.GetOwned(ctx, artifactID, ownerID)
	if err != nil {
		return fmt.Errorf("failed to look up artifact: %w", err)
	}
	if artifact == nil {
		return ErrArtifactNotFound
	}
	if artifact.ImageURL == "" {
		return ErrNoImage
	}
	if artifact.Status == models.StatusPublished {
		return ErrAlreadyPublished
	}

	now := time.Now()
	if err := s.artifactRepo.MarkPublished(ctx, artifactID, ownerID, now); err != nil {
		return fmt.Errorf("failed to publish artifact: %w", err)
	}

	s.publishEvent(map[string]interface{}{
		"event":       "artifact.published",
		"artifactId":  artifact.ArtifactID,
		"userId":      ownerID.Hex(),
		"title":       artifact.Title,
		"format":      artifact.Format,
		"publishedAt": now.Format(time.RFC3339),
	})

	return nil
}

// ListMine returns all of the caller's artifacts, newest-updated first.
func (s *ArtifactService) ListMine(ctx context.Context, ownerID primitive.ObjectID) ([]models.ArtifactView, error) {
	artifacts, err := s.artifactRepo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list artifacts: %w", err)
	}

	views := make([]models.ArtifactView, 0, len(artifacts))
	for _, artifact := range artifacts {
		views = append(views, models.ArtifactView{
			Artifact:   artifact,
			LikesCount: len(artifact.Likes),
		})
	}
	return views, nil
}

// ListPublished returns a page of published artifacts, newest-published first,
// each joined with its author's display name and, when a viewer is present,
// whether the viewer has liked it. The second return reports whether another
// page may exist.
func (s *ArtifactService) ListPublished(ctx context.Context, page, limit int, viewerID *primitive.ObjectID) ([]models.ArtifactView, bool, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageSize
	}
	skip := int64(page-1) * int64(limit)

	artifacts, err := s.artifactRepo.ListPublished(ctx, skip, int64(limit))
	if err != nil {
		return nil, false, fmt.Errorf("failed to list published artifacts: %w", err)
	}

	authorIDs := make([]primitive.ObjectID, 0, len(artifacts))
	seen := make(map[primitive.ObjectID]bool, len(artifacts))
	for _, artifact := range artifacts {
		if !seen[artifact.UserID] {
			seen[artifact.UserID] = true
			authorIDs = append(authorIDs, artifact.UserID)
		}
	}
	profiles, err := s.profileRepo.GetByUserIDs(ctx, authorIDs)
	if err != nil {
		return nil, false, fmt.Errorf("failed to load author profiles: %w", err)
	}

	views := make([]models.ArtifactView, 0, len(artifacts))
	for _, artifact := range artifacts {
		author := &models.Author{DisplayName: "Anonymous"}
		if profile, ok := profiles[artifact.UserID]; ok && profile.DisplayName != "" {
			author.DisplayName = profile.DisplayName
			author.AvatarURL = profile.AvatarURL
		}

		view := models.ArtifactView{
			Artifact:   artifact,
			LikesCount: len(artifact.Likes),
			Author:     author,
		}
		if viewerID != nil {
			view.IsLikedByUser = containsID(artifact.Likes, *viewerID)
		}
		views = append(views, view)
	}
	return views, len(artifacts) == limit, nil
}

// ToggleLike flips the viewer's membership in a published artifact's likes
// set and returns the new membership plus a likes count. The count is derived
// from the document read before the update, so a concurrent toggle can make
// it momentarily off by one; the membership itself is kept exact by the
// store's set semantics.
func (s *ArtifactService) ToggleLike(ctx context.Context, viewerID primitive.ObjectID, artifactID string) (bool, int, error) {
	artifact, err := s.artifactRepo.GetPublished(ctx, artifactID)
	if err != nil {
		return false, 0, fmt.Errorf("failed to look up artifact: %w", err)
	}
	if artifact == nil {
		return false, 0, ErrNotPublished
	}

	liked := containsID(artifact.Likes, viewerID)
	if liked {
		err = s.artifactRepo.RemoveLike(ctx, artifactID, viewerID)
	} else {
		err = s.artifactRepo.AddLike(ctx, artifactID, viewerID)
	}
	if err != nil {
		return false, 0, fmt.Errorf("failed to toggle like: %w", err)
	}

	count := len(artifact.Likes)
	if liked {
		count--
	} else {
		count++
	}
	return !liked, count, nil
}

// AddComment appends a comment to a published artifact, snapshotting the
// commenter's current display name. Comments are never edited or deleted.
func (s *ArtifactService) AddComment(ctx context.Context, viewerID primitive.ObjectID, artifactID, text string) (*models.Comment, error) {
	artifact, err := s.artifactRepo.GetPublished(ctx, artifactID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up artifact: %w", err)
	}
	if artifact == nil {
		return nil, ErrNotPublished
	}

	userName := "Anonymous"
	if profile, err := s.profileRepo.GetByUserID(ctx, viewerID); err == nil && profile != nil && profile.DisplayName != "" {
		userName = profile.DisplayName
	}

	comment := models.Comment{
		ID:        primitive.NewObjectID(),
		UserID:    viewerID,
		UserName:  userName,
		Comment:   text,
		CreatedAt: time.Now(),
	}
	if err := s.artifactRepo.AddComment(ctx, artifactID, comment); err != nil {
		return nil, fmt.Errorf("failed to add comment: %w", err)
	}
	return &comment, nil
}

// publishEvent sends a lifecycle event to the queue. Delivery is best effort:
// a missing client or publish failure is logged and never fails the request.
func (s *ArtifactService) publishEvent(payload map[string]interface{}) {
	if s.events == nil {
		return
	}
	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("Failed to marshal artifact event: %v", err)
		return
	}
	if err := s.events.Publish(body); err != nil {
		log.Printf("Warning: failed to publish artifact event: %v", err)
	}
}

var slugCleaner = regexp.MustCompile(`[^a-z0-9]`)

// newArtifactID builds the human-readable slug: a short owner prefix, the
// creation time in milliseconds and a random suffix. Collisions are accepted
// as negligible; there is no retry.
func newArtifactID(ownerID primitive.ObjectID, displayName string) string {
	prefix := slugCleaner.ReplaceAllString(strings.ToLower(displayName), "")
	if prefix == "" {
		prefix = ownerID.Hex()
	}
	if len(prefix) > 8 {
		prefix = prefix[:8]
	}
	suffix := strings.ReplaceAll(uuid.New().String(), "-", "")[:6]
	return fmt.Sprintf("%s_%d_%s", prefix, time.Now().UnixMilli(), suffix)
}

func containsID(ids []primitive.ObjectID, id primitive.ObjectID) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}
