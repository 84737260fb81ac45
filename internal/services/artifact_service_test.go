package services_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"unityhub/internal/models"
	"unityhub/internal/services"
)

// MockArtifactRepo is a mock implementation of repositories.ArtifactRepository
type MockArtifactRepo struct {
	mock.Mock
}

func (m *MockArtifactRepo) Create(ctx context.Context, artifact *models.Artifact) error {
	args := m.Called(ctx, artifact)
	if args.Error(0) == nil && artifact.ID.IsZero() {
		artifact.ID = primitive.NewObjectID()
	}
	return args.Error(0)
}

func (m *MockArtifactRepo) GetOwned(ctx context.Context, artifactID string, ownerID primitive.ObjectID) (*models.Artifact, error) {
	args := m.Called(ctx, artifactID, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Artifact), args.Error(1)
}

func (m *MockArtifactRepo) GetPublished(ctx context.Context, artifactID string) (*models.Artifact, error) {
	args := m.Called(ctx, artifactID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Artifact), args.Error(1)
}

func (m *MockArtifactRepo) ListByOwner(ctx context.Context, ownerID primitive.ObjectID) ([]models.Artifact, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Artifact), args.Error(1)
}

func (m *MockArtifactRepo) ListPublished(ctx context.Context, skip, limit int64) ([]models.Artifact, error) {
	args := m.Called(ctx, skip, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Artifact), args.Error(1)
}

func (m *MockArtifactRepo) SetImageURL(ctx context.Context, artifactID string, ownerID primitive.ObjectID, imageURL string) error {
	args := m.Called(ctx, artifactID, ownerID, imageURL)
	return args.Error(0)
}

func (m *MockArtifactRepo) MarkPublished(ctx context.Context, artifactID string, ownerID primitive.ObjectID, at time.Time) error {
	args := m.Called(ctx, artifactID, ownerID, at)
	return args.Error(0)
}

func (m *MockArtifactRepo) AddLike(ctx context.Context, artifactID string, userID primitive.ObjectID) error {
	args := m.Called(ctx, artifactID, userID)
	return args.Error(0)
}

func (m *MockArtifactRepo) RemoveLike(ctx context.Context, artifactID string, userID primitive.ObjectID) error {
	args := m.Called(ctx, artifactID, userID)
	return args.Error(0)
}

func (m *MockArtifactRepo) AddComment(ctx context.Context, artifactID string, comment models.Comment) error {
	args := m.Called(ctx, artifactID, comment)
	return args.Error(0)
}

// MockProfileRepo is a mock implementation of repositories.ProfileRepository
type MockProfileRepo struct {
	mock.Mock
}

func (m *MockProfileRepo) Create(ctx context.Context, profile *models.Profile) error {
	args := m.Called(ctx, profile)
	return args.Error(0)
}

func (m *MockProfileRepo) GetByUserID(ctx context.Context, userID primitive.ObjectID) (*models.Profile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Profile), args.Error(1)
}

func (m *MockProfileRepo) GetByUserIDs(ctx context.Context, userIDs []primitive.ObjectID) (map[primitive.ObjectID]models.Profile, error) {
	args := m.Called(ctx, userIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[primitive.ObjectID]models.Profile), args.Error(1)
}

func (m *MockProfileRepo) Update(ctx context.Context, userID primitive.ObjectID, input *models.Profile) (*models.Profile, error) {
	args := m.Called(ctx, userID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Profile), args.Error(1)
}

// stubRenderer implements services.Renderer with canned results.
type stubRenderer struct {
	imageURL string
	err      error
	calls    int
}

func (r *stubRenderer) Render(_ context.Context, _, _, _ string) (string, error) {
	r.calls++
	if r.err != nil {
		return "", r.err
	}
	return r.imageURL, nil
}

// eventRecorder implements services.EventPublisher, capturing payloads.
type eventRecorder struct {
	bodies []string
}

func (e *eventRecorder) Publish(body []byte) error {
	e.bodies = append(e.bodies, string(body))
	return nil
}

func TestArtifactService_Create(t *testing.T) {
	artifactRepo := new(MockArtifactRepo)
	profileRepo := new(MockProfileRepo)
	events := &eventRecorder{}
	svc := services.NewArtifactService(artifactRepo, profileRepo, &stubRenderer{}, events)
	ctx := context.Background()
	ownerID := primitive.NewObjectID()

	profileRepo.On("GetByUserID", ctx, ownerID).Return(&models.Profile{
		UserID:      ownerID,
		DisplayName: "Sine Wave Fan!",
	}, nil).Once()
	artifactRepo.On("Create", ctx, mock.AnythingOfType("*models.Artifact")).Return(nil).Once()

	artifact, err := svc.Create(ctx, ownerID, services.ArtifactInput{
		Title:      "Sine Wave",
		Expression: "Plot[Sin[x],{x,0,2Pi}]",
	})
	assert.NoError(t, err)
	assert.Equal(t, models.StatusDraft, artifact.Status)
	assert.Equal(t, models.FormatPNG, artifact.Format) // default
	assert.Empty(t, artifact.ImageURL)
	assert.Empty(t, artifact.Likes)
	assert.Empty(t, artifact.Comments)

	// Slug: sanitized display name prefix, three underscore-separated parts
	assert.True(t, strings.HasPrefix(artifact.ArtifactID, "sinewave_"), "got slug %q", artifact.ArtifactID)
	assert.Len(t, strings.Split(artifact.ArtifactID, "_"), 3)

	// Lifecycle event published
	assert.Len(t, events.bodies, 1)
	assert.Contains(t, events.bodies[0], "artifact.created")
	artifactRepo.AssertExpectations(t)
	profileRepo.AssertExpectations(t)
}

func TestArtifactService_Create_NoProfileUsesIDPrefix(t *testing.T) {
	artifactRepo := new(MockArtifactRepo)
	profileRepo := new(MockProfileRepo)
	svc := services.NewArtifactService(artifactRepo, profileRepo, &stubRenderer{}, nil)
	ctx := context.Background()
	ownerID := primitive.NewObjectID()

	profileRepo.On("GetByUserID", ctx, ownerID).Return(nil, nil).Once()
	artifactRepo.On("Create", ctx, mock.AnythingOfType("*models.Artifact")).Return(nil).Once()

	artifact, err := svc.Create(ctx, ownerID, services.ArtifactInput{
		Title:      "Untitled",
		Expression: "x",
		Format:     models.FormatGIF,
	})
	assert.NoError(t, err)
	assert.Equal(t, models.FormatGIF, artifact.Format)
	assert.True(t, strings.HasPrefix(artifact.ArtifactID, ownerID.Hex()[:8]+"_"))
}

func TestArtifactService_Generate(t *testing.T) {
	ctx := context.Background()
	ownerID := primitive.NewObjectID()
	const slug = "user_123_abc"

	t.Run("missing or not owned", func(t *testing.T) {
		artifactRepo := new(MockArtifactRepo)
		svc := services.NewArtifactService(artifactRepo, new(MockProfileRepo), &stubRenderer{}, nil)

		artifactRepo.On("GetOwned", ctx, slug, ownerID).Return(nil, nil).Once()
		_, err := svc.Generate(ctx, ownerID, slug)
		assert.ErrorIs(t, err, services.ErrArtifactNotFound)
	})

	t.Run("already generated", func(t *testing.T) {
		artifactRepo := new(MockArtifactRepo)
		renderer := &stubRenderer{imageURL: "https://cdn.example.com/a.png"}
		svc := services.NewArtifactService(artifactRepo, new(MockProfileRepo), renderer, nil)

		artifactRepo.On("GetOwned", ctx, slug, ownerID).Return(&models.Artifact{
			ArtifactID: slug,
			UserID:     ownerID,
			ImageURL:   "https://cdn.example.com/existing.png",
		}, nil).Once()

		_, err := svc.Generate(ctx, ownerID, slug)
		assert.ErrorIs(t, err, services.ErrAlreadyGenerated)
		assert.Zero(t, renderer.calls)
	})

	t.Run("render failure writes nothing", func(t *testing.T) {
		artifactRepo := new(MockArtifactRepo)
		renderer := &stubRenderer{err: errors.New("render service error: kernel crashed")}
		svc := services.NewArtifactService(artifactRepo, new(MockProfileRepo), renderer, nil)

		artifactRepo.On("GetOwned", ctx, slug, ownerID).Return(&models.Artifact{
			ArtifactID: slug,
			UserID:     ownerID,
			Expression: "Plot[Sin[x],{x,0,2Pi}]",
			Format:     models.FormatPNG,
			Status:     models.StatusDraft,
		}, nil).Once()

		_, err := svc.Generate(ctx, ownerID, slug)
		assert.ErrorIs(t, err, services.ErrRenderFailed)
		// The artifact stays retryable: no SetImageURL call was made
		artifactRepo.AssertNotCalled(t, "SetImageURL", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("success stores image URL", func(t *testing.T) {
		artifactRepo := new(MockArtifactRepo)
		renderer := &stubRenderer{imageURL: "https://cdn.example.com/a.png"}
		svc := services.NewArtifactService(artifactRepo, new(MockProfileRepo), renderer, nil)

		artifactRepo.On("GetOwned", ctx, slug, ownerID).Return(&models.Artifact{
			ArtifactID: slug,
			UserID:     ownerID,
			Expression: "Plot[Sin[x],{x,0,2Pi}]",
			Format:     models.FormatPNG,
			Status:     models.StatusDraft,
		}, nil).Once()
		artifactRepo.On("SetImageURL", ctx, slug, ownerID, "https://cdn.example.com/a.png").Return(nil).Once()

		artifact, err := svc.Generate(ctx, ownerID, slug)
		assert.NoError(t, err)
		assert.Equal(t, "https://cdn.example.com/a.png", artifact.ImageURL)
		// Generation does not publish
		assert.Equal(t, models.StatusDraft, artifact.Status)
		artifactRepo.AssertExpectations(t)
	})
}

func TestArtifactService_Publish(t *testing.T) {
	ctx := context.Background()
	ownerID := primitive.NewObjectID()
	const slug = "user_123_abc"

	t.Run("missing or not owned", func(t *testing.T) {
		artifactRepo := new(MockArtifactRepo)
		svc := services.NewArtifactService(artifactRepo, new(MockProfileRepo), &stubRenderer{}, nil)

		artifactRepo.On("GetOwned", ctx, slug, ownerID).Return(nil, nil).Once()
		err := svc.Publish(ctx, ownerID, slug)
		assert.ErrorIs(t, err, services.ErrArtifactNotFound)
	})

	t.Run("no image", func(t *testing.T) {
		artifactRepo := new(MockArtifactRepo)
		svc := services.NewArtifactService(artifactRepo, new(MockProfileRepo), &stubRenderer{}, nil)

		artifactRepo.On("GetOwned", ctx, slug, ownerID).Return(&models.Artifact{
			ArtifactID: slug,
			UserID:     ownerID,
			Status:     models.StatusDraft,
		}, nil).Once()
		err := svc.Publish(ctx, ownerID, slug)
		assert.ErrorIs(t, err, services.ErrNoImage)
	})

	t.Run("already published", func(t *testing.T) {
		artifactRepo := new(MockArtifactRepo)
		svc := services.NewArtifactService(artifactRepo, new(MockProfileRepo), &stubRenderer{}, nil)

		artifactRepo.On("GetOwned", ctx, slug, ownerID).Return(&models.Artifact{
			ArtifactID: slug,
			UserID:     ownerID,
			ImageURL:   "https://cdn.example.com/a.png",
			Status:     models.StatusPublished,
		}, nil).Once()
		err := svc.Publish(ctx, ownerID, slug)
		assert.ErrorIs(t, err, services.ErrAlreadyPublished)
	})

	t.Run("success marks published and emits event", func(t *testing.T) {
		artifactRepo := new(MockArtifactRepo)
		events := &eventRecorder{}
		svc := services.NewArtifactService(artifactRepo, new(MockProfileRepo), &stubRenderer{}, events)

		artifactRepo.On("GetOwned", ctx, slug, ownerID).Return(&models.Artifact{
			ArtifactID: slug,
			UserID:     ownerID,
			Title:      "Sine Wave",
			ImageURL:   "https://cdn.example.com/a.png",
			Format:     models.FormatPNG,
			Status:     models.StatusDraft,
		}, nil).Once()
		artifactRepo.On("MarkPublished", ctx, slug, ownerID, mock.AnythingOfType("time.Time")).Return(nil).Once()

		err := svc.Publish(ctx, ownerID, slug)
		assert.NoError(t, err)
		assert.Len(t, events.bodies, 1)
		assert.Contains(t, events.bodies[0], "artifact.published")
		artifactRepo.AssertExpectations(t)
	})
}

func TestArtifactService_ToggleLike(t *testing.T) {
	ctx := context.Background()
	viewerID := primitive.NewObjectID()
	const slug = "user_123_abc"

	t.Run("not published", func(t *testing.T) {
		artifactRepo := new(MockArtifactRepo)
		svc := services.NewArtifactService(artifactRepo, new(MockProfileRepo), &stubRenderer{}, nil)

		artifactRepo.On("GetPublished", ctx, slug).Return(nil, nil).Once()
		_, _, err := svc.ToggleLike(ctx, viewerID, slug)
		assert.ErrorIs(t, err, services.ErrNotPublished)
	})

	t.Run("add then remove", func(t *testing.T) {
		artifactRepo := new(MockArtifactRepo)
		svc := services.NewArtifactService(artifactRepo, new(MockProfileRepo), &stubRenderer{}, nil)

		other := primitive.NewObjectID()

		// Not yet liked: toggling adds
		artifactRepo.On("GetPublished", ctx, slug).Return(&models.Artifact{
			ArtifactID: slug,
			Status:     models.StatusPublished,
			Likes:      []primitive.ObjectID{other},
		}, nil).Once()
		artifactRepo.On("AddLike", ctx, slug, viewerID).Return(nil).Once()

		isLiked, count, err := svc.ToggleLike(ctx, viewerID, slug)
		assert.NoError(t, err)
		assert.True(t, isLiked)
		assert.Equal(t, 2, count) // pre-mutation count plus one

		// Already liked: toggling removes
		artifactRepo.On("GetPublished", ctx, slug).Return(&models.Artifact{
			ArtifactID: slug,
			Status:     models.StatusPublished,
			Likes:      []primitive.ObjectID{other, viewerID},
		}, nil).Once()
		artifactRepo.On("RemoveLike", ctx, slug, viewerID).Return(nil).Once()

		isLiked, count, err = svc.ToggleLike(ctx, viewerID, slug)
		assert.NoError(t, err)
		assert.False(t, isLiked)
		assert.Equal(t, 1, count)
		artifactRepo.AssertExpectations(t)
	})
}

func TestArtifactService_AddComment(t *testing.T) {
	ctx := context.Background()
	viewerID := primitive.NewObjectID()
	const slug = "user_123_abc"

	t.Run("draft artifact rejected", func(t *testing.T) {
		artifactRepo := new(MockArtifactRepo)
		svc := services.NewArtifactService(artifactRepo, new(MockProfileRepo), &stubRenderer{}, nil)

		artifactRepo.On("GetPublished", ctx, slug).Return(nil, nil).Once()
		_, err := svc.AddComment(ctx, viewerID, slug, "nice")
		assert.ErrorIs(t, err, services.ErrNotPublished)
	})

	t.Run("snapshots the commenter's display name", func(t *testing.T) {
		artifactRepo := new(MockArtifactRepo)
		profileRepo := new(MockProfileRepo)
		svc := services.NewArtifactService(artifactRepo, profileRepo, &stubRenderer{}, nil)

		artifactRepo.On("GetPublished", ctx, slug).Return(&models.Artifact{
			ArtifactID: slug,
			Status:     models.StatusPublished,
		}, nil).Once()
		profileRepo.On("GetByUserID", ctx, viewerID).Return(&models.Profile{
			UserID:      viewerID,
			DisplayName: "Ada",
		}, nil).Once()
		artifactRepo.On("AddComment", ctx, slug, mock.AnythingOfType("models.Comment")).Return(nil).Once()

		comment, err := svc.AddComment(ctx, viewerID, slug, "nice")
		assert.NoError(t, err)
		assert.Equal(t, "Ada", comment.UserName)
		assert.Equal(t, "nice", comment.Comment)
		assert.False(t, comment.ID.IsZero())
	})

	t.Run("falls back to Anonymous without a profile", func(t *testing.T) {
		artifactRepo := new(MockArtifactRepo)
		profileRepo := new(MockProfileRepo)
		svc := services.NewArtifactService(artifactRepo, profileRepo, &stubRenderer{}, nil)

		artifactRepo.On("GetPublished", ctx, slug).Return(&models.Artifact{
			ArtifactID: slug,
			Status:     models.StatusPublished,
		}, nil).Once()
		profileRepo.On("GetByUserID", ctx, viewerID).Return(nil, nil).Once()
		artifactRepo.On("AddComment", ctx, slug, mock.AnythingOfType("models.Comment")).Return(nil).Once()

		comment, err := svc.AddComment(ctx, viewerID, slug, "nice")
		assert.NoError(t, err)
		assert.Equal(t, "Anonymous", comment.UserName)
	})
}

func TestArtifactService_ListPublished(t *testing.T) {
	ctx := context.Background()
	authorID := primitive.NewObjectID()
	strangerID := primitive.NewObjectID()
	viewerID := primitive.NewObjectID()

	published := time.Now()
	artifacts := []models.Artifact{
		{
			ArtifactID:  "ada_1_a",
			UserID:      authorID,
			Status:      models.StatusPublished,
			Likes:       []primitive.ObjectID{viewerID},
			PublishedAt: &published,
		},
		{
			ArtifactID:  "anon_2_b",
			UserID:      strangerID,
			Status:      models.StatusPublished,
			Likes:       []primitive.ObjectID{},
			PublishedAt: &published,
		},
	}

	artifactRepo := new(MockArtifactRepo)
	profileRepo := new(MockProfileRepo)
	svc := services.NewArtifactService(artifactRepo, profileRepo, &stubRenderer{}, nil)

	artifactRepo.On("ListPublished", ctx, int64(0), int64(2)).Return(artifacts, nil).Once()
	profileRepo.On("GetByUserIDs", ctx, []primitive.ObjectID{authorID, strangerID}).Return(map[primitive.ObjectID]models.Profile{
		authorID: {UserID: authorID, DisplayName: "Ada", AvatarURL: "https://cdn.example.com/ada.png"},
	}, nil).Once()

	views, hasMore, err := svc.ListPublished(ctx, 1, 2, &viewerID)
	assert.NoError(t, err)
	assert.True(t, hasMore) // page is full, another may exist
	assert.Len(t, views, 2)

	assert.Equal(t, "Ada", views[0].Author.DisplayName)
	assert.True(t, views[0].IsLikedByUser)
	assert.Equal(t, 1, views[0].LikesCount)

	// Author without a profile falls back to Anonymous
	assert.Equal(t, "Anonymous", views[1].Author.DisplayName)
	assert.False(t, views[1].IsLikedByUser)
	assert.Equal(t, 0, views[1].LikesCount)
	artifactRepo.AssertExpectations(t)
	profileRepo.AssertExpectations(t)
}

func TestArtifactService_ListPublished_AnonymousViewer(t *testing.T) {
	ctx := context.Background()
	authorID := primitive.NewObjectID()
	published := time.Now()

	artifactRepo := new(MockArtifactRepo)
	profileRepo := new(MockProfileRepo)
	svc := services.NewArtifactService(artifactRepo, profileRepo, &stubRenderer{}, nil)

	artifactRepo.On("ListPublished", ctx, int64(0), int64(12)).Return([]models.Artifact{{
		ArtifactID:  "ada_1_a",
		UserID:      authorID,
		Status:      models.StatusPublished,
		Likes:       []primitive.ObjectID{primitive.NewObjectID()},
		PublishedAt: &published,
	}}, nil).Once()
	profileRepo.On("GetByUserIDs", ctx, []primitive.ObjectID{authorID}).Return(map[primitive.ObjectID]models.Profile{}, nil).Once()

	// Page and limit below 1 fall back to defaults
	views, hasMore, err := svc.ListPublished(ctx, 0, 0, nil)
	assert.NoError(t, err)
	assert.False(t, hasMore)
	assert.Len(t, views, 1)
	assert.False(t, views[0].IsLikedByUser)
}

func TestArtifactService_ListMine(t *testing.T) {
	ctx := context.Background()
	ownerID := primitive.NewObjectID()

	artifactRepo := new(MockArtifactRepo)
	svc := services.NewArtifactService(artifactRepo, new(MockProfileRepo), &stubRenderer{}, nil)

	artifactRepo.On("ListByOwner", ctx, ownerID).Return([]models.Artifact{
		{ArtifactID: "a_1_x", UserID: ownerID, Likes: []primitive.ObjectID{primitive.NewObjectID(), primitive.NewObjectID()}},
		{ArtifactID: "a_2_y", UserID: ownerID},
	}, nil).Once()

	views, err := svc.ListMine(ctx, ownerID)
	assert.NoError(t, err)
	assert.Len(t, views, 2)
	assert.Equal(t, 2, views[0].LikesCount)
	assert.Equal(t, 0, views[1].LikesCount)
}
