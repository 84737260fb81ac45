package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Artifact output formats.
const (
	FormatPNG = "png" // still image
	FormatGIF = "gif" // animation
)

// Artifact lifecycle statuses. The only transition is draft to published.
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
)

// Comment is embedded in an Artifact document. The commenter's display name is
// a snapshot taken when the comment is written, not a live join.
type Comment struct {
	ID        primitive.ObjectID `json:"id" bson:"_id"`
	UserID    primitive.ObjectID `json:"userId" bson:"userId"`
	UserName  string             `json:"userName" bson:"userName"`
	Comment   string             `json:"comment" bson:"comment"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
}

// Artifact is a user-submitted expression plus its rendered output and
// publication metadata. ArtifactID is the human-readable slug; ID is the
// internal document identifier. ImageURL stays empty until generation
// succeeds, and publishing requires it to be set.
type Artifact struct {
	ID          primitive.ObjectID   `json:"id" bson:"_id,omitempty"`
	ArtifactID  string               `json:"artifactId" bson:"artifactId"`
	UserID      primitive.ObjectID   `json:"userId" bson:"userId"`
	Title       string               `json:"title" bson:"title"`
	Expression  string               `json:"expression" bson:"expression"`
	ImageURL    string               `json:"imageUrl,omitempty" bson:"imageUrl,omitempty"`
	Format      string               `json:"format" bson:"format"`
	Status      string               `json:"status" bson:"status"`
	Likes       []primitive.ObjectID `json:"likes" bson:"likes"`
	Comments    []Comment            `json:"comments" bson:"comments"`
	Tags        []string             `json:"tags,omitempty" bson:"tags,omitempty"`
	CreatedAt   time.Time            `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time            `json:"updatedAt" bson:"updatedAt"`
	PublishedAt *time.Time           `json:"publishedAt,omitempty" bson:"publishedAt,omitempty"`
}

// Author is the joined profile snapshot attached to showcase results.
type Author struct {
	DisplayName string `json:"displayName"`
	AvatarURL   string `json:"avatarUrl,omitempty"`
}

// ArtifactView is an Artifact enriched with fields computed for the frontend.
type ArtifactView struct {
	Artifact
	LikesCount    int     `json:"likesCount"`
	IsLikedByUser bool    `json:"isLikedByUser"`
	Author        *Author `json:"author,omitempty"`
}
