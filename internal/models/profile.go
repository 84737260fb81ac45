package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Profile is the public identity a user chooses to show. A user has at most
// one profile, created lazily on the first profile update.
type Profile struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserID      primitive.ObjectID `json:"userId" bson:"userId"`
	DisplayName string             `json:"displayName" bson:"displayName"`
	Bio         string             `json:"bio,omitempty" bson:"bio,omitempty"`
	Country     string             `json:"country,omitempty" bson:"country,omitempty"`
	Interests   []string           `json:"interests,omitempty" bson:"interests,omitempty"`
	AvatarURL   string             `json:"avatarUrl,omitempty" bson:"avatarUrl,omitempty"`
	CreatedAt   time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt" bson:"updatedAt"`
}
