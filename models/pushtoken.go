package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Platforms a reminder device can register from
const (
	PlatformIOS     = "ios"
	PlatformAndroid = "android"
)

// PushToken is a device the app registered for dose and refill reminders.
// Token is unique across accounts: a shared phone that logs into another
// account moves its token with it.
type PushToken struct {
	ID        primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	UserID    string             `json:"userId" bson:"userId"`
	Token     string             `json:"token" bson:"token"`
	Platform  string             `json:"platform" bson:"platform"`
	CreatedAt primitive.DateTime `json:"createdAt" bson:"createdAt"`
	UpdatedAt primitive.DateTime `json:"updatedAt" bson:"updatedAt"`
}

// KnownPlatform reports whether p is a platform reminders can be sent to
func KnownPlatform(p string) bool {
	return p == PlatformIOS || p == PlatformAndroid
}
