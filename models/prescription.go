package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Prescription holds the structure for the prescriptions collection in mongo
type Prescription struct {
	ID            primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	UserID        string             `json:"userId" bson:"userId"`
	Title         string             `json:"title" bson:"title"`
	Notes         string             `json:"notes" bson:"notes"`
	ImageURL      string             `json:"imageUrl" bson:"imageUrl"`
	ImagePublicID string             `json:"imagePublicId,omitempty" bson:"imagePublicId,omitempty"`
	Timestamp     time.Time          `json:"timestamp" bson:"timestamp"`
}

// PrescriptionInput is the request body for attaching a prescription. The
// image is either an already hosted url or inline base64 data.
type PrescriptionInput struct {
	Title     string `json:"title"`
	Notes     string `json:"notes"`
	ImageURL  string `json:"imageUrl"`
	ImageData string `json:"imageData"`
	MimeType  string `json:"mimeType"`
}
