package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AsNeededSlot is the scheduled-time label recorded for doses of "As needed"
// medications.
const AsNeededSlot = "as-needed"

// DoseHistory holds the structure for the dosehistories collection in mongo
type DoseHistory struct {
	ID            primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	UserID        string             `json:"userId" bson:"userId"`
	MedicationID  string             `json:"medicationId" bson:"medicationId"`
	Timestamp     time.Time          `json:"timestamp" bson:"timestamp"`
	Taken         bool               `json:"taken" bson:"taken"`
	ScheduledTime string             `json:"scheduledTime,omitempty" bson:"scheduledTime,omitempty"`
	CreatedAt     primitive.DateTime `json:"createdAt" bson:"createdAt"`
	UpdatedAt     primitive.DateTime `json:"updatedAt" bson:"updatedAt"`
}

// DoseInput is the request body for recording or correcting a dose.
type DoseInput struct {
	MedicationID  string  `json:"medicationId"`
	Timestamp     string  `json:"timestamp"`
	Taken         *bool   `json:"taken"`
	ScheduledTime *string `json:"scheduledTime"`
}
