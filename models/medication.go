package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Frequency labels offered by the add-medication form. Any other value is
// accepted and treated like a scheduled frequency.
const (
	FrequencyOnceDaily        = "Once daily"
	FrequencyTwiceDaily       = "Twice daily"
	FrequencyThreeTimesDaily  = "Three times daily"
	FrequencyFourTimesDaily   = "Four times daily"
	FrequencyAsNeeded         = "As needed"
	DurationOngoing           = "Ongoing"
	DefaultMedicationTimezone = "UTC"
)

// Medication holds the structure for the medications collection in mongo
type Medication struct {
	ID              primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	UserID          string             `json:"userId" bson:"userId"`
	Name            string             `json:"name" bson:"name"`
	Dosage          string             `json:"dosage" bson:"dosage"`
	Times           []string           `json:"times" bson:"times"`
	Frequency       string             `json:"frequency" bson:"frequency"`
	StartDate       string             `json:"startDate" bson:"startDate"`
	Duration        string             `json:"duration" bson:"duration"`
	Color           string             `json:"color" bson:"color"`
	ReminderEnabled bool               `json:"reminderEnabled" bson:"reminderEnabled"`
	CurrentSupply   int                `json:"currentSupply" bson:"currentSupply"`
	TotalSupply     int                `json:"totalSupply" bson:"totalSupply"`
	RefillAt        int                `json:"refillAt" bson:"refillAt"`
	RefillReminder  bool               `json:"refillReminder" bson:"refillReminder"`
	LastRefillDate  string             `json:"lastRefillDate,omitempty" bson:"lastRefillDate,omitempty"`
	Timezone        string             `json:"timezone" bson:"timezone"`
	Notes           string             `json:"notes,omitempty" bson:"notes,omitempty"`
	CreatedAt       primitive.DateTime `json:"createdAt" bson:"createdAt"`
	UpdatedAt       primitive.DateTime `json:"updatedAt" bson:"updatedAt"`
}

// MedicationInput is the request body accepted by the create and update
// medication endpoints. It carries no id or owner; both come from the server.
type MedicationInput struct {
	Name            string   `json:"name"`
	Dosage          string   `json:"dosage"`
	Times           []string `json:"times"`
	Frequency       string   `json:"frequency"`
	StartDate       string   `json:"startDate"`
	Duration        string   `json:"duration"`
	Color           string   `json:"color"`
	ReminderEnabled *bool    `json:"reminderEnabled"`
	CurrentSupply   int      `json:"currentSupply"`
	TotalSupply     int      `json:"totalSupply"`
	RefillAt        int      `json:"refillAt"`
	RefillReminder  bool     `json:"refillReminder"`
	LastRefillDate  string   `json:"lastRefillDate"`
	Timezone        string   `json:"timezone"`
	Notes           string   `json:"notes"`
}

// IsAsNeeded reports whether the medication is taken on demand rather than
// on a schedule.
func (m Medication) IsAsNeeded() bool {
	return m.Frequency == FrequencyAsNeeded
}

// NeedsRefill reports whether the remaining supply has reached the refill
// threshold.
func (m Medication) NeedsRefill() bool {
	return m.TotalSupply > 0 && m.CurrentSupply <= m.RefillAt
}
