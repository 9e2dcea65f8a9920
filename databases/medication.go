package databases

// go generate: mockery --name MedicationDatabase

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/medassist/medassist-api/models"
)

const medicationName = "medications"

// MedicationDatabase contains the methods to use with the medication database
type MedicationDatabase interface {
	FindByUser(ctx context.Context, userID string) ([]models.Medication, error)
	FindByID(ctx context.Context, id string) (*models.Medication, error)
	FindReminderCandidates(ctx context.Context) ([]models.Medication, error)
	FindRefillCandidates(ctx context.Context) ([]models.Medication, error)
	Insert(ctx context.Context, medication *models.Medication) error
	Update(ctx context.Context, medication *models.Medication) error
	Delete(ctx context.Context, medication *models.Medication) error
}

type medicationDatabase struct {
	db DatabaseHelper
}

// NewMedicationDatabase initializes a new instance of medication database with the provided db connection
func NewMedicationDatabase(db DatabaseHelper) MedicationDatabase {
	return &medicationDatabase{
		db: db,
	}
}

func (m *medicationDatabase) FindByUser(ctx context.Context, userID string) ([]models.Medication, error) {
	return m.find(ctx, bson.M{"userId": userID}, options.Find().SetSort(bson.M{"createdAt": 1}))
}

func (m *medicationDatabase) FindByID(ctx context.Context, id string) (*models.Medication, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, models.ErrNotFound
	}

	medication := &models.Medication{}
	err = m.db.Collection(medicationName).FindOne(ctx, bson.M{"_id": objectID}).Decode(medication)
	if err != nil {
		return nil, findOneError("find medication", err)
	}
	return medication, nil
}

// FindReminderCandidates returns every medication with reminders switched on.
// Whether a medication is due is decided by the scheduler in the
// medication's own timezone.
func (m *medicationDatabase) FindReminderCandidates(ctx context.Context) ([]models.Medication, error) {
	return m.find(ctx, bson.M{"reminderEnabled": true})
}

// FindRefillCandidates returns medications with refill reminders whose
// supply has dropped to the refill threshold.
func (m *medicationDatabase) FindRefillCandidates(ctx context.Context) ([]models.Medication, error) {
	filter := bson.M{
		"refillReminder": true,
		"totalSupply":    bson.M{"$gt": 0},
		"$expr":          bson.M{"$lte": bson.A{"$currentSupply", "$refillAt"}},
	}
	return m.find(ctx, filter)
}

func (m *medicationDatabase) Insert(ctx context.Context, medication *models.Medication) error {
	now := primitive.NewDateTimeFromTime(time.Now())
	medication.CreatedAt = now
	medication.UpdatedAt = now
	if medication.ID.IsZero() {
		medication.ID = primitive.NewObjectID()
	}

	_, err := m.db.Collection(medicationName).InsertOne(ctx, medication)
	if err != nil {
		return storageError("insert medication", err)
	}
	return nil
}

// Update overwrites the mutable fields of a medication. The filter includes
// the owner so a record can never be moved to another user.
func (m *medicationDatabase) Update(ctx context.Context, medication *models.Medication) error {
	medication.UpdatedAt = primitive.NewDateTimeFromTime(time.Now())

	filter := bson.M{"_id": medication.ID, "userId": medication.UserID}
	update := bson.M{
		"$set": bson.M{
			"name":            medication.Name,
			"dosage":          medication.Dosage,
			"times":           medication.Times,
			"frequency":       medication.Frequency,
			"startDate":       medication.StartDate,
			"duration":        medication.Duration,
			"color":           medication.Color,
			"reminderEnabled": medication.ReminderEnabled,
			"currentSupply":   medication.CurrentSupply,
			"totalSupply":     medication.TotalSupply,
			"refillAt":        medication.RefillAt,
			"refillReminder":  medication.RefillReminder,
			"lastRefillDate":  medication.LastRefillDate,
			"timezone":        medication.Timezone,
			"notes":           medication.Notes,
			"updatedAt":       medication.UpdatedAt,
		},
	}

	res, err := m.db.Collection(medicationName).UpdateOne(ctx, filter, update)
	if err != nil {
		return storageError("update medication", err)
	}
	if res.MatchedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (m *medicationDatabase) Delete(ctx context.Context, medication *models.Medication) error {
	deleted, err := m.db.Collection(medicationName).DeleteOne(ctx, bson.M{"_id": medication.ID, "userId": medication.UserID})
	if err != nil {
		return storageError("delete medication", err)
	}
	if deleted == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (m *medicationDatabase) find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Medication, error) {
	cur, err := m.db.Collection(medicationName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, storageError("find medications", err)
	}
	medications := []models.Medication{}
	if err := cur.Decode(&medications); err != nil {
		return nil, storageError("decode medications", err)
	}
	return medications, nil
}
