package databases

// go generate: mockery --name DoseHistoryDatabase

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/medassist/medassist-api/models"
)

const doseHistoryName = "dosehistories"

// DoseHistoryDatabase contains the methods to use with the dose history database
type DoseHistoryDatabase interface {
	FindByMedication(ctx context.Context, userID, medicationID string, limit, page int) ([]models.DoseHistory, error)
	FindByUserBetween(ctx context.Context, userID string, from, to time.Time) ([]models.DoseHistory, error)
	FindByID(ctx context.Context, id string) (*models.DoseHistory, error)
	Insert(ctx context.Context, dose *models.DoseHistory) error
	Update(ctx context.Context, dose *models.DoseHistory) error
}

type doseHistoryDatabase struct {
	db DatabaseHelper
}

// NewDoseHistoryDatabase initializes a new instance of dose history database with the provided db connection
func NewDoseHistoryDatabase(db DatabaseHelper) DoseHistoryDatabase {
	return &doseHistoryDatabase{
		db: db,
	}
}

// FindByMedication returns the caller's doses for one medication, newest
// first. A non-positive limit returns the full history.
func (d *doseHistoryDatabase) FindByMedication(ctx context.Context, userID, medicationID string, limit, page int) ([]models.DoseHistory, error) {
	opts := newMongoPaginate(limit, page).getPaginatedOpts()
	opts.SetSort(bson.M{"timestamp": -1})
	return d.find(ctx, bson.M{"userId": userID, "medicationId": medicationID}, opts)
}

// FindByUserBetween returns the caller's doses with a timestamp in [from, to).
func (d *doseHistoryDatabase) FindByUserBetween(ctx context.Context, userID string, from, to time.Time) ([]models.DoseHistory, error) {
	filter := bson.M{
		"userId":    userID,
		"timestamp": bson.M{"$gte": from, "$lt": to},
	}
	return d.find(ctx, filter, options.Find().SetSort(bson.M{"timestamp": 1}))
}

func (d *doseHistoryDatabase) FindByID(ctx context.Context, id string) (*models.DoseHistory, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, models.ErrNotFound
	}

	dose := &models.DoseHistory{}
	err = d.db.Collection(doseHistoryName).FindOne(ctx, bson.M{"_id": objectID}).Decode(dose)
	if err != nil {
		return nil, findOneError("find dose", err)
	}
	return dose, nil
}

// Insert appends a dose record. Duplicates are accepted.
func (d *doseHistoryDatabase) Insert(ctx context.Context, dose *models.DoseHistory) error {
	now := primitive.NewDateTimeFromTime(time.Now())
	dose.CreatedAt = now
	dose.UpdatedAt = now
	if dose.ID.IsZero() {
		dose.ID = primitive.NewObjectID()
	}

	_, err := d.db.Collection(doseHistoryName).InsertOne(ctx, dose)
	if err != nil {
		return storageError("insert dose", err)
	}
	return nil
}

func (d *doseHistoryDatabase) Update(ctx context.Context, dose *models.DoseHistory) error {
	dose.UpdatedAt = primitive.NewDateTimeFromTime(time.Now())

	filter := bson.M{"_id": dose.ID, "userId": dose.UserID}
	update := bson.M{
		"$set": bson.M{
			"medicationId":  dose.MedicationID,
			"timestamp":     dose.Timestamp,
			"taken":         dose.Taken,
			"scheduledTime": dose.ScheduledTime,
			"updatedAt":     dose.UpdatedAt,
		},
	}

	res, err := d.db.Collection(doseHistoryName).UpdateOne(ctx, filter, update)
	if err != nil {
		return storageError("update dose", err)
	}
	if res.MatchedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (d *doseHistoryDatabase) find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.DoseHistory, error) {
	cur, err := d.db.Collection(doseHistoryName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, storageError("find doses", err)
	}
	doses := []models.DoseHistory{}
	if err := cur.Decode(&doses); err != nil {
		return nil, storageError("decode doses", err)
	}
	return doses, nil
}
