package databases

// go generate: mockery --name PrescriptionDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/medassist/medassist-api/models"
)

const prescriptionName = "prescriptions"

// PrescriptionDatabase contains the methods to use with the prescription database
type PrescriptionDatabase interface {
	FindByUser(ctx context.Context, userID string) ([]models.Prescription, error)
	FindByID(ctx context.Context, id string) (*models.Prescription, error)
	Insert(ctx context.Context, prescription *models.Prescription) error
	Update(ctx context.Context, prescription *models.Prescription) error
	Delete(ctx context.Context, prescription *models.Prescription) error
}

type prescriptionDatabase struct {
	db DatabaseHelper
}

// NewPrescriptionDatabase initializes a new instance of prescription database with the provided db connection
func NewPrescriptionDatabase(db DatabaseHelper) PrescriptionDatabase {
	return &prescriptionDatabase{
		db: db,
	}
}

func (p *prescriptionDatabase) FindByUser(ctx context.Context, userID string) ([]models.Prescription, error) {
	opts := options.Find().SetSort(bson.M{"timestamp": -1})
	cur, err := p.db.Collection(prescriptionName).Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, storageError("find prescriptions", err)
	}
	prescriptions := []models.Prescription{}
	if err := cur.Decode(&prescriptions); err != nil {
		return nil, storageError("decode prescriptions", err)
	}
	return prescriptions, nil
}

func (p *prescriptionDatabase) FindByID(ctx context.Context, id string) (*models.Prescription, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, models.ErrNotFound
	}

	prescription := &models.Prescription{}
	err = p.db.Collection(prescriptionName).FindOne(ctx, bson.M{"_id": objectID}).Decode(prescription)
	if err != nil {
		return nil, findOneError("find prescription", err)
	}
	return prescription, nil
}

func (p *prescriptionDatabase) Insert(ctx context.Context, prescription *models.Prescription) error {
	if prescription.ID.IsZero() {
		prescription.ID = primitive.NewObjectID()
	}
	_, err := p.db.Collection(prescriptionName).InsertOne(ctx, prescription)
	if err != nil {
		return storageError("insert prescription", err)
	}
	return nil
}

// Update rewrites the title and notes. The image is immutable; attach a new
// prescription to replace it.
func (p *prescriptionDatabase) Update(ctx context.Context, prescription *models.Prescription) error {
	filter := bson.M{"_id": prescription.ID, "userId": prescription.UserID}
	update := bson.M{"$set": bson.M{"title": prescription.Title, "notes": prescription.Notes}}

	res, err := p.db.Collection(prescriptionName).UpdateOne(ctx, filter, update)
	if err != nil {
		return storageError("update prescription", err)
	}
	if res.MatchedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (p *prescriptionDatabase) Delete(ctx context.Context, prescription *models.Prescription) error {
	deleted, err := p.db.Collection(prescriptionName).DeleteOne(ctx, bson.M{"_id": prescription.ID, "userId": prescription.UserID})
	if err != nil {
		return storageError("delete prescription", err)
	}
	if deleted == 0 {
		return models.ErrNotFound
	}
	return nil
}
