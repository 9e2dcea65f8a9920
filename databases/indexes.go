package databases

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type collectionIndex struct {
	collection string
	model      mongo.IndexModel
}

var indexes = []collectionIndex{
	{userName, mongo.IndexModel{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)}},
	{medicationName, mongo.IndexModel{Keys: bson.D{{Key: "userId", Value: 1}}}},
	{doseHistoryName, mongo.IndexModel{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "timestamp", Value: -1}}}},
	{doseHistoryName, mongo.IndexModel{Keys: bson.D{{Key: "medicationId", Value: 1}, {Key: "timestamp", Value: -1}}}},
	{prescriptionName, mongo.IndexModel{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "timestamp", Value: -1}}}},
	{pushTokenCollectionName, mongo.IndexModel{Keys: bson.D{{Key: "token", Value: 1}}, Options: options.Index().SetUnique(true)}},
}

// EnsureIndexes creates the indexes the stores rely on. Creating an index
// that already exists is a no-op on the server.
func EnsureIndexes(ctx context.Context, db DatabaseHelper) error {
	for _, idx := range indexes {
		if err := db.Collection(idx.collection).CreateIndex(ctx, idx.model); err != nil {
			return fmt.Errorf("create index on %s: %w", idx.collection, err)
		}
	}
	return nil
}
