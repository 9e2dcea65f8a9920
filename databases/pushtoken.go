package databases

// go generate: mockery --name PushTokenDatabase

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/medassist/medassist-api/models"
)

const pushTokenCollectionName = "pushtokens"

// PushTokenDatabase contains the methods to use with the push token database
type PushTokenDatabase interface {
	Upsert(ctx context.Context, token models.PushToken) error
	FindByUser(ctx context.Context, userID string) ([]models.PushToken, error)
	Delete(ctx context.Context, userID, token string) error
}

type pushTokenDatabase struct {
	db DatabaseHelper
}

// NewPushTokenDatabase initializes a new instance of push token database with the provided db connection
func NewPushTokenDatabase(db DatabaseHelper) PushTokenDatabase {
	return &pushTokenDatabase{
		db: db,
	}
}

// Upsert registers a device token. A token re-registered by another account
// (shared device) moves to that account.
func (pt *pushTokenDatabase) Upsert(ctx context.Context, token models.PushToken) error {
	now := primitive.NewDateTimeFromTime(time.Now())
	update := bson.M{
		"$set": bson.M{
			"userId":    token.UserID,
			"platform":  token.Platform,
			"updatedAt": now,
		},
		"$setOnInsert": bson.M{"createdAt": now},
	}
	_, err := pt.db.Collection(pushTokenCollectionName).UpdateOne(ctx, bson.M{"token": token.Token}, update, options.Update().SetUpsert(true))
	if err != nil {
		return storageError("upsert push token", err)
	}
	return nil
}

func (pt *pushTokenDatabase) FindByUser(ctx context.Context, userID string) ([]models.PushToken, error) {
	cur, err := pt.db.Collection(pushTokenCollectionName).Find(ctx, bson.M{"userId": userID})
	if err != nil {
		return nil, storageError("find push tokens", err)
	}
	tokens := []models.PushToken{}
	if err := cur.Decode(&tokens); err != nil {
		return nil, storageError("decode push tokens", err)
	}
	return tokens, nil
}

func (pt *pushTokenDatabase) Delete(ctx context.Context, userID, token string) error {
	deleted, err := pt.db.Collection(pushTokenCollectionName).DeleteOne(ctx, bson.M{"userId": userID, "token": token})
	if err != nil {
		return storageError("delete push token", err)
	}
	if deleted == 0 {
		return models.ErrNotFound
	}
	return nil
}
