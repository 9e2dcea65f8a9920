package databases

// go generate: mockery --name UserDatabase

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/medassist/medassist-api/models"
)

const userName = "users"

// UserDatabase contains the methods to use with the user database
type UserDatabase interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	Insert(ctx context.Context, user *models.User) error
}

type userDatabase struct {
	db DatabaseHelper
}

// NewUserDatabase initializes a new instance of user database with the provided db connection
func NewUserDatabase(db DatabaseHelper) UserDatabase {
	return &userDatabase{
		db: db,
	}
}

func (u *userDatabase) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	user := &models.User{}
	err := u.db.Collection(userName).FindOne(ctx, bson.M{"email": normalizeEmail(email)}).Decode(user)
	if err != nil {
		return nil, findOneError("find user", err)
	}
	return user, nil
}

func (u *userDatabase) FindByID(ctx context.Context, id string) (*models.User, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, models.ErrNotFound
	}
	user := &models.User{}
	err = u.db.Collection(userName).FindOne(ctx, bson.M{"_id": objectID}).Decode(user)
	if err != nil {
		return nil, findOneError("find user", err)
	}
	return user, nil
}

// Insert stores a new user. A unique index on email turns a second
// registration into models.ErrConflict.
func (u *userDatabase) Insert(ctx context.Context, user *models.User) error {
	user.Email = normalizeEmail(user.Email)
	user.CreatedAt = primitive.NewDateTimeFromTime(time.Now())
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	_, err := u.db.Collection(userName).InsertOne(ctx, user)
	if mongo.IsDuplicateKeyError(err) {
		return models.ErrConflict
	}
	if err != nil {
		return storageError("insert user", err)
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
