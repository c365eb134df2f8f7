package database

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"vintedwatch/internal/model"
)

func (db Database) UserInsert(ctx context.Context, u model.User) (id string, err error) {
	u.Watches = []primitive.ObjectID{}
	u.CreatedAt = primitive.NewDateTimeFromTime(time.Now())
	u.LastActive = primitive.NewDateTimeFromTime(time.Now())

	r, err := db.Collection(CollectionUsers).InsertOne(ctx, u)
	if err != nil {
		return "", errors.Wrapf(err, "error inserting User with TelegramID: %s", u.TelegramID)
	}
	return r.InsertedID.(primitive.ObjectID).Hex(), nil
}

func (db Database) UserFind(ctx context.Context, userID primitive.ObjectID) (model.User, error) {
	var u model.User
	err := db.Collection(CollectionUsers).FindOne(ctx, bson.M{"_id": userID}).Decode(&u)
	return u, errors.Wrapf(err, "error finding User with ID: %s", userID.Hex())
}

func (db Database) UserFindByTelegramID(ctx context.Context, telegramID string) (model.User, error) {
	var u model.User
	err := db.Collection(CollectionUsers).FindOne(ctx, bson.M{"telegram_id": telegramID}).Decode(&u)
	return u, errors.Wrapf(err, "error finding User with TelegramID: %s", telegramID)
}

func (db Database) UsersCount(ctx context.Context) (int, error) {
	n, err := db.Collection(CollectionUsers).CountDocuments(ctx, bson.M{})
	return int(n), errors.Wrap(err, "error counting Users")
}

func (db Database) UserLastActiveUpdate(ctx context.Context, userID primitive.ObjectID) error {
	_, err := db.Collection(CollectionUsers).UpdateOne(
		ctx,
		bson.M{"_id": userID},
		bson.M{"$set": bson.M{"last_active": primitive.NewDateTimeFromTime(time.Now())}},
	)
	return errors.Wrapf(err, "error updating LastActive on User with ID: %s", userID.Hex())
}
