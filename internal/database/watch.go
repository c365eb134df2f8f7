package database

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"vintedwatch/internal/model"
)

var ErrWatchLimitReached = errors.New("watch limit reached")

// WatchInsert creates the watch and attaches it to the owner's watch list.
// Non-admin owners are capped at their MaxWatches.
func (db Database) WatchInsert(ctx context.Context, w model.Watch) (id string, err error) {
	u, err := db.UserFind(ctx, w.UserID)
	if err != nil {
		return "", err
	}
	if len(u.Watches) >= u.MaxWatches && !u.IsAdmin {
		return "", ErrWatchLimitReached
	}

	w.Active = true
	w.CreatedAt = primitive.NewDateTimeFromTime(time.Now())
	w.UpdatedAt = primitive.NewDateTimeFromTime(time.Now())

	r, err := db.Collection(CollectionWatches).InsertOne(ctx, w)
	if err != nil {
		return "", errors.Wrapf(err, "error inserting Watch: %+v", w)
	}
	watchID := r.InsertedID.(primitive.ObjectID)

	_, err = db.Collection(CollectionUsers).UpdateOne(
		ctx,
		bson.M{"_id": w.UserID},
		bson.M{"$push": bson.M{"watches": watchID}},
	)
	if err != nil {
		return "", errors.Wrapf(err, "error attaching Watch: %s to User: %s", watchID.Hex(), w.UserID.Hex())
	}
	return watchID.Hex(), nil
}

func (db Database) WatchFind(ctx context.Context, watchID primitive.ObjectID) (model.Watch, error) {
	var w model.Watch
	err := db.Collection(CollectionWatches).FindOne(ctx, bson.M{"_id": watchID}).Decode(&w)
	return w, errors.Wrapf(err, "error finding Watch with ID: %s", watchID.Hex())
}

func (db Database) WatchesFindByUserID(ctx context.Context, userID primitive.ObjectID) ([]model.Watch, error) {
	var ws []model.Watch
	cur, err := db.Collection(CollectionWatches).Find(ctx, bson.M{"user_id": userID})
	if err != nil {
		return nil, errors.Wrapf(err, "error getting cursor to find Watches for User: %s", userID.Hex())
	}
	if err = cur.All(ctx, &ws); err != nil {
		return nil, errors.Wrapf(err, "error getting Watches from cursor for User: %s", userID.Hex())
	}
	return ws, nil
}

// WatchesFindActive returns every watch eligible for scheduling. Watches with
// active=false are never returned.
func (db Database) WatchesFindActive(ctx context.Context) ([]model.Watch, error) {
	var ws []model.Watch
	cur, err := db.Collection(CollectionWatches).Find(ctx, bson.M{"active": true})
	if err != nil {
		return nil, errors.Wrap(err, "error getting cursor to find active Watches")
	}
	if err = cur.All(ctx, &ws); err != nil {
		return nil, errors.Wrap(err, "error getting active Watches from cursor")
	}
	return ws, nil
}

func (db Database) WatchesCount(ctx context.Context) (total int, active int, err error) {
	t, err := db.Collection(CollectionWatches).CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, 0, errors.Wrap(err, "error counting Watches")
	}
	a, err := db.Collection(CollectionWatches).CountDocuments(ctx, bson.M{"active": true})
	if err != nil {
		return 0, 0, errors.Wrap(err, "error counting active Watches")
	}
	return int(t), int(a), nil
}

// WatchUpdate sets the front-end mutable fields. Cursor state is owned by the
// orchestrator and has its own update paths below.
func (db Database) WatchUpdate(ctx context.Context, watchID primitive.ObjectID, name string, url string, active bool, bannedKeywords []string) error {
	if bannedKeywords == nil {
		bannedKeywords = []string{}
	}
	res, err := db.Collection(CollectionWatches).UpdateOne(
		ctx,
		bson.M{"_id": watchID},
		bson.M{"$set": bson.M{
			"name":            name,
			"url":             url,
			"active":          active,
			"banned_keywords": bannedKeywords,
			"updated_at":      primitive.NewDateTimeFromTime(time.Now()),
		}},
	)
	if err != nil {
		return errors.Wrapf(err, "error updating Watch with ID: %s", watchID.Hex())
	}
	if res.MatchedCount == 0 {
		return errors.Wrapf(mongo.ErrNoDocuments, "no Watch found with ID: %s", watchID.Hex())
	}
	return nil
}

func (db Database) WatchLastItemUpdate(ctx context.Context, watchID primitive.ObjectID, lastItem string) error {
	_, err := db.Collection(CollectionWatches).UpdateOne(
		ctx,
		bson.M{"_id": watchID},
		bson.M{"$set": bson.M{
			"last_item":  lastItem,
			"updated_at": primitive.NewDateTimeFromTime(time.Now()),
		}},
	)
	return errors.Wrapf(err, "error updating LastItem on Watch with ID: %s", watchID.Hex())
}

func (db Database) WatchLastCheckedUpdate(ctx context.Context, watchID primitive.ObjectID, lastChecked time.Time) error {
	_, err := db.Collection(CollectionWatches).UpdateOne(
		ctx,
		bson.M{"_id": watchID},
		bson.M{"$set": bson.M{
			"last_checked": primitive.NewDateTimeFromTime(lastChecked),
			"updated_at":   primitive.NewDateTimeFromTime(time.Now()),
		}},
	)
	return errors.Wrapf(err, "error updating LastChecked on Watch with ID: %s", watchID.Hex())
}

// WatchDelete removes the watch and detaches it from the owner's watch list.
func (db Database) WatchDelete(ctx context.Context, watchID primitive.ObjectID) error {
	var w model.Watch
	err := db.Collection(CollectionWatches).FindOneAndDelete(ctx, bson.M{"_id": watchID}).Decode(&w)
	if err != nil {
		return errors.Wrapf(err, "error deleting Watch with ID: %s", watchID.Hex())
	}
	_, err = db.Collection(CollectionUsers).UpdateOne(
		ctx,
		bson.M{"_id": w.UserID},
		bson.M{"$pull": bson.M{"watches": watchID}},
	)
	return errors.Wrapf(err, "error detaching Watch: %s from User: %s", watchID.Hex(), w.UserID.Hex())
}
