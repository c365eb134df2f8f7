package database

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"vintedwatch/internal/model"
)

// ItemInsert writes a ledger entry for a processed listing. Entries are
// immutable once created; a duplicate ItemID is surfaced as a driver error so
// callers can treat the item as already seen.
func (db Database) ItemInsert(ctx context.Context, i model.Item) error {
	i.CreatedAt = primitive.NewDateTimeFromTime(time.Now())
	_, err := db.Collection(CollectionItems).InsertOne(ctx, i)
	return errors.Wrapf(err, "error inserting Item with ItemID: %s", i.ItemID)
}

func (db Database) ItemExists(ctx context.Context, itemID string) (bool, error) {
	n, err := db.Collection(CollectionItems).CountDocuments(ctx, bson.M{"item_id": itemID})
	if err != nil {
		return false, errors.Wrapf(err, "error counting Items with ItemID: %s", itemID)
	}
	return n > 0, nil
}

func (db Database) ItemFindByItemID(ctx context.Context, itemID string) (model.Item, error) {
	var i model.Item
	err := db.Collection(CollectionItems).FindOne(ctx, bson.M{"item_id": itemID}).Decode(&i)
	return i, errors.Wrapf(err, "error finding Item with ItemID: %s", itemID)
}
