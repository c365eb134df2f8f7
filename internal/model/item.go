package model

import "go.mongodb.org/mongo-driver/bson/primitive"

// Item is a dedup ledger entry for a listing that has already been processed.
// It is written once per upstream ItemID and never updated.
type Item struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	ItemID      string             `bson:"item_id" json:"item_id"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description" json:"description"`
	Price       float64            `bson:"price" json:"price"`
	Currency    string             `bson:"currency" json:"currency"`
	Size        string             `bson:"size" json:"size"`
	Brand       string             `bson:"brand" json:"brand"`
	URL         string             `bson:"url" json:"url"`
	ImageURL    string             `bson:"image_url" json:"image_url"`
	Seller      Seller             `bson:"seller" json:"seller"`
	CreatedAt   primitive.DateTime `bson:"created_at" json:"-"`
}

type Seller struct {
	SellerID string  `bson:"seller_id" json:"seller_id"`
	Username string  `bson:"username" json:"username"`
	Rating   float64 `bson:"rating" json:"rating"`
}
