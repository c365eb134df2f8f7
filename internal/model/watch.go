package model

import "go.mongodb.org/mongo-driver/bson/primitive"

type Watch struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"watch_id"`
	UserID         primitive.ObjectID `bson:"user_id" json:"-"`
	URL            string             `bson:"url" json:"url"`
	Name           string             `bson:"name" json:"name"`
	Active         bool               `bson:"active" json:"active"`
	BannedKeywords []string           `bson:"banned_keywords" json:"banned_keywords"`
	LastChecked    primitive.DateTime `bson:"last_checked" json:"last_checked"`
	LastItem       string             `bson:"last_item" json:"last_item"`
	CreatedAt      primitive.DateTime `bson:"created_at" json:"-"`
	UpdatedAt      primitive.DateTime `bson:"updated_at" json:"-"`
}
