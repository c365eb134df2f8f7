package model

import "go.mongodb.org/mongo-driver/bson/primitive"

type User struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty" json:"-"`
	TelegramID  string               `bson:"telegram_id" json:"telegram_id"`
	Username    string               `bson:"username" json:"username"`
	FirstName   string               `bson:"first_name" json:"first_name"`
	LastName    string               `bson:"last_name" json:"last_name"`
	Preferences Preferences          `bson:"preferences" json:"preferences"`
	Watches     []primitive.ObjectID `bson:"watches" json:"-"`
	MaxWatches  int                  `bson:"max_watches" json:"max_watches"`
	IsAdmin     bool                 `bson:"is_admin" json:"-"`
	CreatedAt   primitive.DateTime   `bson:"created_at" json:"-"`
	LastActive  primitive.DateTime   `bson:"last_active" json:"-"`
}

type Preferences struct {
	Language      string `bson:"language" json:"language"`
	Notifications bool   `bson:"notifications" json:"notifications"`
}
