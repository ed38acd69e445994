package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Media is one uploaded asset. A user id appears in at most one of
// Likes/Dislikes at any time; the engagement updates enforce that with a
// single $addToSet/$pull document update.
type Media struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID   primitive.ObjectID `bson:"userId" json:"userId"`
	URL      string             `bson:"url" json:"url"`
	PublicID string             `bson:"publicId" json:"-"`
	FileName string             `bson:"fileName" json:"fileName"`

	Likes    []primitive.ObjectID `bson:"likes" json:"-"`
	Dislikes []primitive.ObjectID `bson:"dislikes" json:"-"`
	Comments []Comment            `bson:"comments" json:"comments"`

	CreatedAt int64 `bson:"createdAt" json:"createdAt"`
}

type Comment struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	UserID    primitive.ObjectID `bson:"userId" json:"userId"`
	Text      string             `bson:"text" json:"text"`
	MediaURL  string             `bson:"mediaUrl,omitempty" json:"mediaUrl,omitempty"`
	CreatedAt int64              `bson:"createdAt" json:"createdAt"`
}
