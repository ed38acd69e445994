package models

import "go.mongodb.org/mongo-driver/bson/primitive"

type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email        string             `bson:"email" json:"email"`
	PasswordHash string             `bson:"passwordHash" json:"-"`
	Username     string             `bson:"username" json:"username"`
	Name         string             `bson:"name" json:"name"`
	Avatar       string             `bson:"avatar" json:"avatar"`
	Bio          string             `bson:"bio" json:"bio"`
	Phone        string             `bson:"phone,omitempty" json:"phone,omitempty"`

	Following []primitive.ObjectID `bson:"following" json:"following"`

	IsVerified          bool   `bson:"isVerified" json:"isVerified"`
	VerificationToken   string `bson:"verificationToken,omitempty" json:"-"`
	VerificationCode    string `bson:"verificationCode,omitempty" json:"-"`
	VerificationExpires int64  `bson:"verificationExpires,omitempty" json:"-"`

	// Earnings is the accumulated FCFA reward balance. Only the ad
	// interaction accounting mutates it.
	Earnings int64 `bson:"earnings" json:"earnings"`
	Warnings int   `bson:"warnings" json:"warnings"`

	CreatedAt int64 `bson:"createdAt" json:"createdAt"`
	LastSeen  int64 `bson:"lastSeen" json:"lastSeen"`
}
