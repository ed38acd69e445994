package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Ad is an advertiser-funded creative. Invariant:
// 0 <= RemainingBudget <= AmountCFA, and RemainingBudget only moves down.
type Ad struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OwnerID         primitive.ObjectID `bson:"ownerId" json:"ownerId"`
	URL             string             `bson:"url" json:"url"`
	AmountCFA       int64              `bson:"amountCFA" json:"amountCFA"`
	RemainingBudget int64              `bson:"remainingBudget" json:"remainingBudget"`
	Views           int64              `bson:"views" json:"views"`
	Interactions    int64              `bson:"interactions" json:"interactions"`
	CreatedAt       int64              `bson:"createdAt" json:"createdAt"`
}

// Interaction is an append-only audit record of one accepted reward
// event. Rows are never mutated or deleted.
type Interaction struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID         primitive.ObjectID `bson:"userId" json:"userId"`
	AdID           primitive.ObjectID `bson:"adId" json:"adId"`
	Type           string             `bson:"type" json:"type"`
	Reward         int64              `bson:"reward" json:"reward"`
	IdempotencyKey string             `bson:"idempotencyKey" json:"-"`
	CreatedAt      int64              `bson:"createdAt" json:"createdAt"`
}
