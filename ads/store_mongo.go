package ads

import (
	"context"

	"pixels/database"
	"pixels/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore persists ads, interactions and earnings in MongoDB. The
// budget guard rides on a conditional update, so two concurrent
// interactions against the same ad can never overdraw it.
type MongoStore struct {
	db *database.Mongo
}

func NewMongoStore(db *database.Mongo) *MongoStore {
	return &MongoStore{db: db}
}

func (s *MongoStore) CreateAd(ctx context.Context, ad models.Ad) (models.Ad, error) {
	_, err := s.db.Ads.InsertOne(ctx, ad)
	return ad, err
}

func (s *MongoStore) GetAd(ctx context.Context, adID primitive.ObjectID) (models.Ad, error) {
	var ad models.Ad
	err := s.db.Ads.FindOne(ctx, bson.M{"_id": adID}).Decode(&ad)
	if err == mongo.ErrNoDocuments {
		return models.Ad{}, ErrNotFound
	}
	return ad, err
}

func (s *MongoStore) ListActiveAds(ctx context.Context) ([]models.Ad, error) {
	cursor, err := s.db.Ads.Find(ctx,
		bson.M{"remainingBudget": bson.M{"$gt": 0}},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}),
	)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var ads []models.Ad
	if err := cursor.All(ctx, &ads); err != nil {
		return nil, err
	}
	return ads, nil
}

func (s *MongoStore) ListAdsByOwner(ctx context.Context, ownerID primitive.ObjectID) ([]models.Ad, error) {
	cursor, err := s.db.Ads.Find(ctx,
		bson.M{"ownerId": ownerID},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}),
	)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var ads []models.Ad
	if err := cursor.All(ctx, &ads); err != nil {
		return nil, err
	}
	return ads, nil
}

func (s *MongoStore) DeleteAd(ctx context.Context, adID, ownerID primitive.ObjectID) error {
	result, err := s.db.Ads.DeleteOne(ctx, bson.M{"_id": adID, "ownerId": ownerID})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) BumpViews(ctx context.Context, adIDs []primitive.ObjectID) error {
	_, err := s.db.Ads.UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": adIDs}},
		bson.M{"$inc": bson.M{"views": 1}},
	)
	return err
}

func (s *MongoStore) DebitBudget(ctx context.Context, adID primitive.ObjectID, reward int64) (models.Ad, error) {
	var ad models.Ad
	err := s.db.Ads.FindOneAndUpdate(ctx,
		bson.M{"_id": adID, "remainingBudget": bson.M{"$gte": reward}},
		bson.M{"$inc": bson.M{"remainingBudget": -reward, "interactions": 1}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&ad)
	if err == mongo.ErrNoDocuments {
		// Distinguish a missing ad from one that cannot afford the reward.
		count, countErr := s.db.Ads.CountDocuments(ctx, bson.M{"_id": adID})
		if countErr == nil && count == 0 {
			return models.Ad{}, ErrNotFound
		}
		return models.Ad{}, ErrBudgetExhausted
	}
	return ad, err
}

func (s *MongoStore) CreditBudget(ctx context.Context, adID primitive.ObjectID, reward int64) error {
	_, err := s.db.Ads.UpdateOne(ctx,
		bson.M{"_id": adID},
		bson.M{"$inc": bson.M{"remainingBudget": reward, "interactions": -1}},
	)
	return err
}

func (s *MongoStore) InsertInteraction(ctx context.Context, in models.Interaction) error {
	_, err := s.db.Interactions.InsertOne(ctx, in)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicateInteraction
	}
	return err
}

func (s *MongoStore) DeleteInteraction(ctx context.Context, idempotencyKey string) error {
	_, err := s.db.Interactions.DeleteOne(ctx, bson.M{"idempotencyKey": idempotencyKey})
	return err
}

func (s *MongoStore) ListInteractionsByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Interaction, error) {
	cursor, err := s.db.Interactions.Find(ctx,
		bson.M{"userId": userID},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}),
	)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var interactions []models.Interaction
	if err := cursor.All(ctx, &interactions); err != nil {
		return nil, err
	}
	return interactions, nil
}

func (s *MongoStore) CreditEarnings(ctx context.Context, userID primitive.ObjectID, amount int64) error {
	result, err := s.db.Users.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$inc": bson.M{"earnings": amount}},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) GetEarnings(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	var user models.User
	err := s.db.Users.FindOne(ctx, bson.M{"_id": userID}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, err
	}
	return user.Earnings, nil
}
