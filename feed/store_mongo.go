package feed

import (
	"context"

	"pixels/database"
	"pixels/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore persists media in MongoDB. The like/dislike toggles ride on
// combined $addToSet/$pull updates, so the exclusivity invariant is
// enforced in a single document write.
type MongoStore struct {
	db *database.Mongo
}

func NewMongoStore(db *database.Mongo) *MongoStore {
	return &MongoStore{db: db}
}

func (s *MongoStore) CreateMedia(ctx context.Context, m models.Media) (models.Media, error) {
	_, err := s.db.Media.InsertOne(ctx, m)
	return m, err
}

func (s *MongoStore) GetMedia(ctx context.Context, mediaID primitive.ObjectID) (models.Media, error) {
	var m models.Media
	err := s.db.Media.FindOne(ctx, bson.M{"_id": mediaID}).Decode(&m)
	if err == mongo.ErrNoDocuments {
		return models.Media{}, ErrNotFound
	}
	return m, err
}

func (s *MongoStore) ListByOwners(ctx context.Context, ownerIDs []primitive.ObjectID) ([]models.Media, error) {
	cursor, err := s.db.Media.Find(ctx,
		bson.M{"userId": bson.M{"$in": ownerIDs}},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}),
	)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var media []models.Media
	if err := cursor.All(ctx, &media); err != nil {
		return nil, err
	}
	return media, nil
}

func (s *MongoStore) DeleteMedia(ctx context.Context, mediaID, ownerID primitive.ObjectID) (models.Media, error) {
	var m models.Media
	err := s.db.Media.FindOneAndDelete(ctx, bson.M{"_id": mediaID, "userId": ownerID}).Decode(&m)
	if err == mongo.ErrNoDocuments {
		// Distinguish a missing media from someone else's media.
		count, countErr := s.db.Media.CountDocuments(ctx, bson.M{"_id": mediaID})
		if countErr == nil && count > 0 {
			return models.Media{}, ErrForbidden
		}
		return models.Media{}, ErrNotFound
	}
	return m, err
}

func (s *MongoStore) toggle(ctx context.Context, mediaID primitive.ObjectID, update bson.M) (models.Media, error) {
	var m models.Media
	err := s.db.Media.FindOneAndUpdate(ctx,
		bson.M{"_id": mediaID},
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&m)
	if err == mongo.ErrNoDocuments {
		return models.Media{}, ErrNotFound
	}
	return m, err
}

func (s *MongoStore) Like(ctx context.Context, mediaID, userID primitive.ObjectID) (models.Media, error) {
	return s.toggle(ctx, mediaID, bson.M{
		"$addToSet": bson.M{"likes": userID},
		"$pull":     bson.M{"dislikes": userID},
	})
}

func (s *MongoStore) Unlike(ctx context.Context, mediaID, userID primitive.ObjectID) (models.Media, error) {
	return s.toggle(ctx, mediaID, bson.M{
		"$pull": bson.M{"likes": userID},
	})
}

func (s *MongoStore) Dislike(ctx context.Context, mediaID, userID primitive.ObjectID) (models.Media, error) {
	return s.toggle(ctx, mediaID, bson.M{
		"$addToSet": bson.M{"dislikes": userID},
		"$pull":     bson.M{"likes": userID},
	})
}

func (s *MongoStore) Undislike(ctx context.Context, mediaID, userID primitive.ObjectID) (models.Media, error) {
	return s.toggle(ctx, mediaID, bson.M{
		"$pull": bson.M{"dislikes": userID},
	})
}

func (s *MongoStore) AddComment(ctx context.Context, mediaID primitive.ObjectID, comment models.Comment) (models.Media, error) {
	return s.toggle(ctx, mediaID, bson.M{
		"$push": bson.M{"comments": comment},
	})
}

func (s *MongoStore) UpdateComment(ctx context.Context, mediaID, commentID, authorID primitive.ObjectID, text string) (models.Media, error) {
	var m models.Media
	err := s.db.Media.FindOneAndUpdate(ctx,
		bson.M{
			"_id":      mediaID,
			"comments": bson.M{"$elemMatch": bson.M{"_id": commentID, "userId": authorID}},
		},
		bson.M{"$set": bson.M{"comments.$.text": text}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&m)
	if err == mongo.ErrNoDocuments {
		return models.Media{}, s.commentFailure(ctx, mediaID, commentID)
	}
	return m, err
}

func (s *MongoStore) DeleteComment(ctx context.Context, mediaID, commentID, authorID primitive.ObjectID) (models.Media, error) {
	var m models.Media
	err := s.db.Media.FindOneAndUpdate(ctx,
		bson.M{
			"_id":      mediaID,
			"comments": bson.M{"$elemMatch": bson.M{"_id": commentID, "userId": authorID}},
		},
		bson.M{"$pull": bson.M{"comments": bson.M{"_id": commentID}}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&m)
	if err == mongo.ErrNoDocuments {
		return models.Media{}, s.commentFailure(ctx, mediaID, commentID)
	}
	return m, err
}

// commentFailure decides whether a guarded comment update missed because
// the comment does not exist or because the caller is not its author.
func (s *MongoStore) commentFailure(ctx context.Context, mediaID, commentID primitive.ObjectID) error {
	count, err := s.db.Media.CountDocuments(ctx, bson.M{
		"_id":          mediaID,
		"comments._id": commentID,
	})
	if err == nil && count > 0 {
		return ErrForbidden
	}
	return ErrNotFound
}

func (s *MongoStore) GetFollowing(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error) {
	var user models.User
	err := s.db.Users.FindOne(ctx, bson.M{"_id": userID}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return user.Following, nil
}
