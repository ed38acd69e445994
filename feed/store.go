package feed

import (
	"context"
	"errors"

	"pixels/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrNotFound  = errors.New("media not found")
	ErrForbidden = errors.New("not the owner")
)

// Store is the persistence interface for media, engagement sets and
// comments. Every toggle is a single guarded document update so the
// "at most one of likes/dislikes" invariant holds without read-modify-
// write races.
type Store interface {
	CreateMedia(ctx context.Context, m models.Media) (models.Media, error)
	GetMedia(ctx context.Context, mediaID primitive.ObjectID) (models.Media, error)
	ListByOwners(ctx context.Context, ownerIDs []primitive.ObjectID) ([]models.Media, error)
	DeleteMedia(ctx context.Context, mediaID, ownerID primitive.ObjectID) (models.Media, error)

	// Like adds the user to likes and removes them from dislikes in one
	// update; Dislike is the mirror image. Unlike/Undislike only remove.
	// Each returns the media after the update.
	Like(ctx context.Context, mediaID, userID primitive.ObjectID) (models.Media, error)
	Unlike(ctx context.Context, mediaID, userID primitive.ObjectID) (models.Media, error)
	Dislike(ctx context.Context, mediaID, userID primitive.ObjectID) (models.Media, error)
	Undislike(ctx context.Context, mediaID, userID primitive.ObjectID) (models.Media, error)

	AddComment(ctx context.Context, mediaID primitive.ObjectID, comment models.Comment) (models.Media, error)
	UpdateComment(ctx context.Context, mediaID, commentID, authorID primitive.ObjectID, text string) (models.Media, error)
	DeleteComment(ctx context.Context, mediaID, commentID, authorID primitive.ObjectID) (models.Media, error)

	GetFollowing(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error)
}
