package feed

import (
	"context"
	"time"

	"pixels/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Item is one feed entry: the media plus engagement annotations computed
// at read time for the requesting viewer. Counts and viewer state are
// never stored.
type Item struct {
	models.Media
	LikeCount    int  `json:"likes"`
	DislikeCount int  `json:"dislikes"`
	CommentCount int  `json:"commentCount"`
	LikedByMe    bool `json:"likedByMe"`
	DislikedByMe bool `json:"dislikedByMe"`
}

// Annotate computes the viewer-specific engagement view of a media.
func Annotate(m models.Media, viewerID primitive.ObjectID) Item {
	item := Item{
		Media:        m,
		LikeCount:    len(m.Likes),
		DislikeCount: len(m.Dislikes),
		CommentCount: len(m.Comments),
	}
	for _, id := range m.Likes {
		if id == viewerID {
			item.LikedByMe = true
			break
		}
	}
	for _, id := range m.Dislikes {
		if id == viewerID {
			item.DislikedByMe = true
			break
		}
	}
	return item
}

// Service owns the media feed and engagement operations.
type Service struct {
	store Store
	log   *zap.SugaredLogger
}

func New(store Store, log *zap.SugaredLogger) *Service {
	return &Service{store: store, log: log}
}

func (s *Service) Upload(ctx context.Context, ownerID primitive.ObjectID, url, publicID, fileName string) (models.Media, error) {
	m := models.Media{
		ID:        primitive.NewObjectID(),
		UserID:    ownerID,
		URL:       url,
		PublicID:  publicID,
		FileName:  fileName,
		Likes:     []primitive.ObjectID{},
		Dislikes:  []primitive.ObjectID{},
		Comments:  []models.Comment{},
		CreatedAt: time.Now().Unix(),
	}
	return s.store.CreateMedia(ctx, m)
}

// Feed returns the media of everyone the viewer follows, newest first,
// annotated for the viewer.
func (s *Service) Feed(ctx context.Context, viewerID primitive.ObjectID) ([]Item, error) {
	following, err := s.store.GetFollowing(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	if len(following) == 0 {
		return []Item{}, nil
	}

	media, err := s.store.ListByOwners(ctx, following)
	if err != nil {
		return nil, err
	}

	items := make([]Item, len(media))
	for i, m := range media {
		items[i] = Annotate(m, viewerID)
	}
	return items, nil
}

func (s *Service) Get(ctx context.Context, mediaID primitive.ObjectID) (models.Media, error) {
	return s.store.GetMedia(ctx, mediaID)
}

func (s *Service) Like(ctx context.Context, mediaID, userID primitive.ObjectID) (Item, error) {
	m, err := s.store.Like(ctx, mediaID, userID)
	if err != nil {
		return Item{}, err
	}
	return Annotate(m, userID), nil
}

func (s *Service) Unlike(ctx context.Context, mediaID, userID primitive.ObjectID) (Item, error) {
	m, err := s.store.Unlike(ctx, mediaID, userID)
	if err != nil {
		return Item{}, err
	}
	return Annotate(m, userID), nil
}

func (s *Service) Dislike(ctx context.Context, mediaID, userID primitive.ObjectID) (Item, error) {
	m, err := s.store.Dislike(ctx, mediaID, userID)
	if err != nil {
		return Item{}, err
	}
	return Annotate(m, userID), nil
}

func (s *Service) Undislike(ctx context.Context, mediaID, userID primitive.ObjectID) (Item, error) {
	m, err := s.store.Undislike(ctx, mediaID, userID)
	if err != nil {
		return Item{}, err
	}
	return Annotate(m, userID), nil
}

func (s *Service) AddComment(ctx context.Context, mediaID, authorID primitive.ObjectID, text, mediaURL string) (models.Comment, models.Media, error) {
	comment := models.Comment{
		ID:        primitive.NewObjectID(),
		UserID:    authorID,
		Text:      text,
		MediaURL:  mediaURL,
		CreatedAt: time.Now().Unix(),
	}
	m, err := s.store.AddComment(ctx, mediaID, comment)
	if err != nil {
		return models.Comment{}, models.Media{}, err
	}
	return comment, m, nil
}

func (s *Service) UpdateComment(ctx context.Context, mediaID, commentID, authorID primitive.ObjectID, text string) (models.Media, error) {
	return s.store.UpdateComment(ctx, mediaID, commentID, authorID, text)
}

func (s *Service) DeleteComment(ctx context.Context, mediaID, commentID, authorID primitive.ObjectID) (models.Media, error) {
	return s.store.DeleteComment(ctx, mediaID, commentID, authorID)
}

// Delete removes the media document and returns it so the caller can
// clean up the stored object as well.
func (s *Service) Delete(ctx context.Context, mediaID, ownerID primitive.ObjectID) (models.Media, error) {
	return s.store.DeleteMedia(ctx, mediaID, ownerID)
}
