package feed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func newTestService() (*Service, *MemoryStore) {
	store := NewMemoryStore()
	return New(store, zap.NewNop().Sugar()), store
}

func TestLikeDislikeExclusivity(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()
	owner := primitive.NewObjectID()
	viewer := primitive.NewObjectID()

	m, err := svc.Upload(ctx, owner, "https://cdn.example/cat.jpg", "pixels/cat", "cat.jpg")
	require.NoError(t, err)

	t.Run("Like", func(t *testing.T) {
		item, err := svc.Like(ctx, m.ID, viewer)
		require.NoError(t, err)
		assert.Equal(t, 1, item.LikeCount)
		assert.Zero(t, item.DislikeCount)
		assert.True(t, item.LikedByMe)
	})

	t.Run("LikeIsIdempotent", func(t *testing.T) {
		item, err := svc.Like(ctx, m.ID, viewer)
		require.NoError(t, err)
		assert.Equal(t, 1, item.LikeCount)
	})

	t.Run("DislikeMovesUserInOneStep", func(t *testing.T) {
		item, err := svc.Dislike(ctx, m.ID, viewer)
		require.NoError(t, err)
		assert.Zero(t, item.LikeCount)
		assert.Equal(t, 1, item.DislikeCount)
		assert.False(t, item.LikedByMe)
		assert.True(t, item.DislikedByMe)
	})

	t.Run("LikeMovesBack", func(t *testing.T) {
		item, err := svc.Like(ctx, m.ID, viewer)
		require.NoError(t, err)
		assert.Equal(t, 1, item.LikeCount)
		assert.Zero(t, item.DislikeCount)
	})

	t.Run("Unlike", func(t *testing.T) {
		item, err := svc.Unlike(ctx, m.ID, viewer)
		require.NoError(t, err)
		assert.Zero(t, item.LikeCount)
		assert.False(t, item.LikedByMe)
	})

	t.Run("UnknownMedia", func(t *testing.T) {
		_, err := svc.Like(ctx, primitive.NewObjectID(), viewer)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestFeedFilteringAndOrder(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService()

	viewer := primitive.NewObjectID()
	followed := primitive.NewObjectID()
	stranger := primitive.NewObjectID()
	store.SetFollowing(viewer, []primitive.ObjectID{followed})

	// Ensure distinct timestamps: overwrite CreatedAt directly.
	older, err := svc.Upload(ctx, followed, "https://cdn.example/a.jpg", "pixels/a", "a.jpg")
	require.NoError(t, err)
	older.CreatedAt = 100
	_, err = store.CreateMedia(ctx, older)
	require.NoError(t, err)

	newer, err := svc.Upload(ctx, followed, "https://cdn.example/b.jpg", "pixels/b", "b.jpg")
	require.NoError(t, err)
	newer.CreatedAt = 200
	_, err = store.CreateMedia(ctx, newer)
	require.NoError(t, err)

	noise, err := svc.Upload(ctx, stranger, "https://cdn.example/c.jpg", "pixels/c", "c.jpg")
	require.NoError(t, err)
	_ = noise

	items, err := svc.Feed(ctx, viewer)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, newer.ID, items[0].ID)
	assert.Equal(t, older.ID, items[1].ID)
	for _, item := range items {
		assert.Equal(t, followed, item.UserID)
	}
}

func TestFeedAnnotations(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService()

	viewer := primitive.NewObjectID()
	followed := primitive.NewObjectID()
	other := primitive.NewObjectID()
	store.SetFollowing(viewer, []primitive.ObjectID{followed})

	m, err := svc.Upload(ctx, followed, "https://cdn.example/a.jpg", "pixels/a", "a.jpg")
	require.NoError(t, err)

	_, err = svc.Like(ctx, m.ID, viewer)
	require.NoError(t, err)
	_, err = svc.Dislike(ctx, m.ID, other)
	require.NoError(t, err)
	_, _, err = svc.AddComment(ctx, m.ID, other, "nice shot", "")
	require.NoError(t, err)

	items, err := svc.Feed(ctx, viewer)
	require.NoError(t, err)
	require.Len(t, items, 1)

	item := items[0]
	assert.Equal(t, 1, item.LikeCount)
	assert.Equal(t, 1, item.DislikeCount)
	assert.Equal(t, 1, item.CommentCount)
	assert.True(t, item.LikedByMe)
	assert.False(t, item.DislikedByMe)
}

func TestFeedEmptyWhenFollowingNobody(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	items, err := svc.Feed(ctx, primitive.NewObjectID())
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestCommentOwnership(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()
	owner := primitive.NewObjectID()
	author := primitive.NewObjectID()
	stranger := primitive.NewObjectID()

	m, err := svc.Upload(ctx, owner, "https://cdn.example/a.jpg", "pixels/a", "a.jpg")
	require.NoError(t, err)

	comment, _, err := svc.AddComment(ctx, m.ID, author, "first", "")
	require.NoError(t, err)

	t.Run("AuthorCanEdit", func(t *testing.T) {
		updated, err := svc.UpdateComment(ctx, m.ID, comment.ID, author, "edited")
		require.NoError(t, err)
		require.Len(t, updated.Comments, 1)
		assert.Equal(t, "edited", updated.Comments[0].Text)
	})

	t.Run("StrangerCannotEdit", func(t *testing.T) {
		_, err := svc.UpdateComment(ctx, m.ID, comment.ID, stranger, "vandalism")
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("StrangerCannotDelete", func(t *testing.T) {
		_, err := svc.DeleteComment(ctx, m.ID, comment.ID, stranger)
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("AuthorCanDelete", func(t *testing.T) {
		updated, err := svc.DeleteComment(ctx, m.ID, comment.ID, author)
		require.NoError(t, err)
		assert.Empty(t, updated.Comments)
	})

	t.Run("DeleteTwiceIsNotFound", func(t *testing.T) {
		_, err := svc.DeleteComment(ctx, m.ID, comment.ID, author)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestDeleteMediaOwnerOnly(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()
	owner := primitive.NewObjectID()
	stranger := primitive.NewObjectID()

	m, err := svc.Upload(ctx, owner, "https://cdn.example/a.jpg", "pixels/a", "a.jpg")
	require.NoError(t, err)

	_, err = svc.Delete(ctx, m.ID, stranger)
	assert.ErrorIs(t, err, ErrForbidden)

	deleted, err := svc.Delete(ctx, m.ID, owner)
	require.NoError(t, err)
	assert.Equal(t, "pixels/a", deleted.PublicID)

	_, err = svc.Get(ctx, m.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
