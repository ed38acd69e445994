package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"pixels/feed"
	"pixels/realtime"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func (h *Handler) UploadMedia(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	if err := c.Request.ParseMultipartForm(25 << 20); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to parse form data"})
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		file, header, err = c.Request.FormFile("media")
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No media file provided"})
		return
	}
	defer file.Close()

	uploaded, err := h.Storage.UploadMedia(ctx, file, userID.Hex())
	if err != nil {
		h.Log.Errorw("media upload failed", "userId", userID.Hex(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to upload media"})
		return
	}

	media, err := h.Feed.Upload(ctx, userID, uploaded.URL, uploaded.PublicID, header.Filename)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save media"})
		return
	}

	h.Realtime.EmitToUsers(h.followersOf(ctx, userID), realtime.EventNewMedia, media)

	c.JSON(http.StatusCreated, gin.H{
		"message": "Media uploaded",
		"media":   media,
	})
}

func (h *Handler) GetFeed(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	items, err := h.Feed.Feed(ctx, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch feed"})
		return
	}

	c.JSON(http.StatusOK, items)
}

// engagement runs one like/dislike toggle and emits its event to the
// media owner and the actor.
func (h *Handler) engagement(c *gin.Context, event string,
	op func(ctx context.Context, mediaID, userID primitive.ObjectID) (feed.Item, error)) {

	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	mediaID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid media ID"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	item, err := op(ctx, mediaID, userID)
	if errors.Is(err, feed.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Media not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update media"})
		return
	}

	h.Realtime.EmitToUsers([]string{item.UserID.Hex(), userID.Hex()}, event, gin.H{
		"mediaId":  mediaID.Hex(),
		"userId":   userID.Hex(),
		"likes":    item.LikeCount,
		"dislikes": item.DislikeCount,
	})

	c.JSON(http.StatusOK, item)
}

func (h *Handler) Like(c *gin.Context) {
	h.engagement(c, realtime.EventLikeUpdate, h.Feed.Like)
}

func (h *Handler) Unlike(c *gin.Context) {
	h.engagement(c, realtime.EventUnlikeUpdate, h.Feed.Unlike)
}

func (h *Handler) Dislike(c *gin.Context) {
	h.engagement(c, realtime.EventDislikeUpdate, h.Feed.Dislike)
}

func (h *Handler) Undislike(c *gin.Context) {
	h.engagement(c, realtime.EventUndislike, h.Feed.Undislike)
}

type CommentRequest struct {
	Text     string `json:"text"`
	MediaURL string `json:"mediaUrl"`
}

func (h *Handler) CreateComment(c *gin.Context) {
	var req CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Text == "" && req.MediaURL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Comment needs text or media"})
		return
	}

	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	mediaID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid media ID"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	comment, media, err := h.Feed.AddComment(ctx, mediaID, userID, req.Text, req.MediaURL)
	if errors.Is(err, feed.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Media not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add comment"})
		return
	}

	h.Realtime.EmitToUsers([]string{media.UserID.Hex(), userID.Hex()}, realtime.EventCommentUpdate, gin.H{
		"mediaId": mediaID.Hex(),
		"comment": comment,
	})
	if media.UserID != userID {
		h.Push.Notify(media.UserID, "Nouveau commentaire", "Quelqu'un a commenté votre média", "/media/"+mediaID.Hex())
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Comment added",
		"comment": comment,
	})
}

type UpdateCommentRequest struct {
	Text string `json:"text" binding:"required"`
}

func (h *Handler) UpdateComment(c *gin.Context) {
	var req UpdateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	mediaID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid media ID"})
		return
	}
	commentID, err := primitive.ObjectIDFromHex(c.Param("commentId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid comment ID"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	media, err := h.Feed.UpdateComment(ctx, mediaID, commentID, userID, req.Text)
	if errors.Is(err, feed.ErrForbidden) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not your comment"})
		return
	}
	if errors.Is(err, feed.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Comment not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update comment"})
		return
	}

	h.Realtime.EmitToUsers([]string{media.UserID.Hex(), userID.Hex()}, realtime.EventCommentUpdate, gin.H{
		"mediaId":   mediaID.Hex(),
		"commentId": commentID.Hex(),
		"text":      req.Text,
	})

	c.JSON(http.StatusOK, gin.H{"message": "Comment updated"})
}

func (h *Handler) DeleteComment(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	mediaID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid media ID"})
		return
	}
	commentID, err := primitive.ObjectIDFromHex(c.Param("commentId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid comment ID"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	media, err := h.Feed.DeleteComment(ctx, mediaID, commentID, userID)
	if errors.Is(err, feed.ErrForbidden) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not your comment"})
		return
	}
	if errors.Is(err, feed.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Comment not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete comment"})
		return
	}

	h.Realtime.EmitToUsers([]string{media.UserID.Hex(), userID.Hex()}, realtime.EventCommentDeleted, gin.H{
		"mediaId":   mediaID.Hex(),
		"commentId": commentID.Hex(),
	})

	c.JSON(http.StatusOK, gin.H{"message": "Comment deleted"})
}

func (h *Handler) DeleteMedia(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	mediaID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid media ID"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	deleted, err := h.Feed.Delete(ctx, mediaID, userID)
	if errors.Is(err, feed.ErrForbidden) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not your media"})
		return
	}
	if errors.Is(err, feed.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Media not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete media"})
		return
	}

	// The stored object goes too; an orphaned upload is a leak.
	if err := h.Storage.Destroy(ctx, deleted.PublicID); err != nil {
		h.Log.Warnw("stored object cleanup failed", "publicId", deleted.PublicID, "error", err)
	}

	recipients := append(h.followersOf(ctx, userID), userID.Hex())
	h.Realtime.EmitToUsers(recipients, realtime.EventMediaDeleted, gin.H{
		"mediaId": mediaID.Hex(),
	})

	c.JSON(http.StatusOK, gin.H{"message": "Media deleted"})
}
