package handlers

import (
	"context"
	"net/http"
	"regexp"
	"time"

	"pixels/models"
	"pixels/realtime"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func publicProfile(u models.User) gin.H {
	avatar := u.Avatar
	if avatar == "" {
		avatar = fallbackAvatar
	}
	return gin.H{
		"id":        u.ID.Hex(),
		"username":  u.Username,
		"name":      u.Name,
		"avatar":    avatar,
		"bio":       u.Bio,
		"createdAt": u.CreatedAt,
	}
}

func (h *Handler) GetMyProfile(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	user, err := h.getUser(ctx, userID)
	if err == mongo.ErrNoDocuments {
		c.JSON(http.StatusNotFound, gin.H{"error": "Profile not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	following := make([]string, len(user.Following))
	for i, id := range user.Following {
		following[i] = id.Hex()
	}

	avatar := user.Avatar
	if avatar == "" {
		avatar = fallbackAvatar
	}

	c.JSON(http.StatusOK, gin.H{
		"id":         user.ID.Hex(),
		"email":      user.Email,
		"username":   user.Username,
		"name":       user.Name,
		"avatar":     avatar,
		"bio":        user.Bio,
		"phone":      user.Phone,
		"following":  following,
		"isVerified": user.IsVerified,
		"earnings":   user.Earnings,
		"warnings":   user.Warnings,
		"createdAt":  user.CreatedAt,
		"lastSeen":   user.LastSeen,
	})
}

type UpdateProfileRequest struct {
	Name     string `json:"name" form:"name"`
	Username string `json:"username" form:"username"`
	Bio      string `json:"bio" form:"bio"`
	Phone    string `json:"phone" form:"phone"`
}

func (h *Handler) UpdateMyProfile(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	var req UpdateProfileRequest
	if c.ContentType() == "application/json" {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON data"})
			return
		}
	} else {
		if err := c.Request.ParseMultipartForm(10 << 20); err != nil && err != http.ErrNotMultipart {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to parse form data"})
			return
		}
		if err := c.ShouldBind(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid form data"})
			return
		}
	}

	set := bson.M{}
	if req.Name != "" {
		set["name"] = req.Name
	}
	if req.Username != "" {
		set["username"] = req.Username
	}
	if req.Bio != "" {
		set["bio"] = req.Bio
	}
	if req.Phone != "" {
		set["phone"] = req.Phone
	}

	if avatarFile, _, err := c.Request.FormFile("avatar"); err == nil {
		defer avatarFile.Close()
		result, err := h.Storage.UploadAvatar(ctx, avatarFile, userID.Hex())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to upload avatar"})
			return
		}
		set["avatar"] = result.URL
	}

	if len(set) == 0 {
		c.JSON(http.StatusOK, gin.H{"message": "No changes to update"})
		return
	}

	result, err := h.DB.Users.UpdateOne(ctx, bson.M{"_id": userID}, bson.M{"$set": set})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update profile"})
		return
	}
	if result.MatchedCount == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Profile updated successfully"})
}

func (h *Handler) GetUser(c *gin.Context) {
	targetID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	user, err := h.getUser(ctx, targetID)
	if err == mongo.ErrNoDocuments {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, publicProfile(user))
}

// SearchUsers matches username or email prefixes, capped at 20 results.
func (h *Handler) SearchUsers(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Query parameter q is required"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	pattern := primitive.Regex{Pattern: "^" + regexp.QuoteMeta(query), Options: "i"}
	cursor, err := h.DB.Users.Find(ctx,
		bson.M{"$or": []bson.M{
			{"username": pattern},
			{"email": pattern},
		}},
		options.Find().SetLimit(20),
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Search failed"})
		return
	}
	defer cursor.Close(ctx)

	var users []models.User
	if err := cursor.All(ctx, &users); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode users"})
		return
	}

	results := make([]gin.H, len(users))
	for i, u := range users {
		results[i] = publicProfile(u)
	}
	c.JSON(http.StatusOK, results)
}

type FollowRequest struct {
	TargetUserID string `json:"targetUserId" binding:"required"`
}

func (h *Handler) Follow(c *gin.Context) {
	var req FollowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	targetID, err := primitive.ObjectIDFromHex(req.TargetUserID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid target user ID"})
		return
	}
	if userID == targetID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot follow yourself"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	target, err := h.getUser(ctx, targetID)
	if err == mongo.ErrNoDocuments {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	_, err = h.DB.Users.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$addToSet": bson.M{"following": targetID}},
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to follow"})
		return
	}

	follower, err := h.getUser(ctx, userID)
	if err != nil {
		follower = models.User{ID: userID}
	}

	h.Realtime.EmitToUsers([]string{targetID.Hex()}, realtime.EventFollowUpdate, gin.H{
		"followerId": userID.Hex(),
		"username":   follower.Username,
	})
	h.Push.Notify(targetID, "Nouvel abonné", follower.Username+" a commencé à vous suivre", "/profile/"+userID.Hex())

	c.JSON(http.StatusOK, gin.H{"message": "Following " + target.Username})
}

func (h *Handler) Unfollow(c *gin.Context) {
	var req FollowRequest
	targetHex := c.Query("targetUserId")
	if targetHex == "" {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "targetUserId is required"})
			return
		}
		targetHex = req.TargetUserID
	}

	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	targetID, err := primitive.ObjectIDFromHex(targetHex)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid target user ID"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	result, err := h.DB.Users.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$pull": bson.M{"following": targetID}},
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to unfollow"})
		return
	}
	if result.ModifiedCount == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not following this user"})
		return
	}

	h.Realtime.EmitToUsers([]string{targetID.Hex()}, realtime.EventUnfollowUpdate, gin.H{
		"followerId": userID.Hex(),
	})

	c.JSON(http.StatusOK, gin.H{"message": "Unfollowed"})
}
