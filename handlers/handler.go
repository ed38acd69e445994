package handlers

import (
	"context"
	"net/http"

	"pixels/ads"
	"pixels/database"
	"pixels/feed"
	"pixels/mailer"
	"pixels/middleware"
	"pixels/models"
	"pixels/push"
	"pixels/realtime"
	"pixels/storage"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const fallbackAvatar = "https://upload.wikimedia.org/wikipedia/commons/8/89/Portrait_Placeholder.png"

// Handler carries every dependency the HTTP endpoints need. All of them
// are constructed in main and injected here.
type Handler struct {
	DB       *database.Mongo
	Auth     *middleware.Auth
	Ads      *ads.Service
	Feed     *feed.Service
	Realtime *realtime.Manager
	Push     *push.Service
	Mailer   *mailer.Mailer
	Storage  *storage.Cloudinary
	Log      *zap.SugaredLogger
}

func New(db *database.Mongo, auth *middleware.Auth, adSvc *ads.Service, feedSvc *feed.Service,
	rt *realtime.Manager, pushSvc *push.Service, mail *mailer.Mailer, store *storage.Cloudinary,
	log *zap.SugaredLogger) *Handler {
	return &Handler{
		DB:       db,
		Auth:     auth,
		Ads:      adSvc,
		Feed:     feedSvc,
		Realtime: rt,
		Push:     pushSvc,
		Mailer:   mail,
		Storage:  store,
		Log:      log,
	}
}

// currentUserID resolves the authenticated user id set by the middleware.
// It writes the 401 itself so callers can just return.
func (h *Handler) currentUserID(c *gin.Context) (primitive.ObjectID, bool) {
	userID, err := primitive.ObjectIDFromHex(c.GetString("userId"))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid user ID"})
		return primitive.NilObjectID, false
	}
	return userID, true
}

// getUser loads one user document.
func (h *Handler) getUser(ctx context.Context, userID primitive.ObjectID) (models.User, error) {
	var user models.User
	err := h.DB.Users.FindOne(ctx, bson.M{"_id": userID}).Decode(&user)
	return user, err
}

// followersOf returns the hex ids of everyone following the given user.
// "Following" lives on the follower side, so this is a containment query.
func (h *Handler) followersOf(ctx context.Context, userID primitive.ObjectID) []string {
	cursor, err := h.DB.Users.Find(ctx, bson.M{"following": userID})
	if err != nil {
		h.Log.Warnw("follower lookup failed", "userId", userID.Hex(), "error", err)
		return nil
	}
	defer cursor.Close(ctx)

	var followers []models.User
	if err := cursor.All(ctx, &followers); err != nil {
		h.Log.Warnw("follower decode failed", "userId", userID.Hex(), "error", err)
		return nil
	}

	ids := make([]string, len(followers))
	for i, f := range followers {
		ids[i] = f.ID.Hex()
	}
	return ids
}

// requireVerifiedUser loads the user and rejects unverified accounts.
// Used by the legacy body-token endpoints that bypass the middleware.
func (h *Handler) requireVerifiedUser(c *gin.Context, ctx context.Context, userID primitive.ObjectID) (models.User, bool) {
	user, err := h.getUser(ctx, userID)
	if err == mongo.ErrNoDocuments {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found"})
		return models.User{}, false
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return models.User{}, false
	}
	if !user.IsVerified {
		c.JSON(http.StatusForbidden, gin.H{"error": "Veuillez vérifier votre email"})
		return models.User{}, false
	}
	return user, true
}
